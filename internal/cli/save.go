package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSaveCmd() *cobra.Command {
	var slot int
	var data string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write JSON save data into a slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(data)) {
				return fmt.Errorf("--data must be valid JSON")
			}

			req := map[string]any{
				"slot": slot,
				"data": json.RawMessage(data),
			}

			if err := client.Post("/utils/save", req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Saved to slot %d", slot))
			return nil
		},
	}

	cmd.Flags().IntVar(&slot, "slot", 1, "Save slot (1-3)")
	cmd.Flags().StringVar(&data, "data", "", "Save data as JSON (required)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load all save slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SaveData

			if err := client.Get("/utils/load", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
