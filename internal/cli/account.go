package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"username": user, "password": pass}
			var result AuthResult

			if err := client.Post("/register", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "username", "u", "", "Username (required)")
	cmd.Flags().StringVarP(&pass, "password", "p", "", "Password (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"username": user, "password": pass}
			var result AuthResult

			if err := client.Post("/auth", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "username", "u", "", "Username (required)")
	cmd.Flags().StringVarP(&pass, "password", "p", "", "Password (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the stored token (only works close to expiry)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result TokenResult

			if err := client.Get("/utils/refresh", &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Token refreshed")
			return nil
		},
	}
}

func newPasswordCmd() *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"current_password": current,
				"new_password":     next,
			}

			if err := client.Post("/utils/update_password", req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Password changed")
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Current password (required)")
	cmd.Flags().StringVar(&next, "new", "", "New password (required)")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}

func newUpgradeCmd() *cobra.Command {
	var firstName, lastName, address, card, cvc, expMonth, expYear string

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade the account to unlock save slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"first_name":  firstName,
				"last_name":   lastName,
				"address":     address,
				"card_number": card,
				"cvc":         cvc,
				"exp_month":   expMonth,
				"exp_year":    expYear,
			}
			var result AuthResult

			if err := client.Post("/utils/upgrade", req, &result); err != nil {
				return err
			}

			// The upgraded role only takes effect with the new token
			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&firstName, "first-name", "", "Cardholder first name (required)")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Cardholder last name (required)")
	cmd.Flags().StringVar(&address, "address", "", "Billing address (required)")
	cmd.Flags().StringVar(&card, "card", "", "Card number (required)")
	cmd.Flags().StringVar(&cvc, "cvc", "", "Card CVC (required)")
	cmd.Flags().StringVar(&expMonth, "exp-month", "", "Card expiry month (required)")
	cmd.Flags().StringVar(&expYear, "exp-year", "", "Card expiry year, two digits (required)")
	for _, f := range []string{"first-name", "last-name", "address", "card", "cvc", "exp-month", "exp-year"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}
