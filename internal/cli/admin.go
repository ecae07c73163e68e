package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Account management commands (admin role required)",
	}

	cmd.AddCommand(newAdminUsersCmd())
	cmd.AddCommand(newAdminUserCmd())
	cmd.AddCommand(newAdminBanCmd())
	cmd.AddCommand(newAdminUnbanCmd())
	cmd.AddCommand(newAdminDeleteCmd())
	cmd.AddCommand(newAdminCreateAdminCmd())

	return cmd
}

func newAdminUsersCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List accounts, 20 per page",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result AccountPage

			if err := client.Get(fmt.Sprintf("/admin/users?page=%d", page), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")

	return cmd
}

func newAdminUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user <id-or-username>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Account

			path := "/admin/user?identifier=" + url.QueryEscape(args[0])
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	return cmd
}

func newAdminBanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ban <id-or-username>",
		Short: "Ban an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"identifier": args[0]}
			var result Account

			if err := client.Post("/admin/ban", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	return cmd
}

func newAdminUnbanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unban <id-or-username>",
		Short: "Lift an account ban",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"identifier": args[0]}
			var result Account

			if err := client.Post("/admin/unban", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	return cmd
}

func newAdminDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id-or-username>",
		Short: "Delete an account and its save data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Account

			path := "/admin/delete?identifier=" + url.QueryEscape(args[0])
			if err := client.Delete(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Deleted account %s", result.Username))
			return nil
		},
	}

	return cmd
}

func newAdminCreateAdminCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a new admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"username": user, "password": pass}
			var result Account

			if err := client.Post("/admin/create_admin", req, &result); err != nil {
				return err
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
