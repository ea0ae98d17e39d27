package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/forum-notes/internal/user"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage forum users",
		Long:  "Manage the forum's user directory in the local database.",
	}
	cmd.AddCommand(newUserAddCmd(), newUserListCmd(), newUserEmailCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var (
		name      string
		email     string
		url       string
		keymaster bool
	)

	cmd := &cobra.Command{
		Use:   "add <login>",
		Short: "Add a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(ctx context.Context, database *sql.DB) error {
				dir := user.NewDirectory(database)
				u, err := dir.Add(ctx, args[0], name, email, url)
				if err != nil {
					return err
				}
				if keymaster {
					if err := dir.SetKeymaster(ctx, u.ID, true); err != nil {
						return err
					}
					u.Keymaster = true
				}

				if isJSON() {
					return printJSON(u)
				}
				fmt.Printf("User #%d added: %s\n", u.ID, u.Login)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address for notifications")
	cmd.Flags().StringVar(&url, "url", "", "profile URL")
	cmd.Flags().BoolVar(&keymaster, "keymaster", false, "grant site-wide moderation rights")

	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(ctx context.Context, database *sql.DB) error {
				users, err := user.NewDirectory(database).List(ctx)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(users)
				}
				return printUserTable(users)
			})
		},
	}
}

func newUserEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "email <login> <address>",
		Short: "Change a user's email address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(ctx context.Context, database *sql.DB) error {
				u, err := lookupUser(ctx, database, args[0])
				if err != nil {
					return err
				}
				if err := user.NewDirectory(database).UpdateEmail(ctx, u.ID, args[1]); err != nil {
					return err
				}
				fmt.Printf("Email for %s set to %s\n", u.Login, args[1])
				return nil
			})
		},
	}
}
