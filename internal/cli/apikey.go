package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/forum-notes/internal/auth"
)

func newAPIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
		Long:  "Create, list and revoke API keys. Listing and revoking act on the logged-in user's keys through the server.",
	}
	cmd.AddCommand(newAPIKeyCreateCmd(), newAPIKeyListCmd(), newAPIKeyDeleteCmd())
	return cmd
}

func newAPIKeyCreateCmd() *cobra.Command {
	var (
		name  string
		login string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key",
		Long:  "Create an API key for the logged-in user. With --user the key is written straight to the local database, which is how the first key for a user is made.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if login != "" {
				return createLocalAPIKey(login, name)
			}

			created, err := newAPIClient().CreateAPIKey(name)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(created)
			}
			fmt.Printf("API key #%d created: %s\n", created.APIKey.ID, created.Key)
			fmt.Println("Store it now; it will not be shown again.")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "CLI", "key name")
	cmd.Flags().StringVar(&login, "user", "", "create the key locally for this login")

	return cmd
}

func createLocalAPIKey(login, name string) error {
	return withDB(func(ctx context.Context, database *sql.DB) error {
		u, err := lookupUser(ctx, database, login)
		if err != nil {
			return err
		}
		raw, key, err := auth.NewAPIKeyStore(database).Create(ctx, name, u.ID)
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(map[string]interface{}{"key": raw, "api_key": key})
		}
		fmt.Printf("API key #%d created for %s: %s\n", key.ID, u.Login, raw)
		fmt.Println("Store it now; it will not be shown again.")
		return nil
	})
}

func newAPIKeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := newAPIClient().ListAPIKeys()
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(keys)
			}
			return printKeyTable(keys)
		},
	}
}

func newAPIKeyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Revoke one of your API keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("key", args[0])
			if err != nil {
				return err
			}
			if err := newAPIClient().DeleteAPIKey(id); err != nil {
				return err
			}
			fmt.Printf("API key #%d revoked.\n", id)
			return nil
		},
	}
}
