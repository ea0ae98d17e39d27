package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/forum-notes/internal/auth"
	"github.com/evcraddock/forum-notes/internal/user"
)

func newModeratorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moderator",
		Short: "Manage forum moderators",
		Long:  "Grant or revoke the moderate capability on a forum. Moderators can read and write moderator notes.",
	}
	cmd.AddCommand(
		newModeratorChangeCmd("grant", "Make a user a moderator of a forum", true),
		newModeratorChangeCmd("revoke", "Remove a user's moderator rights on a forum", false),
		newModeratorListCmd(),
	)
	return cmd
}

func newModeratorChangeCmd(use, short string, grant bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <login> <forum-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			forumID, err := parseID("forum", args[1])
			if err != nil {
				return err
			}
			return withDB(func(ctx context.Context, database *sql.DB) error {
				u, err := lookupUser(ctx, database, args[0])
				if err != nil {
					return err
				}

				authz := auth.NewAuthorizer(database)
				if grant {
					err = authz.Grant(ctx, u.ID, auth.CapModerate, forumID)
				} else {
					err = authz.Revoke(ctx, u.ID, auth.CapModerate, forumID)
				}
				if err != nil {
					return err
				}

				fmt.Printf("%s: %s on forum #%d\n", use, u.Login, forumID)
				return nil
			})
		},
	}
}

func newModeratorListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <forum-id>",
		Short: "List a forum's moderators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			forumID, err := parseID("forum", args[0])
			if err != nil {
				return err
			}
			return withDB(func(ctx context.Context, database *sql.DB) error {
				ids, err := auth.NewAuthorizer(database).Holders(ctx, auth.CapModerate, forumID)
				if err != nil {
					return err
				}

				dir := user.NewDirectory(database)
				users := make([]*user.User, 0, len(ids))
				for _, id := range ids {
					u, err := dir.GetByID(ctx, id)
					if err != nil {
						return err
					}
					users = append(users, u)
				}

				if isJSON() {
					return printJSON(users)
				}
				return printUserTable(users)
			})
		},
	}
}
