// Package cli defines the cobra command tree for fn, the forum notes tool.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/forum-notes/internal/client"
	"github.com/evcraddock/forum-notes/internal/db"
	"github.com/evcraddock/forum-notes/internal/user"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fn",
		Short:         "Private moderator notes for forum threads",
		Long:          "Run the forum notes server, leave moderator notes on topics and replies, and manage the forum's users, moderators and subscriptions.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.config/fn/forum.db)")

	root.AddCommand(
		newServeCmd(),
		newNoteCmd(),
		newNotesCmd(),
		newCommentCmd(),
		newCommentsCmd(),
		newUserCmd(),
		newModeratorCmd(),
		newSubscribeCmd(),
		newUnsubscribeCmd(),
		newForumCmd(),
		newTopicCmd(),
		newReplyCmd(),
		newAPIKeyCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag, fallback, or the
// default path.
func openDB(fallback string) (*sql.DB, error) {
	path := flagDB
	if path == "" {
		path = fallback
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// withDB runs fn against the local database and closes it afterwards.
func withDB(fn func(ctx context.Context, database *sql.DB) error) error {
	database, err := openDB("")
	if err != nil {
		return err
	}
	defer closeDB(database)
	return fn(context.Background(), database)
}

// newAPIClient creates an HTTP client for the forum notes API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

// parseID parses a positive numeric ID argument.
func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", kind, s)
	}
	return id, nil
}

// lookupUser resolves a login to a user.
func lookupUser(ctx context.Context, database *sql.DB, login string) (*user.User, error) {
	u, err := user.NewDirectory(database).GetByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", login, err)
	}
	return u, nil
}
