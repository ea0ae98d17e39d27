package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/forum-notes/internal/client"
)

func newCommentsCmd() *cobra.Command {
	var (
		postID int64
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "comments",
		Short: "List recent public comments",
		Long:  "List recent public comments across the forum, or on one post with --post. Moderator notes never appear here.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComments(postID, limit)
		},
	}

	cmd.Flags().Int64Var(&postID, "post", 0, "only comments on this post")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of comments")

	return cmd
}

func runComments(postID int64, limit int) error {
	if postID < 0 {
		return fmt.Errorf("invalid post ID: %d", postID)
	}
	if limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}

	comments, err := newAPIClient().RecentComments(client.CommentQuery{PostID: postID, Limit: limit})
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(comments)
	}

	printCommentList(comments)
	return nil
}
