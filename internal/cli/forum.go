package cli

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/forum-notes/internal/forum"
)

func newForumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forum",
		Short: "Manage forums",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a forum",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(ctx context.Context, database *sql.DB) error {
				f, err := forum.NewRepository(database).CreateForum(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(f)
				}
				fmt.Printf("Forum #%d created: %s\n", f.ID, f.Name)
				return nil
			})
		},
	})
	return cmd
}

func newTopicCmd() *cobra.Command {
	var author string

	create := &cobra.Command{
		Use:   `create <forum-id> "title" ["content"]`,
		Short: "Start a topic",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			forumID, err := parseID("forum", args[0])
			if err != nil {
				return err
			}
			content := ""
			if len(args) == 3 {
				content = args[2]
			}
			return withDB(func(ctx context.Context, database *sql.DB) error {
				u, err := lookupUser(ctx, database, author)
				if err != nil {
					return err
				}
				p, err := forum.NewRepository(database).CreateTopic(ctx, forumID, u.ID, args[1], content)
				if err != nil {
					return err
				}
				return printPost(p)
			})
		},
	}
	create.Flags().StringVar(&author, "author", "", "login of the topic's author (required)")
	_ = create.MarkFlagRequired("author")

	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Manage topics",
	}
	cmd.AddCommand(create)
	return cmd
}

func newReplyCmd() *cobra.Command {
	var author string

	create := &cobra.Command{
		Use:   `create <topic-id> "content"`,
		Short: "Reply to a topic",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topicID, err := parseID("topic", args[0])
			if err != nil {
				return err
			}
			return withDB(func(ctx context.Context, database *sql.DB) error {
				u, err := lookupUser(ctx, database, author)
				if err != nil {
					return err
				}
				p, err := forum.NewRepository(database).CreateReply(ctx, topicID, u.ID, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				return printPost(p)
			})
		},
	}
	create.Flags().StringVar(&author, "author", "", "login of the reply's author (required)")
	_ = create.MarkFlagRequired("author")

	cmd := &cobra.Command{
		Use:   "reply",
		Short: "Manage replies",
	}
	cmd.AddCommand(create)
	return cmd
}

func printPost(p *forum.Post) error {
	if isJSON() {
		return printJSON(p)
	}
	if p.Kind == forum.KindTopic {
		fmt.Printf("Topic #%d created in forum #%d: %s\n", p.ID, p.ForumID, p.Title)
		return nil
	}
	fmt.Printf("Reply #%d added to topic #%d\n", p.ID, p.TopicID)
	return nil
}
