package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/forum-notes/internal/forum"
	"github.com/evcraddock/forum-notes/internal/subscription"
)

func newSubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe <login> <topic-id>",
		Short: "Subscribe a user to a topic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubscription(args, true)
		},
	}
}

func newUnsubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unsubscribe <login> <topic-id>",
		Short: "Unsubscribe a user from a topic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubscription(args, false)
		},
	}
}

func runSubscription(args []string, subscribe bool) error {
	topicID, err := parseID("topic", args[1])
	if err != nil {
		return err
	}

	return withDB(func(ctx context.Context, database *sql.DB) error {
		u, err := lookupUser(ctx, database, args[0])
		if err != nil {
			return err
		}

		reg := subscription.NewRegistry(database)
		if !subscribe {
			if err := reg.Unsubscribe(ctx, u.ID, topicID); err != nil {
				return err
			}
			fmt.Printf("%s unsubscribed from topic #%d\n", u.Login, topicID)
			return nil
		}

		p, err := forum.NewRepository(database).GetPost(ctx, topicID)
		if err != nil {
			return fmt.Errorf("topic %d: %w", topicID, err)
		}
		if p.Kind != forum.KindTopic {
			return fmt.Errorf("post %d is a reply; subscribe to topic %d instead", topicID, p.ThreadID())
		}
		if err := reg.Subscribe(ctx, u.ID, topicID); err != nil {
			return err
		}
		fmt.Printf("%s subscribed to topic #%d\n", u.Login, topicID)
		return nil
	})
}
