// Package subscription tracks which users follow which topics.
package subscription

import (
	"context"
	"database/sql"
	"fmt"
)

// Registry stores topic subscriptions in SQLite.
type Registry struct {
	db *sql.DB
}

// NewRegistry creates a subscription registry.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// Subscribe adds userID to topicID's subscribers. Subscribing twice is a no-op.
func (r *Registry) Subscribe(ctx context.Context, userID, topicID int64) error {
	if _, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO subscriptions (topic_id, user_id) VALUES (?, ?)",
		topicID, userID,
	); err != nil {
		return fmt.Errorf("subscribing user %d to topic %d: %w", userID, topicID, err)
	}
	return nil
}

// Unsubscribe removes userID from topicID's subscribers.
func (r *Registry) Unsubscribe(ctx context.Context, userID, topicID int64) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE topic_id = ? AND user_id = ?",
		topicID, userID,
	); err != nil {
		return fmt.Errorf("unsubscribing user %d from topic %d: %w", userID, topicID, err)
	}
	return nil
}

// Subscribers returns the IDs of users subscribed to topicID.
func (r *Registry) Subscribers(ctx context.Context, topicID int64) (ids []int64, err error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM subscriptions WHERE topic_id = ? ORDER BY user_id", topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning subscriber: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
