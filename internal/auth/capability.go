// Package auth provides API key authentication and forum capability checks.
package auth

import (
	"context"
	"database/sql"
	"fmt"
)

// Capability is a permission scoped to a forum.
type Capability string

// CapModerate allows reading and writing moderator notes in a forum.
const CapModerate Capability = "moderate"

// Authorizer answers capability questions from the users and
// forum_moderators tables. Answers are never cached: a revoked
// moderator loses access on the next check.
type Authorizer struct {
	db *sql.DB
}

// NewAuthorizer creates an authorizer.
func NewAuthorizer(db *sql.DB) *Authorizer {
	return &Authorizer{db: db}
}

// HasCapability reports whether userID holds cap on forumID.
// Keymasters hold every capability on every forum.
func (a *Authorizer) HasCapability(ctx context.Context, userID int64, cap Capability, forumID int64) (bool, error) {
	if userID <= 0 {
		return false, nil
	}

	var n int
	err := a.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE id = ? AND keymaster = 1) +
			(SELECT COUNT(*) FROM forum_moderators WHERE user_id = ? AND forum_id = ? AND capability = ?)`,
		userID, userID, forumID, string(cap),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking capability: %w", err)
	}

	return n > 0, nil
}

// Grant gives userID the capability on forumID. Granting twice is a no-op.
func (a *Authorizer) Grant(ctx context.Context, userID int64, cap Capability, forumID int64) error {
	if _, err := a.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO forum_moderators (forum_id, user_id, capability) VALUES (?, ?, ?)",
		forumID, userID, string(cap),
	); err != nil {
		return fmt.Errorf("granting %s: %w", cap, err)
	}
	return nil
}

// Revoke removes the capability. Revoking a missing grant is a no-op.
func (a *Authorizer) Revoke(ctx context.Context, userID int64, cap Capability, forumID int64) error {
	if _, err := a.db.ExecContext(ctx,
		"DELETE FROM forum_moderators WHERE forum_id = ? AND user_id = ? AND capability = ?",
		forumID, userID, string(cap),
	); err != nil {
		return fmt.Errorf("revoking %s: %w", cap, err)
	}
	return nil
}

// Holders returns the IDs of users explicitly granted cap on forumID.
func (a *Authorizer) Holders(ctx context.Context, cap Capability, forumID int64) (ids []int64, err error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT user_id FROM forum_moderators WHERE forum_id = ? AND capability = ? ORDER BY user_id",
		forumID, string(cap),
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s holders: %w", cap, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning holder: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
