package comment

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// Query selects comments. A zero Type means "any type except notes";
// only NoteType itself reaches notes.
type Query struct {
	PostID    int64
	Type      string
	Limit     int
	Ascending bool
	// All returns every match and ignores Limit.
	All bool
}

// Repository reads and writes the shared comments table.
type Repository struct {
	db  *sql.DB
	now func() time.Time
	loc *time.Location
}

// NewRepository creates a comment repository. Local timestamps are
// recorded in loc (time.Local when nil).
func NewRepository(db *sql.DB, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.Local
	}
	return &Repository{db: db, now: time.Now, loc: loc}
}

const selectColumns = `SELECT id, post_id, user_id, author, author_email, author_url, author_ip,
	author_agent, content, comment_type, approved, created_at, created_at_gmt FROM comments`

// Insert appends one comment. The server assigns the ID and timestamps.
func (r *Repository) Insert(ctx context.Context, c *Comment) (*Comment, error) {
	if strings.TrimSpace(c.Content) == "" {
		return nil, fmt.Errorf("comment content is required")
	}
	if c.PostID <= 0 {
		return nil, fmt.Errorf("comment post_id is required")
	}

	now := r.now()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (post_id, user_id, author, author_email, author_url, author_ip,
			author_agent, content, comment_type, approved, created_at, created_at_gmt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.PostID, c.UserID, c.Author, c.AuthorEmail, c.AuthorURL, c.AuthorIP,
		c.AuthorAgent, c.Content, c.Type, c.Approved, now.In(r.loc), now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	row := r.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	stored, err := scanComment(row)
	if err != nil {
		return nil, fmt.Errorf("reading back comment: %w", err)
	}
	return stored, nil
}

// List returns comments matching q. Every listing passes through
// ApplyVisibility, so notes only come back when q.Type is NoteType.
func (r *Repository) List(ctx context.Context, q Query) (comments []*Comment, err error) {
	var p Predicate
	if q.PostID != 0 {
		p = p.And("post_id = ?", q.PostID)
	}
	if q.Type != "" {
		p = p.And("comment_type = ?", q.Type)
	}
	p = p.And("approved = 1")
	p = ApplyVisibility(p, q.Type)

	where, args := p.Where()

	order := "DESC"
	if q.Ascending {
		order = "ASC"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	stmt := fmt.Sprintf("%s%s ORDER BY created_at_gmt %s, id %s", selectColumns, where, order, order)
	if !q.All {
		stmt += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}

	return comments, nil
}

// Recent returns the newest public comments across the forum. It backs
// the recent-comments widget and the comment feed.
func (r *Repository) Recent(ctx context.Context, limit int) ([]*Comment, error) {
	return r.List(ctx, Query{Limit: limit})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (*Comment, error) {
	var c Comment
	if err := s.Scan(&c.ID, &c.PostID, &c.UserID, &c.Author, &c.AuthorEmail, &c.AuthorURL, &c.AuthorIP,
		&c.AuthorAgent, &c.Content, &c.Type, &c.Approved, &c.CreatedAt, &c.CreatedAtGMT); err != nil {
		return nil, err
	}
	return &c, nil
}
