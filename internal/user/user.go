// Package user provides the forum user directory.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// User is a forum account.
type User struct {
	ID          int64     `json:"id"`
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	URL         string    `json:"url"`
	Keymaster   bool      `json:"keymaster"`
	CreatedAt   time.Time `json:"created_at"`
}

// Name returns the display name, falling back to the login.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Login
}

// Directory manages forum users in SQLite.
type Directory struct {
	db *sql.DB
}

// NewDirectory creates a user directory.
func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

// Add creates a new user.
func (d *Directory) Add(ctx context.Context, login, displayName, email, url string) (*User, error) {
	login = strings.TrimSpace(login)
	email = strings.ToLower(strings.TrimSpace(email))

	if login == "" {
		return nil, fmt.Errorf("login is required")
	}

	result, err := d.db.ExecContext(ctx,
		"INSERT INTO users (login, display_name, email, url) VALUES (?, ?, ?, ?)",
		login, strings.TrimSpace(displayName), email, strings.TrimSpace(url),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("user already exists: %s", login)
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user ID: %w", err)
	}

	return d.GetByID(ctx, id)
}

// GetByID returns a user by ID. The record is always read fresh so callers
// see the current email address.
func (d *Directory) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := d.db.QueryRowContext(ctx,
		"SELECT id, login, display_name, email, url, keymaster, created_at FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Login, &u.DisplayName, &u.Email, &u.URL, &u.Keymaster, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// GetByLogin returns a user by login name.
func (d *Directory) GetByLogin(ctx context.Context, login string) (*User, error) {
	var id int64
	err := d.db.QueryRowContext(ctx, "SELECT id FROM users WHERE login = ?", login).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return d.GetByID(ctx, id)
}

// List returns all users ordered by login.
func (d *Directory) List(ctx context.Context) (users []*User, err error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, login, display_name, email, url, keymaster, created_at FROM users ORDER BY login",
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Login, &u.DisplayName, &u.Email, &u.URL, &u.Keymaster, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, &u)
	}

	return users, rows.Err()
}

// UpdateEmail changes a user's email address.
func (d *Directory) UpdateEmail(ctx context.Context, id int64, email string) error {
	result, err := d.db.ExecContext(ctx,
		"UPDATE users SET email = ? WHERE id = ?", strings.ToLower(strings.TrimSpace(email)), id,
	)
	if err != nil {
		return fmt.Errorf("updating email: %w", err)
	}
	return requireOneRow(result)
}

// SetKeymaster grants or removes site-wide moderation rights.
func (d *Directory) SetKeymaster(ctx context.Context, id int64, keymaster bool) error {
	result, err := d.db.ExecContext(ctx, "UPDATE users SET keymaster = ? WHERE id = ?", keymaster, id)
	if err != nil {
		return fmt.Errorf("updating keymaster: %w", err)
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
