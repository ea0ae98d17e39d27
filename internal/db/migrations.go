package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		login        TEXT    NOT NULL UNIQUE,
		display_name TEXT    NOT NULL DEFAULT '',
		email        TEXT    NOT NULL DEFAULT '',
		url          TEXT    NOT NULL DEFAULT '',
		keymaster    INTEGER NOT NULL DEFAULT 0,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS forums (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT    NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		forum_id   INTEGER NOT NULL REFERENCES forums(id) ON DELETE CASCADE,
		topic_id   INTEGER REFERENCES posts(id) ON DELETE CASCADE,
		kind       TEXT    NOT NULL CHECK (kind IN ('topic', 'reply')),
		author_id  INTEGER NOT NULL REFERENCES users(id),
		title      TEXT    NOT NULL DEFAULT '',
		content    TEXT    NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS forum_moderators (
		forum_id   INTEGER NOT NULL REFERENCES forums(id) ON DELETE CASCADE,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		capability TEXT    NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (forum_id, user_id, capability)
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		topic_id   INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (topic_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id        INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		user_id        INTEGER NOT NULL DEFAULT 0,
		author         TEXT    NOT NULL DEFAULT '',
		author_email   TEXT    NOT NULL DEFAULT '',
		author_url     TEXT    NOT NULL DEFAULT '',
		author_ip      TEXT    NOT NULL DEFAULT '',
		author_agent   TEXT    NOT NULL DEFAULT '',
		content        TEXT    NOT NULL,
		comment_type   TEXT    NOT NULL DEFAULT '',
		approved       INTEGER NOT NULL DEFAULT 1,
		created_at     DATETIME NOT NULL,
		created_at_gmt DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		name         TEXT     NOT NULL,
		user_id      INTEGER  NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
}

// indexes run after column migrations so they may reference added columns.
var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_comments_post_type ON comments (post_id, comment_type, created_at_gmt)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_topic ON posts (topic_id)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions for databases created before these columns were
	// declared above (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"comments", "comment_type", "TEXT NOT NULL DEFAULT ''"},
		{"users", "keymaster", "INTEGER NOT NULL DEFAULT 0"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	for i, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	exists, err := hasColumn(db, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

func hasColumn(db *sql.DB, table, column string) (found bool, err error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterating columns: %w", err)
	}

	return found, nil
}
