// Package comment provides the shared comment store used by every comment
// listing in the forum, along with the visibility rule that keeps moderator
// notes out of public listings.
package comment

import "time"

// NoteType is the comment_type value that marks a moderator note.
const NoteType = "moderator_note"

// Comment is a row in the shared comments table. Ordinary comments have
// an empty Type.
type Comment struct {
	ID           int64     `json:"id"`
	PostID       int64     `json:"post_id"`
	UserID       int64     `json:"user_id"`
	Author       string    `json:"author"`
	AuthorEmail  string    `json:"-"`
	AuthorURL    string    `json:"author_url,omitempty"`
	AuthorIP     string    `json:"-"`
	AuthorAgent  string    `json:"-"`
	Content      string    `json:"content"`
	Type         string    `json:"type,omitempty"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedAtGMT time.Time `json:"created_at_gmt"`
}

// IsNote reports whether the comment is a moderator note.
func (c *Comment) IsNote() bool {
	return c.Type == NoteType
}
