// Package note implements moderator notes: private annotations on forum
// topics and replies, stored in the shared comments table under the
// moderator_note type and readable only by the forum's moderators.
package note

import (
	"time"

	"github.com/evcraddock/forum-notes/internal/comment"
)

// Author is a snapshot of the note's writer taken when the note was
// created. Later profile changes do not alter it.
type Author struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	URL         string `json:"url,omitempty"`
	IP          string `json:"ip,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
}

// Note is a moderator note attached to a topic or reply.
type Note struct {
	ID           int64     `json:"id"`
	ParentID     int64     `json:"parent_id"`
	Author       Author    `json:"author"`
	Content      string    `json:"content"`
	Kind         string    `json:"kind"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedAtGMT time.Time `json:"created_at_gmt"`
}

// Actor is the caller of a note operation.
type Actor struct {
	UserID    int64
	IP        string
	UserAgent string
}

func fromComment(c *comment.Comment) *Note {
	return &Note{
		ID:       c.ID,
		ParentID: c.PostID,
		Author: Author{
			ID:          c.UserID,
			DisplayName: c.Author,
			Email:       c.AuthorEmail,
			URL:         c.AuthorURL,
			IP:          c.AuthorIP,
			UserAgent:   c.AuthorAgent,
		},
		Content:      c.Content,
		Kind:         c.Type,
		Approved:     c.Approved,
		CreatedAt:    c.CreatedAt,
		CreatedAtGMT: c.CreatedAtGMT,
	}
}
