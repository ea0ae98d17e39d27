// Package forum provides the host forum's posts: forums, topics and replies.
package forum

import (
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes topics from replies.
type Kind string

const (
	KindTopic Kind = "topic"
	KindReply Kind = "reply"
)

// Forum is a container of topics. Moderation rights are granted per forum.
type Forum struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Post is a topic or a reply.
type Post struct {
	ID        int64     `json:"id"`
	ForumID   int64     `json:"forum_id"`
	TopicID   int64     `json:"topic_id,omitempty"` // zero for topics
	Kind      Kind      `json:"kind"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadID returns the topic that owns the post.
func (p *Post) ThreadID() int64 {
	if p.Kind == KindTopic {
		return p.ID
	}
	return p.TopicID
}

// Permalink returns the public URL of a post within its topic.
func Permalink(baseURL string, threadID, postID int64) string {
	return fmt.Sprintf("%s/topics/%d#post-%d", strings.TrimRight(baseURL, "/"), threadID, postID)
}
