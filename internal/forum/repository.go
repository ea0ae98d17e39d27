package forum

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// ErrNotFound is returned when a forum or post does not exist.
var ErrNotFound = errors.New("not found")

const (
	postCacheTTL     = 10 * time.Minute
	postCacheCleanup = 20 * time.Minute
)

// Repository provides access to forums, topics and replies.
// Post lookups are cached: a post never changes forum or topic once created.
type Repository struct {
	db    *sql.DB
	posts *cache.Cache
}

// NewRepository creates a forum repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		db:    db,
		posts: cache.New(postCacheTTL, postCacheCleanup),
	}
}

// CreateForum creates a new forum.
func (r *Repository) CreateForum(ctx context.Context, name string) (*Forum, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("forum name is required")
	}

	result, err := r.db.ExecContext(ctx, "INSERT INTO forums (name) VALUES (?)", name)
	if err != nil {
		return nil, fmt.Errorf("inserting forum: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	var f Forum
	err = r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM forums WHERE id = ?", id,
	).Scan(&f.ID, &f.Name, &f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading back forum: %w", err)
	}
	return &f, nil
}

// CreateTopic starts a new topic in a forum.
func (r *Repository) CreateTopic(ctx context.Context, forumID, authorID int64, title, content string) (*Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("topic title is required")
	}
	return r.insertPost(ctx, forumID, 0, KindTopic, authorID, strings.TrimSpace(title), content)
}

// CreateReply adds a reply to a topic.
func (r *Repository) CreateReply(ctx context.Context, topicID, authorID int64, content string) (*Post, error) {
	topic, err := r.GetPost(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("loading topic %d: %w", topicID, err)
	}
	if topic.Kind != KindTopic {
		return nil, fmt.Errorf("post %d is not a topic", topicID)
	}
	return r.insertPost(ctx, topic.ForumID, topic.ID, KindReply, authorID, "", content)
}

func (r *Repository) insertPost(ctx context.Context, forumID, topicID int64, kind Kind, authorID int64, title, content string) (*Post, error) {
	var topic any
	if topicID != 0 {
		topic = topicID
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO posts (forum_id, topic_id, kind, author_id, title, content) VALUES (?, ?, ?, ?, ?, ?)",
		forumID, topic, string(kind), authorID, title, content,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting %s: %w", kind, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}
	return r.GetPost(ctx, id)
}

// GetPost returns a topic or reply by ID.
func (r *Repository) GetPost(ctx context.Context, id int64) (*Post, error) {
	key := strconv.FormatInt(id, 10)
	if cached, ok := r.posts.Get(key); ok {
		p := *cached.(*Post)
		return &p, nil
	}

	var p Post
	var topicID sql.NullInt64
	var kind string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, forum_id, topic_id, kind, author_id, title, content, created_at FROM posts WHERE id = ?", id,
	).Scan(&p.ID, &p.ForumID, &topicID, &kind, &p.AuthorID, &p.Title, &p.Content, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying post: %w", err)
	}
	p.TopicID = topicID.Int64
	p.Kind = Kind(kind)

	stored := p
	r.posts.SetDefault(key, &stored)
	return &p, nil
}

// ListReplies returns the replies of a topic, oldest first.
func (r *Repository) ListReplies(ctx context.Context, topicID int64) (posts []*Post, err error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, forum_id, topic_id, kind, author_id, title, content, created_at FROM posts WHERE topic_id = ? ORDER BY id ASC",
		topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing replies: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var p Post
		var topic sql.NullInt64
		var kind string
		if err := rows.Scan(&p.ID, &p.ForumID, &topic, &kind, &p.AuthorID, &p.Title, &p.Content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reply: %w", err)
		}
		p.TopicID = topic.Int64
		p.Kind = Kind(kind)
		posts = append(posts, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating replies: %w", err)
	}
	return posts, nil
}
