package note

import (
	"context"
	"errors"
	"fmt"

	"github.com/evcraddock/forum-notes/internal/auth"
	"github.com/evcraddock/forum-notes/internal/comment"
	"github.com/evcraddock/forum-notes/internal/forum"
	"github.com/evcraddock/forum-notes/internal/metrics"
	"github.com/evcraddock/forum-notes/internal/user"
)

// PostLookup resolves a note's parent topic or reply.
type PostLookup interface {
	GetPost(ctx context.Context, id int64) (*forum.Post, error)
}

// CapabilityChecker answers forum-scoped permission questions.
type CapabilityChecker interface {
	HasCapability(ctx context.Context, userID int64, cap auth.Capability, forumID int64) (bool, error)
}

// UserLookup resolves user records.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// Store persists notes in the shared comments table.
type Store struct {
	comments *comment.Repository
	posts    PostLookup
	caps     CapabilityChecker
	users    UserLookup
	metrics  *metrics.Metrics
}

// NewStore creates a note store. m may be nil.
func NewStore(comments *comment.Repository, posts PostLookup, caps CapabilityChecker, users UserLookup, m *metrics.Metrics) *Store {
	return &Store{
		comments: comments,
		posts:    posts,
		caps:     caps,
		users:    users,
		metrics:  m,
	}
}

// Create stores a new note on cmd.ParentID written by actor. The actor
// must hold the moderate capability on the parent's forum. Content is
// reduced to plain text before it is stored.
func (s *Store) Create(ctx context.Context, actor Actor, cmd CreateCommand) (*Note, error) {
	n, err := s.create(ctx, actor, cmd)
	switch {
	case IsValidation(err):
		s.metrics.NoteRejected(metrics.ReasonValidation)
	case IsPermission(err):
		s.metrics.NoteRejected(metrics.ReasonPermission)
	case err == nil:
		s.metrics.NoteCreated()
	}
	return n, err
}

func (s *Store) create(ctx context.Context, actor Actor, cmd CreateCommand) (*Note, error) {
	if actor.UserID <= 0 {
		return nil, &PermissionError{Action: "create"}
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	parent, err := s.authorize(ctx, actor, cmd.ParentID, "create")
	if err != nil {
		return nil, err
	}

	content := Sanitize(cmd.Content)
	if content == "" {
		return nil, &ValidationError{Field: "content", Message: "is empty once markup is removed"}
	}

	author, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading author %d: %w", actor.UserID, err)
	}

	c, err := s.comments.Insert(ctx, &comment.Comment{
		PostID:      parent.ID,
		UserID:      author.ID,
		Author:      author.Name(),
		AuthorEmail: author.Email,
		AuthorURL:   author.URL,
		AuthorIP:    actor.IP,
		AuthorAgent: actor.UserAgent,
		Content:     content,
		Type:        comment.NoteType,
		Approved:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("storing note: %w", err)
	}

	return fromComment(c), nil
}

// List returns the notes on parentID, oldest first. Callers without the
// moderate capability get a PermissionError and no content.
func (s *Store) List(ctx context.Context, actor Actor, parentID int64) ([]*Note, error) {
	if actor.UserID <= 0 {
		return nil, &PermissionError{Action: "read"}
	}
	if parentID <= 0 {
		return nil, &ValidationError{Field: "parent_id", Message: "is required"}
	}
	if _, err := s.authorize(ctx, actor, parentID, "read"); err != nil {
		return nil, err
	}

	rows, err := s.comments.List(ctx, comment.Query{
		PostID:    parentID,
		Type:      comment.NoteType,
		Ascending: true,
		All:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	notes := make([]*Note, 0, len(rows))
	for _, c := range rows {
		notes = append(notes, fromComment(c))
	}
	return notes, nil
}

// authorize loads the parent post and checks the actor moderates its forum.
func (s *Store) authorize(ctx context.Context, actor Actor, parentID int64, action string) (*forum.Post, error) {
	parent, err := s.posts.GetPost(ctx, parentID)
	if errors.Is(err, forum.ErrNotFound) {
		return nil, &ValidationError{Field: "parent_id", Message: fmt.Sprintf("post %d does not exist", parentID)}
	}
	if err != nil {
		return nil, fmt.Errorf("loading post %d: %w", parentID, err)
	}

	ok, err := s.caps.HasCapability(ctx, actor.UserID, auth.CapModerate, parent.ForumID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &PermissionError{Action: action}
	}
	return parent, nil
}
