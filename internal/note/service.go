package note

import (
	"context"
	"log/slog"
)

// Notifier accepts a freshly created note for delivery to subscribers of
// its thread. Implementations must not block on delivery.
type Notifier interface {
	Enqueue(threadID int64, n *Note) error
}

// Service is what the request layer talks to: it stores notes and hands
// each new one to the notifier exactly once.
type Service struct {
	store    *Store
	posts    PostLookup
	notifier Notifier
}

// NewService creates a note service.
func NewService(store *Store, posts PostLookup, notifier Notifier) *Service {
	return &Service{store: store, posts: posts, notifier: notifier}
}

// Submit creates a note and schedules its notifications. The note is
// returned whenever it was stored, whatever happens to notification.
func (s *Service) Submit(ctx context.Context, actor Actor, cmd CreateCommand) (*Note, error) {
	n, err := s.store.Create(ctx, actor, cmd)
	if err != nil {
		return nil, err
	}

	parent, err := s.posts.GetPost(ctx, n.ParentID)
	if err != nil {
		slog.Warn("note stored but thread lookup failed, skipping notifications",
			"note_id", n.ID, "parent_id", n.ParentID, "error", err)
		return n, nil
	}

	if err := s.notifier.Enqueue(parent.ThreadID(), n); err != nil {
		slog.Warn("note stored but notification not scheduled",
			"note_id", n.ID, "thread_id", parent.ThreadID(), "error", err)
	}

	return n, nil
}

// List returns the notes on a post for actor.
func (s *Service) List(ctx context.Context, actor Actor, parentID int64) ([]*Note, error) {
	return s.store.List(ctx, actor, parentID)
}
