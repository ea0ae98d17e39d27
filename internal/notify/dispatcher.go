// Package notify delivers new moderator notes to the moderators
// subscribed to the note's thread.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/forum-notes/internal/auth"
	"github.com/evcraddock/forum-notes/internal/email"
	"github.com/evcraddock/forum-notes/internal/forum"
	"github.com/evcraddock/forum-notes/internal/metrics"
	"github.com/evcraddock/forum-notes/internal/note"
	"github.com/evcraddock/forum-notes/internal/user"
)

const (
	defaultConcurrency = 4
	defaultTimeout     = 15 * time.Second
)

// SubscriberSource lists the users subscribed to a topic.
type SubscriberSource interface {
	Subscribers(ctx context.Context, topicID int64) ([]int64, error)
}

// CapabilityChecker answers forum-scoped permission questions.
type CapabilityChecker interface {
	HasCapability(ctx context.Context, userID int64, cap auth.Capability, forumID int64) (bool, error)
}

// UserLookup resolves user records.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// PostLookup resolves forum posts.
type PostLookup interface {
	GetPost(ctx context.Context, id int64) (*forum.Post, error)
}

// Mailer sends one message.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// Config controls message rendering and fan-out.
type Config struct {
	BaseURL     string
	SiteName    string
	Timeout     time.Duration // per recipient
	Concurrency int
}

// DispatchError is a failed delivery to one recipient.
type DispatchError struct {
	RecipientID int64
	Err         error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("notifying user %d: %v", e.RecipientID, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Result summarises one fan-out.
type Result struct {
	Sent    int
	Failed  int
	Skipped int
	Errors  []*DispatchError
}

// Dispatcher computes recipients for a note and mails each of them.
type Dispatcher struct {
	subs    SubscriberSource
	caps    CapabilityChecker
	users   UserLookup
	posts   PostLookup
	mailer  Mailer
	cfg     Config
	metrics *metrics.Metrics
}

// NewDispatcher creates a dispatcher. m may be nil.
func NewDispatcher(subs SubscriberSource, caps CapabilityChecker, users UserLookup, posts PostLookup, mailer Mailer, cfg Config, m *metrics.Metrics) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Dispatcher{
		subs:    subs,
		caps:    caps,
		users:   users,
		posts:   posts,
		mailer:  mailer,
		cfg:     cfg,
		metrics: m,
	}
}

// Notify mails n to every moderator subscribed to threadID except its
// author. Per-recipient failures are logged and counted in the Result;
// the returned error only reports that the recipient set could not be
// computed at all.
func (d *Dispatcher) Notify(ctx context.Context, threadID int64, n *note.Note, author note.Author) (Result, error) {
	start := time.Now()
	defer func() { d.metrics.ObserveDispatch(time.Since(start)) }()

	thread, err := d.posts.GetPost(ctx, threadID)
	if err != nil {
		return Result{}, fmt.Errorf("loading thread %d: %w", threadID, err)
	}

	recipients, err := d.recipients(ctx, thread, author.ID)
	if err != nil {
		return Result{}, err
	}

	var (
		mu  sync.Mutex
		res Result
	)
	record := func(outcome string, derr *DispatchError) {
		if outcome == "" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case metrics.ResultSent:
			res.Sent++
		case metrics.ResultSkipped:
			res.Skipped++
		case metrics.ResultFailed:
			res.Failed++
			res.Errors = append(res.Errors, derr)
		}
		d.metrics.Notification(outcome)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	for _, id := range recipients {
		g.Go(func() error {
			outcome, err := d.deliver(gctx, id, thread, n, author)
			if err != nil {
				derr := &DispatchError{RecipientID: id, Err: err}
				slog.Warn("note notification failed",
					"note_id", n.ID, "recipient_id", id, "error", err)
				record(outcome, derr)
				return nil
			}
			record(outcome, nil)
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("note notifications dispatched",
		"note_id", n.ID,
		"thread_id", threadID,
		"sent", res.Sent,
		"failed", res.Failed,
		"skipped", res.Skipped,
	)
	return res, nil
}

// recipients returns the subscribers of thread minus the author. Whether
// each still moderates the forum is decided at delivery.
func (d *Dispatcher) recipients(ctx context.Context, thread *forum.Post, authorID int64) ([]int64, error) {
	subs, err := d.subs.Subscribers(ctx, thread.ID)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers of %d: %w", thread.ID, err)
	}

	out := make([]int64, 0, len(subs))
	for _, id := range subs {
		if id != authorID {
			out = append(out, id)
		}
	}
	return out, nil
}

// deliver sends one message, checking the recipient still moderates the
// forum and resolving their address at send time. An empty outcome means
// the recipient is not a moderator and is left out of the Result.
func (d *Dispatcher) deliver(ctx context.Context, recipientID int64, thread *forum.Post, n *note.Note, author note.Author) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	ok, err := d.caps.HasCapability(ctx, recipientID, auth.CapModerate, thread.ForumID)
	if err != nil {
		return metrics.ResultFailed, fmt.Errorf("checking capability: %w", err)
	}
	if !ok {
		return "", nil
	}

	u, err := d.users.GetByID(ctx, recipientID)
	if errors.Is(err, user.ErrNotFound) {
		return metrics.ResultSkipped, nil
	}
	if err != nil {
		return metrics.ResultFailed, fmt.Errorf("loading recipient: %w", err)
	}
	if u.Email == "" {
		return metrics.ResultSkipped, nil
	}

	msg := d.render(thread, n, author)
	msg.To = u.Email
	if err := d.mailer.Send(ctx, msg); err != nil {
		return metrics.ResultFailed, fmt.Errorf("sending: %w", err)
	}
	return metrics.ResultSent, nil
}

// render builds the message body shared by all recipients of n.
func (d *Dispatcher) render(thread *forum.Post, n *note.Note, author note.Author) email.Message {
	site := d.cfg.SiteName
	if site == "" {
		site = "Forum"
	}
	link := forum.Permalink(d.cfg.BaseURL, thread.ID, n.ParentID)

	var body strings.Builder
	fmt.Fprintf(&body, "%s added a moderator note", authorName(author))
	if thread.Title != "" {
		fmt.Fprintf(&body, " in %q", thread.Title)
	}
	body.WriteString(":\n\n")
	body.WriteString(n.Content)
	body.WriteString("\n\n")
	fmt.Fprintf(&body, "View it here: %s\n", link)
	body.WriteString("\n-- \nYou are receiving this because you moderate this forum and subscribed to the topic.\n")

	return email.Message{
		Subject: fmt.Sprintf("[%s] New moderator note on %q", site, thread.Title),
		Body:    body.String(),
		Headers: map[string]string{
			"X-Forum-Note-ID": strconv.FormatInt(n.ID, 10),
			"Auto-Submitted":  "auto-generated",
		},
	}
}

func authorName(a note.Author) string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return fmt.Sprintf("User %d", a.ID)
}
