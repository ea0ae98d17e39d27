package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/evcraddock/forum-notes/internal/note"
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("notification queue closed")

// Notifier fans one note out to its recipients.
type Notifier interface {
	Notify(ctx context.Context, threadID int64, n *note.Note, author note.Author) (Result, error)
}

type job struct {
	threadID int64
	note     *note.Note
}

// Queue hands notes to a pool of worker goroutines so the caller never
// waits on mail delivery. Every accepted note is dispatched exactly once.
type Queue struct {
	notifier Notifier
	jobs     chan job
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewQueue starts workers goroutines reading from a buffer of size jobs.
func NewQueue(notifier Notifier, workers, size int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if size < 0 {
		size = 0
	}
	q := &Queue{
		notifier: notifier,
		jobs:     make(chan job, size),
	}
	for range workers {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Enqueue schedules n for delivery to the subscribers of threadID. It
// never blocks: when the buffer is full the job gets its own goroutine.
func (q *Queue) Enqueue(threadID int64, n *note.Note) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	j := job{threadID: threadID, note: n}
	select {
	case q.jobs <- j:
	default:
		slog.Debug("notification queue full, dispatching directly", "note_id", n.ID)
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.run(j)
		}()
	}
	return nil
}

// Close stops accepting notes and waits for queued ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Queue) work() {
	defer q.wg.Done()
	for j := range q.jobs {
		q.run(j)
	}
}

func (q *Queue) run(j job) {
	if _, err := q.notifier.Notify(context.Background(), j.threadID, j.note, j.note.Author); err != nil {
		slog.Error("note notification dispatch failed",
			"note_id", j.note.ID, "thread_id", j.threadID, "error", err)
	}
}

// Sync dispatches notes inline on the caller's goroutine.
type Sync struct {
	Notifier Notifier
}

// Enqueue runs the fan-out before returning. Delivery failures are logged,
// not returned.
func (s Sync) Enqueue(threadID int64, n *note.Note) error {
	if _, err := s.Notifier.Notify(context.Background(), threadID, n, n.Author); err != nil {
		slog.Error("note notification dispatch failed",
			"note_id", n.ID, "thread_id", threadID, "error", err)
	}
	return nil
}

var (
	_ note.Notifier = (*Queue)(nil)
	_ note.Notifier = Sync{}
	_ Notifier      = (*Dispatcher)(nil)
)
