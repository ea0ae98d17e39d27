// Package metrics provides Prometheus metrics for notes and notifications.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons for NoteRejected.
const (
	ReasonValidation = "validation"
	ReasonPermission = "permission"
)

// Notification outcomes for Notification.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// Metrics holds the service's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	NotesCreated     prometheus.Counter
	NotesRejected    *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
	registry         *prometheus.Registry
}

// New creates a Metrics instance on its own registry, including the Go
// runtime and process collectors.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.NotesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_notes_created_total",
		Help: "Total number of moderator notes created",
	})
	m.NotesRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_notes_rejected_total",
		Help: "Total number of note submissions rejected, by reason",
	}, []string{"reason"})
	m.Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_note_notifications_total",
		Help: "Total number of note notification emails, by result",
	}, []string{"result"})
	m.DispatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "forum_note_dispatch_duration_seconds",
		Help:    "Time taken to fan out notifications for one note",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	for _, c := range []prometheus.Collector{
		m.NotesCreated,
		m.NotesRejected,
		m.Notifications,
		m.DispatchDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NoteCreated counts a stored note.
func (m *Metrics) NoteCreated() {
	if m == nil {
		return
	}
	m.NotesCreated.Inc()
}

// NoteRejected counts a refused submission.
func (m *Metrics) NoteRejected(reason string) {
	if m == nil {
		return
	}
	m.NotesRejected.WithLabelValues(reason).Inc()
}

// Notification counts one recipient outcome.
func (m *Metrics) Notification(result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(result).Inc()
}

// ObserveDispatch records the duration of one fan-out.
func (m *Metrics) ObserveDispatch(d time.Duration) {
	if m == nil {
		return
	}
	m.DispatchDuration.Observe(d.Seconds())
}
