// Package web provides the HTTP server and handlers for the forum notes API.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evcraddock/forum-notes/internal/auth"
	"github.com/evcraddock/forum-notes/internal/comment"
	"github.com/evcraddock/forum-notes/internal/forum"
	"github.com/evcraddock/forum-notes/internal/logging"
	"github.com/evcraddock/forum-notes/internal/metrics"
	"github.com/evcraddock/forum-notes/internal/note"
	"github.com/evcraddock/forum-notes/internal/user"
)

// Options are the collaborators a Server is built from.
type Options struct {
	DB       *sql.DB
	Notes    *note.Service
	Comments *comment.Repository
	Posts    *forum.Repository
	Users    *user.Directory
	APIKeys  *auth.APIKeyStore
	Metrics  *metrics.Metrics
	BaseURL  string
	SiteName string
}

// Server is the forum notes HTTP server.
type Server struct {
	db       *sql.DB
	notes    *note.Service
	comments *comment.Repository
	posts    *forum.Repository
	users    *user.Directory
	keys     *apikeyHandlers
	baseURL  string
	siteName string
	mux      *http.ServeMux
	handler  http.Handler
}

// NewServer wires the routes and middleware.
func NewServer(opts Options) *Server {
	s := &Server{
		db:       opts.DB,
		notes:    opts.Notes,
		comments: opts.Comments,
		posts:    opts.Posts,
		users:    opts.Users,
		keys:     &apikeyHandlers{apiKeys: opts.APIKeys},
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		siteName: opts.SiteName,
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", opts.Metrics.Handler())
	s.mux.HandleFunc("/api/posts/", s.handleAPIPosts)
	s.mux.HandleFunc("/api/comments", s.handleAPIComments)
	s.mux.HandleFunc("/api/keys", s.keys.handleAPIKeysRoute)
	s.mux.HandleFunc("/api/keys/", s.keys.handleAPIKeysRoute)
	s.mux.HandleFunc("/notes", s.handleNoteForm)
	s.mux.HandleFunc("/feed/comments", s.handleCommentFeed)

	authn := auth.NewAuthenticator(opts.APIKeys)
	s.handler = logging.RequestLogger(authn.Middleware(s.mux))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth reports whether the database is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			apiError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
