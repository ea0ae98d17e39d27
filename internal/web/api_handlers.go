package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/forum-notes/internal/auth"
	"github.com/evcraddock/forum-notes/internal/comment"
	"github.com/evcraddock/forum-notes/internal/forum"
	"github.com/evcraddock/forum-notes/internal/note"
	"github.com/evcraddock/forum-notes/internal/user"
)

// maxCommentLength bounds ordinary comment bodies.
const maxCommentLength = 10000

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// noteError maps a note operation error onto a JSON response.
func noteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case note.IsValidation(err):
		apiError(w, err.Error(), http.StatusBadRequest)
	case note.IsPermission(err):
		apiError(w, err.Error(), http.StatusForbidden)
	default:
		slog.ErrorContext(r.Context(), "note request failed", "path", r.URL.Path, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
	}
}

// actorFromRequest identifies the caller of a note operation.
func actorFromRequest(r *http.Request) note.Actor {
	return note.Actor{
		UserID:    auth.UserIDFromContext(r.Context()),
		IP:        remoteIP(r),
		UserAgent: r.UserAgent(),
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// handleAPIPosts routes /api/posts/{id}/* requests.
func (s *Server) handleAPIPosts(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/posts/")

	// /api/posts/{id}/notes
	if strings.HasSuffix(path, "/notes") {
		id, err := strconv.ParseInt(strings.TrimSuffix(path, "/notes"), 10, 64)
		if err != nil {
			apiError(w, "invalid post ID", http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			s.apiListNotes(w, r, id)
		case http.MethodPost:
			s.apiAddNote(w, r, id)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/posts/{id}/comments
	if strings.HasSuffix(path, "/comments") {
		id, err := strconv.ParseInt(strings.TrimSuffix(path, "/comments"), 10, 64)
		if err != nil {
			apiError(w, "invalid post ID", http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			s.apiListComments(w, r, comment.Query{PostID: id, Ascending: true})
		case http.MethodPost:
			s.apiAddComment(w, r, id)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	apiError(w, "not found", http.StatusNotFound)
}

// apiListNotes returns the notes on a post. Only moderators of the post's
// forum get them.
func (s *Server) apiListNotes(w http.ResponseWriter, r *http.Request, postID int64) {
	notes, err := s.notes.List(r.Context(), actorFromRequest(r), postID)
	if err != nil {
		noteError(w, r, err)
		return
	}
	apiJSON(w, notes, http.StatusOK)
}

// apiAddNote stores a note from a JSON body.
func (s *Server) apiAddNote(w http.ResponseWriter, r *http.Request, postID int64) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	n, err := s.notes.Submit(r.Context(), actorFromRequest(r), note.CreateCommand{
		ParentID: postID,
		Content:  req.Content,
	})
	if err != nil {
		noteError(w, r, err)
		return
	}
	apiJSON(w, n, http.StatusCreated)
}

// handleAPIComments serves GET /api/comments, the general comment listing.
// Notes are never served here.
func (s *Server) handleAPIComments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := comment.Query{Type: r.URL.Query().Get("type")}
	if q.Type == comment.NoteType {
		apiError(w, "type moderator_note is not available here", http.StatusBadRequest)
		return
	}
	if v := r.URL.Query().Get("post_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			apiError(w, "post_id must be a positive integer", http.StatusBadRequest)
			return
		}
		q.PostID = id
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			apiError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		q.Limit = n
	}

	s.apiListComments(w, r, q)
}

func (s *Server) apiListComments(w http.ResponseWriter, r *http.Request, q comment.Query) {
	comments, err := s.comments.List(r.Context(), q)
	if err != nil {
		slog.ErrorContext(r.Context(), "listing comments", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if comments == nil {
		comments = make([]*comment.Comment, 0)
	}
	apiJSON(w, comments, http.StatusOK)
}

// apiAddComment adds an ordinary public comment to a post.
func (s *Server) apiAddComment(w http.ResponseWriter, r *http.Request, postID int64) {
	userID := auth.UserIDFromContext(r.Context())
	if userID <= 0 {
		apiError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		apiError(w, "content is required", http.StatusBadRequest)
		return
	}
	if len(content) > maxCommentLength {
		apiError(w, "content is too long", http.StatusBadRequest)
		return
	}

	if _, err := s.posts.GetPost(r.Context(), postID); errors.Is(err, forum.ErrNotFound) {
		apiError(w, "post not found", http.StatusNotFound)
		return
	} else if err != nil {
		slog.ErrorContext(r.Context(), "loading post", "post_id", postID, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	u, err := s.users.GetByID(r.Context(), userID)
	if errors.Is(err, user.ErrNotFound) {
		apiError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "loading user", "user_id", userID, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	c, err := s.comments.Insert(r.Context(), &comment.Comment{
		PostID:      postID,
		UserID:      u.ID,
		Author:      u.Name(),
		AuthorEmail: u.Email,
		AuthorURL:   u.URL,
		AuthorIP:    remoteIP(r),
		AuthorAgent: r.UserAgent(),
		Content:     content,
		Approved:    true,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "adding comment", "post_id", postID, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, c, http.StatusCreated)
}
