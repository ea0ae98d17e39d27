package web

import (
	"log/slog"
	"net/http"

	"github.com/evcraddock/forum-notes/internal/forum"
	"github.com/evcraddock/forum-notes/internal/note"
)

// maxFormBytes bounds a note form submission.
const maxFormBytes = 64 << 10

// handleNoteForm accepts the add-note form (reply_id, note) and redirects
// back to the reply on success.
func (s *Server) handleNoteForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	cmd, err := note.ParseCreateForm(r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n, err := s.notes.Submit(r.Context(), actorFromRequest(r), cmd)
	switch {
	case note.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case note.IsPermission(err):
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "note form submission failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, s.permalink(r, n.ParentID), http.StatusSeeOther)
}

// permalink links to postID within its thread, falling back to the post
// itself when the thread cannot be resolved.
func (s *Server) permalink(r *http.Request, postID int64) string {
	threadID := postID
	if p, err := s.posts.GetPost(r.Context(), postID); err == nil {
		threadID = p.ThreadID()
	}
	return forum.Permalink(s.baseURL, threadID, postID)
}
