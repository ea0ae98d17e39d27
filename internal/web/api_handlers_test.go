package web

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evcraddock/forum-notes/internal/comment"
	"github.com/evcraddock/forum-notes/internal/note"
)

func notesPath(postID int64) string {
	return fmt.Sprintf("/api/posts/%d/notes", postID)
}

func TestModeratorNoteScenario(t *testing.T) {
	env := newTestEnv(t)

	w := apiRequest(t, env.srv, "POST", notesPath(env.reply.ID), env.keyM1,
		map[string]string{"content": "check this user"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201; body: %s", w.Code, w.Body.String())
	}
	var created note.Note
	decodeJSON(t, w, &created)
	if created.ID == 0 {
		t.Fatal("expected note id")
	}

	w = apiRequest(t, env.srv, "GET", notesPath(env.reply.ID), env.keyM2, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", w.Code)
	}
	var notes []note.Note
	decodeJSON(t, w, &notes)
	if len(notes) != 1 {
		t.Fatalf("got %d notes, want 1", len(notes))
	}
	if notes[0].Content != "check this user" {
		t.Errorf("content = %q", notes[0].Content)
	}
	if notes[0].Author.ID != env.m1.ID {
		t.Errorf("author = %d, want %d", notes[0].Author.ID, env.m1.ID)
	}

	got := env.mailer.recipients()
	if len(got) != 1 || got[0] != "m2@example.com" {
		t.Errorf("notified %v, want [m2@example.com]", got)
	}
}

func TestListNotesForbidden(t *testing.T) {
	env := newTestEnv(t)
	apiRequest(t, env.srv, "POST", notesPath(env.reply.ID), env.keyM1,
		map[string]string{"content": "private"})

	tests := []struct {
		name  string
		token string
	}{
		{"non-moderator", env.keyU9},
		{"anonymous", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, env.srv, "GET", notesPath(env.reply.ID), tt.token, nil)
			if w.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want 403", w.Code)
			}
			if strings.Contains(w.Body.String(), "private") {
				t.Error("note content leaked in error response")
			}
		})
	}
}

func TestAddNoteNonModerator(t *testing.T) {
	env := newTestEnv(t)

	w := apiRequest(t, env.srv, "POST", notesPath(env.reply.ID), env.keyU9,
		map[string]string{"content": "let me in"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	w = apiRequest(t, env.srv, "GET", notesPath(env.reply.ID), env.keyM1, nil)
	var notes []note.Note
	decodeJSON(t, w, &notes)
	if len(notes) != 0 {
		t.Errorf("got %d notes, want 0", len(notes))
	}
	if len(env.mailer.recipients()) != 0 {
		t.Error("rejected note should not notify")
	}
}

func TestAddNoteValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		path string
		body interface{}
		want int
	}{
		{"empty content", notesPath(env.reply.ID), map[string]string{"content": "  "}, http.StatusBadRequest},
		{"markup only", notesPath(env.reply.ID), map[string]string{"content": "<b></b>"}, http.StatusBadRequest},
		{"unknown post", notesPath(9999), map[string]string{"content": "hi"}, http.StatusBadRequest},
		{"bad post id", "/api/posts/abc/notes", map[string]string{"content": "hi"}, http.StatusBadRequest},
		{"bad json", notesPath(env.reply.ID), "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, env.srv, "POST", tt.path, env.keyM1, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d; body: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAddNoteStripsMarkup(t *testing.T) {
	env := newTestEnv(t)

	w := apiRequest(t, env.srv, "POST", notesPath(env.topic.ID), env.keyM2,
		map[string]string{"content": "<script>alert(1)</script><p>watch <b>this</b></p>"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	var n note.Note
	decodeJSON(t, w, &n)
	if strings.ContainsAny(n.Content, "<>") {
		t.Errorf("content kept markup: %q", n.Content)
	}
	if !strings.Contains(n.Content, "watch") {
		t.Errorf("content lost text: %q", n.Content)
	}
}

func TestNotesMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	w := apiRequest(t, env.srv, "DELETE", notesPath(env.reply.ID), env.keyM1, nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestCommentListingsExcludeNotes(t *testing.T) {
	env := newTestEnv(t)

	apiRequest(t, env.srv, "POST", notesPath(env.reply.ID), env.keyM1,
		map[string]string{"content": "secret note"})
	w := apiRequest(t, env.srv, "POST", fmt.Sprintf("/api/posts/%d/comments", env.reply.ID), env.keyU9,
		map[string]string{"content": "public comment"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add comment status = %d; body: %s", w.Code, w.Body.String())
	}

	paths := []string{
		"/api/comments",
		fmt.Sprintf("/api/comments?post_id=%d", env.reply.ID),
		fmt.Sprintf("/api/posts/%d/comments", env.reply.ID),
	}
	for _, path := range paths {
		for _, token := range []string{"", env.keyM1} {
			w := apiRequest(t, env.srv, "GET", path, token, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("%s status = %d", path, w.Code)
			}
			var got []comment.Comment
			decodeJSON(t, w, &got)
			if len(got) != 1 {
				t.Fatalf("%s returned %d comments, want 1", path, len(got))
			}
			if got[0].IsNote() || got[0].Content != "public comment" {
				t.Errorf("%s returned %+v", path, got[0])
			}
		}
	}
}

func TestCommentListingRefusesNoteType(t *testing.T) {
	env := newTestEnv(t)
	w := apiRequest(t, env.srv, "GET", "/api/comments?type=moderator_note", env.keyM1, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCommentListingBadParams(t *testing.T) {
	env := newTestEnv(t)
	for _, q := range []string{"post_id=x", "post_id=-1", "limit=0", "limit=many"} {
		w := apiRequest(t, env.srv, "GET", "/api/comments?"+q, "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, w.Code)
		}
	}
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		post  int64
		token string
		body  interface{}
		want  int
	}{
		{"anonymous", env.reply.ID, "", map[string]string{"content": "hi"}, http.StatusUnauthorized},
		{"unknown post", 9999, env.keyU9, map[string]string{"content": "hi"}, http.StatusNotFound},
		{"empty", env.reply.ID, env.keyU9, map[string]string{"content": ""}, http.StatusBadRequest},
		{"too long", env.reply.ID, env.keyU9, map[string]string{"content": strings.Repeat("a", maxCommentLength+1)}, http.StatusBadRequest},
		{"ok", env.reply.ID, env.keyU9, map[string]string{"content": "hi"}, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, env.srv, "POST", fmt.Sprintf("/api/posts/%d/comments", tt.post), tt.token, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d; body: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAddCommentHidesPrivateFields(t *testing.T) {
	env := newTestEnv(t)
	w := apiRequest(t, env.srv, "POST", fmt.Sprintf("/api/posts/%d/comments", env.reply.ID), env.keyU9,
		map[string]string{"content": "hi"})
	if strings.Contains(w.Body.String(), "u9@example.com") {
		t.Error("comment response exposes the author's email")
	}
}

func TestInvalidAPIKey(t *testing.T) {
	env := newTestEnv(t)
	w := apiRequest(t, env.srv, "GET", notesPath(env.reply.ID), "fn_bogus", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestUnknownPostsRoute(t *testing.T) {
	env := newTestEnv(t)
	w := apiRequest(t, env.srv, "GET", fmt.Sprintf("/api/posts/%d", env.reply.ID), "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := apiRequest(t, env.srv, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	apiRequest(t, env.srv, "POST", notesPath(env.reply.ID), env.keyM1,
		map[string]string{"content": "counted"})
	apiRequest(t, env.srv, "POST", notesPath(env.reply.ID), env.keyU9,
		map[string]string{"content": "refused"})

	w := httptest.NewRecorder()
	env.srv.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body := w.Body.String()

	for _, want := range []string{
		"forum_notes_created_total 1",
		`forum_notes_rejected_total{reason="permission"} 1`,
		`forum_note_notifications_total{result="sent"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)
	w := apiRequest(t, env.srv, "GET", "/api/comments", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}
