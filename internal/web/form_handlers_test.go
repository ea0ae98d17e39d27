package web

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/evcraddock/forum-notes/internal/note"
)

func postForm(t *testing.T, srv *Server, token string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("POST", "/notes", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func TestNoteFormRedirectsToPermalink(t *testing.T) {
	env := newTestEnv(t)

	w := postForm(t, env.srv, env.keyM1, url.Values{
		note.FieldReplyID: {fmt.Sprint(env.reply.ID)},
		note.FieldNote:    {"check this user"},
	})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303; body: %s", w.Code, w.Body.String())
	}

	want := fmt.Sprintf("https://forum.example/topics/%d#post-%d", env.topic.ID, env.reply.ID)
	if got := w.Header().Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}

	if got := env.mailer.recipients(); len(got) != 1 || got[0] != "m2@example.com" {
		t.Errorf("notified %v, want [m2@example.com]", got)
	}
}

func TestNoteFormErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		token string
		form  url.Values
		want  int
	}{
		{"missing reply id", env.keyM1, url.Values{note.FieldNote: {"x"}}, http.StatusBadRequest},
		{"bad reply id", env.keyM1, url.Values{note.FieldReplyID: {"abc"}, note.FieldNote: {"x"}}, http.StatusBadRequest},
		{"empty note", env.keyM1, url.Values{note.FieldReplyID: {fmt.Sprint(env.reply.ID)}}, http.StatusBadRequest},
		{"non-moderator", env.keyU9, url.Values{note.FieldReplyID: {fmt.Sprint(env.reply.ID)}, note.FieldNote: {"x"}}, http.StatusForbidden},
		{"anonymous", "", url.Values{note.FieldReplyID: {fmt.Sprint(env.reply.ID)}, note.FieldNote: {"x"}}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForm(t, env.srv, tt.token, tt.form)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d; body: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestNoteFormMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	w := httptest.NewRecorder()
	env.srv.ServeHTTP(w, httptest.NewRequest("GET", "/notes", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
