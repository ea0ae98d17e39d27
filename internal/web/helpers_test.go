package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/evcraddock/forum-notes/internal/auth"
	"github.com/evcraddock/forum-notes/internal/comment"
	"github.com/evcraddock/forum-notes/internal/db"
	"github.com/evcraddock/forum-notes/internal/email"
	"github.com/evcraddock/forum-notes/internal/forum"
	"github.com/evcraddock/forum-notes/internal/metrics"
	"github.com/evcraddock/forum-notes/internal/note"
	"github.com/evcraddock/forum-notes/internal/notify"
	"github.com/evcraddock/forum-notes/internal/subscription"
	"github.com/evcraddock/forum-notes/internal/user"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []email.Message
}

func (m *recordingMailer) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, msg := range m.sent {
		out = append(out, msg.To)
	}
	return out
}

// testEnv is topic T7 with reply R42 in one forum. M1 and M2 moderate it,
// U9 does not, and all three follow the topic. Each user has an API key.
type testEnv struct {
	srv    *Server
	mailer *recordingMailer
	posts  *forum.Repository
	keys   *auth.APIKeyStore

	topic *forum.Post
	reply *forum.Post
	m1    *user.User
	m2    *user.User
	u9    *user.User

	keyM1 string
	keyM2 string
	keyU9 string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	users := user.NewDirectory(d)
	posts := forum.NewRepository(d)
	authz := auth.NewAuthorizer(d)
	subs := subscription.NewRegistry(d)
	comments := comment.NewRepository(d, time.UTC)
	keys := auth.NewAPIKeyStore(d)
	m, err := metrics.New()
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	env := &testEnv{mailer: &recordingMailer{}, posts: posts, keys: keys}

	mustUser := func(login, name string) *user.User {
		u, err := users.Add(ctx, login, name, login+"@example.com", "")
		if err != nil {
			t.Fatalf("add user %s: %v", login, err)
		}
		return u
	}
	env.m1 = mustUser("m1", "Moderator One")
	env.m2 = mustUser("m2", "Moderator Two")
	env.u9 = mustUser("u9", "")

	f, err := posts.CreateForum(ctx, "Support")
	if err != nil {
		t.Fatalf("create forum: %v", err)
	}
	env.topic, err = posts.CreateTopic(ctx, f.ID, env.u9.ID, "Strange links", "hello")
	if err != nil {
		t.Fatalf("create topic: %v", err)
	}
	env.reply, err = posts.CreateReply(ctx, env.topic.ID, env.u9.ID, "buy now")
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}

	for _, u := range []*user.User{env.m1, env.m2} {
		if err := authz.Grant(ctx, u.ID, auth.CapModerate, f.ID); err != nil {
			t.Fatalf("grant: %v", err)
		}
	}
	for _, u := range []*user.User{env.m1, env.m2, env.u9} {
		if err := subs.Subscribe(ctx, u.ID, env.topic.ID); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	mustKey := func(u *user.User) string {
		raw, _, err := keys.Create(ctx, "test", u.ID)
		if err != nil {
			t.Fatalf("create key: %v", err)
		}
		return raw
	}
	env.keyM1 = mustKey(env.m1)
	env.keyM2 = mustKey(env.m2)
	env.keyU9 = mustKey(env.u9)

	dispatcher := notify.NewDispatcher(subs, authz, users, posts, env.mailer,
		notify.Config{BaseURL: "https://forum.example", SiteName: "Test Forum"}, m)
	store := note.NewStore(comments, posts, authz, users, m)

	env.srv = NewServer(Options{
		DB:       d,
		Notes:    note.NewService(store, posts, notify.Sync{Notifier: dispatcher}),
		Comments: comments,
		Posts:    posts,
		Users:    users,
		APIKeys:  keys,
		Metrics:  m,
		BaseURL:  "https://forum.example/",
		SiteName: "Test Forum",
	})
	return env
}

func apiRequest(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	reqBody := &bytes.Buffer{}
	if body != nil {
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v; body: %s", err, w.Body.String())
	}
}
