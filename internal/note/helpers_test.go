package note

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evcraddock/forum-notes/internal/auth"
	"github.com/evcraddock/forum-notes/internal/comment"
	"github.com/evcraddock/forum-notes/internal/db"
	"github.com/evcraddock/forum-notes/internal/forum"
	"github.com/evcraddock/forum-notes/internal/user"
)

// fixture is a small forum: topic T with reply R in forum F, moderator M1
// and M2, plain member U9.
type fixture struct {
	store    *Store
	comments *comment.Repository
	posts    *forum.Repository
	authz    *auth.Authorizer
	users    *user.Directory

	forumID int64
	topic   *forum.Post
	reply   *forum.Post
	m1      *user.User
	m2      *user.User
	u9      *user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	f := &fixture{
		comments: comment.NewRepository(d, time.UTC),
		posts:    forum.NewRepository(d),
		authz:    auth.NewAuthorizer(d),
		users:    user.NewDirectory(d),
	}
	f.store = NewStore(f.comments, f.posts, f.authz, f.users, nil)

	f.m1, err = f.users.Add(ctx, "m1", "Moderator One", "m1@example.com", "https://m1.example")
	require.NoError(t, err)
	f.m2, err = f.users.Add(ctx, "m2", "", "m2@example.com", "")
	require.NoError(t, err)
	f.u9, err = f.users.Add(ctx, "u9", "", "u9@example.com", "")
	require.NoError(t, err)

	fm, err := f.posts.CreateForum(ctx, "Support")
	require.NoError(t, err)
	f.forumID = fm.ID

	f.topic, err = f.posts.CreateTopic(ctx, fm.ID, f.u9.ID, "Spam?", "first post")
	require.NoError(t, err)
	f.reply, err = f.posts.CreateReply(ctx, f.topic.ID, f.u9.ID, "buy now")
	require.NoError(t, err)

	require.NoError(t, f.authz.Grant(ctx, f.m1.ID, auth.CapModerate, fm.ID))
	require.NoError(t, f.authz.Grant(ctx, f.m2.ID, auth.CapModerate, fm.ID))

	return f
}

func (f *fixture) actor(u *user.User) Actor {
	return Actor{UserID: u.ID, IP: "203.0.113.7", UserAgent: "test-agent/1.0"}
}
