package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/evcraddock/forum-notes/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})
	return d
}

func insertUser(t *testing.T, d *sql.DB, login string, keymaster bool) int64 {
	t.Helper()
	res, err := d.Exec(`INSERT INTO users (login, keymaster) VALUES (?, ?)`, login, keymaster)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return id
}

func insertForum(t *testing.T, d *sql.DB, name string) int64 {
	t.Helper()
	res, err := d.Exec(`INSERT INTO forums (name) VALUES (?)`, name)
	if err != nil {
		t.Fatalf("insert forum: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return id
}

func TestHasCapability(t *testing.T) {
	d := openTestDB(t)
	a := NewAuthorizer(d)
	ctx := context.Background()

	general := insertForum(t, d, "General")
	other := insertForum(t, d, "Other")
	mod := insertUser(t, d, "mod", false)
	admin := insertUser(t, d, "admin", true)
	member := insertUser(t, d, "member", false)

	if err := a.Grant(ctx, mod, CapModerate, general); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := a.Grant(ctx, mod, CapModerate, general); err != nil {
		t.Fatalf("second grant should be a no-op: %v", err)
	}

	tests := []struct {
		name   string
		userID int64
		forum  int64
		want   bool
	}{
		{"moderator on own forum", mod, general, true},
		{"moderator on other forum", mod, other, false},
		{"keymaster anywhere", admin, other, true},
		{"plain member", member, general, false},
		{"anonymous", 0, general, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.HasCapability(ctx, tt.userID, CapModerate, tt.forum)
			if err != nil {
				t.Fatalf("has capability: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasCapability = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRevokeTakesEffectImmediately(t *testing.T) {
	d := openTestDB(t)
	a := NewAuthorizer(d)
	ctx := context.Background()

	forum := insertForum(t, d, "General")
	mod := insertUser(t, d, "mod", false)

	if err := a.Grant(ctx, mod, CapModerate, forum); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := a.Revoke(ctx, mod, CapModerate, forum); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	ok, err := a.HasCapability(ctx, mod, CapModerate, forum)
	if err != nil {
		t.Fatalf("has capability: %v", err)
	}
	if ok {
		t.Error("revoked moderator still has capability")
	}
}

func TestHolders(t *testing.T) {
	d := openTestDB(t)
	a := NewAuthorizer(d)
	ctx := context.Background()

	forum := insertForum(t, d, "General")
	m1 := insertUser(t, d, "m1", false)
	m2 := insertUser(t, d, "m2", false)

	for _, id := range []int64{m2, m1} {
		if err := a.Grant(ctx, id, CapModerate, forum); err != nil {
			t.Fatalf("grant: %v", err)
		}
	}

	ids, err := a.Holders(ctx, CapModerate, forum)
	if err != nil {
		t.Fatalf("holders: %v", err)
	}
	if len(ids) != 2 || ids[0] != m1 || ids[1] != m2 {
		t.Errorf("holders = %v, want [%d %d]", ids, m1, m2)
	}
}
