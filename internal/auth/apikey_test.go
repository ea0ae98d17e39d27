package auth

import (
	"context"
	"strings"
	"testing"
)

func TestAPIKeyCreateAndValidate(t *testing.T) {
	store, userID := testAPIKeyStore(t)
	ctx := context.Background()

	rawKey, key, err := store.Create(ctx, "Test Key", userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rawKey == "" {
		t.Fatal("expected non-empty raw key")
	}
	if key.Name != "Test Key" {
		t.Errorf("name = %q, want %q", key.Name, "Test Key")
	}
	if key.UserID != userID {
		t.Errorf("user_id = %d, want %d", key.UserID, userID)
	}
	if len(rawKey) < 10 {
		t.Error("raw key too short")
	}

	gotUser, ok, err := store.Validate(ctx, rawKey)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !ok {
		t.Fatal("expected valid key")
	}
	if gotUser != userID {
		t.Errorf("validated user = %d, want %d", gotUser, userID)
	}
}

func TestAPIKeyValidateInvalid(t *testing.T) {
	store, _ := testAPIKeyStore(t)

	userID, ok, err := store.Validate(context.Background(), "fn_boguskey12345678")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok || userID != 0 {
		t.Errorf("got (%d, %v), want invalid", userID, ok)
	}
}

func TestAPIKeyList(t *testing.T) {
	store, userID := testAPIKeyStore(t)
	ctx := context.Background()

	if _, _, err := store.Create(ctx, "Key 1", userID); err != nil {
		t.Fatalf("create 1: %v", err)
	}
	if _, _, err := store.Create(ctx, "Key 2", userID); err != nil {
		t.Fatalf("create 2: %v", err)
	}

	keys, err := store.List(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}

	other, err := store.List(ctx, userID+100)
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("got %d keys for other user, want 0", len(other))
	}
}

func TestAPIKeyDelete(t *testing.T) {
	store, userID := testAPIKeyStore(t)
	ctx := context.Background()

	rawKey, key, err := store.Create(ctx, "To Delete", userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.Delete(ctx, key.ID, userID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, ok, err := store.Validate(ctx, rawKey)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if ok {
		t.Error("deleted key should be invalid")
	}
}

func TestAPIKeyDeleteNotFound(t *testing.T) {
	store, _ := testAPIKeyStore(t)

	if err := store.Delete(context.Background(), 9999, 1); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestAPIKeyDeleteWrongOwner(t *testing.T) {
	store, userID := testAPIKeyStore(t)
	ctx := context.Background()

	_, key, err := store.Create(ctx, "Owned Key", userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.Delete(ctx, key.ID, userID+1); err == nil {
		t.Fatal("expected error deleting another user's key")
	}
	if err := store.Delete(ctx, key.ID, userID); err != nil {
		t.Fatalf("delete own key: %v", err)
	}
}

func TestAPIKeyUpdatesLastUsed(t *testing.T) {
	store, userID := testAPIKeyStore(t)
	ctx := context.Background()

	rawKey, _, err := store.Create(ctx, "Usage Test", userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	keys, err := store.List(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if keys[0].LastUsedAt != nil {
		t.Error("expected nil last_used_at before use")
	}

	if _, _, err := store.Validate(ctx, rawKey); err != nil {
		t.Fatalf("validate: %v", err)
	}

	keys, err = store.List(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if keys[0].LastUsedAt == nil {
		t.Error("expected non-nil last_used_at after use")
	}
}

func TestAPIKeyUniqueness(t *testing.T) {
	store, userID := testAPIKeyStore(t)
	ctx := context.Background()

	raw1, _, err := store.Create(ctx, "Key A", userID)
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	raw2, _, err := store.Create(ctx, "Key B", userID)
	if err != nil {
		t.Fatalf("create B: %v", err)
	}

	if raw1 == raw2 {
		t.Error("two keys should not be identical")
	}
}

func TestAPIKeyPrefix(t *testing.T) {
	store, userID := testAPIKeyStore(t)

	raw, key, err := store.Create(context.Background(), "Prefix Test", userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !strings.HasPrefix(raw, "fn_") {
		t.Errorf("key should start with fn_, got %q", raw[:3])
	}
	if key.KeyPrefix != raw[:8] {
		t.Errorf("prefix = %q, want %q", key.KeyPrefix, raw[:8])
	}
}

func testAPIKeyStore(t *testing.T) (*APIKeyStore, int64) {
	t.Helper()
	d := openTestDB(t)
	userID := insertUser(t, d, "keyholder", false)
	return NewAPIKeyStore(d), userID
}
