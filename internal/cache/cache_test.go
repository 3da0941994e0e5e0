package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, ttlSeconds int) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gavel.db")
	s, err := Open(true, path, ttlSeconds)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t, 3600)

	key := Key("openai", "gpt-4o", "system", "user")
	if _, ok := s.Get(key); ok {
		t.Error("unexpected hit before Put")
	}

	if err := s.Put(key, `{"findings": []}`); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, ok := s.Get(key)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got != `{"findings": []}` {
		t.Errorf("Get = %q", got)
	}
}

func TestStore_Expired(t *testing.T) {
	s := openTestStore(t, 60)

	if s.expired(Entry{CreatedAt: time.Now()}) {
		t.Error("fresh entry should not be expired")
	}
	if !s.expired(Entry{CreatedAt: time.Now().Add(-2 * time.Minute)}) {
		t.Error("entry older than the TTL should be expired")
	}
}

func TestStore_ZeroTTLNeverExpires(t *testing.T) {
	s := openTestStore(t, 0)

	key := Key("p", "m", "s", "u")
	if err := s.Put(key, "keep"); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get(key); !ok {
		t.Error("zero TTL entry should never expire")
	}
}

func TestStore_Clear(t *testing.T) {
	s := openTestStore(t, 3600)

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Put(k, "v"); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if _, ok := s.Get("a"); ok {
		t.Error("entries should be gone after Clear")
	}

	// Bucket must be usable again.
	if err := s.Put("d", "v"); err != nil {
		t.Errorf("Put after Clear: %v", err)
	}
}

func TestStore_GetStats(t *testing.T) {
	s := openTestStore(t, 3600)
	if err := s.Put("x", "v"); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("y", "v"); err != nil {
		t.Fatal(err)
	}

	stats, err := s.GetStats()
	if err != nil {
		t.Fatalf("GetStats error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
}

func TestStore_Disabled(t *testing.T) {
	s, err := Open(false, "", 3600)
	if err != nil {
		t.Fatalf("Open disabled error: %v", err)
	}
	defer s.Close()

	if s.Enabled() {
		t.Error("store should report disabled")
	}
	if err := s.Put("k", "v"); err != nil {
		t.Errorf("disabled Put should be a no-op, got %v", err)
	}
	if _, ok := s.Get("k"); ok {
		t.Error("disabled Get should always miss")
	}
	if err := s.Clear(); err != nil {
		t.Errorf("disabled Clear should be a no-op, got %v", err)
	}
}

func TestKey_Stable(t *testing.T) {
	k1 := Key("openai", "gpt-4o", "sys", "usr")
	k2 := Key("openai", "gpt-4o", "sys", "usr")
	if k1 != k2 {
		t.Error("identical inputs must produce identical keys")
	}
	if k1 == Key("anthropic", "gpt-4o", "sys", "usr") {
		t.Error("different providers must produce different keys")
	}
	if k1 == Key("openai", "gpt-4o", "sys", "other") {
		t.Error("different prompts must produce different keys")
	}
	if len(k1) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(k1))
	}
}
