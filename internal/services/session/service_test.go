package session

import (
	"context"
	"testing"
	"time"

	"github.com/luminalabs/visage/internal/config"
)

func TestCreateAndResolve(t *testing.T) {
	restore := config.SetJWTSecret([]byte("session-test-secret"))
	defer restore()

	ctx := context.Background()
	svc := NewService(nil)

	sess, token, err := svc.Create(ctx, "be friendly", "voice-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.ID == "" {
		t.Error("session id is empty")
	}
	if token == "" {
		t.Error("connection token is empty")
	}
	if token == sess.ID {
		t.Error("connection token should not expose the session id directly")
	}

	got, err := svc.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("resolved session %q, want %q", got.ID, sess.ID)
	}
	if got.Prompt != "be friendly" || got.VoiceID != "voice-1" {
		t.Errorf("resolved session lost fields: %+v", got)
	}
}

func TestResolveRejectsBadTokens(t *testing.T) {
	restore := config.SetJWTSecret([]byte("session-test-secret"))
	defer restore()

	ctx := context.Background()
	svc := NewService(nil)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage token", "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Resolve(ctx, tt.token); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	t.Run("token signed with another secret", func(t *testing.T) {
		_, token, err := svc.Create(ctx, "p", "v")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		swap := config.SetJWTSecret([]byte("different-secret"))
		defer swap()

		if _, err := svc.Resolve(ctx, token); err == nil {
			t.Error("expected error for token signed with old secret")
		}
	})
}

func TestResolveDeletedSession(t *testing.T) {
	restore := config.SetJWTSecret([]byte("session-test-secret"))
	defer restore()

	ctx := context.Background()
	svc := NewService(nil)

	sess, token, err := svc.Create(ctx, "p", "v")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := svc.Resolve(ctx, token); err == nil {
		t.Error("expected error resolving a deleted session")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(time.Hour)

	sess := &Session{ID: "abc", Prompt: "p", VoiceID: "v", CreatedAt: time.Now()}
	if err := store.Set(ctx, sess.ID, sess); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.ID != "abc" {
		t.Errorf("Get returned %+v", got)
	}

	missing, err := store.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get failed for missing key: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing session, got %+v", missing)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(time.Hour)

	clock := time.Now()
	store.now = func() time.Time { return clock }

	sess := &Session{ID: "abc", Prompt: "p", VoiceID: "v", CreatedAt: clock}
	if err := store.Set(ctx, sess.ID, sess); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	clock = clock.Add(30 * time.Minute)
	if got, _ := store.Get(ctx, "abc"); got == nil {
		t.Fatal("session expired before its TTL")
	}

	clock = clock.Add(31 * time.Minute)
	if got, _ := store.Get(ctx, "abc"); got != nil {
		t.Errorf("session still resolvable past its TTL: %+v", got)
	}
	if len(store.entries) != 0 {
		t.Errorf("expired entry not pruned, %d entries remain", len(store.entries))
	}

	// New writes sweep out other stale entries.
	if err := store.Set(ctx, "old", &Session{ID: "old"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	clock = clock.Add(2 * time.Hour)
	if err := store.Set(ctx, "fresh", &Session{ID: "fresh"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := store.entries["old"]; ok {
		t.Error("stale entry survived a later write")
	}
}
