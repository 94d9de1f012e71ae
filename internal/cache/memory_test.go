package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGetRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	type user struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}

	if err := m.Set(ctx, UserKey("u1"), user{ID: "u1", Username: "alice"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got user
	ok, err := m.Get(ctx, UserKey("u1"), &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Username != "alice" {
		t.Fatalf("unexpected value: %+v", got)
	}
}

func TestMemory_ExpiryEvicts(t *testing.T) {
	m := NewMemory()
	now := time.Unix(1700000000, 0)
	m.SetClock(func() time.Time { return now })
	ctx := context.Background()

	if err := m.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	now = now.Add(2 * time.Minute)
	var got string
	ok, err := m.Get(ctx, "k", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestMemory_DeletePattern(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, key := range []string{DeckKey("d1"), DeckKey("d2"), DeckCardsKey("d1"), UserKey("u1")} {
		if err := m.Set(ctx, key, "v", time.Minute); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}

	if err := m.DeletePattern(ctx, "deck_*"); err != nil {
		t.Fatalf("delete pattern: %v", err)
	}

	var got string
	if ok, _ := m.Get(ctx, UserKey("u1"), &got); !ok {
		t.Fatalf("user key should survive deck invalidation")
	}
	if ok, _ := m.Get(ctx, DeckKey("d1"), &got); ok {
		t.Fatalf("deck key should be invalidated")
	}
	if ok, _ := m.Get(ctx, DeckCardsKey("d1"), &got); ok {
		t.Fatalf("deck cards key should be invalidated")
	}
}
