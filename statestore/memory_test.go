package statestore

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, found, err := store.Get(ctx, 42); err != nil || found {
		t.Fatalf("expected empty store, found=%v err=%v", found, err)
	}

	if err := store.Set(ctx, 42, "BROWSING_MENU"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	state, found, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || state != "BROWSING_MENU" {
		t.Fatalf("unexpected state: %q found=%v", state, found)
	}

	// Other chats stay isolated.
	if _, found, _ := store.Get(ctx, 43); found {
		t.Fatal("state leaked across chats")
	}
}
