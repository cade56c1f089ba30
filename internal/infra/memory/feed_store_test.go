package memory

import "testing"

func TestFeedStoreLifecycle(t *testing.T) {
	store := NewFeedStore()

	feed := store.GetOrCreate("u1")
	if feed == nil {
		t.Fatalf("expected feed")
	}
	if _, ok := store.Get("u1"); !ok {
		t.Fatalf("expected feed present")
	}

	_, cancel := feed.Subscribe()
	store.DeleteIfEmpty("u1")
	if _, ok := store.Get("u1"); !ok {
		t.Fatalf("expected feed kept while subscribed")
	}

	cancel()
	store.DeleteIfEmpty("u1")
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected feed removed when empty")
	}
}
