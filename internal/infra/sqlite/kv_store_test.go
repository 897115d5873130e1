package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestKVStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flagquiz.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok, err := store.Get(ctx, "flagQuizStats"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "flagQuizStats", []byte(`{"gamesPlayed":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "flagQuizStats", []byte(`{"gamesPlayed":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Set(ctx, "flagQuizDarkMode", []byte(`true`)); err != nil {
		t.Fatalf("set dark mode: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	got, ok, err := store.Get(ctx, "flagQuizStats")
	if err != nil || !ok {
		t.Fatalf("expected hit after reopen, ok=%v err=%v", ok, err)
	}
	if string(got) != `{"gamesPlayed":2}` {
		t.Fatalf("expected latest value, got %s", got)
	}

	if err := store.Delete(ctx, "flagQuizStats", "flagQuizLeaderboard"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "flagQuizStats"); ok {
		t.Fatalf("expected stats removed")
	}
	if _, ok, _ := store.Get(ctx, "flagQuizDarkMode"); !ok {
		t.Fatalf("expected dark mode untouched")
	}
}
