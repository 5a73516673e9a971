package history

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLStore_RecordAndRecent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "history.db")
	s, err := NewSQLite(dsn)
	if err != nil {
		t.Fatalf("NewSQLite() error: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	entries := []Entry{
		{Content: "first", Source: "provider", Provider: "together", Model: "m1", PromptTokens: 10, CompletionTokens: 5},
		{Content: "second", Source: "cache"},
		{Content: "third", Source: "provider", Provider: "openrouter", Model: "m2"},
	}
	for _, e := range entries {
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent(2) = %d entries, want 2", len(got))
	}
	if got[0].Content != "third" {
		t.Errorf("newest entry = %q, want third", got[0].Content)
	}
	if got[1].Source != "cache" {
		t.Errorf("second entry source = %q, want cache", got[1].Source)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not defaulted on record")
	}
}

func TestSQLStore_RecentDefaultLimit(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "history.db")
	s, err := NewSQLite(dsn)
	if err != nil {
		t.Fatalf("NewSQLite() error: %v", err)
	}
	defer s.Close()

	got, err := s.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Recent() on empty store = %d entries", len(got))
	}
}

func TestNewPostgres_RequiresDSN(t *testing.T) {
	if _, err := NewPostgres("  "); err == nil {
		t.Error("NewPostgres() = nil error for empty dsn")
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	if err := r.Record(context.Background(), Entry{Content: "x"}); err != nil {
		t.Errorf("Record() error: %v", err)
	}
	entries, err := r.Recent(context.Background(), 5)
	if err != nil || entries != nil {
		t.Errorf("Recent() = %v, %v", entries, err)
	}
}
