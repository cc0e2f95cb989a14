package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"addpoints/pkg/db"
	"addpoints/pkg/voice"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "store_test.db"))
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewSQLiteStore(d)
}

func TestVoices_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	voices := []voice.Voice{
		{ShortName: "en-US-AvaNeural", Locale: "en-US", LocaleName: "English (United States)", Gender: "Female", WordsPerMinute: "150"},
		{ShortName: "pt-BR-AntonioNeural", Locale: "pt-BR", LocaleName: "Portuguese (Brazil)", Gender: "Male"},
	}
	fetched := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if err := s.ReplaceVoices(ctx, voices, fetched); err != nil {
		t.Fatalf("ReplaceVoices failed: %v", err)
	}

	got, gotFetched, err := s.LoadVoices(ctx)
	if err != nil {
		t.Fatalf("LoadVoices failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("LoadVoices returned %d voices, want 2", len(got))
	}
	if !gotFetched.Equal(fetched) {
		t.Errorf("fetched_at = %v, want %v", gotFetched, fetched)
	}
	// Rows come back sorted by short name.
	if got[0].ShortName != "en-US-AvaNeural" || got[0].WordsPerMinute != "150" {
		t.Errorf("unexpected first voice: %+v", got[0])
	}
	if got[1].Gender != "Male" {
		t.Errorf("unexpected second voice: %+v", got[1])
	}
}

func TestVoices_ReplaceDropsOld(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []voice.Voice{{ShortName: "a", Locale: "en-US", LocaleName: "English (United States)"}}
	second := []voice.Voice{{ShortName: "b", Locale: "pt-BR", LocaleName: "Portuguese (Brazil)"}}

	if err := s.ReplaceVoices(ctx, first, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceVoices(ctx, second, time.Now()); err != nil {
		t.Fatal(err)
	}

	got, _, err := s.LoadVoices(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ShortName != "b" {
		t.Errorf("LoadVoices after replace = %+v, want only %q", got, "b")
	}
}

func TestVoices_EmptyStore(t *testing.T) {
	s := newTestStore(t)

	got, fetched, err := s.LoadVoices(context.Background())
	if err != nil {
		t.Fatalf("LoadVoices on empty store failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no voices, got %d", len(got))
	}
	if !fetched.IsZero() {
		t.Errorf("expected zero fetch time, got %v", fetched)
	}
}

func TestPreferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, found, err := s.GetPreference(ctx, PrefFilterBy); err != nil || found {
		t.Fatalf("GetPreference on empty store: found=%v err=%v", found, err)
	}

	if err := s.SetPreference(ctx, PrefFilterBy, "Language"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPreference(ctx, PrefFilterValue, "Portuguese"); err != nil {
		t.Fatal(err)
	}
	// Upsert overwrites.
	if err := s.SetPreference(ctx, PrefFilterValue, "Spanish"); err != nil {
		t.Fatal(err)
	}

	val, found, err := s.GetPreference(ctx, PrefFilterValue)
	if err != nil || !found {
		t.Fatalf("GetPreference: found=%v err=%v", found, err)
	}
	if val != "Spanish" {
		t.Errorf("GetPreference = %q, want Spanish", val)
	}
}
