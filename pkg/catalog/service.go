// Package catalog loads the voice catalog, refreshing it from the speech
// service when the local copy is stale.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"addpoints/pkg/store"
	"addpoints/pkg/voice"
)

// VoiceLister fetches the current voice list from a speech service.
type VoiceLister interface {
	Voices(ctx context.Context) ([]voice.Voice, error)
}

// Service builds the in-memory catalog from the local store, falling back to
// a remote fetch when the store is empty or its copy is older than the
// refresh interval.
type Service struct {
	lister          VoiceLister
	store           store.VoiceStore
	refreshInterval time.Duration
	now             func() time.Time
}

// NewService creates a catalog service. A refreshInterval of zero disables
// staleness checks; the stored copy is then reused indefinitely.
func NewService(lister VoiceLister, st store.VoiceStore, refreshInterval time.Duration) *Service {
	return &Service{
		lister:          lister,
		store:           st,
		refreshInterval: refreshInterval,
		now:             time.Now,
	}
}

// Load returns the voice catalog. When force is true the stored copy is
// ignored and the list is refetched. A failed refresh falls back to the
// stale stored copy rather than failing the session.
func (s *Service) Load(ctx context.Context, force bool) (*voice.Catalog, error) {
	stored, fetchedAt, err := s.store.LoadVoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored voices: %w", err)
	}

	if !force && len(stored) > 0 && !s.stale(fetchedAt) {
		slog.Debug("Voice catalog loaded from store", "voices", len(stored), "fetched_at", fetchedAt)
		return voice.NewCatalog(stored), nil
	}

	fresh, err := s.lister.Voices(ctx)
	if err != nil {
		if len(stored) > 0 {
			slog.Warn("Voice list refresh failed, using stored copy", "error", err, "fetched_at", fetchedAt)
			return voice.NewCatalog(stored), nil
		}
		return nil, fmt.Errorf("failed to fetch voice list: %w", err)
	}
	if len(fresh) == 0 {
		return nil, fmt.Errorf("speech service returned an empty voice list")
	}

	if err := s.store.ReplaceVoices(ctx, fresh, s.now()); err != nil {
		slog.Warn("Failed to persist voice catalog", "error", err)
	}
	slog.Info("Voice catalog refreshed", "voices", len(fresh))
	return voice.NewCatalog(fresh), nil
}

func (s *Service) stale(fetchedAt time.Time) bool {
	if s.refreshInterval <= 0 {
		return false
	}
	if fetchedAt.IsZero() {
		return true
	}
	return s.now().Sub(fetchedAt) > s.refreshInterval
}
