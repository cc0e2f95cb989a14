package store

import (
	"context"
	"time"

	"addpoints/pkg/voice"
)

// VoiceStore persists the fetched voice catalog between runs.
type VoiceStore interface {
	// ReplaceVoices atomically swaps the stored catalog for the given one.
	ReplaceVoices(ctx context.Context, voices []voice.Voice, fetchedAt time.Time) error
	// LoadVoices returns the stored catalog and when it was fetched.
	// A zero time means no catalog has been stored yet.
	LoadVoices(ctx context.Context) ([]voice.Voice, time.Time, error)
}

// PreferenceStore persists small key/value user preferences.
type PreferenceStore interface {
	GetPreference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
}

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	VoiceStore
	PreferenceStore

	// Close closes the store connection.
	Close() error
}
