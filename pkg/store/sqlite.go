package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"addpoints/pkg/db"
	"addpoints/pkg/voice"
)

// Preference keys.
const (
	PrefFilterBy    = "filter_by"
	PrefFilterValue = "filter_value"
)

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Voices ---

func (s *SQLiteStore) ReplaceVoices(ctx context.Context, voices []voice.Voice, fetchedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM voices"); err != nil {
		return fmt.Errorf("failed to clear voices: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO voices (short_name, locale, locale_name, gender, words_per_minute, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := fetchedAt.UTC().Format("2006-01-02 15:04:05")
	for _, v := range voices {
		if _, err := stmt.ExecContext(ctx, v.ShortName, v.Locale, v.LocaleName, v.Gender, v.WordsPerMinute, ts); err != nil {
			return fmt.Errorf("failed to insert voice %s: %w", v.ShortName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit voices: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadVoices(ctx context.Context) ([]voice.Voice, time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT short_name, locale, locale_name, gender, words_per_minute, fetched_at
		 FROM voices ORDER BY short_name`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query voices: %w", err)
	}
	defer rows.Close()

	var voices []voice.Voice
	var fetchedAt time.Time
	for rows.Next() {
		var v voice.Voice
		var gender, wpm sql.NullString
		var ts string
		if err := rows.Scan(&v.ShortName, &v.Locale, &v.LocaleName, &gender, &wpm, &ts); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan voice: %w", err)
		}
		v.Gender = gender.String
		v.WordsPerMinute = wpm.String

		parsed, err := time.Parse("2006-01-02 15:04:05", ts)
		if err == nil && parsed.After(fetchedAt) {
			fetchedAt = parsed
		}
		voices = append(voices, v)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("voice row error: %w", err)
	}

	return voices, fetchedAt, nil
}

// --- Preferences ---

func (s *SQLiteStore) GetPreference(ctx context.Context, key string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to save preference %s: %w", key, err)
	}
	return nil
}
