// Package settings persists per-user preferences in a local SQLite database.
//
// The store keeps an in-memory snapshot: Load reads every row once at
// startup and Save writes through on each change.
package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/claude/fittracker/internal/models"
	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"
)

// ErrInvalidSettings is returned by Save and Parse for out-of-range values.
var ErrInvalidSettings = errors.New("invalid settings")

var validate = validator.New()

// Store is the SQLite-backed settings store.
type Store struct {
	db *sql.DB

	mu       sync.RWMutex
	snapshot map[int]models.Settings
}

// Open opens (or creates) the settings database at dir/settings.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating settings dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "settings.db"))
	if err != nil {
		return nil, fmt.Errorf("opening settings db: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS user_settings (
		user_id    INTEGER PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating settings table: %w", err)
	}

	return &Store{db: db, snapshot: map[int]models.Settings{}}, nil
}

// Load reads all saved settings into memory. Rows that fail to decode fall
// back to defaults; their errors are combined into the returned error.
func (s *Store) Load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, data FROM user_settings`)
	if err != nil {
		return fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	loaded := map[int]models.Settings{}
	var errs error
	for rows.Next() {
		var (
			userID int
			data   string
		)
		if err := rows.Scan(&userID, &data); err != nil {
			return fmt.Errorf("scanning settings: %w", err)
		}
		st, err := Parse([]byte(data))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("user %d: %w", userID, err))
			continue
		}
		loaded[userID] = st
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating settings: %w", err)
	}

	s.mu.Lock()
	s.snapshot = loaded
	s.mu.Unlock()
	return errs
}

// Get returns the user's settings, or the defaults if none were saved.
func (s *Store) Get(userID int) models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.snapshot[userID]; ok {
		return st
	}
	return models.DefaultSettings()
}

// Save validates and persists the user's settings.
func (s *Store) Save(ctx context.Context, userID int, st models.Settings) error {
	if err := Validate(st); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, string(data))
	if err != nil {
		return fmt.Errorf("saving settings for user %d: %w", userID, err)
	}
	s.snapshot[userID] = st
	return nil
}

// Close closes the settings database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Parse decodes settings JSON over the defaults, so missing keys keep
// their default values.
func Parse(data []byte) (models.Settings, error) {
	st := models.DefaultSettings()
	if err := json.Unmarshal(data, &st); err != nil {
		return models.DefaultSettings(), fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := Validate(st); err != nil {
		return models.DefaultSettings(), err
	}
	return st, nil
}

// Validate checks value ranges.
func Validate(st models.Settings) error {
	if err := validate.Struct(st); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}
