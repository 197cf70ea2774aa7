package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gsr_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stateKey is the fixed namespaced key the aggregate blob lives under.
const stateKey = "gsr_alerts_v1"

// StateRecord is the key-value row holding one JSON blob.
type StateRecord struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Storage persists the application state as a single keyed blob in a
// local SQLite database (pure Go driver).
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the SQLite database. An empty path uses
// the OS config directory.
func NewStorage(path string) (*Storage, error) {
	dbPath := path
	if dbPath == "" {
		var err error
		dbPath, err = getDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&StateRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "GsrWatch", "data", "gsr.db"), nil
}

// LoadState retrieves the persisted aggregate. A missing key yields the
// default state; a malformed blob is discarded and also yields defaults.
// Neither case is an error to the caller.
func (s *Storage) LoadState() (domain.AppState, error) {
	var rec StateRecord
	err := s.db.First(&rec, "key = ?", stateKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.DefaultState(), nil
	}
	if err != nil {
		return domain.AppState{}, err
	}

	var state domain.AppState
	if err := json.Unmarshal([]byte(rec.Value), &state); err != nil {
		slog.Warn("Discarding corrupt persisted state, using defaults",
			slog.String("key", stateKey), slog.Any("error", err))
		return domain.DefaultState(), nil
	}
	return state, nil
}

// SaveState writes the aggregate blob.
func (s *Storage) SaveState(state domain.AppState) error {
	value, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	rec := StateRecord{
		Key:       stateKey,
		Value:     string(value),
		UpdatedAt: time.Now(),
	}
	return s.db.Save(&rec).Error
}

// DeleteState removes the blob entirely. Used by reset-all-state.
func (s *Storage) DeleteState() error {
	return s.db.Where("key = ?", stateKey).Delete(&StateRecord{}).Error
}
