package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ProgressRepository handles database operations for persisted progress
// records. Records are opaque to this layer: a key and a serialized value,
// replaced as a whole on every write.
type ProgressRepository struct{}

// NewProgressRepository creates a new repository instance
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

// Get returns the serialized record stored under key, or ErrNotFound.
func (r *ProgressRepository) Get(key string) (string, error) {
	var value string
	err := DB.Get(&value, "SELECT value FROM progress_records WHERE key = $1", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get progress record: %w", err)
	}
	return value, nil
}

// Put stores the serialized record under key, replacing any previous value.
func (r *ProgressRepository) Put(key, value string) error {
	_, err := DB.Exec(`
		INSERT INTO progress_records (key, value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to put progress record: %w", err)
	}
	return nil
}

// Delete removes the record stored under key.
func (r *ProgressRepository) Delete(key string) error {
	_, err := DB.Exec("DELETE FROM progress_records WHERE key = $1", key)
	return err
}

// Keys returns every stored record key. Used by the scheduler to roll all
// learners over a day boundary.
func (r *ProgressRepository) Keys() ([]string, error) {
	var keys []string
	err := DB.Select(&keys, "SELECT key FROM progress_records ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to list progress keys: %w", err)
	}
	return keys, nil
}
