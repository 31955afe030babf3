package database

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"forum-mirror/models"
)

const syncStateKey = "sync_state"

// GetSyncState reads the singleton sync state record. A missing or
// malformed record is treated as "first run", never as an error.
func (s *Store) GetSyncState() models.SyncState {
	firstRun := models.SyncState{
		LastSync:   time.Unix(0, 0).UTC(),
		IsFirstRun: true,
	}

	var value string
	err := s.db.Get(&value, "SELECT value FROM sync_state WHERE key_name = ?", syncStateKey)
	if err != nil {
		log.Printf("No sync state found, assuming first run: %v", err)
		return firstRun
	}

	var state models.SyncState
	if err := json.Unmarshal([]byte(value), &state); err != nil {
		log.Printf("Malformed sync state %q, assuming first run: %v", value, err)
		return firstRun
	}
	return state
}

// SetSyncState persists the sync state record. Called only after a
// successful run so a failed run retries in the same mode.
func (s *Store) SetSyncState(state models.SyncState) error {
	value, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}

	query := `
	INSERT INTO sync_state (key_name, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key_name) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at`

	if _, err := s.db.Exec(query, syncStateKey, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write sync state: %w", err)
	}
	return nil
}
