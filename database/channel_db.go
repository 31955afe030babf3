package database

import (
	"database/sql"
	"errors"
	"fmt"

	"forum-mirror/models"
)

// UpsertChannel inserts a channel or refreshes its name, description and
// position. Fields the sync core doesn't own are left untouched.
func (s *Store) UpsertChannel(ch *models.Channel) error {
	query := `
	INSERT INTO channels (id, slug, name, description, position)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		position = excluded.position`

	if _, err := s.db.Exec(query, ch.ID, ch.Slug, ch.Name, ch.Description, ch.Position); err != nil {
		return fmt.Errorf("failed to upsert channel %s: %w", ch.ID, err)
	}
	return nil
}

// GetChannel fetches a channel by ID. Returns ErrNotFound if absent.
func (s *Store) GetChannel(id string) (*models.Channel, error) {
	var ch models.Channel
	err := s.db.Get(&ch, "SELECT id, slug, name, description, position FROM channels WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("channel %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel %s: %w", id, err)
	}
	return &ch, nil
}

// GetChannels returns all registered channels ordered by display position.
func (s *Store) GetChannels() ([]models.Channel, error) {
	var channels []models.Channel
	err := s.db.Select(&channels, "SELECT id, slug, name, description, position FROM channels ORDER BY position ASC, name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	return channels, nil
}

// channelExists reports whether a channel row exists.
func (s *Store) channelExists(id string) (bool, error) {
	var exists bool
	err := s.db.Get(&exists, "SELECT EXISTS(SELECT 1 FROM channels WHERE id = ?)", id)
	if err != nil {
		return false, fmt.Errorf("failed to check channel %s: %w", id, err)
	}
	return exists, nil
}
