package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"forum-mirror/models"
)

// UpsertThread inserts a thread or updates its content fields. On update
// the existing rank, published flag and created_at are preserved; rank only
// changes through the explicit rank paths (SetRanks). On insert the rank
// supplied on the model is used as-is.
func (s *Store) UpsertThread(t *models.Thread) error {
	exists, err := s.channelExists(t.ChannelID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("thread %s references channel %s: %w", t.ID, t.ChannelID, ErrUnknownParent)
	}

	query := `
	INSERT INTO threads (
		id, channel_id, slug, title, author_alias, body_html,
		tags, reply_count, rank, published, created_at, updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		slug = excluded.slug,
		title = excluded.title,
		body_html = excluded.body_html,
		tags = excluded.tags,
		reply_count = excluded.reply_count,
		updated_at = excluded.updated_at`

	_, err = s.db.Exec(query,
		t.ID,
		t.ChannelID,
		t.Slug,
		t.Title,
		t.AuthorAlias,
		t.BodyHTML,
		t.Tags,
		t.ReplyCount,
		t.Rank,
		t.Published,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert thread %s: %w", t.ID, err)
	}
	return nil
}

// GetThread fetches a thread by ID. Returns ErrNotFound if absent.
func (s *Store) GetThread(id string) (*models.Thread, error) {
	var t models.Thread
	err := s.db.Get(&t, `
		SELECT id, channel_id, slug, title, author_alias, body_html, tags,
		       reply_count, rank, published, created_at, updated_at
		FROM threads WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("thread %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", id, err)
	}
	return &t, nil
}

// ThreadExists reports whether a thread row exists.
func (s *Store) ThreadExists(id string) (bool, error) {
	var exists bool
	err := s.db.Get(&exists, "SELECT EXISTS(SELECT 1 FROM threads WHERE id = ?)", id)
	if err != nil {
		return false, fmt.Errorf("failed to check thread %s: %w", id, err)
	}
	return exists, nil
}

// MaxRank returns the highest rank currently assigned in a channel, with
// 0 for a channel that has no ranked threads yet.
func (s *Store) MaxRank(channelID string) (int, error) {
	var max int
	err := s.db.Get(&max, "SELECT COALESCE(MAX(rank), 0) FROM threads WHERE channel_id = ?", channelID)
	if err != nil {
		return 0, fmt.Errorf("failed to get max rank for channel %s: %w", channelID, err)
	}
	return max, nil
}

// ThreadsByCreation returns all threads of a channel ordered by creation
// time. newestFirst selects the direction; ties break on ID for stability.
func (s *Store) ThreadsByCreation(channelID string, newestFirst bool) ([]models.Thread, error) {
	direction := "ASC"
	if newestFirst {
		direction = "DESC"
	}
	query := fmt.Sprintf(`
		SELECT id, channel_id, slug, title, author_alias, body_html, tags,
		       reply_count, rank, published, created_at, updated_at
		FROM threads
		WHERE channel_id = ?
		ORDER BY created_at %s, id %s`, direction, direction)

	var threads []models.Thread
	if err := s.db.Select(&threads, query, channelID); err != nil {
		return nil, fmt.Errorf("failed to query threads for channel %s: %w", channelID, err)
	}
	return threads, nil
}

// UpdateReplyCount sets the materialized reply count of a thread. Called
// once after a batch of posts finishes, not per-post.
func (s *Store) UpdateReplyCount(threadID string, count int) error {
	res, err := s.db.Exec("UPDATE threads SET reply_count = ?, updated_at = ? WHERE id = ?",
		count, time.Now().UTC(), threadID)
	if err != nil {
		return fmt.Errorf("failed to update reply count for thread %s: %w", threadID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for thread %s: %w", threadID, err)
	}
	if rows == 0 {
		return fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	return nil
}

// SetRanks applies a batch of (threadID, rank) updates inside a single
// transaction. If any thread is missing the whole batch rolls back; the
// caller sees either every rank applied or none.
func (s *Store) SetRanks(updates []models.RankUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin rank transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, u := range updates {
		res, err := tx.Exec("UPDATE threads SET rank = ?, updated_at = ? WHERE id = ?", u.Rank, now, u.ThreadID)
		if err != nil {
			return fmt.Errorf("failed to set rank for thread %s: %w", u.ThreadID, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows for thread %s: %w", u.ThreadID, err)
		}
		if rows == 0 {
			return fmt.Errorf("thread %s: %w", u.ThreadID, ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rank transaction: %w", err)
	}
	return nil
}
