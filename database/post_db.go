package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"forum-mirror/models"
)

// UpsertPost inserts a post or updates its body, reply link and updated_at.
func (s *Store) UpsertPost(p *models.Post) error {
	exists, err := s.ThreadExists(p.ThreadID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("post %s references thread %s: %w", p.ID, p.ThreadID, ErrUnknownParent)
	}

	query := `
	INSERT INTO posts (
		id, thread_id, author_alias, body_html,
		reply_to_id, reply_to_author_alias, created_at, updated_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		body_html = excluded.body_html,
		reply_to_id = excluded.reply_to_id,
		reply_to_author_alias = excluded.reply_to_author_alias,
		updated_at = excluded.updated_at`

	_, err = s.db.Exec(query,
		p.ID,
		p.ThreadID,
		p.AuthorAlias,
		p.BodyHTML,
		p.ReplyToID,
		p.ReplyToAuthorAlias,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert post %s: %w", p.ID, err)
	}
	return nil
}

// GetPost fetches a post by ID. Returns ErrNotFound if absent.
func (s *Store) GetPost(id string) (*models.Post, error) {
	var p models.Post
	err := s.db.Get(&p, `
		SELECT id, thread_id, author_alias, body_html, reply_to_id,
		       reply_to_author_alias, created_at, updated_at
		FROM posts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post %s: %w", id, err)
	}
	return &p, nil
}

// PostExists reports whether a post row exists.
func (s *Store) PostExists(id string) (bool, error) {
	var exists bool
	err := s.db.Get(&exists, "SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)", id)
	if err != nil {
		return false, fmt.Errorf("failed to check post %s: %w", id, err)
	}
	return exists, nil
}

// SetReplyReference backfills the reply link of an already stored post.
// Used by the reconciliation pass once the target post exists.
func (s *Store) SetReplyReference(postID, replyToID, replyToAuthorAlias string) error {
	res, err := s.db.Exec(`
		UPDATE posts
		SET reply_to_id = ?, reply_to_author_alias = ?, updated_at = ?
		WHERE id = ?`,
		replyToID, replyToAuthorAlias, time.Now().UTC(), postID)
	if err != nil {
		return fmt.Errorf("failed to set reply reference for post %s: %w", postID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for post %s: %w", postID, err)
	}
	if rows == 0 {
		return fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	return nil
}

// CountPosts returns the number of stored posts for a thread.
func (s *Store) CountPosts(threadID string) (int, error) {
	var count int
	err := s.db.Get(&count, "SELECT COUNT(*) FROM posts WHERE thread_id = ?", threadID)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts for thread %s: %w", threadID, err)
	}
	return count, nil
}
