package syncer

import (
	"context"

	"forum-mirror/discord"
	"forum-mirror/models"
)

// IngestMessage mirrors a single live message event into the store. When
// the owning thread isn't mirrored yet the whole thread is synced instead,
// so a message event arriving before the thread event still lands. Skips
// bot authors and the starter message.
func (s *Syncer) IngestMessage(ctx context.Context, threadID, messageID string) error {
	if !s.mu.TryLock() {
		return ErrSyncRunning
	}
	defer s.mu.Unlock()

	exists, err := s.store.ThreadExists(threadID)
	if err != nil {
		return err
	}
	if !exists {
		stats := &models.SyncStats{Mode: models.SyncModeDelta}
		return s.syncSingleThread(ctx, threadID, models.SyncOptions{}, stats)
	}

	m, err := s.source.Message(threadID, messageID)
	if err != nil {
		return err
	}
	if m.AuthorBot || m.ID == threadID {
		return nil
	}

	if err := s.syncMessage(ctx, threadID, *m); err != nil {
		return err
	}
	s.healReplies(threadID, []discord.Message{*m})

	count, err := s.store.CountPosts(threadID)
	if err != nil {
		return err
	}
	return s.store.UpdateReplyCount(threadID, count)
}
