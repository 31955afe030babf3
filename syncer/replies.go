package syncer

import (
	"errors"
	"log"

	"forum-mirror/database"
	"forum-mirror/discord"
)

// healReplies is the second reply-resolution pass. For every message that
// carried a reply reference but whose stored post has no link, it checks
// whether the target post exists by now (it may have been written later in
// this run, or in a previous one) and backfills the link and denormalized
// author alias. A target that never shows up stays null for good; replying
// to a deleted or out-of-window message is accepted, not an error.
func (s *Syncer) healReplies(threadID string, messages []discord.Message) int {
	healed := 0
	for _, m := range messages {
		if m.ReplyToID == "" || m.ReplyToID == m.ID {
			continue
		}

		post, err := s.store.GetPost(m.ID)
		if err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				log.Printf("Failed to load post %s during reply healing: %v", m.ID, err)
			}
			continue
		}
		if post.ReplyToID != nil {
			continue
		}

		target, err := s.store.GetPost(m.ReplyToID)
		if err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				log.Printf("Failed to load reply target %s during reply healing: %v", m.ReplyToID, err)
			}
			continue
		}

		if err := s.store.SetReplyReference(post.ID, target.ID, target.AuthorAlias); err != nil {
			log.Printf("Failed to backfill reply link %s -> %s: %v", post.ID, target.ID, err)
			continue
		}
		healed++
	}
	return healed
}
