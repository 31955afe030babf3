package syncer

import (
	"context"
	"log"
	"sort"
	"time"

	"forum-mirror/content"
	"forum-mirror/discord"
	"forum-mirror/models"
)

// syncThread mirrors one thread and all of its messages. The starter
// message becomes the thread body; every other non-bot message becomes a
// post, processed in ascending creation order so replies follow their
// targets. Bot-authored threads are skipped, not errors.
func (s *Syncer) syncThread(ctx context.Context, t discord.Thread, ch *discord.Channel, since time.Time, opts models.SyncOptions, stats *models.SyncStats) error {
	if opts.SkipExisting {
		exists, err := s.store.ThreadExists(t.ID)
		if err != nil {
			return err
		}
		if exists {
			log.Printf("Thread %s already exists, skipping", t.ID)
			return nil
		}
	}

	starter, err := s.source.StarterMessage(t.ID)
	if err != nil {
		log.Printf("No starter message for thread %s, skipping: %v", t.ID, err)
		return nil
	}
	if starter.AuthorBot {
		log.Printf("Thread %s was started by a bot, skipping", t.ID)
		return nil
	}

	// New threads get the channel's next incremental rank; for existing
	// threads the upsert preserves whatever rank is already assigned.
	rank := 0
	exists, err := s.store.ThreadExists(t.ID)
	if err != nil {
		return err
	}
	if !exists {
		rank, err = s.ranker.Next(t.ParentID)
		if err != nil {
			return err
		}
	}

	thread := &models.Thread{
		ID:          t.ID,
		ChannelID:   t.ParentID,
		Slug:        content.Slugify(t.Title),
		Title:       t.Title,
		AuthorAlias: content.AuthorAlias(starter.AuthorID, s.staff),
		BodyHTML:    s.transformer.Transform(ctx, starter.Content, starter.Attachments),
		Tags:        resolveTags(t.AppliedTagIDs, ch.Tags),
		Rank:        rank,
		Published:   true,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.store.UpsertThread(thread); err != nil {
		return err
	}
	stats.ThreadsProcessed++

	messages, err := s.collectMessages(t.ID)
	if err != nil {
		return err
	}

	// Drop the starter, bot authors, and (on delta) anything older than
	// the watermark, then sort ascending for reply-resolution order.
	filtered := messages[:0]
	for _, m := range messages {
		if m.ID == starter.ID || m.AuthorBot {
			continue
		}
		if !since.IsZero() && !m.CreatedAt.After(since) {
			continue
		}
		filtered = append(filtered, m)
	}
	messages = filtered
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	for _, m := range messages {
		if err := s.syncMessage(ctx, t.ID, m); err != nil {
			stats.ErrorsEncountered++
			log.Printf("Error syncing message %s in thread %s: %v", m.ID, t.ID, err)
			continue
		}
		stats.PostsProcessed++
	}

	healed := s.healReplies(t.ID, messages)
	if healed > 0 {
		log.Printf("Backfilled %d reply links in thread %s", healed, t.ID)
	}

	count, err := s.store.CountPosts(t.ID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateReplyCount(t.ID, count); err != nil {
		return err
	}

	log.Printf("Thread %s (%s) processed: %d posts", t.ID, t.Title, count)
	return nil
}

// collectMessages pages through the thread's full history with a courtesy
// delay between fetches. A failed page stops pagination but keeps the
// messages fetched so far; the next run picks up the remainder.
func (s *Syncer) collectMessages(threadID string) ([]discord.Message, error) {
	pager := discord.NewMessagePager(s.source, threadID, s.pageSize)

	var messages []discord.Message
	for {
		page, err := pager.Next()
		if err != nil {
			log.Printf("Failed to fetch message batch for thread %s, stopping: %v", threadID, err)
			break
		}
		if page == nil {
			break
		}
		messages = append(messages, page...)
		s.sleep()
	}
	return messages, nil
}

// syncMessage stores one message as a post, running the first reply
// resolution pass inline: the referenced author is looked up at the
// source, and the link is cleared when the target post is not stored yet
// so no dangling reference is written.
func (s *Syncer) syncMessage(ctx context.Context, threadID string, m discord.Message) error {
	var replyToID, replyToAlias *string

	if m.ReplyToID != "" {
		ref, err := s.source.Message(threadID, m.ReplyToID)
		if err != nil {
			// Referenced message deleted or outside the thread; the link
			// stays clear unless pass 2 finds the target post.
			log.Printf("Could not fetch referenced message %s for %s: %v", m.ReplyToID, m.ID, err)
		} else {
			alias := content.AuthorAlias(ref.AuthorID, s.staff)
			replyToAlias = &alias
		}

		exists, err := s.store.PostExists(m.ReplyToID)
		if err != nil {
			return err
		}
		if exists {
			id := m.ReplyToID
			replyToID = &id
		} else {
			replyToAlias = nil
		}
	}

	editedAt := m.CreatedAt
	if m.EditedAt != nil {
		editedAt = *m.EditedAt
	}

	post := &models.Post{
		ID:                 m.ID,
		ThreadID:           threadID,
		AuthorAlias:        content.AuthorAlias(m.AuthorID, s.staff),
		BodyHTML:           s.transformer.Transform(ctx, m.Content, m.Attachments),
		ReplyToID:          replyToID,
		ReplyToAuthorAlias: replyToAlias,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          editedAt,
	}
	return s.store.UpsertPost(post)
}

// resolveTags maps applied tag IDs to their display names via the parent
// channel's tag catalog, falling back to the raw ID.
func resolveTags(tagIDs []string, catalog map[string]string) models.StringList {
	if len(tagIDs) == 0 {
		return nil
	}
	names := make(models.StringList, 0, len(tagIDs))
	for _, id := range tagIDs {
		if name, ok := catalog[id]; ok && name != "" {
			names = append(names, name)
		} else {
			names = append(names, id)
		}
	}
	return names
}
