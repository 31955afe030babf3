package discord

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// SessionSource implements Source on top of a live discordgo session.
type SessionSource struct {
	session *discordgo.Session
}

// NewSessionSource wraps an open Discord session.
func NewSessionSource(s *discordgo.Session) *SessionSource {
	return &SessionSource{session: s}
}

// Guilds lists the IDs of the guilds the bot account is a member of.
func (s *SessionSource) Guilds() ([]string, error) {
	guilds, err := s.session.UserGuilds(100, "", "", false)
	if err != nil {
		return nil, wrapRESTError("user guilds", err)
	}

	ids := make([]string, len(guilds))
	for i, g := range guilds {
		ids[i] = g.ID
	}
	return ids, nil
}

// ForumChannels lists the guild's forum-type channels.
func (s *SessionSource) ForumChannels(guildID string) ([]Channel, error) {
	channels, err := s.session.GuildChannels(guildID)
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("guild %s channels", guildID), err)
	}

	var forums []Channel
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildForum {
			forums = append(forums, convertChannel(ch))
		}
	}
	return forums, nil
}

// Channel fetches a single channel by ID.
func (s *SessionSource) Channel(channelID string) (*Channel, error) {
	ch, err := s.session.Channel(channelID)
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("channel %s", channelID), err)
	}
	converted := convertChannel(ch)
	return &converted, nil
}

// Thread fetches a single thread by ID.
func (s *SessionSource) Thread(threadID string) (*Thread, error) {
	ch, err := s.session.Channel(threadID)
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("thread %s", threadID), err)
	}
	if !ch.IsThread() {
		return nil, fmt.Errorf("channel %s is not a thread: %w", threadID, ErrNotFound)
	}
	converted := convertThread(ch)
	return &converted, nil
}

// ActiveThreads lists the active threads belonging to a forum channel.
// Discord only exposes active threads per guild, so the result is
// filtered by parent.
func (s *SessionSource) ActiveThreads(channelID string) ([]Thread, error) {
	ch, err := s.session.Channel(channelID)
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("channel %s", channelID), err)
	}

	active, err := s.session.GuildThreadsActive(ch.GuildID)
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("active threads of guild %s", ch.GuildID), err)
	}

	var threads []Thread
	for _, t := range active.Threads {
		if t.ParentID == channelID {
			threads = append(threads, convertThread(t))
		}
	}
	return threads, nil
}

// ArchivedThreads fetches one page of archived threads.
func (s *SessionSource) ArchivedThreads(channelID string, before *time.Time, limit int) (*ThreadPage, error) {
	archived, err := s.session.ThreadsArchived(channelID, before, limit)
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("archived threads of channel %s", channelID), err)
	}

	page := &ThreadPage{HasMore: archived.HasMore}
	for _, t := range archived.Threads {
		page.Threads = append(page.Threads, convertThread(t))
	}
	return page, nil
}

// StarterMessage fetches the message that opened a thread. The starter
// message has the same ID as the thread itself.
func (s *SessionSource) StarterMessage(threadID string) (*Message, error) {
	return s.Message(threadID, threadID)
}

// Message fetches a single message from a thread.
func (s *SessionSource) Message(threadID, messageID string) (*Message, error) {
	msg, err := s.session.ChannelMessage(threadID, messageID)
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("message %s in thread %s", messageID, threadID), err)
	}
	converted := convertMessage(msg)
	return &converted, nil
}

// Messages fetches up to limit messages created before beforeID.
func (s *SessionSource) Messages(threadID string, limit int, beforeID string) ([]Message, error) {
	msgs, err := s.session.ChannelMessages(threadID, limit, beforeID, "", "")
	if err != nil {
		return nil, wrapRESTError(fmt.Sprintf("messages of thread %s", threadID), err)
	}

	converted := make([]Message, len(msgs))
	for i, m := range msgs {
		converted[i] = convertMessage(m)
	}
	return converted, nil
}

func convertChannel(ch *discordgo.Channel) Channel {
	tags := make(map[string]string, len(ch.AvailableTags))
	for _, t := range ch.AvailableTags {
		tags[t.ID] = t.Name
	}
	return Channel{
		ID:       ch.ID,
		GuildID:  ch.GuildID,
		Name:     ch.Name,
		Topic:    ch.Topic,
		Position: ch.Position,
		Tags:     tags,
	}
}

func convertThread(ch *discordgo.Channel) Thread {
	// The thread ID is a snowflake carrying the creation timestamp.
	createdAt, err := discordgo.SnowflakeTimestamp(ch.ID)
	if err != nil {
		log.Printf("Could not parse creation timestamp for thread %s: %v", ch.ID, err)
		createdAt = time.Now().UTC()
	}

	t := Thread{
		ID:            ch.ID,
		ParentID:      ch.ParentID,
		Title:         ch.Name,
		AppliedTagIDs: ch.AppliedTags,
		CreatedAt:     createdAt,
	}
	if ch.ThreadMetadata != nil {
		t.ArchivedAt = ch.ThreadMetadata.ArchiveTimestamp
	}
	return t
}

func convertMessage(msg *discordgo.Message) Message {
	m := Message{
		ID:        msg.ID,
		AuthorID:  msg.Author.ID,
		AuthorBot: msg.Author.Bot,
		Content:   msg.Content,
		CreatedAt: msg.Timestamp,
		EditedAt:  msg.EditedTimestamp,
	}
	for _, att := range msg.Attachments {
		m.Attachments = append(m.Attachments, att.URL)
	}
	if msg.MessageReference != nil {
		m.ReplyToID = msg.MessageReference.MessageID
	}
	return m
}

// wrapRESTError maps a Discord 404 onto ErrNotFound so the orchestrator
// can tell a missing scope from a transient failure.
func wrapRESTError(scope string, err error) error {
	if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Response != nil &&
		restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", scope, ErrNotFound)
	}
	return fmt.Errorf("failed to fetch %s: %w", scope, err)
}
