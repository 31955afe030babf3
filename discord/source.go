// Package discord adapts the Discord API into the narrow source interface
// the sync core consumes.
package discord

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a guild, channel, thread or message does
// not exist at the source. The orchestrator treats it as fatal for the
// requested scope.
var ErrNotFound = errors.New("not found at source")

// Channel is a forum channel as seen at the source.
type Channel struct {
	ID       string
	GuildID  string
	Name     string
	Topic    string
	Position int
	// Tags maps the channel's available tag IDs to display names.
	Tags map[string]string
}

// Thread is a forum thread as seen at the source.
type Thread struct {
	ID            string
	ParentID      string
	Title         string
	AppliedTagIDs []string
	CreatedAt     time.Time
	// ArchivedAt is the archive timestamp, used as the pagination cursor
	// when walking archived threads. Zero for active threads.
	ArchivedAt time.Time
}

// Message is a single message as seen at the source.
type Message struct {
	ID          string
	AuthorID    string
	AuthorBot   bool
	Content     string
	Attachments []string
	// ReplyToID is the referenced message ID for replies, empty otherwise.
	ReplyToID string
	CreatedAt time.Time
	EditedAt  *time.Time
}

// ThreadPage is one page of archived threads.
type ThreadPage struct {
	Threads []Thread
	HasMore bool
}

// Source is the read-only view of the platform the sync core walks.
// Every call can fail with ErrNotFound (scope missing) or a transient
// network error.
type Source interface {
	// Guilds lists the IDs of the guilds visible to the connected account.
	Guilds() ([]string, error)

	// ForumChannels lists the forum-type channels of a guild.
	ForumChannels(guildID string) ([]Channel, error)

	// Channel fetches a single channel by ID.
	Channel(channelID string) (*Channel, error)

	// Thread fetches a single thread by ID.
	Thread(threadID string) (*Thread, error)

	// ActiveThreads lists the currently active threads of a forum channel.
	ActiveThreads(channelID string) ([]Thread, error)

	// ArchivedThreads fetches one page of archived threads older than
	// before (nil for the first page), up to limit entries.
	ArchivedThreads(channelID string, before *time.Time, limit int) (*ThreadPage, error)

	// StarterMessage fetches the message that opened a thread.
	StarterMessage(threadID string) (*Message, error)

	// Message fetches a single message from a thread.
	Message(threadID, messageID string) (*Message, error)

	// Messages fetches up to limit messages created before beforeID
	// (empty for the newest page).
	Messages(threadID string, limit int, beforeID string) ([]Message, error)
}
