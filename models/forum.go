package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Channel represents a mirrored forum channel.
type Channel struct {
	ID          string  `db:"id"` // Discord channel ID
	Slug        string  `db:"slug"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
	Position    int     `db:"position"`
}

// Thread represents a mirrored forum thread.
type Thread struct {
	ID          string     `db:"id"` // Discord thread ID
	ChannelID   string     `db:"channel_id"`
	Slug        string     `db:"slug"`
	Title       string     `db:"title"`
	AuthorAlias string     `db:"author_alias"`
	BodyHTML    string     `db:"body_html"`
	Tags        StringList `db:"tags"`
	ReplyCount  int        `db:"reply_count"`
	Rank        int        `db:"rank"` // sort key within the channel; 0 means unassigned
	Published   bool       `db:"published"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// Post represents a reply message inside a thread.
type Post struct {
	ID                 string    `db:"id"` // Discord message ID
	ThreadID           string    `db:"thread_id"`
	AuthorAlias        string    `db:"author_alias"`
	BodyHTML           string    `db:"body_html"`
	ReplyToID          *string   `db:"reply_to_id"`
	ReplyToAuthorAlias *string   `db:"reply_to_author_alias"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// StringList is a []string stored as a JSON array in a TEXT column.
type StringList []string

// Value implements driver.Valuer. An empty list is stored as NULL.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string list: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(l))
}
