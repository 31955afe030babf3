package models

import "time"

// SyncState is the singleton record that drives full-vs-delta mode selection.
type SyncState struct {
	LastSync   time.Time `json:"last_sync"`
	IsFirstRun bool      `json:"is_first_run"`
}

// SyncMode identifies how a sync run walks the source.
type SyncMode string

const (
	// SyncModeFull re-walks all historical content for registered channels.
	SyncModeFull SyncMode = "full"
	// SyncModeDelta only processes content created after the last recorded sync.
	SyncModeDelta SyncMode = "delta"
)

// SyncOptions narrows a sync run to a specific scope.
type SyncOptions struct {
	GuildID      string
	ChannelID    string
	ThreadID     string
	ForceFull    bool
	SkipExisting bool
	// PageSize is the message fetch batch size. Zero means the default (100).
	PageSize int
}

// SyncStats accumulates counters for one sync run.
type SyncStats struct {
	Mode              SyncMode
	ChannelsProcessed int
	ThreadsProcessed  int
	PostsProcessed    int
	ErrorsEncountered int
	StartTime         time.Time
	EndTime           time.Time
}

// Duration returns the elapsed wall time of the run.
func (s *SyncStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// RankUpdate is one entry of a manual rank reorder batch.
type RankUpdate struct {
	ThreadID string `json:"threadId"`
	Rank     int    `json:"rank"`
}
