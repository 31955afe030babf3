// Package syncer walks Discord guilds, channels, threads and messages and
// mirrors them into the forum store. Runs are idempotent: every write goes
// through the store's upsert helpers, so a re-run with no upstream changes
// leaves the rows untouched.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"forum-mirror/content"
	"forum-mirror/database"
	"forum-mirror/discord"
	"forum-mirror/models"
	"forum-mirror/ranker"
)

// ErrSyncRunning is returned when a run is requested while another run
// holds the advisory lock. Two concurrent runs against the same channel
// would race the incremental rank assignment.
var ErrSyncRunning = errors.New("a sync run is already in progress")

const defaultPageSize = 100

// Syncer orchestrates full and delta sync runs.
type Syncer struct {
	store       *database.Store
	source      discord.Source
	transformer *content.Transformer
	ranker      *ranker.Ranker
	staff       map[string]string
	pageSize    int
	batchDelay  time.Duration

	mu sync.Mutex // advisory run lock
}

// Config carries the collaborators and tuning knobs for a Syncer.
type Config struct {
	Store       *database.Store
	Source      discord.Source
	Transformer *content.Transformer
	Ranker      *ranker.Ranker
	// Staff maps Discord user IDs to staff tags for alias derivation.
	Staff map[string]string
	// PageSize is the thread/message fetch batch size (default 100).
	PageSize int
	// BatchDelay is the courtesy pause between paginated fetches.
	BatchDelay time.Duration
}

// New creates a Syncer from the given config.
func New(cfg Config) *Syncer {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Syncer{
		store:       cfg.Store,
		source:      cfg.Source,
		transformer: cfg.Transformer,
		ranker:      cfg.Ranker,
		staff:       cfg.Staff,
		pageSize:    pageSize,
		batchDelay:  cfg.BatchDelay,
	}
}

// Run executes one sync pass. Mode selection: full when forced or on the
// recorded first run, delta otherwise. Scoped options narrow the walk to a
// single guild, channel or thread. Per-item failures are logged and
// counted; only a failure to resolve the requested scope aborts the run.
func (s *Syncer) Run(ctx context.Context, opts models.SyncOptions) (*models.SyncStats, error) {
	if !s.mu.TryLock() {
		return nil, ErrSyncRunning
	}
	defer s.mu.Unlock()

	state := s.store.GetSyncState()

	stats := &models.SyncStats{
		Mode:      models.SyncModeDelta,
		StartTime: time.Now().UTC(),
	}
	if opts.ForceFull || state.IsFirstRun {
		stats.Mode = models.SyncModeFull
	}
	var since time.Time
	if stats.Mode == models.SyncModeDelta {
		since = state.LastSync
	}

	// A per-run page size only applies while this run holds the lock; the
	// configured value is restored before the next run starts.
	if opts.PageSize > 0 {
		configured := s.pageSize
		s.pageSize = opts.PageSize
		defer func() { s.pageSize = configured }()
	}

	log.Printf("Starting %s sync (guild=%q channel=%q thread=%q skipExisting=%v)",
		stats.Mode, opts.GuildID, opts.ChannelID, opts.ThreadID, opts.SkipExisting)

	var err error
	scoped := true
	switch {
	case opts.ThreadID != "":
		err = s.syncSingleThread(ctx, opts.ThreadID, opts, stats)
	case opts.ChannelID != "":
		err = s.syncChannel(ctx, opts.ChannelID, since, opts, stats)
	case opts.GuildID != "":
		err = s.syncGuild(ctx, opts.GuildID, since, opts, stats)
	default:
		scoped = false
		err = s.syncRegisteredChannels(ctx, since, opts, stats)
	}

	stats.EndTime = time.Now().UTC()
	if err != nil {
		stats.ErrorsEncountered++
		log.Printf("Sync failed after %s: %v", stats.Duration(), err)
		return stats, err
	}

	// Scoped invocations leave the recorded watermark alone so the next
	// scheduled run still covers the window they skipped.
	if !scoped {
		if err := s.store.SetSyncState(models.SyncState{
			LastSync:   time.Now().UTC(),
			IsFirstRun: false,
		}); err != nil {
			return stats, fmt.Errorf("failed to record sync completion: %w", err)
		}
	}

	log.Printf("Sync completed in %s: %d channels, %d threads, %d posts, %d errors",
		stats.Duration(), stats.ChannelsProcessed, stats.ThreadsProcessed,
		stats.PostsProcessed, stats.ErrorsEncountered)
	return stats, nil
}

// syncRegisteredChannels walks every channel already registered in the
// store. An empty store bootstraps itself by discovering the connected
// guilds; after that, registration happens via guild-scoped sync.
func (s *Syncer) syncRegisteredChannels(ctx context.Context, since time.Time, opts models.SyncOptions, stats *models.SyncStats) error {
	channels, err := s.store.GetChannels()
	if err != nil {
		return err
	}

	if len(channels) == 0 {
		guilds, err := s.source.Guilds()
		if err != nil {
			return fmt.Errorf("failed to list guilds for bootstrap: %w", err)
		}
		log.Printf("No registered channels, bootstrapping from %d guilds", len(guilds))
		for _, guildID := range guilds {
			if err := s.syncGuild(ctx, guildID, since, opts, stats); err != nil {
				stats.ErrorsEncountered++
				log.Printf("Error syncing guild %s: %v", guildID, err)
			}
		}
		return nil
	}

	log.Printf("Found %d registered channels to sync", len(channels))
	for _, ch := range channels {
		if err := s.syncChannel(ctx, ch.ID, since, opts, stats); err != nil {
			stats.ErrorsEncountered++
			log.Printf("Error syncing channel %s (%s): %v", ch.ID, ch.Name, err)
		}
	}
	return nil
}

// syncGuild discovers the guild's forum channels, registers them and syncs
// each. A guild that cannot be resolved at all fails the run.
func (s *Syncer) syncGuild(ctx context.Context, guildID string, since time.Time, opts models.SyncOptions, stats *models.SyncStats) error {
	forums, err := s.source.ForumChannels(guildID)
	if err != nil {
		return fmt.Errorf("failed to list forum channels of guild %s: %w", guildID, err)
	}

	log.Printf("Found %d forum channels in guild %s", len(forums), guildID)
	for _, ch := range forums {
		if err := s.syncChannel(ctx, ch.ID, since, opts, stats); err != nil {
			stats.ErrorsEncountered++
			log.Printf("Error syncing channel %s (%s): %v", ch.ID, ch.Name, err)
		}
	}
	return nil
}

// syncChannel mirrors one forum channel: upserts the channel row, walks
// active and archived threads oldest-first, then (on a full pass) runs the
// authoritative bulk rank recompute for the channel.
func (s *Syncer) syncChannel(ctx context.Context, channelID string, since time.Time, opts models.SyncOptions, stats *models.SyncStats) error {
	ch, err := s.source.Channel(channelID)
	if err != nil {
		return err
	}

	if err := s.upsertChannel(ch); err != nil {
		return err
	}

	threads, err := s.collectThreads(ch.ID)
	if err != nil {
		return err
	}

	full := since.IsZero()
	if !full {
		filtered := threads[:0]
		for _, t := range threads {
			if t.CreatedAt.After(since) {
				filtered = append(filtered, t)
			}
		}
		threads = filtered
	}

	// Oldest first, so message ingestion order matches the oldest-first
	// bulk rank direction used for historical backfill.
	sort.Slice(threads, func(i, j int) bool {
		if threads[i].CreatedAt.Equal(threads[j].CreatedAt) {
			return threads[i].ID < threads[j].ID
		}
		return threads[i].CreatedAt.Before(threads[j].CreatedAt)
	})

	log.Printf("Channel %s (%s): %d threads to process", ch.ID, ch.Name, len(threads))

	for _, t := range threads {
		if err := s.syncThread(ctx, t, ch, since, opts, stats); err != nil {
			stats.ErrorsEncountered++
			log.Printf("Error syncing thread %s (%s): %v", t.ID, t.Title, err)
		}
	}

	// A full pass is the rank authority for the channel: overwrite every
	// rank from creation order, oldest first.
	if full && len(threads) > 0 {
		if _, err := s.ranker.Recompute(ch.ID, ranker.OrderOldestFirst); err != nil {
			stats.ErrorsEncountered++
			log.Printf("Error recomputing ranks for channel %s: %v", ch.ID, err)
		}
	}

	stats.ChannelsProcessed++
	return nil
}

// syncSingleThread syncs exactly one thread, assigning its rank
// incrementally. The thread failing to resolve fails the run.
func (s *Syncer) syncSingleThread(ctx context.Context, threadID string, opts models.SyncOptions, stats *models.SyncStats) error {
	t, err := s.source.Thread(threadID)
	if err != nil {
		return err
	}

	ch, err := s.source.Channel(t.ParentID)
	if err != nil {
		return err
	}

	if err := s.upsertChannel(ch); err != nil {
		return err
	}
	return s.syncThread(ctx, *t, ch, time.Time{}, opts, stats)
}

func (s *Syncer) upsertChannel(ch *discord.Channel) error {
	var description *string
	if ch.Topic != "" {
		topic := ch.Topic
		description = &topic
	}
	return s.store.UpsertChannel(&models.Channel{
		ID:          ch.ID,
		Slug:        content.Slugify(ch.Name),
		Name:        ch.Name,
		Description: description,
		Position:    ch.Position,
	})
}

// collectThreads gathers the channel's active threads plus every page of
// archived ones, deduplicated by ID. Archived pages follow the archive
// timestamp cursor with a courtesy delay between fetches.
func (s *Syncer) collectThreads(channelID string) ([]discord.Thread, error) {
	seen := make(map[string]bool)
	var threads []discord.Thread

	active, err := s.source.ActiveThreads(channelID)
	if err != nil {
		return nil, err
	}
	for _, t := range active {
		if !seen[t.ID] {
			threads = append(threads, t)
			seen[t.ID] = true
		}
	}

	var before *time.Time
	for {
		page, err := s.source.ArchivedThreads(channelID, before, s.pageSize)
		if err != nil {
			// Transient archive fetch failure: keep what we have.
			log.Printf("Failed to fetch archived threads for channel %s, stopping pagination: %v", channelID, err)
			break
		}
		if len(page.Threads) == 0 {
			break
		}

		advanced := false
		for _, t := range page.Threads {
			if !seen[t.ID] {
				threads = append(threads, t)
				seen[t.ID] = true
			}
			if !t.ArchivedAt.IsZero() && (before == nil || !t.ArchivedAt.Equal(*before)) {
				cursor := t.ArchivedAt
				before = &cursor
				advanced = true
			}
		}

		if !page.HasMore {
			break
		}
		// A page that claims more results but moves the cursor nowhere
		// would repeat forever; stop and keep what we have.
		if !advanced {
			log.Printf("Archive cursor for channel %s did not advance, stopping pagination", channelID)
			break
		}
		s.sleep()
	}

	return threads, nil
}

func (s *Syncer) sleep() {
	if s.batchDelay > 0 {
		time.Sleep(s.batchDelay)
	}
}
