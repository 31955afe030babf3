// Package ranker is the single source of truth for thread ordering. All
// rank writes, incremental, bulk recompute and manual reorder, go through
// it so field naming and direction policy stay consistent.
package ranker

import (
	"fmt"
	"log"

	"forum-mirror/database"
	"forum-mirror/models"
)

// Order selects the direction of a bulk recompute.
type Order string

const (
	// OrderNewestFirst assigns rank 1 to the newest thread. This is the
	// default ordering for the public forum's importance view.
	OrderNewestFirst Order = "newest-first"
	// OrderOldestFirst assigns rank 1 to the oldest thread. Used for
	// historical backfill during a full sync.
	OrderOldestFirst Order = "oldest-first"
)

// ParseOrder converts a CLI/config string into an Order.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case OrderNewestFirst, OrderOldestFirst:
		return Order(s), nil
	default:
		return "", fmt.Errorf("invalid rank order %q (want %q or %q)", s, OrderNewestFirst, OrderOldestFirst)
	}
}

// Ranker computes and applies thread ranks within a channel.
type Ranker struct {
	store *database.Store
}

// New creates a Ranker writing through the given store.
func New(store *database.Store) *Ranker {
	return &Ranker{store: store}
}

// Next returns the rank for a single newly arriving thread: the channel's
// current maximum rank plus one, so 1 for an empty channel. Callers must
// not run two incremental assignments for the same channel concurrently;
// the sync run processes channels sequentially for exactly this reason.
func (r *Ranker) Next(channelID string) (int, error) {
	max, err := r.store.MaxRank(channelID)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next rank for channel %s: %w", channelID, err)
	}
	return max + 1, nil
}

// Recompute reassigns ranks for every thread in the channel, contiguous
// from 1, ordered by creation time in the given direction. It fully
// overwrites prior ranks and is the authority when invoked. Returns the
// number of threads ranked.
func (r *Ranker) Recompute(channelID string, order Order) (int, error) {
	threads, err := r.store.ThreadsByCreation(channelID, order == OrderNewestFirst)
	if err != nil {
		return 0, fmt.Errorf("failed to load threads for channel %s: %w", channelID, err)
	}
	if len(threads) == 0 {
		return 0, nil
	}

	updates := make([]models.RankUpdate, len(threads))
	for i, t := range threads {
		updates[i] = models.RankUpdate{ThreadID: t.ID, Rank: i + 1}
	}

	if err := r.store.SetRanks(updates); err != nil {
		return 0, fmt.Errorf("failed to apply recomputed ranks for channel %s: %w", channelID, err)
	}

	log.Printf("Recomputed ranks for %d threads in channel %s (%s)", len(threads), channelID, order)
	return len(threads), nil
}

// RecomputeAll runs Recompute over every registered channel.
func (r *Ranker) RecomputeAll(order Order) (int, error) {
	channels, err := r.store.GetChannels()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, ch := range channels {
		n, err := r.Recompute(ch.ID, order)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Apply sets explicit ranks from a manual reorder. The batch is atomic:
// either every entry is applied or none. Ranks of threads not named in
// the batch are left alone.
func (r *Ranker) Apply(updates []models.RankUpdate) error {
	for _, u := range updates {
		if u.ThreadID == "" {
			return fmt.Errorf("rank update with empty thread id")
		}
		if u.Rank < 1 {
			return fmt.Errorf("rank update for thread %s has non-positive rank %d", u.ThreadID, u.Rank)
		}
	}
	return r.store.SetRanks(updates)
}
