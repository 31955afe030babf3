package database

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"forum-mirror/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := InitDB(filepath.Join(t.TempDir(), "forum.db"))
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedChannel(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.UpsertChannel(&models.Channel{ID: id, Slug: "chan-" + id, Name: "Channel " + id}); err != nil {
		t.Fatalf("failed to seed channel %s: %v", id, err)
	}
}

func seedThread(t *testing.T, s *Store, id, channelID string, rank int, createdAt time.Time) {
	t.Helper()
	err := s.UpsertThread(&models.Thread{
		ID:          id,
		ChannelID:   channelID,
		Slug:        "thread-" + id,
		Title:       "Thread " + id,
		AuthorAlias: "alias",
		BodyHTML:    "<p>body</p>",
		Rank:        rank,
		Published:   true,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	})
	if err != nil {
		t.Fatalf("failed to seed thread %s: %v", id, err)
	}
}

func TestUpsertChannel(t *testing.T) {
	store := newTestStore(t)

	desc := "general chatter"
	ch := &models.Channel{ID: "c1", Slug: "general", Name: "General", Description: &desc, Position: 2}
	if err := store.UpsertChannel(ch); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// Re-upsert refreshes name and position but never the slug.
	if err := store.UpsertChannel(&models.Channel{ID: "c1", Slug: "renamed", Name: "Renamed", Position: 5}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.GetChannel("c1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "Renamed" || got.Position != 5 {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Slug != "general" {
		t.Errorf("slug changed on update: %q", got.Slug)
	}
	if got.Description != nil {
		t.Errorf("description = %v, want nil after update", *got.Description)
	}
}

func TestGetChannelsOrder(t *testing.T) {
	store := newTestStore(t)
	store.UpsertChannel(&models.Channel{ID: "c1", Slug: "bravo", Name: "Bravo", Position: 1})
	store.UpsertChannel(&models.Channel{ID: "c2", Slug: "alpha", Name: "Alpha", Position: 0})

	channels, err := store.GetChannels()
	if err != nil {
		t.Fatalf("GetChannels failed: %v", err)
	}
	if len(channels) != 2 || channels[0].ID != "c2" || channels[1].ID != "c1" {
		t.Errorf("unexpected order: %+v", channels)
	}
}

func TestUpsertThreadPreserves(t *testing.T) {
	store := newTestStore(t)
	seedChannel(t, store, "c1")

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seedThread(t, store, "t1", "c1", 3, created)

	// A content refresh must not touch rank, published or created_at.
	err := store.UpsertThread(&models.Thread{
		ID:          "t1",
		ChannelID:   "c1",
		Slug:        "thread-t1-edited",
		Title:       "Edited",
		AuthorAlias: "other",
		BodyHTML:    "<p>edited</p>",
		Tags:        models.StringList{"news"},
		ReplyCount:  4,
		Rank:        0,
		Published:   false,
		CreatedAt:   created.Add(time.Hour),
		UpdatedAt:   created.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.GetThread("t1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != "Edited" || got.BodyHTML != "<p>edited</p>" || got.ReplyCount != 4 {
		t.Errorf("content fields not updated: %+v", got)
	}
	if !reflect.DeepEqual(got.Tags, models.StringList{"news"}) {
		t.Errorf("tags = %v, want [news]", got.Tags)
	}
	if got.Rank != 3 {
		t.Errorf("rank = %d, want 3 (preserved)", got.Rank)
	}
	if !got.Published {
		t.Error("published flag was overwritten")
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v (preserved)", got.CreatedAt, created)
	}
	if got.AuthorAlias != "alias" {
		t.Errorf("author alias = %q, want preserved original", got.AuthorAlias)
	}
}

func TestUpsertThreadUnknownChannel(t *testing.T) {
	store := newTestStore(t)

	err := store.UpsertThread(&models.Thread{
		ID: "t1", ChannelID: "missing", Slug: "s", Title: "T",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	})
	if !errors.Is(err, ErrUnknownParent) {
		t.Errorf("error = %v, want ErrUnknownParent", err)
	}
}

func TestUpsertPost(t *testing.T) {
	store := newTestStore(t)
	seedChannel(t, store, "c1")
	seedThread(t, store, "t1", "c1", 1, time.Now().UTC())

	now := time.Now().UTC()
	p := &models.Post{ID: "p1", ThreadID: "t1", AuthorAlias: "a", BodyHTML: "<p>hi</p>", CreatedAt: now, UpdatedAt: now}
	if err := store.UpsertPost(p); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	ref := "p0"
	alias := "refalias"
	p.BodyHTML = "<p>edited</p>"
	p.ReplyToID = &ref
	p.ReplyToAuthorAlias = &alias
	if err := store.UpsertPost(p); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.GetPost("p1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.BodyHTML != "<p>edited</p>" {
		t.Errorf("body not updated: %q", got.BodyHTML)
	}
	if got.ReplyToID == nil || *got.ReplyToID != "p0" {
		t.Errorf("reply_to_id = %v, want p0", got.ReplyToID)
	}
	if got.ReplyToAuthorAlias == nil || *got.ReplyToAuthorAlias != "refalias" {
		t.Errorf("reply_to_author_alias = %v, want refalias", got.ReplyToAuthorAlias)
	}
}

func TestUpsertPostUnknownThread(t *testing.T) {
	store := newTestStore(t)
	seedChannel(t, store, "c1")

	now := time.Now().UTC()
	err := store.UpsertPost(&models.Post{ID: "p1", ThreadID: "missing", CreatedAt: now, UpdatedAt: now})
	if !errors.Is(err, ErrUnknownParent) {
		t.Errorf("error = %v, want ErrUnknownParent", err)
	}
}

func TestSetReplyReference(t *testing.T) {
	store := newTestStore(t)
	seedChannel(t, store, "c1")
	seedThread(t, store, "t1", "c1", 1, time.Now().UTC())

	now := time.Now().UTC()
	store.UpsertPost(&models.Post{ID: "p1", ThreadID: "t1", AuthorAlias: "a1", BodyHTML: "x", CreatedAt: now, UpdatedAt: now})
	store.UpsertPost(&models.Post{ID: "p2", ThreadID: "t1", AuthorAlias: "a2", BodyHTML: "y", CreatedAt: now, UpdatedAt: now})

	if err := store.SetReplyReference("p2", "p1", "a1"); err != nil {
		t.Fatalf("SetReplyReference failed: %v", err)
	}
	got, _ := store.GetPost("p2")
	if got.ReplyToID == nil || *got.ReplyToID != "p1" || got.ReplyToAuthorAlias == nil || *got.ReplyToAuthorAlias != "a1" {
		t.Errorf("reply link not backfilled: %+v", got)
	}

	if err := store.SetReplyReference("missing", "p1", "a1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSetRanksAtomic(t *testing.T) {
	store := newTestStore(t)
	seedChannel(t, store, "c1")
	now := time.Now().UTC()
	seedThread(t, store, "t1", "c1", 1, now)
	seedThread(t, store, "t2", "c1", 2, now)

	err := store.SetRanks([]models.RankUpdate{
		{ThreadID: "t1", Rank: 9},
		{ThreadID: "ghost", Rank: 10},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}

	// The failing batch must leave every rank untouched.
	got, _ := store.GetThread("t1")
	if got.Rank != 1 {
		t.Errorf("rank = %d after failed batch, want 1", got.Rank)
	}

	if err := store.SetRanks([]models.RankUpdate{{ThreadID: "t1", Rank: 2}, {ThreadID: "t2", Rank: 1}}); err != nil {
		t.Fatalf("valid batch failed: %v", err)
	}
	t1, _ := store.GetThread("t1")
	t2, _ := store.GetThread("t2")
	if t1.Rank != 2 || t2.Rank != 1 {
		t.Errorf("ranks = %d, %d, want 2, 1", t1.Rank, t2.Rank)
	}
}

func TestMaxRank(t *testing.T) {
	store := newTestStore(t)
	seedChannel(t, store, "c1")

	max, err := store.MaxRank("c1")
	if err != nil {
		t.Fatalf("MaxRank failed: %v", err)
	}
	if max != 0 {
		t.Errorf("max rank of empty channel = %d, want 0", max)
	}

	seedThread(t, store, "t1", "c1", 7, time.Now().UTC())
	if max, _ = store.MaxRank("c1"); max != 7 {
		t.Errorf("max rank = %d, want 7", max)
	}
}

func TestThreadsByCreation(t *testing.T) {
	store := newTestStore(t)
	seedChannel(t, store, "c1")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedThread(t, store, "t2", "c1", 0, base.Add(time.Hour))
	seedThread(t, store, "t1", "c1", 0, base)
	seedThread(t, store, "t3", "c1", 0, base.Add(2*time.Hour))

	oldest, err := store.ThreadsByCreation("c1", false)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if oldest[0].ID != "t1" || oldest[2].ID != "t3" {
		t.Errorf("oldest-first order wrong: %s..%s", oldest[0].ID, oldest[2].ID)
	}

	newest, _ := store.ThreadsByCreation("c1", true)
	if newest[0].ID != "t3" || newest[2].ID != "t1" {
		t.Errorf("newest-first order wrong: %s..%s", newest[0].ID, newest[2].ID)
	}
}

func TestUpdateReplyCount(t *testing.T) {
	store := newTestStore(t)
	seedChannel(t, store, "c1")
	seedThread(t, store, "t1", "c1", 1, time.Now().UTC())

	if err := store.UpdateReplyCount("t1", 12); err != nil {
		t.Fatalf("UpdateReplyCount failed: %v", err)
	}
	got, _ := store.GetThread("t1")
	if got.ReplyCount != 12 {
		t.Errorf("reply count = %d, want 12", got.ReplyCount)
	}

	if err := store.UpdateReplyCount("missing", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetChannel("x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetChannel error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetThread("x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetThread error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetPost("x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPost error = %v, want ErrNotFound", err)
	}
}

func TestSyncStateRoundTrip(t *testing.T) {
	store := newTestStore(t)

	state := store.GetSyncState()
	if !state.IsFirstRun {
		t.Error("fresh database should report first run")
	}

	last := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	if err := store.SetSyncState(models.SyncState{LastSync: last, IsFirstRun: false}); err != nil {
		t.Fatalf("SetSyncState failed: %v", err)
	}

	state = store.GetSyncState()
	if state.IsFirstRun {
		t.Error("state still reports first run after write")
	}
	if !state.LastSync.Equal(last) {
		t.Errorf("last sync = %v, want %v", state.LastSync, last)
	}
}

func TestStringListRoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedChannel(t, store, "c1")

	now := time.Now().UTC()
	err := store.UpsertThread(&models.Thread{
		ID: "t1", ChannelID: "c1", Slug: "s", Title: "T", AuthorAlias: "a",
		Tags: models.StringList{"help", "solved"}, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, _ := store.GetThread("t1")
	if !reflect.DeepEqual(got.Tags, models.StringList{"help", "solved"}) {
		t.Errorf("tags = %v", got.Tags)
	}

	// An empty list survives as NULL and scans back to nil.
	seedThread(t, store, "t2", "c1", 0, now)
	got, _ = store.GetThread("t2")
	if got.Tags != nil {
		t.Errorf("empty tags = %v, want nil", got.Tags)
	}
}
