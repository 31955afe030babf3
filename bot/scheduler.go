package bot

import (
	"context"
	"errors"
	"log"

	"forum-mirror/models"
	"forum-mirror/syncer"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

var c *cron.Cron

// startScheduler starts the cron jobs.
func startScheduler(b *Bot) {
	log.Println("Initializing scheduler...")
	c = cron.New()

	spec := viper.GetString("sync.cron_spec")
	_, err := c.AddFunc(spec, func() {
		log.Println("Running scheduled sync...")
		runSync(b, false)
	})
	if err != nil {
		log.Fatalf("Could not set up cron job: %v", err)
	}
	c.Start()
	log.Printf("Sync job scheduled with spec %q.", spec)

	// Perform an initial sync on startup based on config.
	if viper.GetBool("sync.sync_at_startup") {
		go func() {
			log.Println("Performing initial sync on startup...")
			runSync(b, true)
		}()
	} else {
		log.Println("Skipping initial sync on startup as per configuration.")
	}
}

func runSync(b *Bot, forceFull bool) {
	stats, err := b.Syncer.Run(context.Background(), models.SyncOptions{ForceFull: forceFull})
	if err != nil {
		if errors.Is(err, syncer.ErrSyncRunning) {
			log.Println("Previous sync still running, skipping this trigger.")
			return
		}
		log.Printf("Scheduled sync failed: %v", err)
		return
	}
	log.Printf("Scheduled %s sync done: %d threads, %d posts, %d errors",
		stats.Mode, stats.ThreadsProcessed, stats.PostsProcessed, stats.ErrorsEncountered)
}

// stopScheduler stops the cron jobs.
func stopScheduler() {
	if c != nil {
		c.Stop()
		log.Println("Scheduler stopped.")
	}
}
