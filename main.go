package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"forum-mirror/bot"
	"forum-mirror/config"
	"forum-mirror/content"
	"forum-mirror/database"
	"forum-mirror/discord"
	"forum-mirror/handlers"
	"forum-mirror/models"
	"forum-mirror/ranker"
	"forum-mirror/server"
	"forum-mirror/syncer"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "forum-mirror",
	Short: "Mirror Discord forum channels into a relational database",
	Long: `forum-mirror keeps a relational copy of Discord forum channels:
threads, posts, reply links and display ranks. It can run as a
long-lived bot with live event mirroring and a scheduled sync, or as a
one-shot sync from the command line.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot with live mirroring, scheduled sync and the admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		dg, err := bot.NewSession()
		if err != nil {
			return err
		}

		rk := ranker.New(store)
		sy := buildSyncer(store, discord.NewSessionSource(dg), rk)

		srv := server.New(config.Server().ListenAddr, rk, sy)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(ctx); err != nil {
				log.Printf("Admin API shutdown error: %v", err)
			}
		}()

		b := bot.NewBot(dg, sy, rk)
		return b.Run(handlers.Register)
	},
}

var (
	syncFull         bool
	syncGuildID      string
	syncChannelID    string
	syncThreadID     string
	syncSkipExisting bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a one-shot sync and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		dg, err := bot.NewSession()
		if err != nil {
			return err
		}

		sy := buildSyncer(store, discord.NewSessionSource(dg), ranker.New(store))

		opts := models.SyncOptions{
			GuildID:      syncGuildID,
			ChannelID:    syncChannelID,
			ThreadID:     syncThreadID,
			ForceFull:    syncFull,
			SkipExisting: syncSkipExisting,
		}
		if opts.GuildID == "" && opts.ChannelID == "" && opts.ThreadID == "" {
			// Fall back to the configured guild so a fresh database has
			// channels to register.
			opts.GuildID = config.Sync().GuildID
		}

		stats, err := sy.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		fmt.Printf("Sync finished (%s) in %s\n", stats.Mode, stats.Duration().Round(time.Millisecond))
		fmt.Printf("  channels: %d\n", stats.ChannelsProcessed)
		fmt.Printf("  threads:  %d\n", stats.ThreadsProcessed)
		fmt.Printf("  posts:    %d\n", stats.PostsProcessed)
		fmt.Printf("  errors:   %d\n", stats.ErrorsEncountered)
		return nil
	},
}

var (
	ranksChannelID string
	ranksOrder     string
)

var ranksCmd = &cobra.Command{
	Use:   "ranks",
	Short: "Recompute thread display ranks",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		order, err := ranker.ParseOrder(ranksOrder)
		if err != nil {
			return err
		}

		rk := ranker.New(store)
		if ranksChannelID != "" {
			n, err := rk.Recompute(ranksChannelID, order)
			if err != nil {
				return err
			}
			fmt.Printf("Recomputed ranks for %d threads in channel %s\n", n, ranksChannelID)
			return nil
		}

		n, err := rk.RecomputeAll(order)
		if err != nil {
			return err
		}
		fmt.Printf("Recomputed ranks for %d threads\n", n)
		return nil
	},
}

func openStore() (*database.Store, error) {
	return database.InitDB(viper.GetString("database.path"))
}

func buildSyncer(store *database.Store, src discord.Source, rk *ranker.Ranker) *syncer.Syncer {
	sc := config.Sync()
	return syncer.New(syncer.Config{
		Store:       store,
		Source:      src,
		Transformer: content.NewTransformer(content.NewImageFetcher()),
		Ranker:      rk,
		Staff:       config.Staff(),
		PageSize:    sc.PageSize,
		BatchDelay:  time.Duration(sc.BatchDelayMs) * time.Millisecond,
	})
}

func init() {
	cobra.OnInitialize(config.LoadConfig)

	syncCmd.Flags().BoolVar(&syncFull, "full", false, "force a full sync regardless of stored state")
	syncCmd.Flags().StringVar(&syncGuildID, "guild", "", "sync every forum channel of a guild")
	syncCmd.Flags().StringVar(&syncChannelID, "channel", "", "sync a single forum channel")
	syncCmd.Flags().StringVar(&syncThreadID, "thread", "", "sync a single thread")
	syncCmd.Flags().BoolVar(&syncSkipExisting, "skip-existing", false, "skip threads already present in the database")

	ranksCmd.Flags().StringVar(&ranksChannelID, "channel", "", "limit the recompute to one channel")
	ranksCmd.Flags().StringVar(&ranksOrder, "order", string(ranker.OrderNewestFirst), "rank order: newest-first or oldest-first")

	rootCmd.AddCommand(runCmd, syncCmd, ranksCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
