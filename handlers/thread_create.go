package handlers

import (
	"context"
	"errors"
	"log"

	"forum-mirror/bot"
	"forum-mirror/models"
	"forum-mirror/syncer"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// ThreadCreateHandler handles the THREAD_CREATE event. A newly created
// forum thread is mirrored immediately with the channel's next
// incremental rank instead of waiting for the next scheduled sync.
func ThreadCreateHandler(b *bot.Bot) func(s *discordgo.Session, t *discordgo.ThreadCreate) {
	return func(s *discordgo.Session, t *discordgo.ThreadCreate) {
		if t.Type != discordgo.ChannelTypeGuildPublicThread {
			return
		}

		guildID := viper.GetString("sync.guild_id")
		if guildID != "" && t.GuildID != guildID {
			return
		}

		log.Printf("New thread created: %s (%s), mirroring", t.ID, t.Name)

		_, err := b.Syncer.Run(context.Background(), models.SyncOptions{ThreadID: t.ID})
		if err != nil {
			if errors.Is(err, syncer.ErrSyncRunning) {
				log.Printf("Sync in progress, thread %s will be picked up by the next delta run", t.ID)
				return
			}
			log.Printf("Error mirroring new thread %s: %v", t.ID, err)
		}
	}
}
