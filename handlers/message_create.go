package handlers

import (
	"context"
	"errors"
	"log"

	"forum-mirror/bot"
	"forum-mirror/discord"
	"forum-mirror/syncer"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// MessageCreateHandler handles the MESSAGE_CREATE event for messages
// posted inside mirrored forum threads.
func MessageCreateHandler(b *bot.Bot) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		// Ignore all messages created by the bot itself.
		if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
			return
		}

		guildID := viper.GetString("sync.guild_id")
		if guildID != "" && m.GuildID != guildID {
			return
		}

		err := b.Syncer.IngestMessage(context.Background(), m.ChannelID, m.ID)
		if err != nil {
			// Messages outside forum threads resolve to no thread at the
			// source and are simply not mirrored.
			if errors.Is(err, discord.ErrNotFound) {
				return
			}
			if errors.Is(err, syncer.ErrSyncRunning) {
				log.Printf("Sync in progress, message %s will be picked up by the next delta run", m.ID)
				return
			}
			log.Printf("Error mirroring message %s in %s: %v", m.ID, m.ChannelID, err)
		}
	}
}
