package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"forum-mirror/ranker"
	"forum-mirror/syncer"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// Bot encapsulates the Discord session and the sync collaborators the
// event handlers need.
type Bot struct {
	Session *discordgo.Session
	Syncer  *syncer.Syncer
	Ranker  *ranker.Ranker
}

// NewSession creates a Discord session from the configured token. The
// session is usable for REST calls immediately; Open is only needed for
// gateway events.
func NewSession() (*discordgo.Session, error) {
	token := viper.GetString("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("no bot token provided")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	return dg, nil
}

// NewBot wraps an existing session and the sync collaborators.
func NewBot(session *discordgo.Session, sy *syncer.Syncer, rk *ranker.Ranker) *Bot {
	return &Bot{
		Session: session,
		Syncer:  sy,
		Ranker:  rk,
	}
}

// Start opens the bot's session and registers handlers.
func (b *Bot) Start(registerHandlers func(*Bot)) error {
	registerHandlers(b)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	startScheduler(b)

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	return nil
}

// Stop gracefully closes the bot's session.
func (b *Bot) Stop() {
	stopScheduler()
	if b.Session != nil {
		b.Session.Close()
	}
	fmt.Println("Bot stopped gracefully.")
}

// Run starts the bot and blocks until a termination signal arrives.
func (b *Bot) Run(registerHandlers func(*Bot)) error {
	if err := b.Start(registerHandlers); err != nil {
		return err
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	b.Stop()
	log.Println("Shutdown complete.")
	return nil
}
