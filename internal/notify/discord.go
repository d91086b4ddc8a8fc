package notify

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mahlerhutter/extensiovitae/internal/logging"
)

// DiscordEffector delivers pending notifications to a Discord channel
type DiscordEffector struct {
	session      *discordgo.Session
	channelID    string
	outbox       *Outbox
	pollInterval time.Duration
	stopChan     chan struct{}
}

// NewDiscordEffector creates an effector delivering to channelID
func NewDiscordEffector(token, channelID string, outbox *Outbox) (*DiscordEffector, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordEffector{
		session:      session,
		channelID:    channelID,
		outbox:       outbox,
		pollInterval: 5 * time.Second,
		stopChan:     make(chan struct{}),
	}, nil
}

// Start begins polling the outbox
func (e *DiscordEffector) Start() {
	go e.pollLoop()
	logging.Info("discord-effector", "started (channel %s)", e.channelID)
}

// Stop halts the effector
func (e *DiscordEffector) Stop() {
	close(e.stopChan)
}

func (e *DiscordEffector) pollLoop() {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.deliverPending()
		}
	}
}

func (e *DiscordEffector) deliverPending() {
	for _, n := range e.outbox.Pending() {
		content := "**" + n.Title + "**\n" + n.Message
		if n.Suggestion != "" {
			content += "\n_" + n.Suggestion + "_"
		}

		if _, err := e.session.ChannelMessageSend(e.channelID, content); err != nil {
			logging.Warn("discord-effector", "failed to deliver %s: %v", n.ID, err)
			e.outbox.MarkFailed(n.ID)
			continue
		}
		e.outbox.MarkSent(n.ID)
		logging.Info("discord-effector", "delivered: %s", logging.Truncate(n.Title, 50))
	}
}

// LogEffector is the headless fallback: it "delivers" notifications to the
// process log so running without Discord configured still surfaces alerts.
type LogEffector struct {
	outbox       *Outbox
	pollInterval time.Duration
	stopChan     chan struct{}
}

// NewLogEffector creates the log-only effector
func NewLogEffector(outbox *Outbox) *LogEffector {
	return &LogEffector{
		outbox:       outbox,
		pollInterval: 5 * time.Second,
		stopChan:     make(chan struct{}),
	}
}

// Start begins polling the outbox
func (e *LogEffector) Start() {
	go func() {
		ticker := time.NewTicker(e.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-e.stopChan:
				return
			case <-ticker.C:
				for _, n := range e.outbox.Pending() {
					logging.Info("notify", "%s: %s", n.Title, n.Message)
					e.outbox.MarkSent(n.ID)
				}
			}
		}
	}()
}

// Stop halts the effector
func (e *LogEffector) Stop() {
	close(e.stopChan)
}
