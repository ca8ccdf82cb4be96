// Package discord adapts a discordgo session to the notification sender.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Sender delivers notification messages through a Discord bot session.
type Sender struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// New opens a Discord session for the given bot token.
func New(token string, logger *zap.Logger) (*Sender, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	// Gateway presence only; all delivery goes over the REST API.
	session.Identify.Intents = discordgo.IntentsGuilds

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("open discord session: %w", err)
	}

	logger.Info("discord session opened")
	return &Sender{session: session, logger: logger}, nil
}

// Send posts content to the given Discord channel.
func (s *Sender) Send(ctx context.Context, channelID, content string) error {
	_, err := s.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send to channel %s: %w", channelID, err)
	}
	return nil
}

// Close shuts the gateway connection down.
func (s *Sender) Close() error {
	return s.session.Close()
}
