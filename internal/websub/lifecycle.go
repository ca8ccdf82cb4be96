package websub

import (
	"context"
	"fmt"

	"github.com/eslym/dcyt-bot-v2/internal/db"
	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/eslym/dcyt-bot-v2/internal/db/repository"
	"go.uber.org/zap"
)

// Lifecycle keeps hub subscriptions aligned with subscription demand: a
// channel with at least one Discord subscription holds an active lease, a
// channel with none is unsubscribed.
type Lifecycle struct {
	channels repository.YoutubeChannelRepository
	subs     repository.SubscriptionRepository
	hub      *HubClient
	logger   *zap.Logger
}

// NewLifecycle creates a Lifecycle.
func NewLifecycle(channels repository.YoutubeChannelRepository, subs repository.SubscriptionRepository, hub *HubClient, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		channels: channels,
		subs:     subs,
		hub:      hub,
		logger:   logger,
	}
}

// EnsureChannel returns the tracked record for a YouTube channel, creating
// it with a fresh webhook ID when it is first referenced. The title is
// filled in by the first content delivery.
func (l *Lifecycle) EnsureChannel(ctx context.Context, channelID string) (*models.YoutubeChannel, error) {
	channel, err := l.channels.GetByID(ctx, channelID)
	if err == nil {
		return channel, nil
	}
	if !db.IsNotFound(err) {
		return nil, err
	}

	channel = models.NewYoutubeChannel(channelID, "")
	if err := l.channels.Create(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

// Sync reconciles the channel's hub lease with its current subscription
// count. Called after every subscription create or delete.
func (l *Lifecycle) Sync(ctx context.Context, channelID string) error {
	channel, err := l.channels.GetByID(ctx, channelID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil
		}
		return err
	}

	count, err := l.subs.CountForChannel(ctx, channelID)
	if err != nil {
		return err
	}

	switch {
	case count > 0 && !channel.Subscribed():
		secret, err := NewSecret()
		if err != nil {
			return err
		}
		if err := l.channels.SetSecret(ctx, channel.ID, secret); err != nil {
			return err
		}
		if err := l.hub.Subscribe(ctx, channel.ID, channel.WebhookID, secret); err != nil {
			return fmt.Errorf("subscribe channel %s: %w", channel.ID, err)
		}
		l.logger.Info("hub subscription requested", zap.String("channel_id", channel.ID))

	case count == 0 && channel.Subscribed():
		// The lease record is cleared when the hub confirms via the
		// callback, not here.
		if err := l.hub.Unsubscribe(ctx, channel.ID, channel.WebhookID); err != nil {
			return fmt.Errorf("unsubscribe channel %s: %w", channel.ID, err)
		}
		l.logger.Info("hub unsubscribe requested", zap.String("channel_id", channel.ID))
	}

	return nil
}
