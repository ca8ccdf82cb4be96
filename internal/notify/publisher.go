package notify

import (
	"context"
	"time"

	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/eslym/dcyt-bot-v2/internal/db/repository"
	"github.com/eslym/dcyt-bot-v2/internal/events"
	"github.com/eslym/dcyt-bot-v2/internal/fetcher"
	"github.com/eslym/dcyt-bot-v2/internal/metrics"
	"go.uber.org/zap"
)

// Sender delivers rendered notification text to a destination channel.
// Implementations may fail per call (missing permissions, deleted channel);
// the publisher isolates those failures.
type Sender interface {
	Send(ctx context.Context, channelID, content string) error
}

// Publisher resolves the interested subscriptions for a classified
// notification, renders the effective template per target and delivers the
// text. Delivery is best effort: a failed send is logged and counted, never
// retried, and never aborts sibling sends.
type Publisher struct {
	subs    repository.SubscriptionRepository
	sender  Sender
	events  *events.Publisher
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewPublisher creates a Publisher. The events tap may be nil.
func NewPublisher(subs repository.SubscriptionRepository, sender Sender, tap *events.Publisher, logger *zap.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{
		subs:    subs,
		sender:  sender,
		events:  tap,
		logger:  logger,
		metrics: m,
	}
}

// Publish fans the notification out to every subscription on the video's
// channel whose notify flag for the kind is enabled.
func (p *Publisher) Publish(ctx context.Context, kind models.NotificationKind, video *fetcher.VideoData) error {
	targets, err := p.subs.ListNotifyTargets(ctx, video.ChannelID, kind)
	if err != nil {
		return err
	}

	p.metrics.Notifications.WithLabelValues(kind.String()).Inc()
	p.events.Publish(ctx, events.NotificationEvent{
		VideoID:   video.ID,
		ChannelID: video.ChannelID,
		Kind:      kind.String(),
		Title:     video.Title,
		URL:       video.URL(),
		At:        time.Now(),
	})

	for _, target := range targets {
		locale := LocaleFor(target.Language)

		template := locale.Notification[kind]
		if override := target.Template(); override != nil {
			template = *override
		}

		content := Render(template, Variables{
			Title:     video.Title,
			URL:       video.URL(),
			Channel:   video.ChannelName,
			TypeLabel: locale.TypeLabel[video.Type],
			Schedule:  video.ScheduledAt(),
		})

		if err := p.sender.Send(ctx, target.GuildChannelID, content); err != nil {
			p.metrics.DeliveryFailures.Inc()
			p.logger.Error("failed to notify channel",
				zap.String("guild_channel_id", target.GuildChannelID),
				zap.String("video_id", video.ID),
				zap.String("kind", kind.String()),
				zap.Error(err),
			)
			continue
		}
	}

	p.logger.Info("notification published",
		zap.String("video_id", video.ID),
		zap.String("kind", kind.String()),
		zap.Int("targets", len(targets)),
	)

	return nil
}
