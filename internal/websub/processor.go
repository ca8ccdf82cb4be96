package websub

import (
	"context"
	"time"

	"github.com/eslym/dcyt-bot-v2/internal/db"
	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/eslym/dcyt-bot-v2/internal/db/repository"
	"github.com/eslym/dcyt-bot-v2/internal/dedup"
	"github.com/eslym/dcyt-bot-v2/internal/fetcher"
	"github.com/eslym/dcyt-bot-v2/internal/metrics"
	"github.com/eslym/dcyt-bot-v2/internal/notify"
	"go.uber.org/zap"
)

// staleAfter is how old a plain upload may be before a first-seen push is
// recorded without notifying. Hubs occasionally replay old entries after a
// resubscribe; announcing a three-day-old video reads as a bug to users.
const staleAfter = 72 * time.Hour

// Processor runs the content-delivery pipeline: dedup, fetch, persist,
// classify, publish. It is invoked asynchronously after the callback
// handler has acknowledged the delivery.
type Processor struct {
	channels  repository.YoutubeChannelRepository
	videos    repository.VideoRepository
	fetcher   fetcher.DataFetcher
	lock      *dedup.Lock
	publisher *notify.Publisher
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewProcessor creates a Processor.
func NewProcessor(
	channels repository.YoutubeChannelRepository,
	videos repository.VideoRepository,
	f fetcher.DataFetcher,
	lock *dedup.Lock,
	publisher *notify.Publisher,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Processor {
	return &Processor{
		channels:  channels,
		videos:    videos,
		fetcher:   f,
		lock:      lock,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// HandleEvent processes one decoded feed event for the channel the callback
// belongs to.
func (p *Processor) HandleEvent(ctx context.Context, channel *models.YoutubeChannel, event *FeedEvent) error {
	if event.Deleted != nil {
		return p.handleDeleted(ctx, event.Deleted)
	}
	return p.handleEntry(ctx, channel, event.Entry)
}

func (p *Processor) handleDeleted(ctx context.Context, event *DeletedEvent) error {
	err := p.videos.MarkDeleted(ctx, event.VideoID, event.When)
	if db.IsNotFound(err) {
		// Never tracked it, nothing to retract.
		return nil
	}
	if err != nil {
		return err
	}
	p.logger.Info("video marked deleted", zap.String("video_id", event.VideoID))
	return nil
}

func (p *Processor) handleEntry(ctx context.Context, channel *models.YoutubeChannel, entry *EntryEvent) error {
	if entry.ChannelID != channel.ID {
		// Topic and payload disagree; drop it rather than cross-post.
		p.logger.Warn("feed entry channel mismatch",
			zap.String("expected", channel.ID),
			zap.String("got", entry.ChannelID),
			zap.String("video_id", entry.VideoID),
		)
		return nil
	}

	if !p.lock.TryAcquire(entry.VideoID) {
		p.logger.Debug("video already being processed", zap.String("video_id", entry.VideoID))
		return nil
	}
	defer p.lock.Delete(entry.VideoID)

	data, err := p.fetcher.FetchVideoData(ctx, entry.VideoID)
	if err != nil {
		if fetcher.IsNotFound(err) {
			// Gone between the push and our fetch. Retract if we had it.
			if markErr := p.videos.MarkDeleted(ctx, entry.VideoID, p.now()); markErr != nil && !db.IsNotFound(markErr) {
				return markErr
			}
			return nil
		}
		p.metrics.FetchErrors.Inc()
		return err
	}

	if data.ChannelName != "" && data.ChannelName != channel.Title {
		if err := p.channels.UpdateTitle(ctx, channel.ID, data.ChannelName); err != nil {
			p.logger.Error("failed to refresh channel title", zap.String("channel_id", channel.ID), zap.Error(err))
		}
	}

	stored, err := p.videos.GetByID(ctx, entry.VideoID)
	if err != nil {
		if !db.IsNotFound(err) {
			return err
		}
		return p.handleFirstSeen(ctx, data, entry)
	}
	return p.handleKnown(ctx, data, stored)
}

// Poll re-fetches an already-tracked video and runs it through the same
// reconcile step as a push delivery. The fallback poller uses this for
// records whose live or upcoming transition may have arrived without a push.
func (p *Processor) Poll(ctx context.Context, stored *models.YoutubeVideo) error {
	if !p.lock.TryAcquire(stored.ID) {
		return nil
	}
	defer p.lock.Delete(stored.ID)

	data, err := p.fetcher.FetchVideoData(ctx, stored.ID)
	if err != nil {
		if fetcher.IsNotFound(err) {
			return p.videos.MarkDeleted(ctx, stored.ID, p.now())
		}
		p.metrics.FetchErrors.Inc()
		return err
	}

	return p.handleKnown(ctx, data, stored)
}

// handleFirstSeen records a video we have never tracked and decides whether
// its arrival is worth announcing.
func (p *Processor) handleFirstSeen(ctx context.Context, data *fetcher.VideoData, entry *EntryEvent) error {
	now := p.now()
	video := &models.YoutubeVideo{
		ID:          data.ID,
		ChannelID:   data.ChannelID,
		Type:        data.Type,
		Title:       data.Title,
		ScheduledAt: data.ScheduledAt(),
		LivedAt:     data.LivedAt(),
	}

	kind, ok := notify.Classify(now, data, nil)

	stale := data.Type == models.VideoTypeVideo && !entry.Published.IsZero() && now.Sub(entry.Published) > staleAfter
	if ok && stale {
		// Record it as already announced so a later push stays silent.
		p.logger.Info("discarding stale upload notification",
			zap.String("video_id", data.ID),
			zap.Time("published", entry.Published),
		)
	}

	if ok {
		video.SetNotified(kind, now)
	} else {
		// A broadcast first seen after it already ended is recorded as
		// live-notified so the reconcile loop never picks it up.
		video.SetNotified(models.NotifyLive, now)
	}

	if err := p.videos.Insert(ctx, video); err != nil {
		if db.IsDuplicateKey(err) {
			// Raced with another delivery that inserted first.
			return nil
		}
		return err
	}

	if !ok || stale {
		return nil
	}
	return p.publisher.Publish(ctx, kind, data)
}

// handleKnown reconciles an already-tracked video against the fresh fetch.
func (p *Processor) handleKnown(ctx context.Context, data *fetcher.VideoData, stored *models.YoutubeVideo) error {
	now := p.now()

	if stored.Type == models.VideoTypeVideo {
		// Plain uploads are announced once at publish and never again.
		return p.videos.Refresh(ctx, stored.ID, data.Title, data.ScheduledAt(), data.LivedAt())
	}

	if stored.DeletedAt != nil || stored.LivedAt != nil {
		// Resurrected or already-live records get their fields refreshed
		// without a second announcement.
		return p.videos.Refresh(ctx, stored.ID, data.Title, data.ScheduledAt(), data.LivedAt())
	}

	// Once a viewer has been told the stream is live or about to start,
	// schedule shuffling is noise; keep tracking upstream truth silently.
	kind, ok := notify.Classify(now, data, stored)
	if !ok || stored.NotifiedAt(kind) != nil ||
		stored.LiveNotifiedAt != nil || stored.UpcomingNotifiedAt != nil {
		return p.videos.Refresh(ctx, stored.ID, data.Title, data.ScheduledAt(), data.LivedAt())
	}

	if err := p.videos.UpdateAndStamp(ctx, stored.ID, data.Title, data.ScheduledAt(), data.LivedAt(), kind, now); err != nil {
		return err
	}
	return p.publisher.Publish(ctx, kind, data)
}
