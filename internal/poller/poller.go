// Package poller runs the scheduled background work: hub lease renewal and
// the fallback reconcile sweep for pending live and premiere records.
package poller

import (
	"context"
	"time"

	"github.com/eslym/dcyt-bot-v2/internal/db/repository"
	"github.com/eslym/dcyt-bot-v2/internal/metrics"
	"github.com/eslym/dcyt-bot-v2/internal/websub"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// jobTimeout bounds a single cron run.
const jobTimeout = 5 * time.Minute

// Poller owns the cron schedule. Push delivery is the primary signal; these
// jobs cover lease expiry and the transitions hubs drop or delay.
type Poller struct {
	channels  repository.YoutubeChannelRepository
	videos    repository.VideoRepository
	hub       *websub.HubClient
	processor *websub.Processor
	logger    *zap.Logger
	metrics   *metrics.Metrics

	renewalSpec   string
	reconcileSpec string
	renewalWindow time.Duration

	cron *cron.Cron
}

// New creates a Poller with the given cron specs and lease renewal window.
func New(
	channels repository.YoutubeChannelRepository,
	videos repository.VideoRepository,
	hub *websub.HubClient,
	processor *websub.Processor,
	logger *zap.Logger,
	m *metrics.Metrics,
	renewalSpec, reconcileSpec string,
	renewalWindow time.Duration,
) *Poller {
	return &Poller{
		channels:      channels,
		videos:        videos,
		hub:           hub,
		processor:     processor,
		logger:        logger,
		metrics:       m,
		renewalSpec:   renewalSpec,
		reconcileSpec: reconcileSpec,
		renewalWindow: renewalWindow,
		cron:          cron.New(),
	}
}

// Start registers the jobs and starts the scheduler.
func (p *Poller) Start() error {
	if _, err := p.cron.AddFunc(p.renewalSpec, p.runRenewal); err != nil {
		return err
	}
	if _, err := p.cron.AddFunc(p.reconcileSpec, p.runReconcile); err != nil {
		return err
	}

	p.cron.Start()
	p.logger.Info("poller started",
		zap.String("renewal_spec", p.renewalSpec),
		zap.String("reconcile_spec", p.reconcileSpec),
	)
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish or the
// context to expire.
func (p *Poller) Stop(ctx context.Context) {
	done := p.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		p.logger.Warn("poller stop timed out with jobs still running")
	}
}

func (p *Poller) runRenewal() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	p.RenewLeases(ctx)
}

func (p *Poller) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	p.Reconcile(ctx)
}

// RenewLeases re-subscribes every channel whose lease expires within the
// renewal window, rotating the HMAC secret on each renewal.
func (p *Poller) RenewLeases(ctx context.Context) {
	cutoff := time.Now().Add(p.renewalWindow)

	channels, err := p.channels.ListExpiringLeases(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to list expiring leases", zap.Error(err))
		return
	}

	for _, channel := range channels {
		if err := p.renewOne(ctx, channel.ID, channel.WebhookID); err != nil {
			p.metrics.LeaseRenewals.WithLabelValues("error").Inc()
			p.logger.Error("lease renewal failed",
				zap.String("channel_id", channel.ID),
				zap.Error(err),
			)
			continue
		}
		p.metrics.LeaseRenewals.WithLabelValues("ok").Inc()
		p.logger.Info("lease renewal requested", zap.String("channel_id", channel.ID))
	}
}

func (p *Poller) renewOne(ctx context.Context, channelID, webhookID string) error {
	secret, err := websub.NewSecret()
	if err != nil {
		return err
	}
	// The new secret must be on record before the hub starts signing with
	// it, so store first and subscribe second.
	if err := p.channels.SetSecret(ctx, channelID, secret); err != nil {
		return err
	}
	return p.hub.Subscribe(ctx, channelID, webhookID, secret)
}

// Reconcile sweeps the pending live and premiere records through the fetch
// and classify pipeline, catching transitions that never arrived by push.
func (p *Poller) Reconcile(ctx context.Context) {
	pending, err := p.videos.ListPending(ctx)
	if err != nil {
		p.logger.Error("failed to list pending videos", zap.Error(err))
		return
	}

	for _, video := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := p.processor.Poll(ctx, video); err != nil {
			p.logger.Error("reconcile failed for video",
				zap.String("video_id", video.ID),
				zap.Error(err),
			)
		}
	}
}
