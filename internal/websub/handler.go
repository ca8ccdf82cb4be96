package websub

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eslym/dcyt-bot-v2/internal/db"
	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/eslym/dcyt-bot-v2/internal/db/repository"
	"github.com/eslym/dcyt-bot-v2/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// minLeaseSeconds is the shortest lease a hub may grant; anything below it
// is treated as a malformed verification request.
const minLeaseSeconds = 300

// processTimeout bounds the async pipeline run for one delivery.
const processTimeout = 2 * time.Minute

// EventProcessor consumes decoded feed events. Satisfied by Processor.
type EventProcessor interface {
	HandleEvent(ctx context.Context, channel *models.YoutubeChannel, event *FeedEvent) error
}

// Handler serves the per-channel WebSub callback: lease verification on
// GET/HEAD and authenticated content delivery on POST.
type Handler struct {
	channels  repository.YoutubeChannelRepository
	processor EventProcessor
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewHandler creates a Handler.
func NewHandler(channels repository.YoutubeChannelRepository, processor EventProcessor, logger *zap.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		channels:  channels,
		processor: processor,
		logger:    logger,
		metrics:   m,
	}
}

// RegisterRoutes mounts the callback endpoints.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/websub/:webhookId", h.Verify)
	router.HEAD("/websub/:webhookId", h.Verify)
	router.POST("/websub/:webhookId", h.Receive)
}

// Verify answers the hub's subscribe and unsubscribe verification requests
// by echoing hub.challenge. Lease bookkeeping happens after the response so
// a slow database never makes the hub time the verification out.
func (h *Handler) Verify(c *gin.Context) {
	webhookID := c.Param("webhookId")

	channel, err := h.channels.GetByWebhookID(c.Request.Context(), webhookID)
	if err != nil {
		if db.IsNotFound(err) {
			h.metrics.WebhookDeliveries.WithLabelValues("unknown_callback").Inc()
			c.String(http.StatusNotFound, "not found")
			return
		}
		h.logger.Error("failed to look up webhook", zap.String("webhook_id", webhookID), zap.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	challenge := c.Query("hub.challenge")
	if challenge == "" {
		c.String(http.StatusBadRequest, "missing hub.challenge")
		return
	}

	mode := c.Query("hub.mode")

	var leaseSeconds int
	if mode == modeSubscribe {
		var err error
		leaseSeconds, err = strconv.Atoi(c.Query("hub.lease_seconds"))
		if err != nil || leaseSeconds < minLeaseSeconds {
			c.String(http.StatusBadRequest, "invalid hub.lease_seconds")
			return
		}
	}

	c.String(http.StatusOK, challenge)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("panic in lease update", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()

		switch mode {
		case modeSubscribe:
			expiresAt := time.Now().Add(time.Duration(leaseSeconds) * time.Second)
			if err := h.channels.SetLease(ctx, webhookID, expiresAt); err != nil {
				h.logger.Error("failed to record lease", zap.String("channel_id", channel.ID), zap.Error(err))
				return
			}
			h.logger.Info("lease verified",
				zap.String("channel_id", channel.ID),
				zap.Time("expires_at", expiresAt),
			)
		case modeUnsubscribe:
			if err := h.channels.ClearLease(ctx, webhookID); err != nil {
				h.logger.Error("failed to clear lease", zap.String("channel_id", channel.ID), zap.Error(err))
				return
			}
			h.logger.Info("lease released", zap.String("channel_id", channel.ID))
		}
	}()
}

// Receive accepts a content delivery, verifies its HMAC signature against
// the channel's secret and acknowledges before running the pipeline.
func (h *Handler) Receive(c *gin.Context) {
	webhookID := c.Param("webhookId")

	channel, err := h.channels.GetByWebhookID(c.Request.Context(), webhookID)
	if err != nil {
		if db.IsNotFound(err) {
			h.metrics.WebhookDeliveries.WithLabelValues("unknown_callback").Inc()
			c.String(http.StatusNotFound, "not found")
			return
		}
		h.logger.Error("failed to look up webhook", zap.String("webhook_id", webhookID), zap.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	if channel.WebhookSecret == nil {
		// No active lease; nothing should be delivering here.
		h.metrics.WebhookDeliveries.WithLabelValues("unknown_callback").Inc()
		c.String(http.StatusNotFound, "not found")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.metrics.WebhookDeliveries.WithLabelValues("bad_request").Inc()
		c.String(http.StatusBadRequest, "failed to read body")
		return
	}

	signature := c.GetHeader("X-Hub-Signature")
	if signature == "" {
		h.metrics.WebhookDeliveries.WithLabelValues("bad_request").Inc()
		c.String(http.StatusBadRequest, "missing X-Hub-Signature")
		return
	}

	if !verifySignature(signature, body, *channel.WebhookSecret) {
		h.metrics.WebhookDeliveries.WithLabelValues("bad_signature").Inc()
		h.logger.Warn("signature mismatch on content delivery",
			zap.String("channel_id", channel.ID),
			zap.String("webhook_id", webhookID),
		)
		c.String(http.StatusForbidden, "invalid signature")
		return
	}

	h.metrics.WebhookDeliveries.WithLabelValues("accepted").Inc()
	c.String(http.StatusOK, "OK")

	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("panic in delivery pipeline", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()

		event, err := ParseFeed(body)
		if err != nil {
			h.logger.Warn("undecodable feed delivery",
				zap.String("channel_id", channel.ID),
				zap.Error(err),
			)
			return
		}

		if err := h.processor.HandleEvent(ctx, channel, event); err != nil {
			h.logger.Error("delivery pipeline failed",
				zap.String("channel_id", channel.ID),
				zap.Error(err),
			)
		}
	}()
}

// verifySignature checks an "algo=hexdigest" signature header against the
// body. Digest comparison is case-insensitive.
func verifySignature(header string, body []byte, secret string) bool {
	algo, digest, found := strings.Cut(header, "=")
	if !found {
		return false
	}

	var mac hash.Hash
	switch strings.ToLower(algo) {
	case "sha1":
		mac = hmac.New(sha1.New, []byte(secret))
	case "sha256":
		mac = hmac.New(sha256.New, []byte(secret))
	default:
		return false
	}

	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(digest)))
}
