// Package handler serves the management REST API: guild and channel
// registration, subscription CRUD, and the lease lifecycle hooks those
// changes trigger.
package handler

import (
	"net/http"

	"github.com/eslym/dcyt-bot-v2/internal/db"
	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/eslym/dcyt-bot-v2/internal/db/repository"
	"github.com/eslym/dcyt-bot-v2/internal/websub"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Management exposes the CRUD surface the Discord-facing frontends use.
type Management struct {
	guilds    repository.GuildRepository
	channels  repository.YoutubeChannelRepository
	subs      repository.SubscriptionRepository
	lifecycle *websub.Lifecycle
	logger    *zap.Logger
}

// NewManagement creates a Management handler.
func NewManagement(
	guilds repository.GuildRepository,
	channels repository.YoutubeChannelRepository,
	subs repository.SubscriptionRepository,
	lifecycle *websub.Lifecycle,
	logger *zap.Logger,
) *Management {
	return &Management{
		guilds:    guilds,
		channels:  channels,
		subs:      subs,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// RegisterRoutes mounts the management endpoints on the given group.
func (m *Management) RegisterRoutes(api gin.IRouter) {
	api.PUT("/guilds/:guildId", m.UpsertGuild)
	api.GET("/guilds/:guildId", m.GetGuild)
	api.DELETE("/guilds/:guildId", m.DeleteGuild)

	api.PUT("/guilds/:guildId/channels/:channelId", m.UpsertChannel)
	api.DELETE("/guilds/:guildId/channels/:channelId", m.DeleteChannel)

	api.PUT("/channels/:channelId/subscriptions/:youtubeChannelId", m.UpsertSubscription)
	api.DELETE("/channels/:channelId/subscriptions/:youtubeChannelId", m.DeleteSubscription)
	api.GET("/youtube/:youtubeChannelId/subscriptions", m.ListSubscriptions)
}

type guildRequest struct {
	Language *string `json:"language"`
	templatesRequest
}

type templatesRequest struct {
	PublishText    *string `json:"publish_text"`
	ScheduleText   *string `json:"schedule_text"`
	RescheduleText *string `json:"reschedule_text"`
	UpcomingText   *string `json:"upcoming_text"`
	LiveText       *string `json:"live_text"`
}

func (r templatesRequest) toModel() models.Templates {
	return models.Templates{
		PublishText:    r.PublishText,
		ScheduleText:   r.ScheduleText,
		RescheduleText: r.RescheduleText,
		UpcomingText:   r.UpcomingText,
		LiveText:       r.LiveText,
	}
}

// UpsertGuild creates or updates a guild with its language and template
// overrides.
func (m *Management) UpsertGuild(c *gin.Context) {
	guildID := c.Param("guildId")
	if !validSnowflake(guildID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guild ID"})
		return
	}

	var req guildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	guild := models.NewGuild(guildID)
	guild.Language = req.Language
	guild.Templates = req.toModel()

	if err := m.guilds.UpsertGuild(c.Request.Context(), guild); err != nil {
		m.fail(c, "upsert guild", err)
		return
	}

	c.JSON(http.StatusOK, guild)
}

// GetGuild returns a guild's settings.
func (m *Management) GetGuild(c *gin.Context) {
	guild, err := m.guilds.GetGuild(c.Request.Context(), c.Param("guildId"))
	if err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "guild not found"})
			return
		}
		m.fail(c, "get guild", err)
		return
	}
	c.JSON(http.StatusOK, guild)
}

// DeleteGuild removes a guild and everything under it.
func (m *Management) DeleteGuild(c *gin.Context) {
	guildID := c.Param("guildId")

	// Capture the YouTube channels that may lose their last subscription.
	affected, err := m.affectedByGuild(c, guildID)
	if err != nil {
		m.fail(c, "delete guild", err)
		return
	}

	if err := m.guilds.DeleteGuild(c.Request.Context(), guildID); err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "guild not found"})
			return
		}
		m.fail(c, "delete guild", err)
		return
	}

	m.syncAll(c, affected)
	c.Status(http.StatusNoContent)
}

// UpsertChannel registers a guild channel as a notification target.
func (m *Management) UpsertChannel(c *gin.Context) {
	guildID := c.Param("guildId")
	channelID := c.Param("channelId")
	if !validSnowflake(guildID) || !validSnowflake(channelID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid guild or channel ID"})
		return
	}

	var req templatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	channel := models.NewGuildChannel(channelID, guildID)
	channel.Templates = req.toModel()

	if err := m.guilds.UpsertChannel(c.Request.Context(), channel); err != nil {
		if db.IsForeignKeyViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "guild not registered"})
			return
		}
		m.fail(c, "upsert guild channel", err)
		return
	}

	c.JSON(http.StatusOK, channel)
}

// DeleteChannel removes a guild channel and its subscriptions.
func (m *Management) DeleteChannel(c *gin.Context) {
	channelID := c.Param("channelId")

	affected, err := m.affectedByGuildChannel(c, channelID)
	if err != nil {
		m.fail(c, "delete guild channel", err)
		return
	}

	if err := m.guilds.DeleteChannel(c.Request.Context(), channelID); err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}
		m.fail(c, "delete guild channel", err)
		return
	}

	m.syncAll(c, affected)
	c.Status(http.StatusNoContent)
}

type subscriptionRequest struct {
	NotifyPublish    *bool `json:"notify_publish"`
	NotifySchedule   *bool `json:"notify_schedule"`
	NotifyReschedule *bool `json:"notify_reschedule"`
	NotifyUpcoming   *bool `json:"notify_upcoming"`
	NotifyLive       *bool `json:"notify_live"`
	templatesRequest
}

// UpsertSubscription creates or updates a subscription and reconciles the
// hub lease for the YouTube channel.
func (m *Management) UpsertSubscription(c *gin.Context) {
	guildChannelID := c.Param("channelId")
	youtubeChannelID := c.Param("youtubeChannelId")
	if !validSnowflake(guildChannelID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel ID"})
		return
	}
	if !validYoutubeChannelID(youtubeChannelID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid YouTube channel ID"})
		return
	}

	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()

	if _, err := m.lifecycle.EnsureChannel(ctx, youtubeChannelID); err != nil {
		m.fail(c, "ensure youtube channel", err)
		return
	}

	sub := models.NewSubscription(youtubeChannelID, guildChannelID)
	applyFlag(&sub.NotifyPublishFlag, req.NotifyPublish)
	applyFlag(&sub.NotifyScheduleFlag, req.NotifySchedule)
	applyFlag(&sub.NotifyRescheduleFlag, req.NotifyReschedule)
	applyFlag(&sub.NotifyUpcomingFlag, req.NotifyUpcoming)
	applyFlag(&sub.NotifyLiveFlag, req.NotifyLive)
	sub.Templates = req.toModel()

	if err := m.subs.Upsert(ctx, sub); err != nil {
		if db.IsForeignKeyViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "channel not registered"})
			return
		}
		m.fail(c, "upsert subscription", err)
		return
	}

	if err := m.lifecycle.Sync(ctx, youtubeChannelID); err != nil {
		m.logger.Error("lease sync failed after subscribe",
			zap.String("youtube_channel_id", youtubeChannelID),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, sub)
}

// DeleteSubscription removes a subscription and reconciles the hub lease.
func (m *Management) DeleteSubscription(c *gin.Context) {
	guildChannelID := c.Param("channelId")
	youtubeChannelID := c.Param("youtubeChannelId")

	ctx := c.Request.Context()

	if err := m.subs.Delete(ctx, youtubeChannelID, guildChannelID); err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		m.fail(c, "delete subscription", err)
		return
	}

	if err := m.lifecycle.Sync(ctx, youtubeChannelID); err != nil {
		m.logger.Error("lease sync failed after unsubscribe",
			zap.String("youtube_channel_id", youtubeChannelID),
			zap.Error(err),
		)
	}

	c.Status(http.StatusNoContent)
}

// ListSubscriptions returns the subscriptions on a YouTube channel.
func (m *Management) ListSubscriptions(c *gin.Context) {
	youtubeChannelID := c.Param("youtubeChannelId")
	if !validYoutubeChannelID(youtubeChannelID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid YouTube channel ID"})
		return
	}

	subs, err := m.subs.ListForChannel(c.Request.Context(), youtubeChannelID)
	if err != nil {
		m.fail(c, "list subscriptions", err)
		return
	}
	if subs == nil {
		subs = []*models.Subscription{}
	}

	c.JSON(http.StatusOK, subs)
}

// affectedByGuild lists the YouTube channel IDs subscribed from anywhere in
// a guild, so their leases can be reconciled after a cascading delete.
func (m *Management) affectedByGuild(c *gin.Context, guildID string) ([]string, error) {
	return m.subs.ListYoutubeChannelsForGuild(c.Request.Context(), guildID)
}

func (m *Management) affectedByGuildChannel(c *gin.Context, guildChannelID string) ([]string, error) {
	return m.subs.ListYoutubeChannelsForGuildChannel(c.Request.Context(), guildChannelID)
}

func (m *Management) syncAll(c *gin.Context, youtubeChannelIDs []string) {
	for _, id := range youtubeChannelIDs {
		if err := m.lifecycle.Sync(c.Request.Context(), id); err != nil {
			m.logger.Error("lease sync failed after delete",
				zap.String("youtube_channel_id", id),
				zap.Error(err),
			)
		}
	}
}

func (m *Management) fail(c *gin.Context, operation string, err error) {
	m.logger.Error("management API error", zap.String("operation", operation), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func applyFlag(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
