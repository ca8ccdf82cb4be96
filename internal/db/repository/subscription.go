package repository

import (
	"context"
	"fmt"

	"github.com/eslym/dcyt-bot-v2/internal/db"
	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotifyTarget is one resolved delivery destination for a notification:
// the guild channel to send to, the guild language, and the three levels of
// template override joined in precedence order.
type NotifyTarget struct {
	GuildChannelID   string
	Language         *string
	SubscriptionTmpl *string
	ChannelTmpl      *string
	GuildTmpl        *string
}

// Template resolves the effective template for the target, or nil when no
// override exists at any level.
func (t *NotifyTarget) Template() *string {
	if t.SubscriptionTmpl != nil {
		return t.SubscriptionTmpl
	}
	if t.ChannelTmpl != nil {
		return t.ChannelTmpl
	}
	return t.GuildTmpl
}

// SubscriptionRepository defines operations for notification subscriptions.
type SubscriptionRepository interface {
	// Upsert creates or updates a subscription row.
	Upsert(ctx context.Context, sub *models.Subscription) error

	// Delete removes a subscription by its composite key.
	Delete(ctx context.Context, youtubeChannelID, guildChannelID string) error

	// ListForChannel returns all subscriptions on a YouTube channel.
	ListForChannel(ctx context.Context, youtubeChannelID string) ([]*models.Subscription, error)

	// CountForChannel returns the number of subscriptions on a YouTube
	// channel, driving the 0→1 / 1→0 lease lifecycle transitions.
	CountForChannel(ctx context.Context, youtubeChannelID string) (int, error)

	// ListNotifyTargets resolves the delivery targets for a notification
	// kind: subscriptions with the matching notify flag, joined through
	// guild channels to guilds for language and template fallback.
	ListNotifyTargets(ctx context.Context, youtubeChannelID string, kind models.NotificationKind) ([]*NotifyTarget, error)

	// ListYoutubeChannelsForGuild returns the distinct YouTube channels
	// subscribed from any channel of the guild.
	ListYoutubeChannelsForGuild(ctx context.Context, guildID string) ([]string, error)

	// ListYoutubeChannelsForGuildChannel returns the distinct YouTube
	// channels subscribed from one guild channel.
	ListYoutubeChannelsForGuildChannel(ctx context.Context, guildChannelID string) ([]string, error)
}

type subscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepository{pool: pool}
}

func (r *subscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			youtube_channel_id, guild_channel_id,
			notify_publish, notify_schedule, notify_reschedule, notify_upcoming, notify_live,
			publish_text, schedule_text, reschedule_text, upcoming_text, live_text,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
		ON CONFLICT (youtube_channel_id, guild_channel_id) DO UPDATE
		SET notify_publish = EXCLUDED.notify_publish,
		    notify_schedule = EXCLUDED.notify_schedule,
		    notify_reschedule = EXCLUDED.notify_reschedule,
		    notify_upcoming = EXCLUDED.notify_upcoming,
		    notify_live = EXCLUDED.notify_live,
		    publish_text = EXCLUDED.publish_text,
		    schedule_text = EXCLUDED.schedule_text,
		    reschedule_text = EXCLUDED.reschedule_text,
		    upcoming_text = EXCLUDED.upcoming_text,
		    live_text = EXCLUDED.live_text,
		    updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query,
		sub.YoutubeChannelID,
		sub.GuildChannelID,
		sub.NotifyPublishFlag,
		sub.NotifyScheduleFlag,
		sub.NotifyRescheduleFlag,
		sub.NotifyUpcomingFlag,
		sub.NotifyLiveFlag,
		sub.PublishText,
		sub.ScheduleText,
		sub.RescheduleText,
		sub.UpcomingText,
		sub.LiveText,
	)
	if err != nil {
		return db.WrapError(err, "upsert subscription")
	}

	return nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, youtubeChannelID, guildChannelID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM subscriptions WHERE youtube_channel_id = $1 AND guild_channel_id = $2`,
		youtubeChannelID, guildChannelID)
	if err != nil {
		return db.WrapError(err, "delete subscription")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(db.ErrNotFound, "delete subscription")
	}
	return nil
}

func (r *subscriptionRepository) ListForChannel(ctx context.Context, youtubeChannelID string) ([]*models.Subscription, error) {
	query := `
		SELECT youtube_channel_id, guild_channel_id,
		       notify_publish, notify_schedule, notify_reschedule, notify_upcoming, notify_live,
		       publish_text, schedule_text, reschedule_text, upcoming_text, live_text,
		       created_at, updated_at
		FROM subscriptions
		WHERE youtube_channel_id = $1
		ORDER BY guild_channel_id
	`

	rows, err := r.pool.Query(ctx, query, youtubeChannelID)
	if err != nil {
		return nil, db.WrapError(err, "list subscriptions")
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		sub := &models.Subscription{}
		err := rows.Scan(
			&sub.YoutubeChannelID,
			&sub.GuildChannelID,
			&sub.NotifyPublishFlag,
			&sub.NotifyScheduleFlag,
			&sub.NotifyRescheduleFlag,
			&sub.NotifyUpcomingFlag,
			&sub.NotifyLiveFlag,
			&sub.PublishText,
			&sub.ScheduleText,
			&sub.RescheduleText,
			&sub.UpcomingText,
			&sub.LiveText,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan subscription")
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate subscriptions")
	}

	return subs, nil
}

func (r *subscriptionRepository) CountForChannel(ctx context.Context, youtubeChannelID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE youtube_channel_id = $1`, youtubeChannelID).Scan(&count)
	if err != nil {
		return 0, db.WrapError(err, "count subscriptions")
	}
	return count, nil
}

func (r *subscriptionRepository) ListNotifyTargets(ctx context.Context, youtubeChannelID string, kind models.NotificationKind) ([]*NotifyTarget, error) {
	flagColumn, textColumn, err := kindColumns(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT ch.id, g.language, sub.%[2]s, ch.%[2]s, g.%[2]s
		FROM subscriptions sub
		INNER JOIN guild_channels ch ON sub.guild_channel_id = ch.id
		INNER JOIN guilds g ON ch.guild_id = g.id
		WHERE sub.youtube_channel_id = $1 AND sub.%[1]s
		ORDER BY ch.id
	`, flagColumn, textColumn)

	rows, err := r.pool.Query(ctx, query, youtubeChannelID)
	if err != nil {
		return nil, db.WrapError(err, "list notify targets")
	}
	defer rows.Close()

	var targets []*NotifyTarget
	for rows.Next() {
		target := &NotifyTarget{}
		err := rows.Scan(
			&target.GuildChannelID,
			&target.Language,
			&target.SubscriptionTmpl,
			&target.ChannelTmpl,
			&target.GuildTmpl,
		)
		if err != nil {
			return nil, db.WrapError(err, "scan notify target")
		}
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate notify targets")
	}

	return targets, nil
}

func (r *subscriptionRepository) ListYoutubeChannelsForGuild(ctx context.Context, guildID string) ([]string, error) {
	query := `
		SELECT DISTINCT sub.youtube_channel_id
		FROM subscriptions sub
		INNER JOIN guild_channels ch ON sub.guild_channel_id = ch.id
		WHERE ch.guild_id = $1
	`
	return r.listChannelIDs(ctx, query, guildID)
}

func (r *subscriptionRepository) ListYoutubeChannelsForGuildChannel(ctx context.Context, guildChannelID string) ([]string, error) {
	query := `
		SELECT DISTINCT youtube_channel_id
		FROM subscriptions
		WHERE guild_channel_id = $1
	`
	return r.listChannelIDs(ctx, query, guildChannelID)
}

func (r *subscriptionRepository) listChannelIDs(ctx context.Context, query, arg string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, db.WrapError(err, "list youtube channels")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, db.WrapError(err, "scan youtube channel id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate youtube channel ids")
	}

	return ids, nil
}

// kindColumns maps a notification kind to its notify-flag and template
// columns. Explicit switch, same reasoning as notifiedColumn.
func kindColumns(kind models.NotificationKind) (flag string, text string, err error) {
	switch kind {
	case models.NotifyPublish:
		return "notify_publish", "publish_text", nil
	case models.NotifySchedule:
		return "notify_schedule", "schedule_text", nil
	case models.NotifyReschedule:
		return "notify_reschedule", "reschedule_text", nil
	case models.NotifyUpcoming:
		return "notify_upcoming", "upcoming_text", nil
	case models.NotifyLive:
		return "notify_live", "live_text", nil
	}
	return "", "", fmt.Errorf("unknown notification kind %q", kind)
}
