// Package repository contains the typed query layer over the five entities.
package repository

import (
	"context"

	"github.com/eslym/dcyt-bot-v2/internal/db"
	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GuildRepository defines operations for guilds and guild channels.
type GuildRepository interface {
	// UpsertGuild creates or updates a guild row.
	UpsertGuild(ctx context.Context, guild *models.Guild) error

	// GetGuild retrieves a guild by ID.
	GetGuild(ctx context.Context, id string) (*models.Guild, error)

	// DeleteGuild removes a guild; channels and subscriptions cascade.
	DeleteGuild(ctx context.Context, id string) error

	// UpsertChannel creates or updates a guild channel row.
	UpsertChannel(ctx context.Context, channel *models.GuildChannel) error

	// DeleteChannel removes a guild channel; subscriptions cascade.
	DeleteChannel(ctx context.Context, id string) error
}

type guildRepository struct {
	pool *pgxpool.Pool
}

// NewGuildRepository creates a new GuildRepository.
func NewGuildRepository(pool *pgxpool.Pool) GuildRepository {
	return &guildRepository{pool: pool}
}

func (r *guildRepository) UpsertGuild(ctx context.Context, guild *models.Guild) error {
	query := `
		INSERT INTO guilds (id, language, publish_text, schedule_text, reschedule_text, upcoming_text, live_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET language = EXCLUDED.language,
		    publish_text = EXCLUDED.publish_text,
		    schedule_text = EXCLUDED.schedule_text,
		    reschedule_text = EXCLUDED.reschedule_text,
		    upcoming_text = EXCLUDED.upcoming_text,
		    live_text = EXCLUDED.live_text,
		    updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query,
		guild.ID,
		guild.Language,
		guild.PublishText,
		guild.ScheduleText,
		guild.RescheduleText,
		guild.UpcomingText,
		guild.LiveText,
	)
	if err != nil {
		return db.WrapError(err, "upsert guild")
	}

	return nil
}

func (r *guildRepository) GetGuild(ctx context.Context, id string) (*models.Guild, error) {
	query := `
		SELECT id, language, publish_text, schedule_text, reschedule_text, upcoming_text, live_text, created_at, updated_at
		FROM guilds
		WHERE id = $1
	`

	guild := &models.Guild{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&guild.ID,
		&guild.Language,
		&guild.PublishText,
		&guild.ScheduleText,
		&guild.RescheduleText,
		&guild.UpcomingText,
		&guild.LiveText,
		&guild.CreatedAt,
		&guild.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, "get guild")
	}

	return guild, nil
}

func (r *guildRepository) DeleteGuild(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM guilds WHERE id = $1`, id)
	if err != nil {
		return db.WrapError(err, "delete guild")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(db.ErrNotFound, "delete guild")
	}
	return nil
}

func (r *guildRepository) UpsertChannel(ctx context.Context, channel *models.GuildChannel) error {
	query := `
		INSERT INTO guild_channels (id, guild_id, publish_text, schedule_text, reschedule_text, upcoming_text, live_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (id) DO UPDATE
		SET guild_id = EXCLUDED.guild_id,
		    publish_text = EXCLUDED.publish_text,
		    schedule_text = EXCLUDED.schedule_text,
		    reschedule_text = EXCLUDED.reschedule_text,
		    upcoming_text = EXCLUDED.upcoming_text,
		    live_text = EXCLUDED.live_text,
		    updated_at = now()
	`

	_, err := r.pool.Exec(ctx, query,
		channel.ID,
		channel.GuildID,
		channel.PublishText,
		channel.ScheduleText,
		channel.RescheduleText,
		channel.UpcomingText,
		channel.LiveText,
	)
	if err != nil {
		return db.WrapError(err, "upsert guild channel")
	}

	return nil
}

func (r *guildRepository) DeleteChannel(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM guild_channels WHERE id = $1`, id)
	if err != nil {
		return db.WrapError(err, "delete guild channel")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(db.ErrNotFound, "delete guild channel")
	}
	return nil
}
