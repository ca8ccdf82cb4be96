package models

import "time"

// Guild represents a Discord guild that has at least one notification target.
// Language selects the localized default notification templates.
type Guild struct {
	ID       string  `db:"id" json:"id"`
	Language *string `db:"language" json:"language,omitempty"`
	Templates
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewGuild creates a new Guild with the given ID.
func NewGuild(id string) *Guild {
	now := time.Now()
	return &Guild{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GuildChannel represents a Discord channel notifications are delivered to.
type GuildChannel struct {
	ID      string `db:"id" json:"id"`
	GuildID string `db:"guild_id" json:"guild_id"`
	Templates
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewGuildChannel creates a new GuildChannel belonging to the given guild.
func NewGuildChannel(id, guildID string) *GuildChannel {
	now := time.Now()
	return &GuildChannel{
		ID:        id,
		GuildID:   guildID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
