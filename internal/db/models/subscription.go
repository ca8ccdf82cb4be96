package models

import "time"

// Subscription links a YouTube channel to a guild channel. The five notify
// flags select which kinds this target receives; the embedded Templates
// carry per-subscription text overrides.
type Subscription struct {
	YoutubeChannelID string `db:"youtube_channel_id" json:"youtube_channel_id"`
	GuildChannelID   string `db:"guild_channel_id" json:"guild_channel_id"`

	NotifyPublishFlag    bool `db:"notify_publish" json:"notify_publish"`
	NotifyScheduleFlag   bool `db:"notify_schedule" json:"notify_schedule"`
	NotifyRescheduleFlag bool `db:"notify_reschedule" json:"notify_reschedule"`
	NotifyUpcomingFlag   bool `db:"notify_upcoming" json:"notify_upcoming"`
	NotifyLiveFlag       bool `db:"notify_live" json:"notify_live"`

	Templates
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewSubscription creates a Subscription with all notify flags enabled.
func NewSubscription(youtubeChannelID, guildChannelID string) *Subscription {
	now := time.Now()
	return &Subscription{
		YoutubeChannelID:     youtubeChannelID,
		GuildChannelID:       guildChannelID,
		NotifyPublishFlag:    true,
		NotifyScheduleFlag:   true,
		NotifyRescheduleFlag: true,
		NotifyUpcomingFlag:   true,
		NotifyLiveFlag:       true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// Notifies reports whether this subscription wants the given kind.
func (s *Subscription) Notifies(kind NotificationKind) bool {
	switch kind {
	case NotifyPublish:
		return s.NotifyPublishFlag
	case NotifySchedule:
		return s.NotifyScheduleFlag
	case NotifyReschedule:
		return s.NotifyRescheduleFlag
	case NotifyUpcoming:
		return s.NotifyUpcomingFlag
	case NotifyLive:
		return s.NotifyLiveFlag
	}
	return false
}
