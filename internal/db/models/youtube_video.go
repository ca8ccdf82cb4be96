package models

import "time"

// VideoType classifies a YouTube video record.
type VideoType string

const (
	// VideoTypeVideo is a plain upload. VIDEO records are terminal: no
	// live-related field is ever populated or re-evaluated after creation.
	VideoTypeVideo VideoType = "VIDEO"
	// VideoTypeLive is a perpetual live broadcast.
	VideoTypeLive VideoType = "LIVE"
	// VideoTypePremiere is a scheduled or live broadcast that is not the
	// channel's perpetual live feed.
	VideoTypePremiere VideoType = "PREMIERE"
)

// Valid reports whether t is a known video type.
func (t VideoType) Valid() bool {
	switch t {
	case VideoTypeVideo, VideoTypeLive, VideoTypePremiere:
		return true
	}
	return false
}

// YoutubeVideo is the local state record a push or poll observation is
// reconciled against. The five *NotifiedAt columns are monotonic guards:
// each is set at most once and never cleared.
type YoutubeVideo struct {
	ID          string     `db:"id" json:"id"`
	ChannelID   string     `db:"channel_id" json:"channel_id"`
	Type        VideoType  `db:"type" json:"type"`
	Title       string     `db:"title" json:"title"`
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	LivedAt     *time.Time `db:"lived_at" json:"lived_at,omitempty"`
	DeletedAt   *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`

	PublishNotifiedAt    *time.Time `db:"publish_notified_at" json:"publish_notified_at,omitempty"`
	ScheduleNotifiedAt   *time.Time `db:"schedule_notified_at" json:"schedule_notified_at,omitempty"`
	RescheduleNotifiedAt *time.Time `db:"reschedule_notified_at" json:"reschedule_notified_at,omitempty"`
	UpcomingNotifiedAt   *time.Time `db:"upcoming_notified_at" json:"upcoming_notified_at,omitempty"`
	LiveNotifiedAt       *time.Time `db:"live_notified_at" json:"live_notified_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NotifiedAt returns the sent timestamp for the given notification kind, or
// nil when that kind has not been sent for this video.
func (v *YoutubeVideo) NotifiedAt(kind NotificationKind) *time.Time {
	switch kind {
	case NotifyPublish:
		return v.PublishNotifiedAt
	case NotifySchedule:
		return v.ScheduleNotifiedAt
	case NotifyReschedule:
		return v.RescheduleNotifiedAt
	case NotifyUpcoming:
		return v.UpcomingNotifiedAt
	case NotifyLive:
		return v.LiveNotifiedAt
	}
	return nil
}

// SetNotified stamps the sent timestamp for the given kind. It does not
// overwrite an existing stamp.
func (v *YoutubeVideo) SetNotified(kind NotificationKind, at time.Time) {
	if v.NotifiedAt(kind) != nil {
		return
	}
	switch kind {
	case NotifyPublish:
		v.PublishNotifiedAt = &at
	case NotifySchedule:
		v.ScheduleNotifiedAt = &at
	case NotifyReschedule:
		v.RescheduleNotifiedAt = &at
	case NotifyUpcoming:
		v.UpcomingNotifiedAt = &at
	case NotifyLive:
		v.LiveNotifiedAt = &at
	}
}
