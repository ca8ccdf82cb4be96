package models

// Templates holds the optional per-kind notification text overrides carried
// by guilds, guild channels and subscriptions. A nil entry means "inherit".
type Templates struct {
	PublishText    *string `db:"publish_text" json:"publish_text,omitempty"`
	ScheduleText   *string `db:"schedule_text" json:"schedule_text,omitempty"`
	RescheduleText *string `db:"reschedule_text" json:"reschedule_text,omitempty"`
	UpcomingText   *string `db:"upcoming_text" json:"upcoming_text,omitempty"`
	LiveText       *string `db:"live_text" json:"live_text,omitempty"`
}

// ByKind returns the template override for the given notification kind, or
// nil when none is set.
func (t Templates) ByKind(kind NotificationKind) *string {
	switch kind {
	case NotifyPublish:
		return t.PublishText
	case NotifySchedule:
		return t.ScheduleText
	case NotifyReschedule:
		return t.RescheduleText
	case NotifyUpcoming:
		return t.UpcomingText
	case NotifyLive:
		return t.LiveText
	}
	return nil
}
