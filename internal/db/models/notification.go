package models

// NotificationKind identifies the kind of notification emitted for a video
// state transition. Each kind is sent at most once per video.
type NotificationKind string

const (
	NotifyPublish    NotificationKind = "PUBLISH"
	NotifySchedule   NotificationKind = "SCHEDULE"
	NotifyReschedule NotificationKind = "RESCHEDULE"
	NotifyUpcoming   NotificationKind = "UPCOMING"
	NotifyLive       NotificationKind = "LIVE"
)

// NotificationKinds lists all kinds in a stable order.
var NotificationKinds = []NotificationKind{
	NotifyPublish,
	NotifySchedule,
	NotifyReschedule,
	NotifyUpcoming,
	NotifyLive,
}

func (k NotificationKind) String() string {
	return string(k)
}

// Valid reports whether k is a known notification kind.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotifyPublish, NotifySchedule, NotifyReschedule, NotifyUpcoming, NotifyLive:
		return true
	}
	return false
}
