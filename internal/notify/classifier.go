// Package notify contains the notification classifier, template rendering
// and the publisher that fans a classified notification out to subscribers.
package notify

import (
	"time"

	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/eslym/dcyt-bot-v2/internal/fetcher"
)

// UpcomingWindow is how far ahead of the announced start the UPCOMING
// notification fires.
const UpcomingWindow = 5 * time.Minute

// Classify maps the fetched current state and the stored record to at most
// one notification kind. It is pure: the caller-side already-notified guards
// (beyond the LIVE one-shot) live in the push and poll pipelines.
//
// With a nil stored record this is the first observation: uploads yield
// PUBLISH, announced broadcasts SCHEDULE, and broadcasts already on air LIVE.
func Classify(now time.Time, current *fetcher.VideoData, stored *models.YoutubeVideo) (models.NotificationKind, bool) {
	if stored == nil {
		return classifyFirst(current)
	}

	// VIDEO records are terminal.
	if stored.Type == models.VideoTypeVideo {
		return "", false
	}

	if current.Live == nil || current.Live.EndedAt != nil {
		return "", false
	}

	if current.Live.LivedAt != nil {
		if stored.LiveNotifiedAt != nil {
			return "", false
		}
		return models.NotifyLive, true
	}

	// A broadcast with no schedule and not yet live is the channel's ambient
	// placeholder stream.
	if current.Live.ScheduledAt == nil {
		return "", false
	}

	if stored.ScheduledAt == nil {
		return models.NotifySchedule, true
	}

	if !current.Live.ScheduledAt.Equal(*stored.ScheduledAt) {
		return models.NotifyReschedule, true
	}

	schedule := *current.Live.ScheduledAt
	if schedule.After(now) && !schedule.After(now.Add(UpcomingWindow)) {
		if stored.UpcomingNotifiedAt != nil || stored.LiveNotifiedAt != nil {
			return "", false
		}
		return models.NotifyUpcoming, true
	}

	return "", false
}

func classifyFirst(current *fetcher.VideoData) (models.NotificationKind, bool) {
	if current.Type == models.VideoTypeVideo {
		return models.NotifyPublish, true
	}
	if current.Live == nil || current.Live.EndedAt != nil {
		// First sighting of an already-finished broadcast: record it, say
		// nothing.
		return "", false
	}
	if current.ScheduledAt() != nil && current.LivedAt() == nil {
		return models.NotifySchedule, true
	}
	return models.NotifyLive, true
}
