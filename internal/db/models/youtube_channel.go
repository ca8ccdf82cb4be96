package models

import (
	"time"

	"github.com/google/uuid"
)

// YoutubeChannel represents a tracked YouTube channel. WebhookID is the
// unguessable token used as the channel's callback path segment so the raw
// platform channel ID never appears in callback URLs. WebhookSecret is
// non-nil exactly while an active hub lease is believed to exist.
type YoutubeChannel struct {
	ID               string     `db:"id" json:"id"`
	Title            string     `db:"title" json:"title"`
	WebhookID        string     `db:"webhook_id" json:"webhook_id"`
	WebhookSecret    *string    `db:"webhook_secret" json:"-"`
	WebhookExpiresAt *time.Time `db:"webhook_expires_at" json:"webhook_expires_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// NewYoutubeChannel creates a new YoutubeChannel with a fresh webhook token.
// The title may be empty; it is refreshed from the first content delivery.
func NewYoutubeChannel(id, title string) *YoutubeChannel {
	now := time.Now()
	return &YoutubeChannel{
		ID:        id,
		Title:     title,
		WebhookID: uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Subscribed reports whether an active hub lease is believed to exist.
func (c *YoutubeChannel) Subscribed() bool {
	return c.WebhookSecret != nil
}

// LeaseExpiresWithin reports whether the hub lease is absent or expires
// before now+window. Only meaningful while Subscribed.
func (c *YoutubeChannel) LeaseExpiresWithin(now time.Time, window time.Duration) bool {
	if c.WebhookExpiresAt == nil {
		return true
	}
	return c.WebhookExpiresAt.Before(now.Add(window))
}
