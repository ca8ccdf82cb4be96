// Package fetcher resolves a video ID to its current upstream state. Two
// strategies exist (YouTube Data API, Invidious); exactly one is selected at
// startup and used for the lifetime of the process.
package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/eslym/dcyt-bot-v2/internal/db/models"
)

var (
	// ErrNotFound is returned when the video is confirmed absent upstream.
	ErrNotFound = errors.New("video not found")

	// ErrFetch is returned for any other upstream failure; the caller skips
	// the item and retries on the next pass.
	ErrFetch = errors.New("fetch failed")
)

// LiveDetails carries the live/broadcast timestamps of a video. All fields
// are optional; a missing LiveDetails means the upstream reported no
// broadcast data at all.
type LiveDetails struct {
	ScheduledAt *time.Time
	LivedAt     *time.Time
	EndedAt     *time.Time
}

// VideoData is the fetched current state of a video.
type VideoData struct {
	ID          string
	Type        models.VideoType
	ChannelID   string
	ChannelName string
	Title       string
	Live        *LiveDetails
}

// ScheduledAt returns the announced start time, or nil.
func (d *VideoData) ScheduledAt() *time.Time {
	if d.Live == nil {
		return nil
	}
	return d.Live.ScheduledAt
}

// LivedAt returns the observed actual start time, or nil.
func (d *VideoData) LivedAt() *time.Time {
	if d.Live == nil {
		return nil
	}
	return d.Live.LivedAt
}

// URL returns the public watch URL for the video.
func (d *VideoData) URL() string {
	return "https://youtube.com/watch?v=" + d.ID
}

// DataFetcher resolves a video ID to current metadata.
type DataFetcher interface {
	FetchVideoData(ctx context.Context, videoID string) (*VideoData, error)
}

// IsNotFound reports whether err means the video is confirmed gone upstream.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
