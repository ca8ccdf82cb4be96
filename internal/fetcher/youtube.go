package fetcher

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/eslym/dcyt-bot-v2/internal/db/models"
)

// APIFetcher resolves video state through the YouTube Data API v3.
type APIFetcher struct {
	service *youtube.Service
}

// NewAPIFetcher creates an APIFetcher with the given API key.
func NewAPIFetcher(ctx context.Context, apiKey string) (*APIFetcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create YouTube service: %w", err)
	}

	return &APIFetcher{service: service}, nil
}

// FetchVideoData fetches snippet, contentDetails and liveStreamingDetails for
// the video and maps them to the engine's VideoData shape. An empty result
// set means the video is gone upstream.
func (f *APIFetcher) FetchVideoData(ctx context.Context, videoID string) (*VideoData, error) {
	parts := []string{"snippet", "contentDetails", "liveStreamingDetails"}

	response, err := f.service.Videos.List(parts).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: videos.list %s: %v", ErrFetch, videoID, err)
	}

	if len(response.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}

	item := response.Items[0]
	data := &VideoData{
		ID:   videoID,
		Type: models.VideoTypeVideo,
	}

	if item.Snippet != nil {
		data.ChannelID = item.Snippet.ChannelId
		data.ChannelName = item.Snippet.ChannelTitle
		data.Title = item.Snippet.Title
	}

	details := item.LiveStreamingDetails
	if details == nil {
		return data, nil
	}

	data.Live = &LiveDetails{
		ScheduledAt: parseAPITime(details.ScheduledStartTime),
		LivedAt:     parseAPITime(details.ActualStartTime),
		EndedAt:     parseAPITime(details.ActualEndTime),
	}
	data.Type = broadcastType(item)

	return data, nil
}

// broadcastType distinguishes premieres from perpetual live feeds: a premiere
// has a fixed duration known up front, while a live broadcast reports a zero
// duration until it ends.
func broadcastType(item *youtube.Video) models.VideoType {
	if item.ContentDetails != nil {
		switch item.ContentDetails.Duration {
		case "", "P0D", "PT0S":
			return models.VideoTypeLive
		}
		return models.VideoTypePremiere
	}
	return models.VideoTypeLive
}

func parseAPITime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}
