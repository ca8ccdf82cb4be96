package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/eslym/dcyt-bot-v2/internal/db/models"
)

// InvidiousFetcher resolves video state through an Invidious instance's JSON
// API. It is the keyless fallback strategy for deployments without a YouTube
// API quota. Ended broadcasts are indistinguishable from plain uploads in
// this API, so they come back as VIDEO with no live details.
type InvidiousFetcher struct {
	baseURL string
	client  *http.Client
}

// NewInvidiousFetcher creates an InvidiousFetcher against the given instance.
func NewInvidiousFetcher(baseURL string, client *http.Client) *InvidiousFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &InvidiousFetcher{
		baseURL: baseURL,
		client:  client,
	}
}

type invidiousVideo struct {
	Title             string `json:"title"`
	VideoID           string `json:"videoId"`
	Author            string `json:"author"`
	AuthorID          string `json:"authorId"`
	Published         int64  `json:"published"`
	LengthSeconds     int64  `json:"lengthSeconds"`
	LiveNow           bool   `json:"liveNow"`
	IsUpcoming        bool   `json:"isUpcoming"`
	PremiereTimestamp int64  `json:"premiereTimestamp"`
}

// FetchVideoData fetches /api/v1/videos/{id} and maps the result.
func (f *InvidiousFetcher) FetchVideoData(ctx context.Context, videoID string) (*VideoData, error) {
	url := fmt.Sprintf("%s/api/v1/videos/%s", f.baseURL, videoID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrFetch, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	default:
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetch, url, resp.StatusCode)
	}

	var video invidiousVideo
	if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrFetch, err)
	}

	data := &VideoData{
		ID:          videoID,
		Type:        models.VideoTypeVideo,
		ChannelID:   video.AuthorID,
		ChannelName: video.Author,
		Title:       video.Title,
	}

	switch {
	case video.IsUpcoming:
		data.Live = &LiveDetails{ScheduledAt: unixTime(video.PremiereTimestamp)}
		if video.LengthSeconds > 0 {
			data.Type = models.VideoTypePremiere
		} else {
			data.Type = models.VideoTypeLive
		}
	case video.LiveNow:
		data.Live = &LiveDetails{
			ScheduledAt: unixTime(video.PremiereTimestamp),
			LivedAt:     unixTime(video.Published),
		}
		data.Type = models.VideoTypeLive
	}

	return data, nil
}

func unixTime(seconds int64) *time.Time {
	if seconds <= 0 {
		return nil
	}
	t := time.Unix(seconds, 0).UTC()
	return &t
}
