package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invidiousServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/videos/dQw4w9WgXcQ", r.URL.Path)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestInvidiousFetcher_PlainUpload(t *testing.T) {
	t.Parallel()

	server := invidiousServer(t, http.StatusOK, `{
		"title": "Never Gonna Give You Up",
		"videoId": "dQw4w9WgXcQ",
		"author": "Rick Astley",
		"authorId": "UCuAXFkgsw1L7xaCfnd5JJOw",
		"published": 1748779200,
		"lengthSeconds": 212
	}`)

	f := NewInvidiousFetcher(server.URL, nil)
	data, err := f.FetchVideoData(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, models.VideoTypeVideo, data.Type)
	assert.Equal(t, "UCuAXFkgsw1L7xaCfnd5JJOw", data.ChannelID)
	assert.Equal(t, "Rick Astley", data.ChannelName)
	assert.Nil(t, data.Live)
}

func TestInvidiousFetcher_UpcomingPremiere(t *testing.T) {
	t.Parallel()

	server := invidiousServer(t, http.StatusOK, `{
		"title": "Premiere",
		"videoId": "dQw4w9WgXcQ",
		"authorId": "UCuAXFkgsw1L7xaCfnd5JJOw",
		"isUpcoming": true,
		"lengthSeconds": 600,
		"premiereTimestamp": 1748786400
	}`)

	f := NewInvidiousFetcher(server.URL, nil)
	data, err := f.FetchVideoData(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, models.VideoTypePremiere, data.Type)
	require.NotNil(t, data.Live)
	require.NotNil(t, data.Live.ScheduledAt)
	assert.Equal(t, time.Unix(1748786400, 0).UTC(), data.Live.ScheduledAt.UTC())
	assert.Nil(t, data.Live.LivedAt)
}

func TestInvidiousFetcher_UpcomingZeroLengthIsLive(t *testing.T) {
	t.Parallel()

	server := invidiousServer(t, http.StatusOK, `{
		"title": "Waiting room",
		"videoId": "dQw4w9WgXcQ",
		"authorId": "UCuAXFkgsw1L7xaCfnd5JJOw",
		"isUpcoming": true,
		"premiereTimestamp": 1748786400
	}`)

	f := NewInvidiousFetcher(server.URL, nil)
	data, err := f.FetchVideoData(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, models.VideoTypeLive, data.Type)
}

func TestInvidiousFetcher_LiveNow(t *testing.T) {
	t.Parallel()

	server := invidiousServer(t, http.StatusOK, `{
		"title": "On air",
		"videoId": "dQw4w9WgXcQ",
		"authorId": "UCuAXFkgsw1L7xaCfnd5JJOw",
		"published": 1748779200,
		"liveNow": true
	}`)

	f := NewInvidiousFetcher(server.URL, nil)
	data, err := f.FetchVideoData(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)

	assert.Equal(t, models.VideoTypeLive, data.Type)
	require.NotNil(t, data.Live)
	require.NotNil(t, data.Live.LivedAt)
	assert.Equal(t, time.Unix(1748779200, 0).UTC(), data.Live.LivedAt.UTC())
}

func TestInvidiousFetcher_NotFound(t *testing.T) {
	t.Parallel()

	server := invidiousServer(t, http.StatusNotFound, `{"error": "not found"}`)

	f := NewInvidiousFetcher(server.URL, nil)
	_, err := f.FetchVideoData(context.Background(), "dQw4w9WgXcQ")

	assert.True(t, IsNotFound(err))
}

func TestInvidiousFetcher_ServerErrorIsFetchError(t *testing.T) {
	t.Parallel()

	server := invidiousServer(t, http.StatusBadGateway, "upstream broke")

	f := NewInvidiousFetcher(server.URL, nil)
	_, err := f.FetchVideoData(context.Background(), "dQw4w9WgXcQ")

	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}
