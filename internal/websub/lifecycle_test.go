package websub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eslym/dcyt-bot-v2/internal/db"
	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEnsureChannel_ReturnsExisting(t *testing.T) {
	t.Parallel()

	existing := testChannel()
	channels := new(mockChannelRepo)
	channels.On("GetByID", mock.Anything, existing.ID).Return(existing, nil)

	hub := NewHubClient("http://unused.invalid", "https://bot.example.com", zap.NewNop())
	lifecycle := NewLifecycle(channels, new(mockSubsRepo), hub, zap.NewNop())

	channel, err := lifecycle.EnsureChannel(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Same(t, existing, channel)
	channels.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEnsureChannel_CreatesOnFirstReference(t *testing.T) {
	t.Parallel()

	channels := new(mockChannelRepo)
	channels.On("GetByID", mock.Anything, "UCnewchannel000000000000").Return(nil, db.ErrNotFound)
	channels.On("Create", mock.Anything, mock.MatchedBy(func(c *models.YoutubeChannel) bool {
		return c.ID == "UCnewchannel000000000000" && c.WebhookID != ""
	})).Return(nil)

	hub := NewHubClient("http://unused.invalid", "https://bot.example.com", zap.NewNop())
	lifecycle := NewLifecycle(channels, new(mockSubsRepo), hub, zap.NewNop())

	channel, err := lifecycle.EnsureChannel(context.Background(), "UCnewchannel000000000000")
	require.NoError(t, err)
	require.NotNil(t, channel)
	assert.Equal(t, "UCnewchannel000000000000", channel.ID)
	assert.NotEmpty(t, channel.WebhookID)
	channels.AssertExpectations(t)
}

func TestEnsureChannel_CreateFailurePropagates(t *testing.T) {
	t.Parallel()

	channels := new(mockChannelRepo)
	channels.On("GetByID", mock.Anything, "UCnewchannel000000000001").Return(nil, db.ErrNotFound)
	channels.On("Create", mock.Anything, mock.Anything).Return(db.ErrDuplicateKey)

	hub := NewHubClient("http://unused.invalid", "https://bot.example.com", zap.NewNop())
	lifecycle := NewLifecycle(channels, new(mockSubsRepo), hub, zap.NewNop())

	channel, err := lifecycle.EnsureChannel(context.Background(), "UCnewchannel000000000001")
	assert.Nil(t, channel)
	assert.ErrorIs(t, err, db.ErrDuplicateKey)
}

func TestSync_FirstSubscriberStoresSecretBeforeSubscribing(t *testing.T) {
	t.Parallel()

	var secretStored string
	hubServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "subscribe", r.PostFormValue("hub.mode"))
		assert.Equal(t, secretStored, r.PostFormValue("hub.secret"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer hubServer.Close()

	channel := testChannel()
	channel.WebhookSecret = nil

	channels := new(mockChannelRepo)
	channels.On("GetByID", mock.Anything, channel.ID).Return(channel, nil)
	channels.On("SetSecret", mock.Anything, channel.ID, mock.Anything).
		Run(func(args mock.Arguments) { secretStored = args.String(2) }).
		Return(nil)

	subs := new(mockSubsRepo)
	subs.On("CountForChannel", mock.Anything, channel.ID).Return(1, nil)

	hub := NewHubClient(hubServer.URL, "https://bot.example.com", zap.NewNop())
	lifecycle := NewLifecycle(channels, subs, hub, zap.NewNop())

	require.NoError(t, lifecycle.Sync(context.Background(), channel.ID))
	assert.NotEmpty(t, secretStored)
	channels.AssertExpectations(t)
}
