package websub

import (
	"context"
	"time"

	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/eslym/dcyt-bot-v2/internal/db/repository"
	"github.com/eslym/dcyt-bot-v2/internal/fetcher"
	"github.com/stretchr/testify/mock"
)

type mockChannelRepo struct {
	mock.Mock
}

func (m *mockChannelRepo) GetByID(ctx context.Context, id string) (*models.YoutubeChannel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.YoutubeChannel), args.Error(1)
}

func (m *mockChannelRepo) GetByWebhookID(ctx context.Context, webhookID string) (*models.YoutubeChannel, error) {
	args := m.Called(ctx, webhookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.YoutubeChannel), args.Error(1)
}

func (m *mockChannelRepo) Create(ctx context.Context, channel *models.YoutubeChannel) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *mockChannelRepo) UpdateTitle(ctx context.Context, id, title string) error {
	return m.Called(ctx, id, title).Error(0)
}

func (m *mockChannelRepo) SetSecret(ctx context.Context, id string, secret string) error {
	return m.Called(ctx, id, secret).Error(0)
}

func (m *mockChannelRepo) SetLease(ctx context.Context, webhookID string, expiresAt time.Time) error {
	return m.Called(ctx, webhookID, expiresAt).Error(0)
}

func (m *mockChannelRepo) ClearLease(ctx context.Context, webhookID string) error {
	return m.Called(ctx, webhookID).Error(0)
}

func (m *mockChannelRepo) ListExpiringLeases(ctx context.Context, cutoff time.Time) ([]*models.YoutubeChannel, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.YoutubeChannel), args.Error(1)
}

type mockVideoRepo struct {
	mock.Mock
}

func (m *mockVideoRepo) GetByID(ctx context.Context, id string) (*models.YoutubeVideo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.YoutubeVideo), args.Error(1)
}

func (m *mockVideoRepo) Insert(ctx context.Context, video *models.YoutubeVideo) error {
	return m.Called(ctx, video).Error(0)
}

func (m *mockVideoRepo) MarkDeleted(ctx context.Context, id string, when time.Time) error {
	return m.Called(ctx, id, when).Error(0)
}

func (m *mockVideoRepo) Refresh(ctx context.Context, id, title string, scheduledAt, livedAt *time.Time) error {
	return m.Called(ctx, id, title, scheduledAt, livedAt).Error(0)
}

func (m *mockVideoRepo) UpdateAndStamp(ctx context.Context, id, title string, scheduledAt, livedAt *time.Time, kind models.NotificationKind, at time.Time) error {
	return m.Called(ctx, id, title, scheduledAt, livedAt, kind, at).Error(0)
}

func (m *mockVideoRepo) ListPending(ctx context.Context) ([]*models.YoutubeVideo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.YoutubeVideo), args.Error(1)
}

type mockSubsRepo struct {
	mock.Mock
}

func (m *mockSubsRepo) Upsert(ctx context.Context, sub *models.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockSubsRepo) Delete(ctx context.Context, youtubeChannelID, guildChannelID string) error {
	return m.Called(ctx, youtubeChannelID, guildChannelID).Error(0)
}

func (m *mockSubsRepo) ListForChannel(ctx context.Context, youtubeChannelID string) ([]*models.Subscription, error) {
	args := m.Called(ctx, youtubeChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

func (m *mockSubsRepo) CountForChannel(ctx context.Context, youtubeChannelID string) (int, error) {
	args := m.Called(ctx, youtubeChannelID)
	return args.Int(0), args.Error(1)
}

func (m *mockSubsRepo) ListNotifyTargets(ctx context.Context, youtubeChannelID string, kind models.NotificationKind) ([]*repository.NotifyTarget, error) {
	args := m.Called(ctx, youtubeChannelID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.NotifyTarget), args.Error(1)
}

func (m *mockSubsRepo) ListYoutubeChannelsForGuild(ctx context.Context, guildID string) ([]string, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockSubsRepo) ListYoutubeChannelsForGuildChannel(ctx context.Context, guildChannelID string) ([]string, error) {
	args := m.Called(ctx, guildChannelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchVideoData(ctx context.Context, videoID string) (*fetcher.VideoData, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fetcher.VideoData), args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, channelID, content string) error {
	return m.Called(ctx, channelID, content).Error(0)
}

type mockEventProcessor struct {
	mock.Mock
}

func (m *mockEventProcessor) HandleEvent(ctx context.Context, channel *models.YoutubeChannel, event *FeedEvent) error {
	return m.Called(ctx, channel, event).Error(0)
}
