package websub

import (
	"context"
	"testing"
	"time"

	"github.com/eslym/dcyt-bot-v2/internal/db"
	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/eslym/dcyt-bot-v2/internal/db/repository"
	"github.com/eslym/dcyt-bot-v2/internal/dedup"
	"github.com/eslym/dcyt-bot-v2/internal/fetcher"
	"github.com/eslym/dcyt-bot-v2/internal/metrics"
	"github.com/eslym/dcyt-bot-v2/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type processorFixture struct {
	channels  *mockChannelRepo
	videos    *mockVideoRepo
	subs      *mockSubsRepo
	fetcher   *mockFetcher
	sender    *mockSender
	lock      *dedup.Lock
	processor *Processor
	now       time.Time
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()

	f := &processorFixture{
		channels: new(mockChannelRepo),
		videos:   new(mockVideoRepo),
		subs:     new(mockSubsRepo),
		fetcher:  new(mockFetcher),
		sender:   new(mockSender),
		lock:     dedup.New(time.Minute),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	publisher := notify.NewPublisher(f.subs, f.sender, nil, zap.NewNop(), metrics.NewUnregistered())
	f.processor = NewProcessor(f.channels, f.videos, f.fetcher, f.lock, publisher, zap.NewNop(), metrics.NewUnregistered())
	f.processor.now = func() time.Time { return f.now }

	return f
}

func (f *processorFixture) expectOneTarget() {
	f.subs.On("ListNotifyTargets", mock.Anything, mock.Anything, mock.Anything).
		Return([]*repository.NotifyTarget{{GuildChannelID: "123456789012345678"}}, nil)
	f.sender.On("Send", mock.Anything, "123456789012345678", mock.Anything).Return(nil)
}

func TestProcessor_FirstSeenPremiereAnnouncesSchedule(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	channel := testChannel()
	schedule := f.now.Add(2 * time.Hour)

	f.fetcher.On("FetchVideoData", mock.Anything, "vid00000001").Return(&fetcher.VideoData{
		ID:          "vid00000001",
		Type:        models.VideoTypePremiere,
		ChannelID:   channel.ID,
		ChannelName: channel.Title,
		Title:       "Premiere!",
		Live:        &fetcher.LiveDetails{ScheduledAt: &schedule},
	}, nil)
	f.videos.On("GetByID", mock.Anything, "vid00000001").Return(nil, db.ErrNotFound)
	f.videos.On("Insert", mock.Anything, mock.MatchedBy(func(v *models.YoutubeVideo) bool {
		return v.ID == "vid00000001" &&
			v.Type == models.VideoTypePremiere &&
			v.ScheduleNotifiedAt != nil &&
			v.ScheduledAt != nil && v.ScheduledAt.Equal(schedule)
	})).Return(nil)
	f.expectOneTarget()

	err := f.processor.HandleEvent(context.Background(), channel, &FeedEvent{
		Entry: &EntryEvent{VideoID: "vid00000001", ChannelID: channel.ID, Title: "Premiere!", Published: f.now},
	})

	require.NoError(t, err)
	f.videos.AssertExpectations(t)
	f.sender.AssertExpectations(t)
}

func TestProcessor_StaleUploadIsRecordedSilently(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	channel := testChannel()

	f.fetcher.On("FetchVideoData", mock.Anything, "vid00000002").Return(&fetcher.VideoData{
		ID:          "vid00000002",
		Type:        models.VideoTypeVideo,
		ChannelID:   channel.ID,
		ChannelName: channel.Title,
		Title:       "Old upload",
	}, nil)
	f.videos.On("GetByID", mock.Anything, "vid00000002").Return(nil, db.ErrNotFound)
	f.videos.On("Insert", mock.Anything, mock.MatchedBy(func(v *models.YoutubeVideo) bool {
		return v.PublishNotifiedAt != nil
	})).Return(nil)

	err := f.processor.HandleEvent(context.Background(), channel, &FeedEvent{
		Entry: &EntryEvent{
			VideoID:   "vid00000002",
			ChannelID: channel.ID,
			Published: f.now.Add(-4 * 24 * time.Hour),
		},
	})

	require.NoError(t, err)
	f.videos.AssertExpectations(t)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessor_ChannelMismatchIsDiscarded(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)

	err := f.processor.HandleEvent(context.Background(), testChannel(), &FeedEvent{
		Entry: &EntryEvent{VideoID: "vid00000003", ChannelID: "UCsomeoneElse0000000000x"},
	})

	require.NoError(t, err)
	f.fetcher.AssertNotCalled(t, "FetchVideoData", mock.Anything, mock.Anything)
}

func TestProcessor_HeldLockSkipsProcessing(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	f.lock.Add("vid00000004")

	err := f.processor.HandleEvent(context.Background(), testChannel(), &FeedEvent{
		Entry: &EntryEvent{VideoID: "vid00000004", ChannelID: testChannel().ID},
	})

	require.NoError(t, err)
	f.fetcher.AssertNotCalled(t, "FetchVideoData", mock.Anything, mock.Anything)
}

func TestProcessor_DeletedEntryMarksVideo(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	when := f.now.Add(-time.Minute)

	f.videos.On("MarkDeleted", mock.Anything, "vid00000005", when).Return(nil)

	err := f.processor.HandleEvent(context.Background(), testChannel(), &FeedEvent{
		Deleted: &DeletedEvent{VideoID: "vid00000005", When: when},
	})

	require.NoError(t, err)
	f.videos.AssertExpectations(t)
}

func TestProcessor_FetchNotFoundRetractsRecord(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	channel := testChannel()

	f.fetcher.On("FetchVideoData", mock.Anything, "vid00000006").Return(nil, fetcher.ErrNotFound)
	f.videos.On("MarkDeleted", mock.Anything, "vid00000006", f.now).Return(nil)

	err := f.processor.HandleEvent(context.Background(), channel, &FeedEvent{
		Entry: &EntryEvent{VideoID: "vid00000006", ChannelID: channel.ID},
	})

	require.NoError(t, err)
	f.videos.AssertExpectations(t)
}

func TestProcessor_GoingLiveStampsAndPublishes(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	channel := testChannel()
	livedAt := f.now.Add(-time.Minute)

	f.fetcher.On("FetchVideoData", mock.Anything, "vid00000007").Return(&fetcher.VideoData{
		ID:          "vid00000007",
		Type:        models.VideoTypeLive,
		ChannelID:   channel.ID,
		ChannelName: channel.Title,
		Title:       "Now live",
		Live:        &fetcher.LiveDetails{LivedAt: &livedAt},
	}, nil)
	f.videos.On("GetByID", mock.Anything, "vid00000007").Return(&models.YoutubeVideo{
		ID:        "vid00000007",
		ChannelID: channel.ID,
		Type:      models.VideoTypeLive,
	}, nil)
	f.videos.On("UpdateAndStamp", mock.Anything, "vid00000007", "Now live",
		mock.Anything, mock.Anything, models.NotifyLive, f.now).Return(nil)
	f.expectOneTarget()

	err := f.processor.HandleEvent(context.Background(), channel, &FeedEvent{
		Entry: &EntryEvent{VideoID: "vid00000007", ChannelID: channel.ID},
	})

	require.NoError(t, err)
	f.videos.AssertExpectations(t)
	f.sender.AssertExpectations(t)
}

func TestProcessor_AlreadyLiveOnlyRefreshes(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	channel := testChannel()
	livedAt := f.now.Add(-time.Hour)

	f.fetcher.On("FetchVideoData", mock.Anything, "vid00000008").Return(&fetcher.VideoData{
		ID:          "vid00000008",
		Type:        models.VideoTypeLive,
		ChannelID:   channel.ID,
		ChannelName: channel.Title,
		Title:       "Still live",
		Live:        &fetcher.LiveDetails{LivedAt: &livedAt},
	}, nil)
	f.videos.On("GetByID", mock.Anything, "vid00000008").Return(&models.YoutubeVideo{
		ID:             "vid00000008",
		ChannelID:      channel.ID,
		Type:           models.VideoTypeLive,
		LivedAt:        &livedAt,
		LiveNotifiedAt: &livedAt,
	}, nil)
	f.videos.On("Refresh", mock.Anything, "vid00000008", "Still live", mock.Anything, mock.Anything).Return(nil)

	err := f.processor.HandleEvent(context.Background(), channel, &FeedEvent{
		Entry: &EntryEvent{VideoID: "vid00000008", ChannelID: channel.ID},
	})

	require.NoError(t, err)
	f.videos.AssertExpectations(t)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessor_FirstSeenEndedBroadcastIsRecordedSilently(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	channel := testChannel()
	livedAt := f.now.Add(-2 * time.Hour)
	endedAt := f.now.Add(-time.Hour)

	f.fetcher.On("FetchVideoData", mock.Anything, "vid00000013").Return(&fetcher.VideoData{
		ID:          "vid00000013",
		Type:        models.VideoTypeLive,
		ChannelID:   channel.ID,
		ChannelName: channel.Title,
		Title:       "Finished stream",
		Live:        &fetcher.LiveDetails{LivedAt: &livedAt, EndedAt: &endedAt},
	}, nil)
	f.videos.On("GetByID", mock.Anything, "vid00000013").Return(nil, db.ErrNotFound)
	f.videos.On("Insert", mock.Anything, mock.MatchedBy(func(v *models.YoutubeVideo) bool {
		// Stamped live-notified on insert so the reconcile pass never
		// selects it as pending.
		return v.ID == "vid00000013" && v.LiveNotifiedAt != nil
	})).Return(nil)

	err := f.processor.HandleEvent(context.Background(), channel, &FeedEvent{
		Entry: &EntryEvent{VideoID: "vid00000013", ChannelID: channel.ID, Published: f.now},
	})

	require.NoError(t, err)
	f.videos.AssertExpectations(t)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessor_RescheduleAfterUpcomingOnlyRefreshes(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	channel := testChannel()
	oldSchedule := f.now.Add(3 * time.Minute)
	newSchedule := f.now.Add(2 * time.Hour)
	upcomingAt := f.now.Add(-time.Minute)

	f.fetcher.On("FetchVideoData", mock.Anything, "vid00000014").Return(&fetcher.VideoData{
		ID:          "vid00000014",
		Type:        models.VideoTypePremiere,
		ChannelID:   channel.ID,
		ChannelName: channel.Title,
		Title:       "Moved premiere",
		Live:        &fetcher.LiveDetails{ScheduledAt: &newSchedule},
	}, nil)
	f.videos.On("GetByID", mock.Anything, "vid00000014").Return(&models.YoutubeVideo{
		ID:                 "vid00000014",
		ChannelID:          channel.ID,
		Type:               models.VideoTypePremiere,
		ScheduledAt:        &oldSchedule,
		ScheduleNotifiedAt: &upcomingAt,
		UpcomingNotifiedAt: &upcomingAt,
	}, nil)
	f.videos.On("Refresh", mock.Anything, "vid00000014", "Moved premiere",
		mock.Anything, mock.Anything).Return(nil)

	err := f.processor.HandleEvent(context.Background(), channel, &FeedEvent{
		Entry: &EntryEvent{VideoID: "vid00000014", ChannelID: channel.ID},
	})

	require.NoError(t, err)
	f.videos.AssertExpectations(t)
	f.videos.AssertNotCalled(t, "UpdateAndStamp",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessor_TitleChangeRefreshesChannel(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	channel := testChannel()

	f.fetcher.On("FetchVideoData", mock.Anything, "vid00000009").Return(&fetcher.VideoData{
		ID:          "vid00000009",
		Type:        models.VideoTypeVideo,
		ChannelID:   channel.ID,
		ChannelName: "Renamed Channel",
		Title:       "Upload",
	}, nil)
	f.channels.On("UpdateTitle", mock.Anything, channel.ID, "Renamed Channel").Return(nil)
	f.videos.On("GetByID", mock.Anything, "vid00000009").Return(nil, db.ErrNotFound)
	f.videos.On("Insert", mock.Anything, mock.Anything).Return(nil)
	f.expectOneTarget()

	err := f.processor.HandleEvent(context.Background(), channel, &FeedEvent{
		Entry: &EntryEvent{VideoID: "vid00000009", ChannelID: channel.ID, Published: f.now},
	})

	require.NoError(t, err)
	f.channels.AssertExpectations(t)
}

func TestProcessor_PollTransitionsPendingPremiere(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	channel := testChannel()
	livedAt := f.now.Add(-time.Minute)
	stored := &models.YoutubeVideo{
		ID:        "vid00000010",
		ChannelID: channel.ID,
		Type:      models.VideoTypePremiere,
	}

	f.fetcher.On("FetchVideoData", mock.Anything, "vid00000010").Return(&fetcher.VideoData{
		ID:          "vid00000010",
		Type:        models.VideoTypePremiere,
		ChannelID:   channel.ID,
		ChannelName: channel.Title,
		Title:       "Premiere live",
		Live:        &fetcher.LiveDetails{LivedAt: &livedAt},
	}, nil)
	f.videos.On("UpdateAndStamp", mock.Anything, "vid00000010", "Premiere live",
		mock.Anything, mock.Anything, models.NotifyLive, f.now).Return(nil)
	f.expectOneTarget()

	require.NoError(t, f.processor.Poll(context.Background(), stored))
	f.videos.AssertExpectations(t)
	f.sender.AssertExpectations(t)
}

func TestProcessor_PollRespectsHeldLock(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	f.lock.Add("vid00000011")

	err := f.processor.Poll(context.Background(), &models.YoutubeVideo{ID: "vid00000011"})

	require.NoError(t, err)
	f.fetcher.AssertNotCalled(t, "FetchVideoData", mock.Anything, mock.Anything)
}

func TestProcessor_LockReleasedAfterProcessing(t *testing.T) {
	t.Parallel()

	f := newProcessorFixture(t)
	channel := testChannel()

	f.fetcher.On("FetchVideoData", mock.Anything, "vid00000012").Return(nil, fetcher.ErrNotFound)
	f.videos.On("MarkDeleted", mock.Anything, "vid00000012", mock.Anything).Return(nil)

	event := &FeedEvent{Entry: &EntryEvent{VideoID: "vid00000012", ChannelID: channel.ID}}
	require.NoError(t, f.processor.HandleEvent(context.Background(), channel, event))

	assert.True(t, f.lock.TryAcquire("vid00000012"))
}
