package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/eslym/dcyt-bot-v2/internal/db"
	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VideoRepository defines operations for the per-video state records.
type VideoRepository interface {
	// GetByID retrieves a video record by ID.
	GetByID(ctx context.Context, id string) (*models.YoutubeVideo, error)

	// Insert creates a new video record, including any pre-stamped
	// notification timestamps.
	Insert(ctx context.Context, video *models.YoutubeVideo) error

	// MarkDeleted soft-deletes the record with the upstream retraction time.
	MarkDeleted(ctx context.Context, id string, when time.Time) error

	// Refresh updates mutable fields and clears the soft-delete marker
	// without touching any notification stamps.
	Refresh(ctx context.Context, id, title string, scheduledAt, livedAt *time.Time) error

	// UpdateAndStamp applies mutable fields and the given kind's sent
	// timestamp in a single statement.
	UpdateAndStamp(ctx context.Context, id, title string, scheduledAt, livedAt *time.Time, kind models.NotificationKind, at time.Time) error

	// ListPending returns LIVE and PREMIERE records that still await a live
	// or upcoming notification and are not soft-deleted.
	ListPending(ctx context.Context) ([]*models.YoutubeVideo, error)
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

const videoColumns = `id, channel_id, type, title, scheduled_at, lived_at, deleted_at,
	publish_notified_at, schedule_notified_at, reschedule_notified_at, upcoming_notified_at, live_notified_at,
	created_at, updated_at`

func (r *videoRepository) GetByID(ctx context.Context, id string) (*models.YoutubeVideo, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM youtube_videos WHERE id = $1`, id)
	return scanVideo(row, "get video")
}

func (r *videoRepository) Insert(ctx context.Context, video *models.YoutubeVideo) error {
	query := `
		INSERT INTO youtube_videos (
			id, channel_id, type, title, scheduled_at, lived_at, deleted_at,
			publish_notified_at, schedule_notified_at, reschedule_notified_at, upcoming_notified_at, live_notified_at,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
	`

	_, err := r.pool.Exec(ctx, query,
		video.ID,
		video.ChannelID,
		video.Type,
		video.Title,
		video.ScheduledAt,
		video.LivedAt,
		video.DeletedAt,
		video.PublishNotifiedAt,
		video.ScheduleNotifiedAt,
		video.RescheduleNotifiedAt,
		video.UpcomingNotifiedAt,
		video.LiveNotifiedAt,
	)
	if err != nil {
		return db.WrapError(err, "insert video")
	}

	return nil
}

func (r *videoRepository) MarkDeleted(ctx context.Context, id string, when time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE youtube_videos SET deleted_at = $2, updated_at = now() WHERE id = $1`, id, when)
	if err != nil {
		return db.WrapError(err, "mark video deleted")
	}
	return nil
}

func (r *videoRepository) Refresh(ctx context.Context, id, title string, scheduledAt, livedAt *time.Time) error {
	query := `
		UPDATE youtube_videos
		SET title = $2, scheduled_at = $3, lived_at = $4, deleted_at = NULL, updated_at = now()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, title, scheduledAt, livedAt)
	if err != nil {
		return db.WrapError(err, "refresh video")
	}
	return nil
}

func (r *videoRepository) UpdateAndStamp(ctx context.Context, id, title string, scheduledAt, livedAt *time.Time, kind models.NotificationKind, at time.Time) error {
	column, err := notifiedColumn(kind)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE youtube_videos
		SET title = $2, scheduled_at = $3, lived_at = $4, %s = $5, updated_at = now()
		WHERE id = $1
	`, column)

	_, err = r.pool.Exec(ctx, query, id, title, scheduledAt, livedAt, at)
	if err != nil {
		return db.WrapError(err, "update video and stamp "+kind.String())
	}
	return nil
}

func (r *videoRepository) ListPending(ctx context.Context) ([]*models.YoutubeVideo, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM youtube_videos
		WHERE type IN ($1, $2)
		  AND live_notified_at IS NULL
		  AND upcoming_notified_at IS NULL
		  AND deleted_at IS NULL
		ORDER BY scheduled_at NULLS LAST
	`

	rows, err := r.pool.Query(ctx, query, models.VideoTypeLive, models.VideoTypePremiere)
	if err != nil {
		return nil, db.WrapError(err, "list pending videos")
	}
	defer rows.Close()

	var videos []*models.YoutubeVideo
	for rows.Next() {
		video, err := scanVideo(rows, "scan video")
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate videos")
	}

	return videos, nil
}

// notifiedColumn maps a notification kind to its sent-timestamp column. The
// explicit switch keeps the kind set exhaustively checked; the column name is
// never taken from input.
func notifiedColumn(kind models.NotificationKind) (string, error) {
	switch kind {
	case models.NotifyPublish:
		return "publish_notified_at", nil
	case models.NotifySchedule:
		return "schedule_notified_at", nil
	case models.NotifyReschedule:
		return "reschedule_notified_at", nil
	case models.NotifyUpcoming:
		return "upcoming_notified_at", nil
	case models.NotifyLive:
		return "live_notified_at", nil
	}
	return "", fmt.Errorf("unknown notification kind %q", kind)
}

func scanVideo(row pgx.Row, operation string) (*models.YoutubeVideo, error) {
	video := &models.YoutubeVideo{}
	err := row.Scan(
		&video.ID,
		&video.ChannelID,
		&video.Type,
		&video.Title,
		&video.ScheduledAt,
		&video.LivedAt,
		&video.DeletedAt,
		&video.PublishNotifiedAt,
		&video.ScheduleNotifiedAt,
		&video.RescheduleNotifiedAt,
		&video.UpcomingNotifiedAt,
		&video.LiveNotifiedAt,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, operation)
	}
	return video, nil
}
