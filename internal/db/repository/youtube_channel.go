package repository

import (
	"context"
	"time"

	"github.com/eslym/dcyt-bot-v2/internal/db"
	"github.com/eslym/dcyt-bot-v2/internal/db/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// YoutubeChannelRepository defines operations for tracked YouTube channels,
// including the webhook lease bookkeeping.
type YoutubeChannelRepository interface {
	// GetByID retrieves a channel by its platform channel ID.
	GetByID(ctx context.Context, id string) (*models.YoutubeChannel, error)

	// GetByWebhookID retrieves a channel by its callback token.
	GetByWebhookID(ctx context.Context, webhookID string) (*models.YoutubeChannel, error)

	// Create inserts a new channel row. Duplicate IDs map to ErrDuplicateKey.
	Create(ctx context.Context, channel *models.YoutubeChannel) error

	// UpdateTitle refreshes the stored channel title.
	UpdateTitle(ctx context.Context, id, title string) error

	// SetSecret stores a fresh webhook secret for the channel.
	SetSecret(ctx context.Context, id string, secret string) error

	// SetLease records a verified hub lease expiry, keyed by callback token.
	SetLease(ctx context.Context, webhookID string, expiresAt time.Time) error

	// ClearLease drops the secret and lease expiry, keyed by callback token.
	// Called when the hub verifies an unsubscribe.
	ClearLease(ctx context.Context, webhookID string) error

	// ListExpiringLeases returns channels that hold a secret and whose lease
	// is absent or expires before the cutoff.
	ListExpiringLeases(ctx context.Context, cutoff time.Time) ([]*models.YoutubeChannel, error)
}

type youtubeChannelRepository struct {
	pool *pgxpool.Pool
}

// NewYoutubeChannelRepository creates a new YoutubeChannelRepository.
func NewYoutubeChannelRepository(pool *pgxpool.Pool) YoutubeChannelRepository {
	return &youtubeChannelRepository{pool: pool}
}

const youtubeChannelColumns = `id, title, webhook_id, webhook_secret, webhook_expires_at, created_at, updated_at`

func (r *youtubeChannelRepository) GetByID(ctx context.Context, id string) (*models.YoutubeChannel, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+youtubeChannelColumns+` FROM youtube_channels WHERE id = $1`, id)
	return scanYoutubeChannel(row, "get youtube channel")
}

func (r *youtubeChannelRepository) GetByWebhookID(ctx context.Context, webhookID string) (*models.YoutubeChannel, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+youtubeChannelColumns+` FROM youtube_channels WHERE webhook_id = $1`, webhookID)
	return scanYoutubeChannel(row, "get youtube channel by webhook id")
}

func (r *youtubeChannelRepository) Create(ctx context.Context, channel *models.YoutubeChannel) error {
	query := `
		INSERT INTO youtube_channels (id, title, webhook_id, webhook_secret, webhook_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
	`

	_, err := r.pool.Exec(ctx, query,
		channel.ID,
		channel.Title,
		channel.WebhookID,
		channel.WebhookSecret,
		channel.WebhookExpiresAt,
	)
	if err != nil {
		return db.WrapError(err, "create youtube channel")
	}

	return nil
}

func (r *youtubeChannelRepository) UpdateTitle(ctx context.Context, id, title string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE youtube_channels SET title = $2, updated_at = now() WHERE id = $1`, id, title)
	if err != nil {
		return db.WrapError(err, "update youtube channel title")
	}
	return nil
}

func (r *youtubeChannelRepository) SetSecret(ctx context.Context, id string, secret string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE youtube_channels SET webhook_secret = $2, updated_at = now() WHERE id = $1`, id, secret)
	if err != nil {
		return db.WrapError(err, "set webhook secret")
	}
	if tag.RowsAffected() == 0 {
		return db.WrapError(db.ErrNotFound, "set webhook secret")
	}
	return nil
}

func (r *youtubeChannelRepository) SetLease(ctx context.Context, webhookID string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE youtube_channels SET webhook_expires_at = $2, updated_at = now() WHERE webhook_id = $1`,
		webhookID, expiresAt)
	if err != nil {
		return db.WrapError(err, "set webhook lease")
	}
	return nil
}

func (r *youtubeChannelRepository) ClearLease(ctx context.Context, webhookID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE youtube_channels SET webhook_secret = NULL, webhook_expires_at = NULL, updated_at = now() WHERE webhook_id = $1`,
		webhookID)
	if err != nil {
		return db.WrapError(err, "clear webhook lease")
	}
	return nil
}

func (r *youtubeChannelRepository) ListExpiringLeases(ctx context.Context, cutoff time.Time) ([]*models.YoutubeChannel, error) {
	query := `
		SELECT ` + youtubeChannelColumns + `
		FROM youtube_channels
		WHERE webhook_secret IS NOT NULL
		  AND (webhook_expires_at IS NULL OR webhook_expires_at < $1)
		ORDER BY webhook_expires_at NULLS FIRST
	`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, db.WrapError(err, "list expiring leases")
	}
	defer rows.Close()

	var channels []*models.YoutubeChannel
	for rows.Next() {
		channel, err := scanYoutubeChannel(rows, "scan youtube channel")
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate youtube channels")
	}

	return channels, nil
}

func scanYoutubeChannel(row pgx.Row, operation string) (*models.YoutubeChannel, error) {
	channel := &models.YoutubeChannel{}
	err := row.Scan(
		&channel.ID,
		&channel.Title,
		&channel.WebhookID,
		&channel.WebhookSecret,
		&channel.WebhookExpiresAt,
		&channel.CreatedAt,
		&channel.UpdatedAt,
	)
	if err != nil {
		return nil, db.WrapError(err, operation)
	}
	return channel, nil
}
