package fetcher

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited wraps a DataFetcher with a token-bucket limiter so batch
// reconciliation passes cannot hammer the upstream.
type RateLimited struct {
	inner   DataFetcher
	limiter *rate.Limiter
}

// WithRateLimit decorates fetcher with the given sustained rate and burst.
func WithRateLimit(fetcher DataFetcher, perSecond float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   fetcher,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// FetchVideoData waits for limiter capacity, then delegates.
func (r *RateLimited) FetchVideoData(ctx context.Context, videoID string) (*VideoData, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrFetch, err)
	}
	return r.inner.FetchVideoData(ctx, videoID)
}
