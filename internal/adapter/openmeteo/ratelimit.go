package openmeteo

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/pyrelab/fireweather-etl/internal/domain"
)

// ArchiveProvider is the fetch surface shared by the raw client and decorators.
type ArchiveProvider interface {
	FetchDaily(ctx context.Context, lat, lon float64, start, end time.Time) (domain.WeatherDoc, error)
}

// RateLimited wraps an ArchiveProvider with a token-bucket limiter so the
// linker's worker pool stays inside the archive's request budget no matter
// how many workers are in flight.
type RateLimited struct {
	inner   ArchiveProvider
	limiter *rate.Limiter
}

// NewRateLimited creates a rate-limiting decorator. rps may be fractional for
// slower than one request per second.
func NewRateLimited(inner ArchiveProvider, rps float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// FetchDaily blocks for limiter permission, then forwards to the inner provider.
func (r *RateLimited) FetchDaily(ctx context.Context, lat, lon float64, start, end time.Time) (domain.WeatherDoc, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.WeatherDoc{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.inner.FetchDaily(ctx, lat, lon, start, end)
}

var _ ArchiveProvider = (*RateLimited)(nil)
var _ ArchiveProvider = (*Client)(nil)
