package extract

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/hyperjump/docpack/internal/models"
)

// RateLimited throttles calls to another Extractor with a token bucket. It never
// retries; a call either waits for a token or fails with the context's error.
type RateLimited struct {
	next    Extractor
	limiter *rate.Limiter
}

// NewRateLimited wraps next so that at most requestsPerSecond calls start per second,
// with bursts of up to burst calls. A burst below one is raised to one.
func NewRateLimited(next Extractor, requestsPerSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = int(math.Max(1, math.Ceil(requestsPerSecond)))
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Extract implements Extractor.
func (r *RateLimited) Extract(ctx context.Context, content []byte, mimeType string) ([]models.Entity, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Extract(ctx, content, mimeType)
}
