package fetch

import (
	"context"

	"golang.org/x/time/rate"
)

type rateLimited struct {
	next    Fetcher
	limiter *rate.Limiter
}

// RateLimited wraps next so that at most perSecond fetches start per second.
func RateLimited(next Fetcher, perSecond float64, burst int) Fetcher {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *rateLimited) Fetch(ctx context.Context, url string, opts Options) (*Document, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Fetch(ctx, url, opts)
}
