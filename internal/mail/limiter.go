package mail

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces sends at a fixed interval. The mail provider allows two
// requests per second, so the default interval is 600ms with burst 1.
type Limiter struct {
	interval time.Duration
	rl       *rate.Limiter
}

func NewLimiter(interval time.Duration, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		interval: interval,
		rl:       rate.NewLimiter(rate.Every(interval), burst),
	}
}

func (l *Limiter) Wait(ctx context.Context) error {
	return l.rl.Wait(ctx)
}

func (l *Limiter) Interval() time.Duration {
	return l.interval
}
