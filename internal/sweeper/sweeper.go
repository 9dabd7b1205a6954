// Package sweeper expires stale booking requests in the background. A
// pending request is a soft hold with no calendar side effects, so expiry
// is a single bulk status transition: no per-row transaction, no
// compensating action, and running it twice in a row changes nothing the
// second time.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/stay-reservation/internal/repository"
)

// Sweeper transitions pending requests past their TTL to EXPIRED.
type Sweeper struct {
	requests *repository.RequestRepo
	interval time.Duration
}

// New returns a Sweeper over the given repository running every interval.
func New(requests *repository.RequestRepo, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{requests: requests, interval: interval}
}

// Sweep runs one pass and returns the number of requests transitioned.
// Also invoked on demand before reads of pending requests so a stale hold
// is never presented as actionable.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	return s.requests.ExpireStale(ctx)
}

// Run loops until the context is cancelled, sweeping on the configured
// interval. Errors are logged and the loop continues; a failed pass is
// retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				log.Printf("sweeper: pass failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("sweeper: expired %d stale request(s)", n)
			}
		}
	}
}
