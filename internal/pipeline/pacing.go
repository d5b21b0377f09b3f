package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/jonathan/talent-scout/internal/challenge"
)

// Default bounds for the delay between companies.
const (
	DefaultMinDelay = 2 * time.Second
	DefaultMaxDelay = 4 * time.Second
)

// Pacer spaces out company starts by a random delay in [min, max).
type Pacer struct {
	min   time.Duration
	max   time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a Pacer. If max is not above min the delay is fixed at min.
func NewPacer(minDelay, maxDelay time.Duration) *Pacer {
	return &Pacer{min: minDelay, max: maxDelay, sleep: challenge.Sleep}
}

// WithSleep returns a copy of the pacer using fn to wait. Used by tests.
func (p *Pacer) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Pacer {
	cp := *p
	cp.sleep = fn
	return &cp
}

// Next draws the next delay.
func (p *Pacer) Next() time.Duration {
	if p.max <= p.min {
		return p.min
	}
	return p.min + rand.N(p.max-p.min)
}

// Wait sleeps for a freshly drawn delay or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) (time.Duration, error) {
	d := p.Next()
	return d, p.sleep(ctx, d)
}
