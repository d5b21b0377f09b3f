// Package challenge detects anti-automation challenge pages and holds the pipeline
// until an operator clears them in the browser window.
package challenge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/talent-scout/internal/events"
)

// DefaultCooldown is the pause applied after a challenge clears.
const DefaultCooldown = 2 * time.Second

// DefaultMarkers are URL fragments that identify the search engine's challenge page.
var DefaultMarkers = []string{"sorry/index"}

// Messages published while a challenge is pending.
const (
	MessageDetected = "CAPTCHA DETECTED! Please solve it in the browser window..."
	MessageResumed  = "Captcha solved! Resuming..."
)

// Page is the slice of browser session state the gate needs.
type Page interface {
	// Location returns the current top-level URL.
	Location(ctx context.Context) (string, error)
	// WaitNavigation blocks until the page navigates again or ctx is done.
	WaitNavigation(ctx context.Context) error
}

// Gate suspends progress while the current page is a challenge.
type Gate struct {
	publisher events.Publisher
	markers   []string
	cooldown  time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures a Gate.
type Option func(*Gate)

// WithMarkers replaces the URL fragments that identify a challenge page.
func WithMarkers(markers ...string) Option {
	return func(g *Gate) {
		if len(markers) > 0 {
			g.markers = markers
		}
	}
}

// WithCooldown sets the pause applied after a challenge clears.
func WithCooldown(d time.Duration) Option {
	return func(g *Gate) { g.cooldown = d }
}

// WithSleep overrides the cool-down sleeper. Used by tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gate) { g.sleep = fn }
}

// NewGate creates a Gate that reports through publisher.
func NewGate(publisher events.Publisher, opts ...Option) *Gate {
	g := &Gate{
		publisher: publisher,
		markers:   DefaultMarkers,
		cooldown:  DefaultCooldown,
		sleep:     Sleep,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsChallenge reports whether location matches one of the gate's markers.
func (g *Gate) IsChallenge(location string) bool {
	for _, marker := range g.markers {
		if marker != "" && strings.Contains(location, marker) {
			return true
		}
	}
	return false
}

// CheckAndWait returns immediately if the page is not a challenge. Otherwise it
// announces the challenge and blocks, without a timeout, until the page has
// navigated away from it. Only ctx cancellation ends the wait early.
func (g *Gate) CheckAndWait(ctx context.Context, page Page) error {
	location, err := page.Location(ctx)
	if err != nil {
		return fmt.Errorf("failed to read page location: %w", err)
	}
	if !g.IsChallenge(location) {
		return nil
	}

	zap.L().Warn("challenge page detected", zap.String("url", location))
	g.publisher.Publish(events.Captcha(MessageDetected))

	started := time.Now()
	for g.IsChallenge(location) {
		if err := page.WaitNavigation(ctx); err != nil {
			return fmt.Errorf("waiting for challenge to clear: %w", err)
		}
		location, err = page.Location(ctx)
		if err != nil {
			return fmt.Errorf("failed to read page location: %w", err)
		}
	}

	zap.L().Info("challenge cleared",
		zap.String("url", location),
		zap.Duration("waited", time.Since(started)),
	)
	g.publisher.Publish(events.Progress(MessageResumed))

	return g.sleep(ctx, g.cooldown)
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
