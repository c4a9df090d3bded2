// Package stream turns track identifiers into short-lived playable locators.
package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/llehouerou/vyra/internal/catalog"
)

// DefaultTimeout bounds a single resolution attempt.
const DefaultTimeout = 10 * time.Second

// Resolution failure kinds. Returned errors wrap exactly one of these and
// the underlying cause.
var (
	ErrNotFound  = errors.New("no playable stream")
	ErrTimeout   = errors.New("stream resolution timed out")
	ErrTransport = errors.New("stream resolution failed")
)

// Locator is a playable stream bound to one track and one resolution attempt.
type Locator struct {
	TrackID    string
	URL        string
	MimeType   string
	ExpiresAt  time.Time
	Generation uint64
}

// Expired reports whether the locator is past its expiry at now.
func (l Locator) Expired(now time.Time) bool {
	return !l.ExpiresAt.IsZero() && !now.Before(l.ExpiresAt)
}

// Resolver is the contract the transport depends on.
type Resolver interface {
	Resolve(ctx context.Context, trackID string, gen uint64) (Locator, error)
}

// Gateway resolves streams through a catalog with a bounded window.
// It never retries; that is the caller's decision.
type Gateway struct {
	catalog catalog.Catalog
	timeout time.Duration
	limiter *rate.Limiter
	logger  *log.Logger
}

var _ Resolver = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*Gateway)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithRateLimit bounds catalog calls to rps per second with the given burst.
// Waiting for a token counts against the resolution window.
func WithRateLimit(rps float64, burst int) Option {
	return func(g *Gateway) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// NewGateway creates a gateway over c.
func NewGateway(c catalog.Catalog, logger *log.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		catalog: c,
		timeout: DefaultTimeout,
		logger:  logger.With("component", "stream"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type result struct {
	stream *catalog.Stream
	err    error
}

// Resolve makes one attempt to obtain a locator for trackID.
// The catalog call runs in its own goroutine so the window holds even when
// the catalog ignores ctx.
func (g *Gateway) Resolve(ctx context.Context, trackID string, gen uint64) (Locator, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			// Wait fails early when the token would arrive after the deadline.
			if !errors.Is(ctx.Err(), context.Canceled) {
				err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
			}
			return Locator{}, g.fail(ctx, trackID, gen, start, err)
		}
	}

	done := make(chan result, 1)
	go func() {
		s, err := g.catalog.ResolveStream(ctx, trackID)
		done <- result{stream: s, err: err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		return Locator{}, g.fail(ctx, trackID, gen, start, ctx.Err())
	}

	if r.err != nil {
		return Locator{}, g.fail(ctx, trackID, gen, start, r.err)
	}
	if r.stream == nil || r.stream.URL == "" {
		g.logger.Debug("no stream", "track", trackID, "gen", gen)
		return Locator{}, fmt.Errorf("%w for %s", ErrNotFound, trackID)
	}

	g.logger.Debug("resolved", "track", trackID, "gen", gen, "elapsed", time.Since(start))
	return Locator{
		TrackID:    trackID,
		URL:        r.stream.URL,
		MimeType:   r.stream.MimeType,
		ExpiresAt:  r.stream.ExpiresAt,
		Generation: gen,
	}, nil
}

func (g *Gateway) fail(ctx context.Context, trackID string, gen uint64, start time.Time, err error) error {
	kind := classify(ctx, err)
	g.logger.Debug("resolve failed", "track", trackID, "gen", gen, "elapsed", time.Since(start), "err", err)
	return fmt.Errorf("%w: %w", kind, err)
}

func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	default:
		return ErrTransport
	}
}
