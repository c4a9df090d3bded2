package stream

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/vyra/internal/catalog"
)

type fakeCatalog struct {
	resolve func(ctx context.Context, id string) (*catalog.Stream, error)
	calls   atomic.Int32
}

func (f *fakeCatalog) Search(context.Context, string) (*catalog.SearchResults, error) {
	return nil, catalog.ErrNotSupported
}

func (f *fakeCatalog) ResolveStream(ctx context.Context, id string) (*catalog.Stream, error) {
	f.calls.Add(1)
	return f.resolve(ctx, id)
}

func (f *fakeCatalog) GetPlaylistOrAlbum(context.Context, string) (*catalog.Collection, error) {
	return nil, catalog.ErrNotSupported
}

func (f *fakeCatalog) GetArtist(context.Context, string) (*catalog.ArtistPage, error) {
	return nil, catalog.ErrNotSupported
}

func discard() *log.Logger { return log.New(io.Discard) }

func TestGateway_Resolve_Success(t *testing.T) {
	expires := time.Unix(1700000000, 0)
	c := &fakeCatalog{resolve: func(_ context.Context, id string) (*catalog.Stream, error) {
		return &catalog.Stream{URL: "https://cdn/" + id, MimeType: "audio/mp4", ExpiresAt: expires}, nil
	}}
	g := NewGateway(c, discard())

	loc, err := g.Resolve(context.Background(), "abc", 7)

	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if loc.URL != "https://cdn/abc" || loc.TrackID != "abc" || loc.Generation != 7 {
		t.Errorf("Resolve() = %+v, want url https://cdn/abc, track abc, gen 7", loc)
	}
	if !loc.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", loc.ExpiresAt, expires)
	}
}

func TestGateway_Resolve_Classification(t *testing.T) {
	tests := []struct {
		name    string
		resolve func(context.Context, string) (*catalog.Stream, error)
		want    error
	}{
		{
			name: "no stream",
			resolve: func(context.Context, string) (*catalog.Stream, error) {
				return nil, nil
			},
			want: ErrNotFound,
		},
		{
			name: "empty url",
			resolve: func(context.Context, string) (*catalog.Stream, error) {
				return &catalog.Stream{}, nil
			},
			want: ErrNotFound,
		},
		{
			name: "catalog not found",
			resolve: func(context.Context, string) (*catalog.Stream, error) {
				return nil, catalog.ErrNotFound
			},
			want: ErrNotFound,
		},
		{
			name: "io failure",
			resolve: func(context.Context, string) (*catalog.Stream, error) {
				return nil, errors.New("connection refused")
			},
			want: ErrTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGateway(&fakeCatalog{resolve: tt.resolve}, discard())

			_, err := g.Resolve(context.Background(), "x", 1)

			if !errors.Is(err, tt.want) {
				t.Errorf("Resolve() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGateway_Resolve_TimeoutWhenCatalogHangs(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := &fakeCatalog{resolve: func(ctx context.Context, _ string) (*catalog.Stream, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}}
		g := NewGateway(c, discard())

		start := time.Now()
		_, err := g.Resolve(context.Background(), "slow", 1)

		if !errors.Is(err, ErrTimeout) {
			t.Errorf("Resolve() error = %v, want ErrTimeout", err)
		}
		if elapsed := time.Since(start); elapsed != DefaultTimeout {
			t.Errorf("Resolve() returned after %v, want %v", elapsed, DefaultTimeout)
		}
	})
}

func TestGateway_Resolve_TimeoutWhenCatalogIgnoresContext(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		release := make(chan struct{})
		c := &fakeCatalog{resolve: func(context.Context, string) (*catalog.Stream, error) {
			<-release
			return &catalog.Stream{URL: "late"}, nil
		}}
		g := NewGateway(c, discard(), WithTimeout(3*time.Second))

		_, err := g.Resolve(context.Background(), "stuck", 1)

		if !errors.Is(err, ErrTimeout) {
			t.Errorf("Resolve() error = %v, want ErrTimeout", err)
		}
		close(release)
	})
}

func TestGateway_Resolve_NoRetry(t *testing.T) {
	c := &fakeCatalog{resolve: func(context.Context, string) (*catalog.Stream, error) {
		return nil, errors.New("boom")
	}}
	g := NewGateway(c, discard())

	_, _ = g.Resolve(context.Background(), "x", 1)

	if got := c.calls.Load(); got != 1 {
		t.Errorf("catalog called %d times, want 1", got)
	}
}

func TestGateway_Resolve_RateLimited(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := &fakeCatalog{resolve: func(context.Context, string) (*catalog.Stream, error) {
			return &catalog.Stream{URL: "u"}, nil
		}}
		g := NewGateway(c, discard(), WithRateLimit(1, 1))

		start := time.Now()
		for i := range 3 {
			if _, err := g.Resolve(context.Background(), "x", uint64(i)); err != nil {
				t.Fatalf("Resolve() #%d error = %v", i, err)
			}
		}

		if elapsed := time.Since(start); elapsed < 2*time.Second {
			t.Errorf("3 resolutions at 1/s took %v, want >= 2s", elapsed)
		}
	})
}

func TestLocator_Expired(t *testing.T) {
	now := time.Unix(1000, 0)

	if (Locator{}).Expired(now) {
		t.Error("locator without expiry should never expire")
	}
	if !(Locator{ExpiresAt: now}).Expired(now) {
		t.Error("locator should be expired at its expiry time")
	}
	if (Locator{ExpiresAt: now.Add(time.Minute)}).Expired(now) {
		t.Error("locator should not be expired before its expiry time")
	}
}
