// internal/app/engine.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/config"
	"github.com/llehouerou/vyra/internal/downloads"
	"github.com/llehouerou/vyra/internal/equalizer"
	"github.com/llehouerou/vyra/internal/errmsg"
	"github.com/llehouerou/vyra/internal/lastfm"
	"github.com/llehouerou/vyra/internal/library"
	"github.com/llehouerou/vyra/internal/mpris"
	"github.com/llehouerou/vyra/internal/notify"
	"github.com/llehouerou/vyra/internal/playback"
	"github.com/llehouerou/vyra/internal/player"
	"github.com/llehouerou/vyra/internal/session"
	"github.com/llehouerou/vyra/internal/state"
	"github.com/llehouerou/vyra/internal/stream"
)

// ErrEmptyCollection is returned when a playlist has no playable tracks.
var ErrEmptyCollection = errors.New("collection has no tracks")

// Options wires an Engine. Nil dependencies get their production default.
type Options struct {
	Config   *config.Config
	Store    state.Interface
	Logger   *log.Logger
	Catalog  catalog.Catalog
	Sink     player.Sink
	Pipeline downloads.Pipeline
	Notifier notify.Notifier
	// MPRIS publishes the engine on the session bus.
	MPRIS bool
}

// Engine is the composition root: it owns the playback service and the
// library side effects hanging off it.
type Engine struct {
	cfg       *config.Config
	store     state.Interface
	logger    *log.Logger
	catalog   catalog.Catalog
	sink      player.Sink
	playback  playback.Service
	library   *library.Library
	downloads *downloads.Manager
	equalizer *equalizer.Equalizer
	scrobbler *lastfm.Scrobbler
	lastfm    *lastfm.Client
	mpris     *mpris.Adapter

	closers []func()
}

// New builds an engine. On error everything created so far is released.
func New(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{cfg: cfg, store: opts.Store, logger: logger}
	built := false
	defer func() {
		if !built {
			e.release()
		}
	}()

	httpClient := player.NewHTTPClient()
	yt, _ := opts.Catalog.(*catalog.YouTube)
	e.catalog = opts.Catalog
	if e.catalog == nil {
		yt = catalog.NewYouTube(&http.Client{Timeout: 30 * time.Second}, logger)
		e.catalog = yt
	}

	e.sink = opts.Sink
	if e.sink == nil {
		sink := player.NewBeepSink(logger, httpClient)
		e.sink = sink
		e.closers = append(e.closers, func() { _ = sink.Close() })
	}

	cacheCfg := cfg.GetCacheConfig()
	cache, err := library.NewAudioCache(opts.Store, library.CacheOptions{
		Dir:      cacheCfg.Dir,
		Capacity: cacheCfg.MaxSongs,
		Enabled:  cacheCfg.Enabled,
		Client:   httpClient,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	e.closers = append(e.closers, cache.Wait)

	e.library, err = library.New(opts.Store, cache, logger)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}

	pipeline := opts.Pipeline
	if pipeline == nil && yt != nil {
		pipeline = downloads.NewYouTubePipeline(yt.Client(), logger)
	}
	if pipeline != nil {
		dl := cfg.GetDownloadsConfig()
		e.downloads, err = downloads.New(pipeline, opts.Store, downloads.Options{
			Destination: dl.Path,
			Quality:     dl.Quality,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open downloads: %w", err)
		}
		e.closers = append(e.closers, e.downloads.Close)
	}

	e.equalizer, err = equalizer.New(e.sink, opts.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open equalizer: %w", err)
	}

	listeners := playback.Listeners{e.library}
	if s := e.newScrobbler(); s != nil {
		listeners = append(listeners, s)
	}
	if cfg.NotificationsEnabled() {
		n := opts.Notifier
		if n == nil {
			n = notify.New(logger)
		}
		listeners = append(listeners, notify.NewTrackNotifier(n, logger))
	}

	pb := cfg.GetPlaybackConfig()
	cc := cfg.GetCatalogConfig()
	radio, _ := e.catalog.(catalog.RadioSource)
	e.playback = playback.New(playback.Options{
		Sink: e.sink,
		Resolver: stream.NewGateway(e.catalog, logger,
			stream.WithTimeout(pb.ResolveTimeout),
			stream.WithRateLimit(cc.RequestsPerSecond, cc.Burst)),
		Sessions:         session.NewPersister(opts.Store),
		Radio:            radio,
		Listener:         listeners,
		Logger:           logger,
		LoadTimeout:      pb.LoadTimeout,
		SaveInterval:     pb.SaveInterval,
		RestartThreshold: pb.RestartThreshold,
		Autoplay:         pb.Autoplay,
	})

	if opts.MPRIS {
		a, err := mpris.New(e.playback, logger)
		if err != nil {
			logger.Warn("mpris unavailable", "err", err)
		} else {
			e.mpris = a
		}
	}
	built = true
	return e, nil
}

func (e *Engine) newScrobbler() *lastfm.Scrobbler {
	if !e.cfg.HasLastfmConfig() {
		return nil
	}
	client := lastfm.New(e.cfg.Lastfm.APIKey, e.cfg.Lastfm.APISecret)
	sess, err := e.store.GetLastfmSession()
	if err != nil {
		e.logger.Warn(errmsg.Format(errmsg.OpLastfmAuth, err))
		return nil
	}
	e.lastfm = client
	if sess == nil {
		return nil
	}
	client.SetSessionKey(sess.SessionKey)
	e.scrobbler = lastfm.NewScrobbler(client, e.store, lastfm.DefaultRetryInterval, e.logger)
	e.closers = append(e.closers, e.scrobbler.Close)
	return e.scrobbler
}

// release runs closers in reverse order.
func (e *Engine) release() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

// Close saves the session and stops everything.
func (e *Engine) Close() error {
	var err error
	if e.mpris != nil {
		err = errors.Join(err, e.mpris.Close())
	}
	if e.playback != nil {
		if perr := e.playback.Close(); perr != nil {
			err = errors.Join(err, fmt.Errorf("save session: %w", perr))
		}
	}
	e.release()
	return err
}

// Playback exposes the full transport.
func (e *Engine) Playback() playback.Service { return e.playback }

func (e *Engine) Library() *library.Library { return e.library }

// Downloads is nil when the catalog offers no download pipeline.
func (e *Engine) Downloads() *downloads.Manager { return e.downloads }

func (e *Engine) Equalizer() *equalizer.Equalizer { return e.equalizer }

// Lastfm returns the configured client, or nil without API credentials.
func (e *Engine) Lastfm() *lastfm.Client { return e.lastfm }

func (e *Engine) Facts() playback.Facts { return e.playback.Facts() }

func (e *Engine) Subscribe() *playback.Subscription { return e.playback.Subscribe() }

func (e *Engine) Play(track catalog.Track) error { return e.playback.Play(track) }

func (e *Engine) PlayQueue(tracks []catalog.Track, start int) error {
	return e.playback.PlayQueue(tracks, start)
}

func (e *Engine) TogglePlay() error { return e.playback.TogglePlay() }

func (e *Engine) Seek(fraction float64) error { return e.playback.Seek(fraction) }

func (e *Engine) Next() error { return e.playback.Next() }

func (e *Engine) Previous() error { return e.playback.Previous() }

func (e *Engine) SetVolume(v float64) error { return e.playback.SetVolume(v) }

// SeekBy moves the position by d, clamped to the track.
func (e *Engine) SeekBy(d time.Duration) error {
	f := e.playback.Facts()
	pos := f.Position
	if f.State == playback.StateReady {
		pos = f.ResumePosition
	}
	return e.playback.SeekTo(max(pos+d, 0))
}

func (e *Engine) ToggleShuffle() bool { return e.playback.ToggleShuffle() }

func (e *Engine) CycleRepeat() playback.RepeatMode { return e.playback.CycleRepeat() }

// Restore loads the saved session without touching the network.
func (e *Engine) Restore() error { return e.playback.Restore() }

// Like toggles the liked state of track and reports the new state.
func (e *Engine) Like(track catalog.Track) (bool, error) {
	liked, err := e.library.ToggleLike(track)
	if err != nil {
		return liked, errors.New(errmsg.Format(errmsg.OpLikeToggle, err))
	}
	return liked, nil
}

// LikeCurrent toggles the liked state of the current track.
func (e *Engine) LikeCurrent() (bool, error) {
	cur := e.playback.Facts().CurrentTrack
	if cur == nil {
		return false, nil
	}
	return e.Like(*cur)
}

// StartDownload queues a download of track. It returns false when the track
// is already downloaded or being downloaded, or downloads are unavailable.
func (e *Engine) StartDownload(track catalog.Track) bool {
	if e.downloads == nil {
		return false
	}
	return e.downloads.Start(track)
}

// DownloadCurrent queues a download of the current track.
func (e *Engine) DownloadCurrent() bool {
	cur := e.playback.Facts().CurrentTrack
	if cur == nil {
		return false
	}
	return e.StartDownload(*cur)
}

// PlayCollection replaces the queue with a playlist or album and plays its
// first track.
func (e *Engine) PlayCollection(ctx context.Context, id string) error {
	c, err := e.catalog.GetPlaylistOrAlbum(ctx, id)
	if err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpCollectionLoad, id, err))
	}
	if len(c.Tracks) == 0 {
		return ErrEmptyCollection
	}
	e.logger.Info("playing collection", "id", c.ID, "title", c.Title, "tracks", len(c.Tracks))
	return e.playback.PlayQueue(c.Tracks, 0)
}

// PlayIDs resolves metadata for each video id or URL and plays them as a
// queue. Ids whose metadata cannot be fetched are queued bare.
func (e *Engine) PlayIDs(ctx context.Context, ids []string) error {
	tracks, err := e.LookupTracks(ctx, ids)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return ErrEmptyCollection
	}
	return e.playback.PlayQueue(tracks, 0)
}

// LookupTracks turns ids or URLs into tracks.
func (e *Engine) LookupTracks(ctx context.Context, ids []string) ([]catalog.Track, error) {
	return LookupTracks(ctx, e.catalog, ids, e.logger)
}

// LookupTracks turns video ids or URLs into tracks using c. Metadata that
// cannot be fetched leaves a bare track titled with its id. An invalid id
// fails the whole lookup.
func LookupTracks(ctx context.Context, c catalog.Catalog, ids []string, logger *log.Logger) ([]catalog.Track, error) {
	src, _ := c.(catalog.TrackSource)
	tracks := make([]catalog.Track, 0, len(ids))
	for _, raw := range ids {
		id, err := catalog.VideoID(raw)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", raw, err)
		}
		if src == nil {
			tracks = append(tracks, catalog.Track{ID: id, Title: id})
			continue
		}
		t, err := src.GetTrack(ctx, id)
		if err != nil {
			logger.Warn(errmsg.FormatWith(errmsg.OpTrackLoad, id, err))
			tracks = append(tracks, catalog.Track{ID: id, Title: id})
			continue
		}
		tracks = append(tracks, *t)
	}
	return tracks, nil
}
