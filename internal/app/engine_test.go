//nolint:goconst // test strings
package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/config"
	"github.com/llehouerou/vyra/internal/downloads"
	"github.com/llehouerou/vyra/internal/equalizer"
	"github.com/llehouerou/vyra/internal/notify"
	"github.com/llehouerou/vyra/internal/player"
	"github.com/llehouerou/vyra/internal/session"
	"github.com/llehouerou/vyra/internal/state"
)

type fakeCatalog struct {
	tracks      map[string]catalog.Track
	collections map[string]catalog.Collection
}

func (f *fakeCatalog) Search(context.Context, string) (*catalog.SearchResults, error) {
	return nil, catalog.ErrNotSupported
}

func (f *fakeCatalog) ResolveStream(_ context.Context, id string) (*catalog.Stream, error) {
	return &catalog.Stream{URL: "https://audio.example/" + id, MimeType: "audio/mp4"}, nil
}

func (f *fakeCatalog) GetPlaylistOrAlbum(_ context.Context, id string) (*catalog.Collection, error) {
	c, ok := f.collections[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &c, nil
}

func (f *fakeCatalog) GetArtist(context.Context, string) (*catalog.ArtistPage, error) {
	return nil, catalog.ErrNotSupported
}

func (f *fakeCatalog) GetTrack(_ context.Context, id string) (*catalog.Track, error) {
	t, ok := f.tracks[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &t, nil
}

type fakePipeline struct{}

func (fakePipeline) Download(_ context.Context, req downloads.Request, progress func(float64)) (string, error) {
	progress(1)
	return req.Destination + "/" + req.TrackID + ".m4a", nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (f *fakeNotifier) Notify(n notify.Notification) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return uint32(len(f.sent)), nil
}

func (f *fakeNotifier) Close(uint32) error { return nil }

func (f *fakeNotifier) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, n := range f.sent {
		out = append(out, n.Body)
	}
	return out
}

var (
	trackA = catalog.Track{ID: "aaaaaaaaaaa", Title: "First", Artists: []catalog.Artist{{Name: "Band"}}, Duration: 3 * time.Minute}
	trackB = catalog.Track{ID: "bbbbbbbbbbb", Title: "Second", Artists: []catalog.Artist{{Name: "Band"}}, Duration: 4 * time.Minute}
)

type harness struct {
	engine   *Engine
	sink     *player.Mock
	store    *state.Mock
	notifier *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	off := false
	cfg.Cache.Enabled = &off
	cfg.Cache.Dir = t.TempDir()
	cfg.Downloads.Path = t.TempDir()

	h := &harness{
		sink:     player.NewMock(),
		store:    state.NewMock(),
		notifier: &fakeNotifier{},
	}
	cat := &fakeCatalog{
		tracks: map[string]catalog.Track{trackA.ID: trackA, trackB.ID: trackB},
		collections: map[string]catalog.Collection{
			"PLmix":  {ID: "PLmix", Title: "Mix", Tracks: []catalog.Track{trackA, trackB}},
			"PLnone": {ID: "PLnone", Title: "Empty"},
		},
	}
	e, err := New(Options{
		Config:   cfg,
		Store:    h.store,
		Logger:   log.New(io.Discard),
		Catalog:  cat,
		Sink:     h.sink,
		Pipeline: fakePipeline{},
		Notifier: h.notifier,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	h.engine = e
	return h
}

// waitLoaded waits for the sink to receive a source and returns its generation.
func (h *harness) waitLoaded(t *testing.T, id string) uint64 {
	t.Helper()
	var gen uint64
	require.Eventually(t, func() bool {
		src, ok := h.sink.LastLoad()
		if !ok || src.URL != "https://audio.example/"+id {
			return false
		}
		gen = src.Generation
		return true
	}, 2*time.Second, 5*time.Millisecond)
	return gen
}

func TestEngine_PlayCollectionQueuesTracks(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.PlayCollection(context.Background(), "PLmix"))

	tracks, index := h.engine.Playback().Queue()
	require.Len(t, tracks, 2)
	assert.Equal(t, trackA.ID, tracks[0].ID)
	assert.Equal(t, 0, index)
	h.waitLoaded(t, trackA.ID)
}

func TestEngine_PlayCollectionErrors(t *testing.T) {
	h := newHarness(t)

	err := h.engine.PlayCollection(context.Background(), "PLnone")
	assert.ErrorIs(t, err, ErrEmptyCollection)

	err = h.engine.PlayCollection(context.Background(), "PLmissing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLmissing")
}

func TestEngine_StartedPlaybackReachesListeners(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.Play(trackA))
	gen := h.waitLoaded(t, trackA.ID)
	h.sink.EmitDataReady(gen, trackA.Duration)

	require.Eventually(t, func() bool {
		return h.engine.Facts().IsPlaying
	}, 2*time.Second, 5*time.Millisecond)

	recent := h.engine.Library().Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, trackA.ID, recent[0].ID)
	assert.Len(t, h.notifier.titles(), 1)
}

func TestEngine_LookupTracks(t *testing.T) {
	h := newHarness(t)

	tracks, err := h.engine.LookupTracks(context.Background(), []string{
		"https://www.youtube.com/watch?v=" + trackA.ID,
		"https://youtu.be/" + trackB.ID,
		"ccccccccccc",
	})
	require.NoError(t, err)
	require.Len(t, tracks, 3)
	assert.Equal(t, "First", tracks[0].Title)
	assert.Equal(t, "Second", tracks[1].Title)
	// unknown ids are queued bare
	assert.Equal(t, "ccccccccccc", tracks[2].Title)
}

func TestEngine_LookupTracksRejectsInvalidID(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.LookupTracks(context.Background(), []string{"short"})
	assert.Error(t, err)
}

func TestEngine_PlayIDs(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.PlayIDs(context.Background(), []string{trackB.ID, trackA.ID}))

	tracks, _ := h.engine.Playback().Queue()
	require.Len(t, tracks, 2)
	assert.Equal(t, trackB.ID, tracks[0].ID)
	h.waitLoaded(t, trackB.ID)

	assert.ErrorIs(t, h.engine.PlayIDs(context.Background(), nil), ErrEmptyCollection)
}

func TestEngine_Like(t *testing.T) {
	h := newHarness(t)

	liked, err := h.engine.Like(trackA)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, h.engine.Library().IsLiked(trackA.ID))

	liked, err = h.engine.Like(trackA)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestEngine_LikeCurrentWithoutTrack(t *testing.T) {
	h := newHarness(t)

	liked, err := h.engine.LikeCurrent()
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestEngine_LikeFailure(t *testing.T) {
	h := newHarness(t)
	h.store.SetWriteError(errors.New("disk full"))

	_, err := h.engine.Like(trackA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestEngine_StartDownload(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.engine.StartDownload(trackA))
	h.engine.Downloads().Wait()

	assert.True(t, h.engine.Downloads().IsDownloaded(trackA.ID))
	assert.False(t, h.engine.StartDownload(trackA))
}

func TestEngine_EqualizerDrivesSink(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.engine.Equalizer().SetPreset(equalizer.PresetBassBoost))

	bands := h.sink.Bands()
	require.Len(t, bands, equalizer.BandCount)
	assert.Greater(t, bands[0].Gain, 0.0)
}

func TestEngine_CloseSavesSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Playback().Enqueue(trackA, trackB))

	require.NoError(t, h.engine.Close())

	_, ok, err := h.store.Get(session.KeyQueue)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEngine_DownloadCurrent(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.engine.DownloadCurrent())

	require.NoError(t, h.engine.Playback().Enqueue(trackB))
	require.True(t, h.engine.DownloadCurrent())
	h.engine.Downloads().Wait()
	assert.True(t, h.engine.Downloads().IsDownloaded(trackB.ID))
}

func TestEngine_SeekByBeforeLoadSetsResume(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.engine.Playback().Enqueue(trackA))

	require.NoError(t, h.engine.SeekBy(30*time.Second))
	assert.InDelta(t, float64(30*time.Second), float64(h.engine.Facts().ResumePosition), float64(time.Millisecond))

	require.NoError(t, h.engine.SeekBy(-time.Hour))
	assert.Zero(t, h.engine.Facts().ResumePosition)
}
