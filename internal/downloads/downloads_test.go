//nolint:goconst // test cases intentionally repeat strings for readability
package downloads

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/state"
)

// fakePipeline writes a small file per request. A track id in block waits
// until release is closed.
type fakePipeline struct {
	mu      sync.Mutex
	calls   map[string]int
	fail    map[string]error
	block   map[string]bool
	release chan struct{}
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{
		calls:   make(map[string]int),
		fail:    make(map[string]error),
		block:   make(map[string]bool),
		release: make(chan struct{}),
	}
}

func (p *fakePipeline) Download(ctx context.Context, req Request, progress func(float64)) (string, error) {
	p.mu.Lock()
	p.calls[req.TrackID]++
	err := p.fail[req.TrackID]
	block := p.block[req.TrackID]
	p.mu.Unlock()

	if block {
		select {
		case <-p.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	progress(0.5)
	path := filepath.Join(req.Destination, FileName(req.Artist, req.Title, req.TrackID)+".m4a")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (p *fakePipeline) Calls(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

func (p *fakePipeline) setFail(id string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[id] = err
}

func testTrack(id string) catalog.Track {
	return catalog.Track{ID: id, Title: "Song " + id, Artists: []catalog.Artist{{Name: "Artist"}}}
}

func newTestManager(t *testing.T, p Pipeline, store Store) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := New(p, store, Options{Destination: dir, Quality: catalog.QualityHigh}, log.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, dir
}

func TestManager_StartCompletes(t *testing.T) {
	p := newFakePipeline()
	store := state.NewMock()
	m, dir := newTestManager(t, p, store)

	require.True(t, m.Start(testTrack("a")))
	m.Wait()

	job, ok := m.Job("a")
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.InDelta(t, 100, job.Progress, 0.001)
	assert.Equal(t, filepath.Join(dir, "Artist - Song a.m4a"), job.Path)
	assert.True(t, m.IsDownloaded("a"))

	path, ok := m.Path("a")
	require.True(t, ok)
	assert.FileExists(t, path)

	saved, err := store.LoadTrackList(state.ListDownloaded)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "a", saved[0].ID)
}

func TestManager_StartIsIdempotentWhileRunning(t *testing.T) {
	p := newFakePipeline()
	p.block["a"] = true
	m, _ := newTestManager(t, p, state.NewMock())

	assert.True(t, m.Start(testTrack("a")))
	assert.False(t, m.Start(testTrack("a")))
	assert.False(t, m.Start(testTrack("a")))

	close(p.release)
	m.Wait()

	assert.Equal(t, 1, p.Calls("a"))
	assert.Len(t, m.Jobs(), 1)
}

func TestManager_StartSkipsDownloaded(t *testing.T) {
	p := newFakePipeline()
	m, _ := newTestManager(t, p, state.NewMock())

	require.True(t, m.Start(testTrack("a")))
	m.Wait()
	assert.False(t, m.Start(testTrack("a")))
	assert.Equal(t, 1, p.Calls("a"))
}

func TestManager_FailureAndRetry(t *testing.T) {
	p := newFakePipeline()
	p.setFail("a", errors.New("network error"))
	m, _ := newTestManager(t, p, state.NewMock())

	require.True(t, m.Start(testTrack("a")))
	m.Wait()

	job, _ := m.Job("a")
	assert.Equal(t, StatusError, job.Status)
	assert.Equal(t, "Failed to download track: network error", job.Error)
	assert.False(t, m.IsDownloaded("a"))

	p.setFail("a", nil)
	require.True(t, m.Retry("a"))
	m.Wait()

	job, _ = m.Job("a")
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Empty(t, job.Error)
	assert.Equal(t, 2, p.Calls("a"))
}

func TestManager_RetryRequiresFailedJob(t *testing.T) {
	m, _ := newTestManager(t, newFakePipeline(), state.NewMock())

	assert.False(t, m.Retry("missing"))
	require.True(t, m.Start(testTrack("a")))
	m.Wait()
	assert.False(t, m.Retry("a"))
}

func TestManager_StartAfterFailureStartsOver(t *testing.T) {
	p := newFakePipeline()
	p.setFail("a", errors.New("boom"))
	m, _ := newTestManager(t, p, state.NewMock())

	require.True(t, m.Start(testTrack("a")))
	m.Wait()
	p.setFail("a", nil)
	require.True(t, m.Start(testTrack("a")))
	m.Wait()

	job, _ := m.Job("a")
	assert.Equal(t, StatusCompleted, job.Status)
}

func TestManager_Dismiss(t *testing.T) {
	p := newFakePipeline()
	p.block["b"] = true
	m, _ := newTestManager(t, p, state.NewMock())

	require.True(t, m.Start(testTrack("a")))
	require.True(t, m.Start(testTrack("b")))
	require.Eventually(t, func() bool {
		j, _ := m.Job("a")
		return j.Status.Terminal()
	}, time.Second, time.Millisecond)

	assert.False(t, m.Dismiss("b"), "running job cannot be dismissed")
	assert.True(t, m.Dismiss("a"))
	_, ok := m.Job("a")
	assert.False(t, ok)
	assert.True(t, m.IsDownloaded("a"), "dismissing keeps the file")

	close(p.release)
	m.Wait()
}

func TestManager_RemoveDownloaded(t *testing.T) {
	store := state.NewMock()
	m, _ := newTestManager(t, newFakePipeline(), store)

	require.True(t, m.Start(testTrack("a")))
	m.Wait()
	path, _ := m.Path("a")

	require.NoError(t, m.RemoveDownloaded("a"))
	assert.NoFileExists(t, path)
	assert.False(t, m.IsDownloaded("a"))
	assert.Empty(t, m.Downloaded())

	saved, err := store.LoadTrackList(state.ListDownloaded)
	require.NoError(t, err)
	assert.Empty(t, saved)

	assert.NoError(t, m.RemoveDownloaded("a"), "removing twice is a no-op")
}

func TestManager_LoadsPersistedDownloads(t *testing.T) {
	store := state.NewMock()
	first, _ := newTestManager(t, newFakePipeline(), store)
	require.True(t, first.Start(testTrack("a")))
	first.Wait()
	path, _ := first.Path("a")

	second, _ := newTestManager(t, newFakePipeline(), store)
	assert.True(t, second.IsDownloaded("a"))
	got, ok := second.Path("a")
	assert.True(t, ok)
	assert.Equal(t, path, got)
	require.Len(t, second.Downloaded(), 1)
}

func TestManager_OnChangeReportsLifecycle(t *testing.T) {
	m, _ := newTestManager(t, newFakePipeline(), state.NewMock())

	var mu sync.Mutex
	var seen []Status
	m.OnChange(func(j Job) {
		mu.Lock()
		defer mu.Unlock()
		if len(seen) == 0 || seen[len(seen)-1] != j.Status {
			seen = append(seen, j.Status)
		}
	})

	require.True(t, m.Start(testTrack("a")))
	m.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusPending, StatusDownloading, StatusCompleted}, seen)
}

func TestManager_CloseCancelsRunning(t *testing.T) {
	p := newFakePipeline()
	p.block["a"] = true
	dir := t.TempDir()
	m, err := New(p, state.NewMock(), Options{Destination: dir}, log.New(io.Discard))
	require.NoError(t, err)

	require.True(t, m.Start(testTrack("a")))
	m.Close()

	job, _ := m.Job("a")
	assert.Equal(t, StatusError, job.Status)
	assert.Contains(t, job.Error, "context canceled")
}

func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusDownloading, false},
		{StatusCompleted, true},
		{StatusError, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name   string
		artist string
		title  string
		id     string
		want   string
	}{
		{"artist and title", "Daft Punk", "One More Time", "x", "Daft Punk - One More Time"},
		{"invalid characters", "AC/DC", "What? Why: <Now>", "x", "AC-DC - What Why- Now"},
		{"title only", "", "Intro", "x", "Intro"},
		{"artist only", "Solo", "", "x", "Solo"},
		{"falls back to id", "", "", "dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"trims dots", "...", "Song.", "x", "Song"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileName(tt.artist, tt.title, tt.id); got != tt.want {
				t.Errorf("FileName(%q, %q, %q) = %q, want %q", tt.artist, tt.title, tt.id, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename_Truncates(t *testing.T) {
	got := sanitizeFilename(strings.Repeat("a", 300))
	if len(got) != 200 {
		t.Errorf("len(sanitizeFilename(300 chars)) = %d, want 200", len(got))
	}
}

func TestWriteFile_ReportsProgress(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.m4a")
	var last float64
	n, err := writeFile(dest, strings.NewReader("0123456789"), 10, func(f float64) { last = f })
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.InDelta(t, 1.0, last, 0.0001)

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(b))

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(dest), "*.part"))
	assert.Empty(t, leftovers)
}

func TestTaggable(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a/Song.m4a", true},
		{"a/Song.M4A", true},
		{"a/Song.mp4", true},
		{"a/Song.webm", false},
		{"a/Song.mp3", false},
		{"a/Song", false},
	}
	for _, tt := range tests {
		if got := taggable(tt.path); got != tt.want {
			t.Errorf("taggable(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWriteTags_SkipsOtherContainers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.webm")
	require.NoError(t, os.WriteFile(path, []byte("webm data"), 0o644))

	require.NoError(t, writeTags(path, Request{TrackID: "x", Title: "Song"}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "webm data", string(b))
}
