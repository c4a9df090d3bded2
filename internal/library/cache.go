package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/state"
	"github.com/llehouerou/vyra/internal/stream"
)

const fetchTimeout = 5 * time.Minute

// DefaultCacheDir returns the XDG cache directory for audio files.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "vyra", "audio")
}

// CacheOptions configures an AudioCache.
type CacheOptions struct {
	Dir      string // defaults to DefaultCacheDir
	Capacity int    // defaults to DefaultCacheSize
	Enabled  bool
	Client   *http.Client
}

// AudioCache keeps the audio of recently played tracks on disk.
// Writes happen in the background; failures are logged and dropped.
type AudioCache struct {
	dir    string
	client *http.Client
	store  Store
	logger *log.Logger

	mu       sync.Mutex
	set      *CacheSet
	enabled  bool
	inflight map[string]bool
	wg       sync.WaitGroup
}

// NewAudioCache loads the persisted cache set.
func NewAudioCache(store Store, opts CacheOptions, logger *log.Logger) (*AudioCache, error) {
	dir := opts.Dir
	if dir == "" {
		dir = DefaultCacheDir()
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	cached, err := store.LoadTrackList(state.ListCached)
	if err != nil {
		return nil, fmt.Errorf("load cached tracks: %w", err)
	}
	set := NewCacheSet(opts.Capacity)
	for _, t := range cached {
		set.Add(t)
	}
	return &AudioCache{
		dir:      dir,
		client:   client,
		store:    store,
		logger:   logger.With("component", "cache"),
		set:      set,
		enabled:  opts.Enabled,
		inflight: make(map[string]bool),
	}, nil
}

// Dir returns the cache directory.
func (c *AudioCache) Dir() string {
	return c.dir
}

// SetCacheEnabled turns background caching on or off. Cached files are kept.
func (c *AudioCache) SetCacheEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func (c *AudioCache) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// IsCached reports whether the track's audio is in the cache.
func (c *AudioCache) IsCached(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set.Contains(id)
}

// Tracks returns the cached tracks, oldest first.
func (c *AudioCache) Tracks() []catalog.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set.Tracks()
}

// CachedPath returns the file holding the track's audio.
func (c *AudioCache) CachedPath(id string) (string, bool) {
	c.mu.Lock()
	cached := c.set.Contains(id)
	c.mu.Unlock()
	if !cached {
		return "", false
	}
	matches, err := filepath.Glob(filepath.Join(c.dir, fileKey(id)+".*"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// Store caches the audio behind loc in the background. It does nothing if
// caching is disabled or the track is cached or being cached.
func (c *AudioCache) Store(track catalog.Track, loc stream.Locator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || loc.URL == "" || c.set.Contains(track.ID) || c.inflight[track.ID] {
		return
	}
	c.inflight[track.ID] = true
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.fetch(track, loc)
	}()
}

// Wait blocks until background writes finish.
func (c *AudioCache) Wait() {
	c.wg.Wait()
}

func (c *AudioCache) fetch(track catalog.Track, loc stream.Locator) {
	defer func() {
		c.mu.Lock()
		delete(c.inflight, track.ID)
		c.mu.Unlock()
	}()

	start := time.Now()
	n, err := c.download(track.ID, loc)
	if err != nil {
		c.logger.Debug("cache write failed", "track", track.ID, "err", err)
		return
	}

	c.mu.Lock()
	evicted := c.set.Add(track)
	tracks := c.set.Tracks()
	c.mu.Unlock()

	if err := c.store.SaveTrackList(state.ListCached, tracks); err != nil {
		c.logger.Debug("save cached list failed", "err", err)
	}
	for _, t := range evicted {
		c.removeFiles(t.ID)
	}
	c.logger.Debug("cached", "track", track.ID, "size", humanize.Bytes(uint64(n)),
		"elapsed", time.Since(start), "evicted", len(evicted))
}

// download writes the stream to <dir>/<id><ext> through a temp file.
func (c *AudioCache) download(id string, loc stream.Locator) (int64, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	key := fileKey(id)
	tmp, err := os.CreateTemp(c.dir, key+"-*.part")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}

	dest := filepath.Join(c.dir, key+catalog.Extension(loc.MimeType))
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	return n, nil
}

// RemoveFromCache deletes the track's cached audio.
func (c *AudioCache) RemoveFromCache(id string) error {
	c.mu.Lock()
	removed := c.set.Remove(id)
	tracks := c.set.Tracks()
	c.mu.Unlock()
	if !removed {
		return nil
	}
	if err := c.removeFiles(id); err != nil {
		return err
	}
	return c.store.SaveTrackList(state.ListCached, tracks)
}

// ClearCache deletes every cached file.
func (c *AudioCache) ClearCache() error {
	c.mu.Lock()
	tracks := c.set.Tracks()
	c.set.Clear()
	c.mu.Unlock()

	var errs []error
	for _, t := range tracks {
		if err := c.removeFiles(t.ID); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.store.SaveTrackList(state.ListCached, nil); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *AudioCache) removeFiles(id string) error {
	matches, err := filepath.Glob(filepath.Join(c.dir, fileKey(id)+".*"))
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// fileKey maps a track id onto a file name stem. Letters, digits, '-' and
// '_' are kept and every other byte becomes %XX, so stems never contain a
// dot, a path separator or a glob metacharacter and distinct ids never
// share a stem.
func fileKey(id string) string {
	var b strings.Builder
	for i := 0; i < len(id); i++ {
		ch := id[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9',
			ch == '-', ch == '_':
			b.WriteByte(ch)
		default:
			fmt.Fprintf(&b, "%%%02X", ch)
		}
	}
	return b.String()
}
