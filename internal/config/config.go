package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tomlenc "github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/vyra/internal/catalog"
)

type Config struct {
	Playback      PlaybackConfig      `koanf:"playback" toml:"playback"`
	Catalog       CatalogConfig       `koanf:"catalog" toml:"catalog"`
	Cache         CacheConfig         `koanf:"cache" toml:"cache"`
	Downloads     DownloadsConfig     `koanf:"downloads" toml:"downloads"`
	Lastfm        LastfmConfig        `koanf:"lastfm" toml:"lastfm"`
	Notifications NotificationsConfig `koanf:"notifications" toml:"notifications"`
	Log           LogConfig           `koanf:"log" toml:"log"`
}

// PlaybackConfig tunes the transport.
type PlaybackConfig struct {
	ResolveTimeoutSeconds   int   `koanf:"resolve_timeout_seconds" toml:"resolve_timeout_seconds"`     // default: 10
	LoadTimeoutSeconds      int   `koanf:"load_timeout_seconds" toml:"load_timeout_seconds"`           // default: 10
	SaveIntervalSeconds     int   `koanf:"save_interval_seconds" toml:"save_interval_seconds"`         // default: 5
	RestartThresholdSeconds int   `koanf:"restart_threshold_seconds" toml:"restart_threshold_seconds"` // default: 3
	Autoplay                *bool `koanf:"autoplay" toml:"autoplay"`                                   // extend the queue with related tracks (default: true)
}

// CatalogConfig bounds the request rate to the catalog.
type CatalogConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second" toml:"requests_per_second"` // default: 4
	Burst             int     `koanf:"burst" toml:"burst"`                             // default: 4
}

// CacheConfig controls the audio cache of played tracks.
type CacheConfig struct {
	Enabled  *bool  `koanf:"enabled" toml:"enabled"`     // default: true
	MaxSongs int    `koanf:"max_songs" toml:"max_songs"` // default: 40
	Dir      string `koanf:"dir" toml:"dir"`             // default: $XDG_CACHE_HOME/vyra/audio
}

// DownloadsConfig controls where and how tracks are downloaded.
type DownloadsConfig struct {
	Path    string `koanf:"path" toml:"path"`       // default: $XDG_MUSIC_DIR/vyra
	Quality string `koanf:"quality" toml:"quality"` // "normal", "high" or "very_high" (default: "high")
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey    string `koanf:"api_key" toml:"api_key"`
	APISecret string `koanf:"api_secret" toml:"api_secret"`
}

type NotificationsConfig struct {
	Enabled *bool `koanf:"enabled" toml:"enabled"` // default: true
}

type LogConfig struct {
	Level string `koanf:"level" toml:"level"` // debug, info, warn, error (default: "info")
}

// Load reads the config files in order of priority, the last one winning.
// extra is an additional file given on the command line; it must exist.
func Load(extra string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}
	if extra != "" {
		extra = expandPath(extra)
		if err := k.Load(file.Provider(extra), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", extra, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Cache.Dir = expandPath(cfg.Cache.Dir)
	cfg.Downloads.Path = expandPath(cfg.Downloads.Path)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/vyra/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "vyra", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// DefaultPath is where WriteDefault puts the user config.
func DefaultPath() string {
	return getConfigPaths()[0]
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// Playback holds the transport settings with defaults applied.
type Playback struct {
	ResolveTimeout   time.Duration
	LoadTimeout      time.Duration
	SaveInterval     time.Duration
	RestartThreshold time.Duration
	Autoplay         bool
}

// GetPlaybackConfig returns the playback settings with defaults applied.
func (c *Config) GetPlaybackConfig() Playback {
	p := c.Playback
	return Playback{
		ResolveTimeout:   seconds(p.ResolveTimeoutSeconds, 10),
		LoadTimeout:      seconds(p.LoadTimeoutSeconds, 10),
		SaveInterval:     seconds(p.SaveIntervalSeconds, 5),
		RestartThreshold: seconds(p.RestartThresholdSeconds, 3),
		Autoplay:         boolOr(p.Autoplay, true),
	}
}

// GetCatalogConfig returns the rate limits with defaults applied.
func (c *Config) GetCatalogConfig() CatalogConfig {
	cfg := c.Catalog
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 4
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	return cfg
}

// Cache holds the cache settings with defaults applied.
type Cache struct {
	Enabled  bool
	MaxSongs int
	Dir      string
}

func (c *Config) GetCacheConfig() Cache {
	cfg := Cache{
		Enabled:  boolOr(c.Cache.Enabled, true),
		MaxSongs: c.Cache.MaxSongs,
		Dir:      c.Cache.Dir,
	}
	if cfg.MaxSongs <= 0 {
		cfg.MaxSongs = 40
	}
	if cfg.Dir == "" {
		cfg.Dir = filepath.Join(xdg.CacheHome, "vyra", "audio")
	}
	return cfg
}

// Downloads holds the download settings with defaults applied.
type Downloads struct {
	Path    string
	Quality catalog.Quality
}

func (c *Config) GetDownloadsConfig() Downloads {
	path := c.Downloads.Path
	if path == "" {
		path = filepath.Join(xdg.UserDirs.Music, "vyra")
	}
	return Downloads{Path: path, Quality: catalog.ParseQuality(c.Downloads.Quality)}
}

// NotificationsEnabled reports whether desktop notifications are on.
func (c *Config) NotificationsEnabled() bool {
	return boolOr(c.Notifications.Enabled, true)
}

// LogLevel parses the configured level, defaulting to info.
func (c *Config) LogLevel() log.Level {
	if c.Log.Level == "" {
		return log.InfoLevel
	}
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Default returns the configuration WriteDefault writes.
func Default() *Config {
	on := true
	return &Config{
		Playback: PlaybackConfig{
			ResolveTimeoutSeconds:   10,
			LoadTimeoutSeconds:      10,
			SaveIntervalSeconds:     5,
			RestartThresholdSeconds: 3,
			Autoplay:                &on,
		},
		Catalog:       CatalogConfig{RequestsPerSecond: 4, Burst: 4},
		Cache:         CacheConfig{Enabled: &on, MaxSongs: 40},
		Downloads:     DownloadsConfig{Quality: string(catalog.QualityHigh)},
		Notifications: NotificationsConfig{Enabled: &on},
		Log:           LogConfig{Level: "info"},
	}
}

// WriteDefault writes the default configuration to path. An existing file
// is left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tomlenc.NewEncoder(f).Encode(Default()); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
