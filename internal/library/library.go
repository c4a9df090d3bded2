// Package library keeps the user's liked and recently played tracks and the
// offline audio cache. It reacts to playback through PlaybackStarted.
package library

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/state"
	"github.com/llehouerou/vyra/internal/stream"
)

// RecentLimit is the number of recently played tracks kept.
const RecentLimit = 100

// Store persists named track lists.
type Store interface {
	LoadTrackList(name string) ([]catalog.Track, error)
	SaveTrackList(name string, tracks []catalog.Track) error
}

// Library holds likes and history. It is safe for concurrent use.
type Library struct {
	store  Store
	cache  *AudioCache
	logger *log.Logger

	mu     sync.Mutex
	liked  []catalog.Track
	recent []catalog.Track
}

// New loads the persisted lists. cache may be nil.
func New(store Store, cache *AudioCache, logger *log.Logger) (*Library, error) {
	liked, err := store.LoadTrackList(state.ListLiked)
	if err != nil {
		return nil, fmt.Errorf("load liked tracks: %w", err)
	}
	recent, err := store.LoadTrackList(state.ListRecent)
	if err != nil {
		return nil, fmt.Errorf("load recent tracks: %w", err)
	}
	return &Library{
		store:  store,
		cache:  cache,
		logger: logger.With("component", "library"),
		liked:  liked,
		recent: recent,
	}, nil
}

// Cache returns the audio cache, or nil if caching is not configured.
func (l *Library) Cache() *AudioCache {
	return l.cache
}

// ToggleLike likes or unlikes track and returns the new state.
// Newly liked tracks go to the front.
func (l *Library) ToggleLike(track catalog.Track) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	liked := indexOf(l.liked, track.ID) < 0
	if err := l.setLikedLocked(track, liked); err != nil {
		return !liked, err
	}
	return liked, nil
}

// SetLiked sets the like state of track. Setting the current state is a
// no-op.
func (l *Library) SetLiked(track catalog.Track, liked bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if (indexOf(l.liked, track.ID) >= 0) == liked {
		return nil
	}
	return l.setLikedLocked(track, liked)
}

func (l *Library) setLikedLocked(track catalog.Track, liked bool) error {
	prev := l.liked
	if liked {
		l.liked = append([]catalog.Track{track.Clone()}, l.liked...)
	} else {
		l.liked = slices.DeleteFunc(slices.Clone(l.liked), func(t catalog.Track) bool {
			return t.ID == track.ID
		})
	}
	if err := l.store.SaveTrackList(state.ListLiked, l.liked); err != nil {
		l.liked = prev
		return fmt.Errorf("save liked tracks: %w", err)
	}
	l.logger.Debug("like changed", "track", track.ID, "liked", liked)
	return nil
}

// IsLiked reports whether the track id is liked.
func (l *Library) IsLiked(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return indexOf(l.liked, id) >= 0
}

// Liked returns the liked tracks, newest first.
func (l *Library) Liked() []catalog.Track {
	l.mu.Lock()
	defer l.mu.Unlock()
	return catalog.CloneTracks(l.liked)
}

// RecordPlayed moves track to the front of the recently played list.
func (l *Library) RecordPlayed(track catalog.Track) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	recent := make([]catalog.Track, 0, min(len(l.recent)+1, RecentLimit))
	recent = append(recent, track.Clone())
	for _, t := range l.recent {
		if len(recent) == RecentLimit {
			break
		}
		if t.ID != track.ID {
			recent = append(recent, t)
		}
	}
	l.recent = recent
	if err := l.store.SaveTrackList(state.ListRecent, l.recent); err != nil {
		return fmt.Errorf("save recent tracks: %w", err)
	}
	return nil
}

// Recent returns the recently played tracks, most recent first.
func (l *Library) Recent() []catalog.Track {
	l.mu.Lock()
	defer l.mu.Unlock()
	return catalog.CloneTracks(l.recent)
}

// PlaybackStarted records the track as played and caches its audio in the
// background.
func (l *Library) PlaybackStarted(track catalog.Track, loc stream.Locator) {
	if err := l.RecordPlayed(track); err != nil {
		l.logger.Warn("record played failed", "track", track.ID, "err", err)
	}
	if l.cache != nil {
		l.cache.Store(track, loc)
	}
}

// PlaybackEnded implements playback.Listener.
func (l *Library) PlaybackEnded(catalog.Track, time.Duration) {}

func indexOf(tracks []catalog.Track, id string) int {
	return slices.IndexFunc(tracks, func(t catalog.Track) bool { return t.ID == id })
}
