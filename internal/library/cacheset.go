package library

import (
	"github.com/llehouerou/vyra/internal/catalog"
)

// DefaultCacheSize is the default number of tracks kept in the audio cache.
const DefaultCacheSize = 40

// CacheSet is a bounded set of tracks kept in insertion order. When full,
// the oldest entries are evicted first. It is not safe for concurrent use.
type CacheSet struct {
	capacity int
	tracks   []catalog.Track
}

// NewCacheSet creates a set holding at most capacity tracks.
func NewCacheSet(capacity int) *CacheSet {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &CacheSet{capacity: capacity}
}

// Add inserts track unless its id is already present, and returns the
// tracks evicted to stay within capacity. Re-adding does not refresh an
// entry's position.
func (c *CacheSet) Add(track catalog.Track) []catalog.Track {
	if c.Contains(track.ID) {
		return nil
	}
	c.tracks = append(c.tracks, track.Clone())
	if len(c.tracks) <= c.capacity {
		return nil
	}
	excess := len(c.tracks) - c.capacity
	evicted := append([]catalog.Track(nil), c.tracks[:excess]...)
	c.tracks = append(c.tracks[:0:0], c.tracks[excess:]...)
	return evicted
}

// Remove deletes the track with id and reports whether it was present.
func (c *CacheSet) Remove(id string) bool {
	i := indexOf(c.tracks, id)
	if i < 0 {
		return false
	}
	c.tracks = append(c.tracks[:i:i], c.tracks[i+1:]...)
	return true
}

func (c *CacheSet) Clear() {
	c.tracks = nil
}

func (c *CacheSet) Contains(id string) bool {
	return indexOf(c.tracks, id) >= 0
}

// Tracks returns the cached tracks, oldest first.
func (c *CacheSet) Tracks() []catalog.Track {
	return catalog.CloneTracks(c.tracks)
}

func (c *CacheSet) Len() int {
	return len(c.tracks)
}

func (c *CacheSet) Capacity() int {
	return c.capacity
}
