// Package session saves and restores the listening session: queue, cursor,
// current track, volume, modes and resume position.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/llehouerou/vyra/internal/catalog"
)

// Keys under which session fields are stored.
const (
	KeyQueue    = "session.queue"
	KeyIndex    = "session.index"
	KeyCurrent  = "session.current"
	KeyVolume   = "session.volume"
	KeyShuffle  = "session.shuffle"
	KeyRepeat   = "session.repeat"
	KeyResume   = "session.resume"
	KeyDuration = "session.duration"
	KeySavedAt  = "session.saved_at"
)

// Snapshot is a saved session.
type Snapshot struct {
	Tracks         []catalog.Track
	Index          int
	CurrentTrack   *catalog.Track
	Volume         float64
	Shuffle        bool
	Repeat         string
	ResumePosition time.Duration
	Duration       time.Duration
	SavedAt        time.Time
}

// Store is the key/value persistence a Persister writes through.
type Store interface {
	Get(key string) ([]byte, bool, error)
	SetMany(values map[string][]byte) error
}

// Persister reads and writes snapshots.
type Persister struct {
	store Store
}

func NewPersister(store Store) *Persister {
	return &Persister{store: store}
}

// storedTrack is the JSON form of a catalog.Track.
type storedTrack struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Artists    []catalog.Artist `json:"artists,omitempty"`
	Album      *catalog.Album   `json:"album,omitempty"`
	DurationMS int64            `json:"duration_ms,omitempty"`
	Thumbnail  string           `json:"thumbnail,omitempty"`
	Explicit   bool             `json:"explicit,omitempty"`
}

func toStored(t catalog.Track) storedTrack {
	return storedTrack{
		ID:         t.ID,
		Title:      t.Title,
		Artists:    t.Artists,
		Album:      t.Album,
		DurationMS: t.Duration.Milliseconds(),
		Thumbnail:  t.Thumbnail,
		Explicit:   t.Explicit,
	}
}

func (s storedTrack) track() catalog.Track {
	return catalog.Track{
		ID:        s.ID,
		Title:     s.Title,
		Artists:   s.Artists,
		Album:     s.Album,
		Duration:  time.Duration(s.DurationMS) * time.Millisecond,
		Thumbnail: s.Thumbnail,
		Explicit:  s.Explicit,
	}
}

// Save writes every field of snap in one batch.
func (p *Persister) Save(snap Snapshot) error {
	queue := make([]storedTrack, len(snap.Tracks))
	for i, t := range snap.Tracks {
		queue[i] = toStored(t)
	}
	var current *storedTrack
	if snap.CurrentTrack != nil {
		c := toStored(*snap.CurrentTrack)
		current = &c
	}
	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	fields := map[string]any{
		KeyQueue:    queue,
		KeyIndex:    snap.Index,
		KeyCurrent:  current,
		KeyVolume:   snap.Volume,
		KeyShuffle:  snap.Shuffle,
		KeyRepeat:   snap.Repeat,
		KeyResume:   snap.ResumePosition.Milliseconds(),
		KeyDuration: snap.Duration.Milliseconds(),
		KeySavedAt:  savedAt.Unix(),
	}

	values := make(map[string][]byte, len(fields))
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		values[k] = b
	}
	if err := p.store.SetMany(values); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the saved snapshot, or nil if no session was ever saved.
func (p *Persister) Load() (*Snapshot, error) {
	var queue []storedTrack
	found, err := p.read(KeyQueue, &queue)
	if err != nil || !found {
		return nil, err
	}

	snap := &Snapshot{Index: -1, Volume: 1, Repeat: "off"}
	snap.Tracks = make([]catalog.Track, len(queue))
	for i, t := range queue {
		snap.Tracks[i] = t.track()
	}

	var current *storedTrack
	var resumeMS, durationMS, savedAt int64
	reads := []struct {
		key string
		dst any
	}{
		{KeyIndex, &snap.Index},
		{KeyCurrent, &current},
		{KeyVolume, &snap.Volume},
		{KeyShuffle, &snap.Shuffle},
		{KeyRepeat, &snap.Repeat},
		{KeyResume, &resumeMS},
		{KeyDuration, &durationMS},
		{KeySavedAt, &savedAt},
	}
	for _, r := range reads {
		if _, err := p.read(r.key, r.dst); err != nil {
			return nil, err
		}
	}

	if current != nil {
		t := current.track()
		snap.CurrentTrack = &t
	}
	snap.ResumePosition = time.Duration(resumeMS) * time.Millisecond
	snap.Duration = time.Duration(durationMS) * time.Millisecond
	if savedAt > 0 {
		snap.SavedAt = time.Unix(savedAt, 0)
	}
	return snap, nil
}

func (p *Persister) read(key string, dst any) (bool, error) {
	b, ok, err := p.store.Get(key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
