package catalog

import (
	"strings"
	"time"
)

// Track describes one playable piece of audio.
// Tracks are values: copy them, never mutate a shared one.
type Track struct {
	ID        string
	Title     string
	Artists   []Artist
	Album     *Album
	Duration  time.Duration // 0 if unknown
	Thumbnail string
	Explicit  bool
}

// Artist is a credited artist. ID may be empty.
type Artist struct {
	ID   string
	Name string
}

// Album identifies the album a track belongs to.
type Album struct {
	ID   string
	Name string
}

// ArtistNames returns the credited artists joined with ", ".
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// PrimaryArtist returns the first credited artist name, or "" if none.
func (t Track) PrimaryArtist() string {
	for _, a := range t.Artists {
		if a.Name != "" {
			return a.Name
		}
	}
	return ""
}

// AlbumName returns the album name, or "" if the track has no album.
func (t Track) AlbumName() string {
	if t.Album == nil {
		return ""
	}
	return t.Album.Name
}

// Clone returns a deep copy so callers can keep a track beyond the
// lifetime of the slice it came from.
func (t Track) Clone() Track {
	c := t
	if t.Artists != nil {
		c.Artists = make([]Artist, len(t.Artists))
		copy(c.Artists, t.Artists)
	}
	if t.Album != nil {
		a := *t.Album
		c.Album = &a
	}
	return c
}

// CloneTracks deep-copies a track slice.
func CloneTracks(tracks []Track) []Track {
	if tracks == nil {
		return nil
	}
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		out[i] = t.Clone()
	}
	return out
}
