// Package playlist holds the playing queue and its undo history.
package playlist

import "github.com/llehouerou/vyra/internal/catalog"

// Track is the queue element type.
type Track = catalog.Track

// Playlist holds an ordered collection of tracks.
type Playlist struct {
	tracks []Track
}

// NewPlaylist creates a new empty playlist.
func NewPlaylist() *Playlist {
	return &Playlist{
		tracks: make([]Track, 0),
	}
}

// Add appends tracks to the playlist.
func (p *Playlist) Add(tracks ...Track) {
	p.tracks = append(p.tracks, tracks...)
}

// Set replaces the content of the playlist.
func (p *Playlist) Set(tracks []Track) {
	p.tracks = append(p.tracks[:0:0], tracks...)
}

// Clear removes all tracks from the playlist.
func (p *Playlist) Clear() {
	p.tracks = p.tracks[:0]
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []Track {
	result := make([]Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Track returns the track at the given index, or nil if out of bounds.
func (p *Playlist) Track(index int) *Track {
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	t := p.tracks[index]
	return &t
}

// IndexOf returns the index of the first track with the given id, or -1.
func (p *Playlist) IndexOf(id string) int {
	for i := range p.tracks {
		if p.tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}
