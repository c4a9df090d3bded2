package downloads

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Sorrow446/go-mp4tag"
)

// customIDKey is the freeform atom holding the catalog track id.
const customIDKey = "VYRA_TRACK_ID"

// writeTags embeds the request metadata into an MP4/M4A file. Other
// containers are left untouched.
func writeTags(path string, req Request) error {
	if !taggable(path) {
		return nil
	}
	mp4, err := mp4tag.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer mp4.Close()

	tags := &mp4tag.MP4Tags{
		Title:       req.Title,
		Artist:      req.Artist,
		Album:       req.Album,
		AlbumArtist: req.Artist,
		Custom:      map[string]string{customIDKey: req.TrackID},
	}
	if err := mp4.Write(tags, nil); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func taggable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m4a", ".mp4":
		return true
	}
	return false
}
