package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/llehouerou/vyra/internal/catalog"
)

// Track list names used by the library.
const (
	ListLiked      = "liked"
	ListRecent     = "recent"
	ListCached     = "cached"
	ListDownloaded = "downloaded"
)

// LoadTrackList returns the tracks stored under name in order. An unknown
// list is empty.
func (m *Manager) LoadTrackList(name string) ([]catalog.Track, error) {
	rows, err := m.db.Query(`
		SELECT track_id, title, artists, album_id, album_name, duration_ms, thumbnail, explicit
		FROM track_lists
		WHERE list = ?
		ORDER BY position
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []catalog.Track
	for rows.Next() {
		var t catalog.Track
		var artists, albumID, albumName, thumbnail sql.NullString
		var durationMS int64

		if err := rows.Scan(&t.ID, &t.Title, &artists, &albumID, &albumName,
			&durationMS, &thumbnail, &t.Explicit); err != nil {
			return nil, err
		}

		if artists.Valid && artists.String != "" {
			if err := json.Unmarshal([]byte(artists.String), &t.Artists); err != nil {
				return nil, fmt.Errorf("decode artists of %s: %w", t.ID, err)
			}
		}
		if albumID.Valid || albumName.Valid {
			t.Album = &catalog.Album{ID: albumID.String, Name: albumName.String}
		}
		t.Duration = time.Duration(durationMS) * time.Millisecond
		t.Thumbnail = thumbnail.String
		tracks = append(tracks, t)
	}

	return tracks, rows.Err()
}

// SaveTrackList replaces the list stored under name.
func (m *Manager) SaveTrackList(name string, tracks []catalog.Track) error {
	return withTx(m.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM track_lists WHERE list = ?`, name); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO track_lists
			(list, position, track_id, title, artists, album_id, album_name, duration_ms, thumbnail, explicit)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range tracks {
			artists, err := json.Marshal(t.Artists)
			if err != nil {
				return err
			}
			var albumID, albumName any
			if t.Album != nil {
				albumID, albumName = t.Album.ID, t.Album.Name
			}
			if _, err := stmt.Exec(name, i, t.ID, t.Title, string(artists), albumID, albumName,
				t.Duration.Milliseconds(), t.Thumbnail, t.Explicit); err != nil {
				return fmt.Errorf("save %s[%d]: %w", name, i, err)
			}
		}
		return nil
	})
}
