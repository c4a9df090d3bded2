package state

import (
	"database/sql"
	"errors"
	"time"
)

// LastfmSession is a linked Last.fm account.
type LastfmSession struct {
	Username   string
	SessionKey string
	LinkedAt   time.Time
}

// PendingScrobble is a scrobble that failed to submit and waits for retry.
type PendingScrobble struct {
	ID        int64
	Artist    string
	Track     string
	Album     string
	Duration  time.Duration
	Timestamp time.Time
	Attempts  int
	LastError string
	CreatedAt time.Time
}

// GetLastfmSession returns the stored session, or nil if not linked.
func (m *Manager) GetLastfmSession() (*LastfmSession, error) {
	var s LastfmSession
	var linkedAt int64

	err := m.db.QueryRow(`
		SELECT username, session_key, linked_at FROM lastfm_session WHERE id = 1
	`).Scan(&s.Username, &s.SessionKey, &linkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil session means not linked, not an error
	}
	if err != nil {
		return nil, err
	}

	s.LinkedAt = time.Unix(linkedAt, 0)
	return &s, nil
}

// SaveLastfmSession stores the session obtained from a successful login.
func (m *Manager) SaveLastfmSession(username, sessionKey string) error {
	_, err := m.db.Exec(`
		INSERT INTO lastfm_session (id, username, session_key, linked_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			session_key = excluded.session_key,
			linked_at = excluded.linked_at
	`, username, sessionKey, time.Now().Unix())
	return err
}

// DeleteLastfmSession unlinks the account.
func (m *Manager) DeleteLastfmSession() error {
	_, err := m.db.Exec(`DELETE FROM lastfm_session WHERE id = 1`)
	return err
}

// AddPendingScrobble queues a scrobble for later submission.
func (m *Manager) AddPendingScrobble(s PendingScrobble) error {
	_, err := m.db.Exec(`
		INSERT INTO lastfm_pending_scrobbles
		(artist, track, album, duration_seconds, timestamp, attempts, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
	`, s.Artist, s.Track, s.Album, int(s.Duration.Seconds()), s.Timestamp.Unix(),
		s.LastError, time.Now().Unix())
	return err
}

// GetPendingScrobbles returns queued scrobbles, oldest first.
func (m *Manager) GetPendingScrobbles() ([]PendingScrobble, error) {
	rows, err := m.db.Query(`
		SELECT id, artist, track, album, duration_seconds, timestamp, attempts, last_error, created_at
		FROM lastfm_pending_scrobbles
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scrobbles []PendingScrobble
	for rows.Next() {
		var s PendingScrobble
		var album, lastError sql.NullString
		var durationSecs int
		var timestamp, createdAt int64

		if err := rows.Scan(&s.ID, &s.Artist, &s.Track, &album, &durationSecs,
			&timestamp, &s.Attempts, &lastError, &createdAt); err != nil {
			return nil, err
		}

		s.Album = album.String
		s.LastError = lastError.String
		s.Duration = time.Duration(durationSecs) * time.Second
		s.Timestamp = time.Unix(timestamp, 0)
		s.CreatedAt = time.Unix(createdAt, 0)
		scrobbles = append(scrobbles, s)
	}

	return scrobbles, rows.Err()
}

// UpdatePendingScrobbleAttempt records a failed retry.
func (m *Manager) UpdatePendingScrobbleAttempt(id int64, errMsg string) error {
	_, err := m.db.Exec(`
		UPDATE lastfm_pending_scrobbles
		SET attempts = attempts + 1, last_error = ?
		WHERE id = ?
	`, errMsg, id)
	return err
}

// DeletePendingScrobble removes a submitted scrobble.
func (m *Manager) DeletePendingScrobble(id int64) error {
	_, err := m.db.Exec(`DELETE FROM lastfm_pending_scrobbles WHERE id = ?`, id)
	return err
}

// DeleteOldPendingScrobbles drops queued scrobbles older than maxAge.
func (m *Manager) DeleteOldPendingScrobbles(maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge).Unix()
	_, err := m.db.Exec(`DELETE FROM lastfm_pending_scrobbles WHERE created_at < ?`, cutoff)
	return err
}
