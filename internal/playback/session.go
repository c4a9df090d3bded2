package playback

import (
	"fmt"
	"time"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/session"
)

// Restore loads the saved session. Nothing is resolved: the current track is
// left Ready to resume at its saved position.
func (s *serviceImpl) Restore() error {
	if s.sessions == nil {
		return nil
	}
	snap, err := s.sessions.Load()
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if snap == nil {
		return nil
	}
	return s.exec(func() { s.applySnapshot(snap) })
}

func (s *serviceImpl) applySnapshot(snap *session.Snapshot) {
	s.halt()
	s.queue.Restore(catalog.CloneTracks(snap.Tracks), snap.Index)
	s.history.Record(s.queue)

	prev := s.facts.CurrentTrack
	var cur *catalog.Track
	if snap.CurrentTrack != nil {
		t := snap.CurrentTrack.Clone()
		cur = &t
	} else if q := s.queue.Current(); q != nil {
		t := q.Clone()
		cur = &t
	}

	volume := min(max(snap.Volume, 0), 1)
	s.sink.SetVolume(volume)

	duration := snap.Duration
	if duration <= 0 && cur != nil {
		duration = cur.Duration
	}
	resume := max(snap.ResumePosition, 0)

	s.facts = Facts{
		CurrentTrack:   cur,
		Volume:         volume,
		Shuffle:        snap.Shuffle,
		Repeat:         ParseRepeatMode(snap.Repeat),
		Autoplay:       s.facts.Autoplay,
		Duration:       duration,
		Position:       resume,
		Progress:       progressOf(resume, duration),
		ResumePosition: resume,
		Generation:     s.facts.Generation,
	}
	if cur != nil {
		s.facts.State = StateReady
	}

	s.logger.Info("session restored", "tracks", len(snap.Tracks), "index", snap.Index, "resume", resume)
	s.notifyQueue()
	s.notifyMode()
	s.notifyTrack(prev)
}

// SaveSession writes the session now.
func (s *serviceImpl) SaveSession() error {
	var err error
	if execErr := s.exec(func() { err = s.saveSession() }); execErr != nil {
		return execErr
	}
	return err
}

func (s *serviceImpl) saveSession() error {
	if s.sessions == nil {
		return nil
	}
	resume := s.facts.ResumePosition
	switch {
	case s.ready:
		if pos := s.sink.Position(); pos > 0 {
			resume = pos
		}
	case s.pending != nil:
		resume = s.pending.seekTo
	}

	err := s.sessions.Save(session.Snapshot{
		Tracks:         s.queue.Tracks(),
		Index:          s.queue.CurrentIndex(),
		CurrentTrack:   s.facts.CurrentTrack,
		Volume:         s.facts.Volume,
		Shuffle:        s.facts.Shuffle,
		Repeat:         s.facts.Repeat.String(),
		ResumePosition: resume,
		Duration:       s.facts.Duration,
		SavedAt:        time.Now(),
	})
	if err != nil {
		s.logger.Warn("session save failed", "err", err)
	}
	return err
}
