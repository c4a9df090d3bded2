package playback

import (
	"time"

	"github.com/llehouerou/vyra/internal/catalog"
)

// Facts is a snapshot of everything the transport knows about playback.
// Only the service loop writes it; readers get copies.
type Facts struct {
	State        State
	CurrentTrack *catalog.Track
	IsPlaying    bool
	IsLoading    bool
	Progress     float64 // 0..1
	Duration     time.Duration
	Position     time.Duration
	Volume       float64 // 0..1
	Shuffle      bool
	Repeat       RepeatMode
	Autoplay     bool
	Error        ErrorKind
	ErrorMessage string
	// ResumePosition is where TogglePlay resumes a restored track. Starting a
	// load clears it.
	ResumePosition time.Duration
	QueueIndex     int
	QueueLen       int
	// Generation identifies the current load attempt.
	Generation uint64
}

// HasError returns true if an error is displayed.
func (f Facts) HasError() bool {
	return f.Error != ErrorNone
}

func (f Facts) clone() Facts {
	if f.CurrentTrack != nil {
		t := f.CurrentTrack.Clone()
		f.CurrentTrack = &t
	}
	return f
}

func progressOf(pos, dur time.Duration) float64 {
	if dur <= 0 {
		return 0
	}
	return min(max(float64(pos)/float64(dur), 0), 1)
}
