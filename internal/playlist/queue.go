package playlist

// PlayingQueue wraps a Playlist with a cursor.
// The cursor is -1 when the queue is empty and a valid index otherwise.
type PlayingQueue struct {
	playlist     *Playlist
	currentIndex int
}

// NewQueue creates a new empty playing queue.
func NewQueue() *PlayingQueue {
	return &PlayingQueue{
		playlist:     NewPlaylist(),
		currentIndex: -1,
	}
}

// Current returns the track at the cursor, or nil if none.
func (q *PlayingQueue) Current() *Track {
	return q.playlist.Track(q.currentIndex)
}

// CurrentIndex returns the cursor (-1 if none).
func (q *PlayingQueue) CurrentIndex() int {
	return q.currentIndex
}

// Replace swaps the whole sequence and sets the cursor to start.
// It is a no-op returning false when start is not a valid index of tracks.
func (q *PlayingQueue) Replace(tracks []Track, start int) (*Track, bool) {
	if start < 0 || start >= len(tracks) {
		return nil, false
	}
	q.playlist.Set(tracks)
	q.currentIndex = start
	return q.Current(), true
}

// Restore loads a persisted sequence and cursor. An out of range cursor is
// clamped so the queue invariant holds.
func (q *PlayingQueue) Restore(tracks []Track, index int) {
	q.playlist.Set(tracks)
	switch {
	case len(tracks) == 0:
		q.currentIndex = -1
	case index < 0:
		q.currentIndex = 0
	case index >= len(tracks):
		q.currentIndex = len(tracks) - 1
	default:
		q.currentIndex = index
	}
}

// Append pushes tracks to the tail. The cursor only moves when the queue
// was empty, onto the first appended track.
func (q *PlayingQueue) Append(tracks ...Track) {
	if len(tracks) == 0 {
		return
	}
	q.playlist.Add(tracks...)
	if q.currentIndex < 0 {
		q.currentIndex = 0
	}
}

// JumpTo sets the cursor to index and returns the track there, or nil if the
// index is invalid.
func (q *PlayingQueue) JumpTo(index int) *Track {
	if index < 0 || index >= q.playlist.Len() {
		return nil
	}
	q.currentIndex = index
	return q.Current()
}

// ComputeNext returns the index that should play after the cursor.
//
// With shuffle on, any index may be picked, the current one included.
// Otherwise the cursor advances linearly and wraps to 0 only with
// repeatAll. ok is false when the queue is empty or its end is reached.
func (q *PlayingQueue) ComputeNext(shuffle, repeatAll bool, intn func(int) int) (int, bool) {
	n := q.playlist.Len()
	if n == 0 {
		return 0, false
	}
	if shuffle {
		return intn(n), true
	}
	next := q.currentIndex + 1
	if next < n {
		return next, true
	}
	if repeatAll {
		return 0, true
	}
	return 0, false
}

// ComputePrevious returns cursor-1, wrapping from 0 to the last index.
// Repeat and shuffle modes are not consulted.
func (q *PlayingQueue) ComputePrevious() (int, bool) {
	n := q.playlist.Len()
	if n == 0 {
		return 0, false
	}
	if q.currentIndex <= 0 {
		return n - 1, true
	}
	return q.currentIndex - 1, true
}

// IndexOf returns the index of the track with the given id, or -1.
func (q *PlayingQueue) IndexOf(id string) int {
	return q.playlist.IndexOf(id)
}

// Upcoming returns the number of tracks after the cursor.
func (q *PlayingQueue) Upcoming() int {
	if q.currentIndex < 0 {
		return 0
	}
	return q.playlist.Len() - q.currentIndex - 1
}

// Clear removes all tracks and resets the cursor.
func (q *PlayingQueue) Clear() {
	q.playlist.Clear()
	q.currentIndex = -1
}

// Tracks returns all tracks in the queue.
func (q *PlayingQueue) Tracks() []Track {
	return q.playlist.Tracks()
}

// Len returns the number of tracks in the queue.
func (q *PlayingQueue) Len() int {
	return q.playlist.Len()
}

// IsEmpty returns true if the queue has no tracks.
func (q *PlayingQueue) IsEmpty() bool {
	return q.playlist.Len() == 0
}
