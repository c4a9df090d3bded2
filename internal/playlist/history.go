package playlist

// Snapshot is one recorded queue state.
type Snapshot struct {
	Tracks []Track
	Index  int
}

// QueueHistory keeps queue snapshots for undo/redo.
type QueueHistory struct {
	states  []Snapshot
	current int // -1 before the first push
	maxSize int
}

// NewQueueHistory creates a new history with the given maximum size.
func NewQueueHistory(maxSize int) *QueueHistory {
	return &QueueHistory{
		states:  make([]Snapshot, 0, maxSize),
		current: -1,
		maxSize: maxSize,
	}
}

// Record saves the queue's current state.
// Redo states are dropped and the oldest state is trimmed past maxSize.
func (h *QueueHistory) Record(q *PlayingQueue) {
	snap := Snapshot{Tracks: q.Tracks(), Index: q.CurrentIndex()}

	if h.current < len(h.states)-1 {
		h.states = h.states[:h.current+1]
	}

	h.states = append(h.states, snap)
	h.current = len(h.states) - 1

	if len(h.states) > h.maxSize {
		excess := len(h.states) - h.maxSize
		h.states = h.states[excess:]
		h.current -= excess
	}
}

// Undo returns the previous snapshot.
func (h *QueueHistory) Undo() (Snapshot, bool) {
	if !h.CanUndo() {
		return Snapshot{}, false
	}
	h.current--
	return h.at(h.current), true
}

// Redo returns the next snapshot.
func (h *QueueHistory) Redo() (Snapshot, bool) {
	if !h.CanRedo() {
		return Snapshot{}, false
	}
	h.current++
	return h.at(h.current), true
}

// CanUndo returns true if there is a previous state to undo to.
func (h *QueueHistory) CanUndo() bool {
	return h.current > 0
}

// CanRedo returns true if there is a next state to redo to.
func (h *QueueHistory) CanRedo() bool {
	return h.current < len(h.states)-1
}

func (h *QueueHistory) at(i int) Snapshot {
	s := h.states[i]
	tracks := make([]Track, len(s.Tracks))
	copy(tracks, s.Tracks)
	return Snapshot{Tracks: tracks, Index: s.Index}
}
