package playlist

import "testing"

func record(h *QueueHistory, index int, ids ...string) {
	q := NewQueue()
	q.Restore(tracks(ids...), index)
	h.Record(q)
}

func TestQueueHistory_UndoRedo(t *testing.T) {
	h := NewQueueHistory(10)
	record(h, 0, "a")
	record(h, 1, "a", "b")

	snap, ok := h.Undo()
	if !ok {
		t.Fatal("Undo() ok = false")
	}
	if len(snap.Tracks) != 1 || snap.Index != 0 {
		t.Errorf("Undo() = %d tracks at %d, want 1 track at 0", len(snap.Tracks), snap.Index)
	}

	snap, ok = h.Redo()
	if !ok {
		t.Fatal("Redo() ok = false")
	}
	if len(snap.Tracks) != 2 || snap.Index != 1 {
		t.Errorf("Redo() = %d tracks at %d, want 2 tracks at 1", len(snap.Tracks), snap.Index)
	}
}

func TestQueueHistory_Empty(t *testing.T) {
	h := NewQueueHistory(10)

	if _, ok := h.Undo(); ok {
		t.Error("Undo() on empty history should fail")
	}
	if _, ok := h.Redo(); ok {
		t.Error("Redo() on empty history should fail")
	}

	record(h, 0, "a")
	if h.CanUndo() {
		t.Error("CanUndo() should be false with a single state")
	}
}

func TestQueueHistory_RecordClearsRedo(t *testing.T) {
	h := NewQueueHistory(10)
	record(h, 0, "a")
	record(h, 0, "b")
	h.Undo()

	record(h, 0, "c")

	if h.CanRedo() {
		t.Error("CanRedo() should be false after Record()")
	}
	snap, _ := h.Undo()
	if snap.Tracks[0].ID != "a" {
		t.Errorf("Undo() after new record = %q, want a", snap.Tracks[0].ID)
	}
}

func TestQueueHistory_MaxSize(t *testing.T) {
	h := NewQueueHistory(3)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		record(h, 0, id)
	}

	var undone []string
	for h.CanUndo() {
		snap, _ := h.Undo()
		undone = append(undone, snap.Tracks[0].ID)
	}

	if len(undone) != 2 || undone[0] != "d" || undone[1] != "c" {
		t.Errorf("undo chain = %v, want [d c]", undone)
	}
}

func TestQueueHistory_ReturnsCopy(t *testing.T) {
	h := NewQueueHistory(10)
	record(h, 0, "a")
	record(h, 0, "b")

	snap, _ := h.Undo()
	snap.Tracks[0].ID = "mutated"

	h.Redo()
	again, _ := h.Undo()
	if again.Tracks[0].ID != "a" {
		t.Error("Undo() should return a copy of the stored snapshot")
	}
}
