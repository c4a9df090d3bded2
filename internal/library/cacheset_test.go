package library

import (
	"fmt"
	"testing"
)

func TestCacheSet_EvictsOldestFirst(t *testing.T) {
	c := NewCacheSet(DefaultCacheSize)

	var evicted []string
	for i := range 45 {
		for _, e := range c.Add(tr(fmt.Sprintf("t%02d", i))) {
			evicted = append(evicted, e.ID)
		}
	}

	if c.Len() != 40 {
		t.Fatalf("Len() = %d, want 40", c.Len())
	}
	want := []string{"t00", "t01", "t02", "t03", "t04"}
	if fmt.Sprint(evicted) != fmt.Sprint(want) {
		t.Errorf("evicted = %v, want %v", evicted, want)
	}
	got := ids(c.Tracks())
	if got[0] != "t05" || got[39] != "t44" {
		t.Errorf("Tracks() = %v..%v, want t05..t44", got[0], got[39])
	}
}

func TestCacheSet_ReAddDoesNotBump(t *testing.T) {
	c := NewCacheSet(2)
	c.Add(tr("a"))
	c.Add(tr("b"))

	if evicted := c.Add(tr("a")); evicted != nil {
		t.Errorf("Add(existing) evicted %v", ids(evicted))
	}
	evicted := c.Add(tr("c"))

	if len(evicted) != 1 || evicted[0].ID != "a" {
		t.Errorf("Add(c) evicted %v, want [a]", ids(evicted))
	}
}

func TestCacheSet_RemoveAndClear(t *testing.T) {
	c := NewCacheSet(0)
	if c.Capacity() != DefaultCacheSize {
		t.Errorf("Capacity() = %d, want %d", c.Capacity(), DefaultCacheSize)
	}
	c.Add(tr("a"))
	c.Add(tr("b"))

	if !c.Remove("a") {
		t.Error("Remove(a) = false")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) = true")
	}
	if c.Contains("a") || !c.Contains("b") {
		t.Errorf("Tracks() = %v, want [b]", ids(c.Tracks()))
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}
