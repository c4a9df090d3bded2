package notify

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/stream"
)

type fakeNotifier struct {
	sent   []Notification
	nextID uint32
	err    error
}

func (f *fakeNotifier) Notify(n Notification) (uint32, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, n)
	if n.ReplacesID != 0 {
		return n.ReplacesID, nil
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeNotifier) Close(uint32) error { return nil }

func TestForTrack(t *testing.T) {
	tests := []struct {
		name  string
		track catalog.Track
		body  string
	}{
		{
			name: "artists and album",
			track: catalog.Track{
				Title:   "Song",
				Artists: []catalog.Artist{{Name: "A"}, {Name: "B"}},
				Album:   &catalog.Album{Name: "Record"},
			},
			body: "A, B - Record",
		},
		{
			name:  "artist only",
			track: catalog.Track{Title: "Song", Artists: []catalog.Artist{{Name: "A"}}},
			body:  "A",
		},
		{
			name:  "album only",
			track: catalog.Track{Title: "Song", Album: &catalog.Album{Name: "Record"}},
			body:  "Record",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := ForTrack(tt.track)
			if n.Title != "Song" {
				t.Errorf("Title = %q, want %q", n.Title, "Song")
			}
			if n.Body != tt.body {
				t.Errorf("Body = %q, want %q", n.Body, tt.body)
			}
		})
	}
}

func TestTrackNotifier_ReplacesPrevious(t *testing.T) {
	f := &fakeNotifier{}
	tn := NewTrackNotifier(f, log.New(io.Discard))

	tn.PlaybackStarted(catalog.Track{ID: "a", Title: "A"}, stream.Locator{})
	tn.PlaybackStarted(catalog.Track{ID: "b", Title: "B"}, stream.Locator{})

	if len(f.sent) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(f.sent))
	}
	if f.sent[0].ReplacesID != 0 {
		t.Errorf("first ReplacesID = %d, want 0", f.sent[0].ReplacesID)
	}
	if f.sent[1].ReplacesID != 1 {
		t.Errorf("second ReplacesID = %d, want 1", f.sent[1].ReplacesID)
	}
}

func TestTrackNotifier_IgnoresErrors(t *testing.T) {
	f := &fakeNotifier{err: errors.New("no server")}
	tn := NewTrackNotifier(f, log.New(io.Discard))
	tn.PlaybackStarted(catalog.Track{ID: "a"}, stream.Locator{})
	if len(f.sent) != 0 {
		t.Errorf("sent = %d, want 0", len(f.sent))
	}
}
