package catalog

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
)

func TestExpiryFromURL(t *testing.T) {
	got := expiryFromURL("https://rr1.googlevideo.com/videoplayback?expire=1700000000&itag=140")
	if want := time.Unix(1700000000, 0); !got.Equal(want) {
		t.Errorf("expiryFromURL() = %v, want %v", got, want)
	}

	if got := expiryFromURL("https://example.com/a.mp3"); !got.IsZero() {
		t.Errorf("expiryFromURL() without expire = %v, want zero", got)
	}
}

func TestClassifyYouTubeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"private", youtube.ErrVideoPrivate, true},
		{"login", fmt.Errorf("wrapped: %w", youtube.ErrLoginRequired), true},
		{"playability", youtube.ErrPlayabiltyStatus{Status: "UNPLAYABLE", Reason: "region"}, true},
		{"http 404", youtube.ErrUnexpectedStatusCode(404), true},
		{"http 500", youtube.ErrUnexpectedStatusCode(500), false},
		{"other", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyYouTubeError(tt.err)
			if errors.Is(got, ErrNotFound) != tt.notFound {
				t.Errorf("errors.Is(classify(%v), ErrNotFound) = %v, want %v", tt.err, !tt.notFound, tt.notFound)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("classified error should still wrap %v", tt.err)
			}
		})
	}
}

func TestTrackFromVideo(t *testing.T) {
	v := &youtube.Video{
		ID:        "dQw4w9WgXcQ",
		Title:     "Song",
		Author:    "Band - Topic",
		ChannelID: "UC123",
		Duration:  213 * time.Second,
		Thumbnails: youtube.Thumbnails{
			{URL: "small", Width: 120, Height: 90},
			{URL: "large", Width: 1280, Height: 720},
			{URL: "medium", Width: 480, Height: 360},
		},
	}

	track := trackFromVideo(v)

	if track.PrimaryArtist() != "Band" {
		t.Errorf("PrimaryArtist() = %q, want Band", track.PrimaryArtist())
	}
	if track.Artists[0].ID != "UC123" {
		t.Errorf("Artists[0].ID = %q, want UC123", track.Artists[0].ID)
	}
	if track.Thumbnail != "large" {
		t.Errorf("Thumbnail = %q, want large", track.Thumbnail)
	}
	if track.Duration != 213*time.Second {
		t.Errorf("Duration = %v, want 3m33s", track.Duration)
	}
}

func TestVideoID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"  https://music.youtube.com/watch?v=dQw4w9WgXcQ&list=RDAMVM  ", "dQw4w9WgXcQ"},
	}
	for _, tt := range tests {
		got, err := VideoID(tt.input)
		if err != nil {
			t.Errorf("VideoID(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("VideoID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
