package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/llehouerou/vyra/internal/catalog"
)

func TestFormatTrack(t *testing.T) {
	tests := []struct {
		name  string
		track catalog.Track
		want  string
	}{
		{"title only", catalog.Track{Title: "Song"}, "Song"},
		{"with artist", catalog.Track{Title: "Song", Artists: []catalog.Artist{{Name: "Band"}}}, "Song - Band"},
		{
			"with duration",
			catalog.Track{Title: "Song", Artists: []catalog.Artist{{Name: "Band"}}, Duration: 245 * time.Second},
			"Song - Band (4:05)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTrack(tt.track); got != tt.want {
				t.Errorf("formatTrack() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:59"},
		{61 * time.Second, "1:01"},
		{61 * time.Minute, "61:00"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatFrequency(t *testing.T) {
	tests := []struct {
		hz   float64
		want string
	}{
		{60, "60"},
		{1000, "1k"},
		{2400, "2.4k"},
		{15000, "15k"},
	}
	for _, tt := range tests {
		if got := formatFrequency(tt.hz); got != tt.want {
			t.Errorf("formatFrequency(%v) = %q, want %q", tt.hz, got, tt.want)
		}
	}
}

func TestWriteTracks(t *testing.T) {
	var out bytes.Buffer
	r := NewRunner(RunnerOpts{Output: &out})

	r.writeTracks(nil, "none")
	r.writeTracks([]catalog.Track{{Title: "A"}, {Title: "B"}}, "none")

	want := "none\n  1. A\n  2. B\n"
	if out.String() != want {
		t.Errorf("writeTracks output = %q, want %q", out.String(), want)
	}
}
