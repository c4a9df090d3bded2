package keymap

import (
	"fmt"
	"strings"
)

// Binding describes a single key binding.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string // "global", "playback", "library"
}

// All contains every key binding of the interactive player.
var All = []Binding{
	// Playback
	{ActionPlayPause, []string{"p", "space"}, "Play/pause", "playback"},
	{ActionNextTrack, []string{"n"}, "Next track", "playback"},
	{ActionPrevTrack, []string{"b"}, "Previous track", "playback"},
	{ActionSeekForward, []string{"f"}, "Seek +10s", "playback"},
	{ActionSeekBack, []string{"F"}, "Seek -10s", "playback"},
	{ActionVolumeUp, []string{"+", "="}, "Volume up", "playback"},
	{ActionVolumeDown, []string{"-"}, "Volume down", "playback"},
	{ActionToggleShuffle, []string{"s"}, "Toggle shuffle", "playback"},
	{ActionCycleRepeat, []string{"r"}, "Cycle repeat mode", "playback"},
	{ActionNowPlaying, []string{"i"}, "Now playing", "playback"},

	// Library
	{ActionToggleLike, []string{"l"}, "Like/unlike", "library"},
	{ActionDownload, []string{"d"}, "Download track", "library"},

	// Global
	{ActionHelp, []string{"h", "?"}, "Show help", "global"},
	{ActionQuit, []string{"q"}, "Quit", "global"},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range All {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}

var helpContexts = []string{"playback", "library", "global"}

// Help renders the bindings grouped by context, one per line.
func Help(bindings []Binding) string {
	var b strings.Builder
	for _, ctx := range helpContexts {
		first := true
		for _, kb := range bindings {
			if kb.Context != ctx {
				continue
			}
			if first {
				fmt.Fprintf(&b, "%s:\n", ctx)
				first = false
			}
			fmt.Fprintf(&b, "  %-10s %s\n", strings.Join(kb.Keys, ", "), kb.Description)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
