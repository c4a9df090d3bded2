package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/llehouerou/vyra/internal/keymap"
	"github.com/llehouerou/vyra/internal/playback"
)

const (
	seekStep   = 10 * time.Second
	volumeStep = 0.1
)

var (
	keys     = keymap.Default()
	helpText = keymap.Help(keymap.All)
)

// controller is the part of the engine the keyboard drives.
type controller interface {
	Facts() playback.Facts
	TogglePlay() error
	Next() error
	Previous() error
	SeekBy(d time.Duration) error
	SetVolume(v float64) error
	ToggleShuffle() bool
	CycleRepeat() playback.RepeatMode
	LikeCurrent() (bool, error)
	DownloadCurrent() bool
}

type subscriber interface {
	controller
	Subscribe() *playback.Subscription
}

// runPlayer prints playback events and executes keyboard commands until the
// user quits, the context ends, or input closes and the queue finishes.
func (r *Runner) runPlayer(ctx context.Context, c subscriber) error {
	sub := c.Subscribe()
	lines := readLines(r.input)
	r.writeln("%s", helpText)
	if f := c.Facts(); f.CurrentTrack != nil {
		r.writeln("> %s", formatTrack(*f.CurrentTrack))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done:
			return nil
		case tc := <-sub.TrackChanged:
			if tc.Current != nil {
				r.writeln("> %s", formatTrack(*tc.Current))
			}
		case ev := <-sub.Error:
			r.writeln("! %s", ev.Kind.Message())
		case f := <-sub.FactsChanged:
			if lines == nil && f.State == playback.StateEnded {
				return nil
			}
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			msg, quit, err := handleKey(c, line)
			if err != nil {
				r.writeln("! %v", err)
			}
			if msg != "" {
				r.writeln("%s", msg)
			}
			if quit {
				return nil
			}
		}
	}
}

// readLines streams trimmed input lines. The channel closes at EOF.
func readLines(in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			ch <- strings.TrimSpace(sc.Text())
		}
	}()
	return ch
}

// handleKey runs one keyboard command and returns what to print.
func handleKey(c controller, key string) (string, bool, error) {
	if key == "" {
		return "", false, nil
	}
	switch action := keys.Resolve(key); action {
	case keymap.ActionPlayPause:
		return "", false, c.TogglePlay()
	case keymap.ActionNextTrack:
		return "", false, c.Next()
	case keymap.ActionPrevTrack:
		return "", false, c.Previous()
	case keymap.ActionSeekForward:
		return "", false, c.SeekBy(seekStep)
	case keymap.ActionSeekBack:
		return "", false, c.SeekBy(-seekStep)
	case keymap.ActionVolumeUp, keymap.ActionVolumeDown:
		v := c.Facts().Volume
		if action == keymap.ActionVolumeUp {
			v += volumeStep
		} else {
			v -= volumeStep
		}
		v = min(max(v, 0), 1)
		return fmt.Sprintf("volume %d%%", int(v*100+0.5)), false, c.SetVolume(v)
	case keymap.ActionToggleShuffle:
		return "shuffle " + onOff(c.ToggleShuffle()), false, nil
	case keymap.ActionCycleRepeat:
		return "repeat " + c.CycleRepeat().String(), false, nil
	case keymap.ActionToggleLike:
		if c.Facts().CurrentTrack == nil {
			return "nothing playing", false, nil
		}
		liked, err := c.LikeCurrent()
		if err != nil {
			return "", false, err
		}
		if liked {
			return "liked", false, nil
		}
		return "unliked", false, nil
	case keymap.ActionDownload:
		if c.DownloadCurrent() {
			return "download started", false, nil
		}
		return "already downloaded or nothing playing", false, nil
	case keymap.ActionNowPlaying:
		return formatFacts(c.Facts()), false, nil
	case keymap.ActionHelp:
		return helpText, false, nil
	case keymap.ActionQuit:
		return "", true, nil
	default:
		return fmt.Sprintf("unknown key %q, h for help", key), false, nil
	}
}

// formatFacts renders a one-line now-playing summary.
func formatFacts(f playback.Facts) string {
	if f.CurrentTrack == nil {
		return "[" + f.State.String() + "]"
	}
	pos := f.Position
	if f.State == playback.StateReady {
		pos = f.ResumePosition
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s", f.State, formatTrack(*f.CurrentTrack), formatDuration(pos))
	if f.Duration > 0 {
		b.WriteString(" / " + formatDuration(f.Duration))
	}
	fmt.Fprintf(&b, "  %d/%d  vol %d%%", f.QueueIndex+1, f.QueueLen, int(f.Volume*100+0.5))
	if f.Shuffle {
		b.WriteString("  shuffle")
	}
	if f.Repeat != playback.RepeatOff {
		b.WriteString("  repeat " + f.Repeat.String())
	}
	if f.HasError() {
		b.WriteString("  error: " + f.ErrorMessage)
	}
	return b.String()
}
