package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/llehouerou/vyra/internal/app"
	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/config"
	"github.com/llehouerou/vyra/internal/downloads"
	"github.com/llehouerou/vyra/internal/equalizer"
	"github.com/llehouerou/vyra/internal/lastfm"
	"github.com/llehouerou/vyra/internal/library"
	"github.com/llehouerou/vyra/internal/session"
	"github.com/llehouerou/vyra/internal/state"
)

var errNothingToPlay = errors.New("nothing to play")

// withEngine runs fn with a fully wired engine and closes it afterwards.
func (r *Runner) withEngine(cmd *cli.Command, fn func(e *app.Engine) error) error {
	cfg, st, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	e, err := app.New(app.Options{Config: cfg, Store: st, Logger: r.logger, MPRIS: true})
	if err != nil {
		return err
	}
	runErr := fn(e)
	return errors.Join(runErr, e.Close())
}

// Play starts playback of ids, a playlist or the liked tracks, then hands
// control to the keyboard.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	return r.withEngine(cmd, func(e *app.Engine) error {
		// Volume and modes carry over from the last session.
		if err := e.Restore(); err != nil {
			r.logger.Warn("restore failed", "err", err)
		}
		if cmd.Bool("shuffle") {
			e.Playback().SetShuffle(true)
		}

		var err error
		switch {
		case cmd.String("playlist") != "":
			err = e.PlayCollection(ctx, cmd.String("playlist"))
		case cmd.Args().Len() > 0:
			err = e.PlayIDs(ctx, cmd.Args().Slice())
		default:
			liked := e.Library().Liked()
			if len(liked) == 0 {
				return fmt.Errorf("%w: no liked tracks", errNothingToPlay)
			}
			err = e.PlayQueue(liked, 0)
		}
		if err != nil {
			return err
		}
		return r.runPlayer(ctx, e)
	})
}

// Resume restores the saved session and continues from the saved position.
func (r *Runner) Resume(ctx context.Context, cmd *cli.Command) error {
	return r.withEngine(cmd, func(e *app.Engine) error {
		if err := e.Restore(); err != nil {
			return err
		}
		if e.Facts().CurrentTrack == nil {
			return fmt.Errorf("%w: no saved session", errNothingToPlay)
		}
		if err := e.TogglePlay(); err != nil {
			return err
		}
		return r.runPlayer(ctx, e)
	})
}

// Status prints the saved session without starting the engine.
func (r *Runner) Status(_ context.Context, cmd *cli.Command) error {
	_, st, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := session.NewPersister(st).Load()
	if err != nil {
		return err
	}
	if snap == nil {
		r.writeln("No saved session.")
		return nil
	}
	if snap.CurrentTrack != nil {
		pos := formatDuration(snap.ResumePosition)
		if snap.Duration > 0 {
			pos += " / " + formatDuration(snap.Duration)
		}
		r.writeln("Track:   %s", formatTrack(*snap.CurrentTrack))
		r.writeln("Position: %s", pos)
	}
	r.writeln("Queue:   %d of %d", snap.Index+1, len(snap.Tracks))
	r.writeln("Volume:  %d%%", int(snap.Volume*100+0.5))
	r.writeln("Shuffle: %s  Repeat: %s", onOff(snap.Shuffle), snap.Repeat)
	if !snap.SavedAt.IsZero() {
		r.writeln("Saved %s", humanize.Time(snap.SavedAt))
	}
	return nil
}

func (r *Runner) Likes(_ context.Context, cmd *cli.Command) error {
	return r.withLibrary(cmd, func(lib *library.Library) {
		r.writeTracks(lib.Liked(), "No liked tracks.")
	})
}

func (r *Runner) Recent(_ context.Context, cmd *cli.Command) error {
	return r.withLibrary(cmd, func(lib *library.Library) {
		r.writeTracks(lib.Recent(), "Nothing played yet.")
	})
}

func (r *Runner) withLibrary(cmd *cli.Command, fn func(*library.Library)) error {
	_, st, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	lib, err := library.New(st, nil, r.logger)
	if err != nil {
		return err
	}
	fn(lib)
	return nil
}

// Download fetches tracks into the downloads directory and waits for them.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return errors.New("no track ids given")
	}
	cfg, st, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	yt := catalog.NewYouTube(&http.Client{Timeout: 30 * time.Second}, r.logger)
	m, err := r.downloadManager(cfg, st, downloads.NewYouTubePipeline(yt.Client(), r.logger))
	if err != nil {
		return err
	}
	defer m.Close()

	var failed atomic.Int32
	m.OnChange(func(j downloads.Job) {
		switch j.Status {
		case downloads.StatusCompleted:
			r.writeln("done    %s -> %s", formatTrack(j.Track), j.Path)
		case downloads.StatusError:
			failed.Add(1)
			r.writeln("failed  %s: %s", formatTrack(j.Track), j.Error)
		}
	})

	tracks, err := app.LookupTracks(ctx, yt, cmd.Args().Slice(), r.logger)
	if err != nil {
		return err
	}
	for _, t := range tracks {
		if !m.Start(t) {
			r.writeln("skipped %s (already downloaded)", formatTrack(t))
		}
	}

	done := make(chan struct{})
	go func() {
		m.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.Close()
		<-done
		return ctx.Err()
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d download(s) failed", n)
	}
	return nil
}

func (r *Runner) downloadManager(cfg *config.Config, st *state.Manager, p downloads.Pipeline) (*downloads.Manager, error) {
	dl := cfg.GetDownloadsConfig()
	return downloads.New(p, st, downloads.Options{Destination: dl.Path, Quality: dl.Quality}, r.logger)
}

// Downloads lists downloaded tracks with their file sizes.
func (r *Runner) Downloads(_ context.Context, cmd *cli.Command) error {
	cfg, st, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	m, err := r.downloadManager(cfg, st, nil)
	if err != nil {
		return err
	}
	defer m.Close()

	tracks := m.Downloaded()
	if len(tracks) == 0 {
		r.writeln("No downloads.")
		return nil
	}
	for i, t := range tracks {
		path, _ := m.Path(t.ID)
		r.writeln("%3d. %s [%s] %s", i+1, formatTrack(t), fileSize(path), path)
	}
	return nil
}

func (r *Runner) RemoveDownload(_ context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errors.New("no track id given")
	}
	cfg, st, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	m, err := r.downloadManager(cfg, st, nil)
	if err != nil {
		return err
	}
	defer m.Close()
	if !m.IsDownloaded(id) {
		return fmt.Errorf("%s is not downloaded", id)
	}
	return m.RemoveDownloaded(id)
}

// Cache lists the tracks whose audio is cached.
func (r *Runner) Cache(_ context.Context, cmd *cli.Command) error {
	return r.withCache(cmd, func(c *library.AudioCache) error {
		tracks := c.Tracks()
		if len(tracks) == 0 {
			r.writeln("Cache is empty (%s).", c.Dir())
			return nil
		}
		var total uint64
		for i, t := range tracks {
			path, _ := c.CachedPath(t.ID)
			if fi, err := os.Stat(path); err == nil {
				total += uint64(fi.Size())
			}
			r.writeln("%3d. %s [%s]", i+1, formatTrack(t), fileSize(path))
		}
		r.writeln("%d tracks, %s in %s", len(tracks), humanize.Bytes(total), c.Dir())
		return nil
	})
}

func (r *Runner) ClearCache(_ context.Context, cmd *cli.Command) error {
	return r.withCache(cmd, func(c *library.AudioCache) error {
		n := len(c.Tracks())
		if err := c.ClearCache(); err != nil {
			return err
		}
		r.writeln("Removed %d cached tracks.", n)
		return nil
	})
}

func (r *Runner) withCache(cmd *cli.Command, fn func(*library.AudioCache) error) error {
	cfg, st, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	cc := cfg.GetCacheConfig()
	c, err := library.NewAudioCache(st, library.CacheOptions{
		Dir:      cc.Dir,
		Capacity: cc.MaxSongs,
		Enabled:  cc.Enabled,
	}, r.logger)
	if err != nil {
		return err
	}
	return fn(c)
}

// Equalizer shows or changes the stored equalizer settings. They apply the
// next time playback starts.
func (r *Runner) Equalizer(_ context.Context, cmd *cli.Command) error {
	_, st, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	eq, err := equalizer.New(nil, st, r.logger)
	if err != nil {
		return err
	}
	if preset := strings.Join(cmd.Args().Slice(), " "); preset != "" {
		if err := eq.SetPreset(strings.ToLower(preset)); err != nil {
			return fmt.Errorf("%w (available: %s)", err, strings.Join(equalizer.Presets(), ", "))
		}
	}
	switch {
	case cmd.Bool("on"):
		err = eq.SetEnabled(true)
	case cmd.Bool("off"):
		err = eq.SetEnabled(false)
	}
	if err != nil {
		return err
	}

	s := eq.Settings()
	r.writeln("Equalizer %s, preset %s", onOff(s.Enabled), s.Preset)
	for i, f := range equalizer.Frequencies {
		r.writeln("  %6s  %+5.1f dB", formatFrequency(f), s.Gains[i])
	}
	return nil
}

func (r *Runner) LastfmLogin(ctx context.Context, cmd *cli.Command) error {
	cfg, st, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if !cfg.HasLastfmConfig() {
		return errors.New("set lastfm.api_key and lastfm.api_secret in the configuration first")
	}

	client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
	username, err := lastfm.Login(ctx, client, st, func(url string) error {
		r.writeln("Authorize vyra in your browser:\n  %s", url)
		if err := lastfm.OpenBrowser(url); err != nil {
			r.logger.Debug("open browser failed", "err", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.writeln("Linked Last.fm account %s.", username)
	return nil
}

func (r *Runner) LastfmLogout(_ context.Context, cmd *cli.Command) error {
	_, st, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.DeleteLastfmSession(); err != nil {
		return err
	}
	r.writeln("Last.fm account unlinked.")
	return nil
}

func (r *Runner) LastfmStatus(_ context.Context, cmd *cli.Command) error {
	_, st, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	sess, err := st.GetLastfmSession()
	if err != nil {
		return err
	}
	if sess == nil {
		r.writeln("Not linked. Run `vyra lastfm login`.")
		return nil
	}
	pending, err := st.GetPendingScrobbles()
	if err != nil {
		return err
	}
	r.writeln("Linked as %s since %s.", sess.Username, humanize.Time(sess.LinkedAt))
	r.writeln("%d scrobble(s) waiting to be sent.", len(pending))
	return nil
}

func (r *Runner) ConfigInit(_ context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.WriteDefault(path, cmd.Bool("force")); err != nil {
		return err
	}
	r.writeln("Wrote %s", path)
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func fileSize(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return "missing"
	}
	return humanize.Bytes(uint64(fi.Size()))
}

func formatFrequency(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%gk", hz/1000)
	}
	return fmt.Sprintf("%g", hz)
}
