//go:build linux

package mpris

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/vyra/internal/playback"
)

// Adapter connects a playback service to MPRIS over D-Bus.
type Adapter struct {
	service playback.Service
	server  *server.Server
	events  *events.EventHandler
	sub     *playback.Subscription
	logger  *log.Logger
	done    chan struct{}
	stopped chan struct{}
}

// New creates and starts a new MPRIS adapter.
func New(service playback.Service, logger *log.Logger) (*Adapter, error) {
	a := &Adapter{
		service: service,
		logger:  logger.With("component", "mpris"),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	a.server = server.NewServer("vyra", &rootAdapter{}, &playerAdapter{service: service})
	a.events = events.NewEventHandler(a.server)
	a.sub = service.Subscribe()

	go func() {
		if err := a.server.Listen(); err != nil {
			a.logger.Debug("mpris server stopped", "err", err)
		}
	}()
	go a.watch()

	return a, nil
}

// watch emits PropertiesChanged signals as the facts change.
func (a *Adapter) watch() {
	defer close(a.stopped)
	prev := a.service.Facts()
	for {
		select {
		case <-a.done:
			return
		case <-a.sub.Done:
			return
		case f := <-a.sub.FactsChanged:
			a.emit(diff(prev, f))
			prev = f
		}
	}
}

func (a *Adapter) emit(c changes) {
	var err error
	if c.track {
		err = a.events.Player.OnTitle()
	}
	if c.status && err == nil {
		err = a.events.Player.OnPlayPause()
	}
	if c.options && err == nil {
		err = a.events.Player.OnOptions()
	}
	if c.volume && err == nil {
		err = a.events.Player.OnVolume()
	}
	if err != nil {
		a.logger.Debug("emit properties changed", "err", err)
	}
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	close(a.done)
	<-a.stopped
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil
}

func (r *rootAdapter) Quit() error {
	return nil
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Vyra", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mp4", "audio/webm", "audio/mpeg", "audio/flac", "audio/ogg"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and optional interfaces.
type playerAdapter struct {
	service playback.Service
}

func (p *playerAdapter) Next() error {
	return p.service.Next()
}

func (p *playerAdapter) Previous() error {
	return p.service.Previous()
}

func (p *playerAdapter) Pause() error {
	return p.service.Pause()
}

func (p *playerAdapter) PlayPause() error {
	return p.service.TogglePlay()
}

// Stop pauses the current track.
func (p *playerAdapter) Stop() error {
	return p.service.Pause()
}

func (p *playerAdapter) Play() error {
	return p.service.Resume()
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	return p.service.SeekTo(seekTarget(p.service.Facts(), offset))
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	return p.service.SeekTo(time.Duration(position) * time.Microsecond)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return statusFor(p.service.Facts()), nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	f := p.service.Facts()
	return metadataFor(f.CurrentTrack, f.Duration), nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.service.Facts().Volume, nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	return p.service.SetVolume(v)
}

func (p *playerAdapter) Position() (int64, error) {
	return p.service.Facts().Position.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	f := p.service.Facts()
	return f.QueueLen > 0 && (f.QueueIndex < f.QueueLen-1 || f.Repeat == playback.RepeatAll || f.Shuffle), nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.service.Facts().QueueLen > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.service.Facts().CurrentTrack != nil, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.service.Facts().Duration > 0, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	return loopStatusFor(p.service.Facts().Repeat), nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	if mode, ok := repeatFor(status); ok {
		p.service.SetRepeatMode(mode)
	}
	return nil
}

// Shuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) Shuffle() (bool, error) {
	return p.service.Facts().Shuffle, nil
}

// SetShuffle implements OrgMprisMediaPlayer2PlayerAdapterShuffle.
func (p *playerAdapter) SetShuffle(shuffle bool) error {
	p.service.SetShuffle(shuffle)
	return nil
}
