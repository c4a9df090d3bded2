package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// Load stops the current source and starts opening src in the background.
// The result arrives as DataReady or Failed tagged with src.Generation.
func (s *BeepSink) Load(src Source) error {
	if src.URL == "" {
		return errors.New("load: empty url")
	}
	c, err := detectCodec(src.MimeType, src.URL)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stopLocked()
	ctx, cancel := context.WithCancel(context.Background())
	s.gen = src.Generation
	s.cancel = cancel
	s.mu.Unlock()

	go s.open(ctx, src, c)
	return nil
}

func (s *BeepSink) open(ctx context.Context, src Source, c codec) {
	l, err := s.decodeSource(ctx, src, c)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Debug("load failed", "gen", src.Generation, "codec", c, "err", err)
		s.emit(Event{Kind: Failed, Generation: src.Generation, Err: err})
		return
	}

	s.mu.Lock()
	if ctx.Err() != nil || s.gen != src.Generation {
		s.mu.Unlock()
		l.streamer.Close()
		l.source.Close()
		return
	}
	s.attachLocked(l)
	duration := s.durationLocked()
	s.mu.Unlock()

	s.logger.Debug("source ready", "gen", src.Generation, "codec", c,
		"rate", l.format.SampleRate, "duration", duration)
	s.emit(Event{Kind: DataReady, Generation: src.Generation, Duration: duration})
}

func (s *BeepSink) decodeSource(ctx context.Context, src Source, c codec) (*loaded, error) {
	source, err := openHTTP(ctx, s.client, src.URL)
	if err != nil {
		return nil, err
	}
	streamer, format, err := decode(source, c)
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("decode %s: %w", c, err)
	}
	if err := initSpeaker(); err != nil {
		streamer.Close()
		source.Close()
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &loaded{
		gen:      src.Generation,
		source:   source,
		streamer: streamer,
		format:   format,
	}, nil
}

// attachLocked builds the output chain for l and hands it to the speaker,
// paused.
func (s *BeepSink) attachLocked(l *loaded) {
	var upstream beep.Streamer = l.streamer
	if l.format.SampleRate != SpeakerRate {
		upstream = beep.Resample(4, l.format.SampleRate, SpeakerRate, upstream)
	}
	l.ctrl = &beep.Ctrl{Streamer: upstream, Paused: true}
	l.eq = newEQStage(l.ctrl, s.bands)
	l.vol = &effects.Volume{Streamer: l.eq, Base: 2, Volume: levelToVolume(s.volume)}

	gen := l.gen
	streamer := l.streamer
	l.tail = &endWatch{Streamer: l.vol, onEnd: func() {
		ev := Event{Kind: Ended, Generation: gen}
		if err := streamer.Err(); err != nil {
			ev = Event{Kind: Failed, Generation: gen, Err: err}
		}
		go s.emit(ev)
	}}
	s.current = l
	speaker.Play(l.tail)
}

// Stop detaches and closes the current source and cancels any pending load.
func (s *BeepSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *BeepSink) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.current == nil {
		return
	}
	speaker.Clear()
	s.current.streamer.Close()
	s.current.source.Close()
	s.current = nil
}

// endWatch reports the end of its streamer once and then plays silence, so
// the source stays attached and can be rewound after it ends.
// It is only touched under the speaker lock.
type endWatch struct {
	beep.Streamer
	ended bool
	onEnd func()
}

func (e *endWatch) Stream(samples [][2]float64) (int, bool) {
	n := 0
	if !e.ended {
		var ok bool
		n, ok = e.Streamer.Stream(samples)
		if !ok {
			e.ended = true
			e.onEnd()
		}
	}
	clear(samples[n:])
	return len(samples), true
}

func (e *endWatch) rewind() { e.ended = false }
