package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

const alacFrameSize = 4096

// mp4Stream reads AAC or ALAC samples from an MP4 container and decodes them
// one container sample at a time.
type mp4Stream struct {
	ctx        context.Context
	container  *m4a.Reader
	source     io.Closer
	codec      m4a.CodecType
	sampleRate int
	sampleSize int
	channels   int
	length     int
	next       int
	err        error

	aac  *faad2.Decoder
	alac *alac.Alac

	pending [][2]float64
	offset  int
}

func decodeM4A(rs io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	container, err := m4a.Open(rs)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open mp4: %w", err)
	}

	s := &mp4Stream{
		ctx:        context.Background(),
		container:  container,
		source:     rs,
		codec:      container.Codec(),
		sampleRate: int(container.SampleRate()),
		sampleSize: int(container.SampleSize()),
		channels:   int(container.Channels()),
	}
	if s.sampleRate == 0 {
		return nil, beep.Format{}, errors.New("mp4: invalid sample rate")
	}
	s.length = int(container.Duration().Seconds() * float64(s.sampleRate))

	precision := 2
	switch s.codec {
	case m4a.CodecAAC:
		dec, err := faad2.NewDecoder(s.ctx)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("aac decoder: %w", err)
		}
		if err := dec.Init(s.ctx, container.CodecConfig()); err != nil {
			dec.Close(s.ctx)
			return nil, beep.Format{}, fmt.Errorf("aac init: %w", err)
		}
		s.aac = dec
	case m4a.CodecALAC:
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  s.sampleRate,
			SampleSize:  s.sampleSize,
			NumChannels: s.channels,
			FrameSize:   alacFrameSize,
		})
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("alac decoder: %w", err)
		}
		s.alac = dec
		if s.sampleSize == 24 {
			precision = 3
		}
	case m4a.CodecUnknown:
		return nil, beep.Format{}, fmt.Errorf("%w: mp4 codec", ErrUnsupportedFormat)
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(s.sampleRate),
		NumChannels: 2,
		Precision:   precision,
	}
	return s, format, nil
}

func (s *mp4Stream) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}

	n := 0
	for n < len(samples) {
		if s.offset < len(s.pending) {
			c := copy(samples[n:], s.pending[s.offset:])
			s.offset += c
			n += c
			continue
		}
		if s.next >= s.container.SampleCount() {
			break
		}
		if err := s.decodeNext(); err != nil {
			s.err = err
			break
		}
	}
	return n, n > 0
}

func (s *mp4Stream) decodeNext() error {
	data, err := s.container.ReadSample(s.next)
	if err != nil {
		return fmt.Errorf("read sample %d: %w", s.next, err)
	}
	s.next++

	switch {
	case s.aac != nil:
		pcm, err := s.aac.Decode(s.ctx, data)
		if err != nil {
			return fmt.Errorf("decode aac: %w", err)
		}
		s.pending = interleavedToFrames(s.pending, pcm, s.channels)
	case s.alac != nil:
		raw := s.alac.Decode(data)
		if s.sampleSize == 24 {
			s.pending = le24ToFrames(s.pending, raw, s.channels)
		} else {
			s.pending = le16ToFrames(s.pending, raw, s.channels)
		}
	}
	s.offset = 0
	return nil
}

func (s *mp4Stream) Err() error { return s.err }

func (s *mp4Stream) Len() int { return s.length }

func (s *mp4Stream) Position() int {
	at := s.container.SampleTime(s.next)
	return max(int(at.Seconds()*float64(s.sampleRate))-(len(s.pending)-s.offset), 0)
}

func (s *mp4Stream) Seek(p int) error {
	p = min(max(p, 0), s.length)
	at := time.Duration(float64(p) / float64(s.sampleRate) * float64(time.Second))
	s.next = s.container.SeekToTime(at)
	s.pending = s.pending[:0]
	s.offset = 0
	s.err = nil
	return nil
}

func (s *mp4Stream) Close() error {
	if s.aac != nil {
		s.aac.Close(s.ctx)
	}
	return s.source.Close()
}
