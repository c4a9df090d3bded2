package player

import (
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/go-mp3"
)

// mp3Stream adapts llehouerou/go-mp3 to beep. go-mp3 always produces
// 16-bit stereo, four bytes per frame.
type mp3Stream struct {
	decoder *mp3.Decoder
	source  io.Closer
	err     error
	raw     []byte
	frames  [][2]float64
}

func decodeGoMP3(rs io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	decoder, err := mp3.NewDecoder(rs)
	if err != nil {
		return nil, beep.Format{}, err
	}
	if decoder.SampleRate() == 0 {
		return nil, beep.Format{}, errors.New("mp3: invalid sample rate")
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(decoder.SampleRate()),
		NumChannels: 2,
		Precision:   2,
	}
	return &mp3Stream{decoder: decoder, source: rs}, format, nil
}

func (s *mp3Stream) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}

	need := len(samples) * 4
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	read, err := io.ReadFull(s.decoder, s.raw[:need])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		s.err = err
		return 0, false
	}

	s.frames = le16ToFrames(s.frames, s.raw[:read], 2)
	if len(s.frames) == 0 {
		return 0, false
	}
	return copy(samples, s.frames), true
}

func (s *mp3Stream) Err() error { return s.err }

func (s *mp3Stream) Len() int {
	return max(int(s.decoder.SampleCount()), 0)
}

func (s *mp3Stream) Position() int {
	return int(s.decoder.SamplePosition())
}

func (s *mp3Stream) Seek(p int) error {
	p = min(max(p, 0), s.Len())
	if err := s.decoder.SeekToSample(int64(p)); err != nil {
		return err
	}
	s.err = nil
	return nil
}

func (s *mp3Stream) Close() error { return s.source.Close() }
