package player

import (
	"math"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// minAudibleGain is the smallest gain worth a filter section, in dB.
const minAudibleGain = 0.05

// eqStage is a streamer whose filter can be replaced while playing.
// All access happens under the speaker lock.
type eqStage struct {
	upstream beep.Streamer
	active   beep.Streamer
}

func newEQStage(upstream beep.Streamer, bands []Band) *eqStage {
	e := &eqStage{upstream: upstream}
	e.set(bands)
	return e
}

func (e *eqStage) set(bands []Band) {
	sections := eqSections(bands)
	if len(sections) == 0 {
		e.active = e.upstream
		return
	}
	e.active = effects.NewEqualizer(e.upstream, SpeakerRate, sections)
}

func (e *eqStage) Stream(samples [][2]float64) (int, bool) {
	return e.active.Stream(samples)
}

func (e *eqStage) Err() error { return e.active.Err() }

// eqSections converts bands to peaking filter sections. Bands with no gain
// are skipped since a zero-gain section has undefined coefficients.
func eqSections(bands []Band) effects.MonoEqualizerSections {
	var sections effects.MonoEqualizerSections
	nyquist := float64(SpeakerRate) / 2
	for _, b := range bands {
		if math.Abs(b.Gain) < minAudibleGain || b.Frequency <= 0 || b.Frequency >= nyquist {
			continue
		}
		width := b.Bandwidth
		if width <= 0 {
			width = b.Frequency
		}
		width = min(width, nyquist-b.Frequency)
		sections = append(sections, effects.MonoEqualizerSection{
			F0: b.Frequency,
			Bf: width,
			GB: b.Gain / 2,
			G0: 0,
			G:  b.Gain,
		})
	}
	return sections
}

// SetEqualizer replaces the filter bands. The bands are kept across sources.
func (s *BeepSink) SetEqualizer(bands []Band) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bands = append([]Band(nil), bands...)
	if s.current == nil {
		return
	}
	speaker.Lock()
	s.current.eq.set(s.bands)
	speaker.Unlock()
}
