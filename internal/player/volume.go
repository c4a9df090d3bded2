package player

import (
	"math"

	"github.com/gopxl/beep/v2/speaker"
)

// SetVolume sets the output level in [0,1]. The level is kept across
// sources.
func (s *BeepSink) SetVolume(level float64) {
	level = min(max(level, 0), 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = level
	if s.current == nil {
		return
	}
	speaker.Lock()
	s.current.vol.Volume = levelToVolume(level)
	speaker.Unlock()
}

// levelToVolume maps a linear level onto beep's base-2 volume:
// 1 -> 0, 0.5 -> -1, 0.25 -> -2, 0 -> -10 (inaudible).
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return max(math.Log2(level), -10)
}
