// Package equalizer holds the user's six-band equalizer settings and pushes
// them to the audio sink.
package equalizer

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/vyra/internal/player"
)

// MaxGain bounds band gains in dB, in both directions.
const MaxGain = 12.0

// stateKey is the KV key holding the persisted settings.
const stateKey = "equalizer"

// Frequencies are the band centers in Hz.
var Frequencies = [BandCount]float64{60, 150, 400, 1000, 2400, 15000}

// BandCount is the number of bands.
const BandCount = 6

// Gains holds one gain per band, in dB.
type Gains [BandCount]float64

// Preset names.
const (
	PresetFlat        = "flat"
	PresetBassBoost   = "bass boost"
	PresetTrebleBoost = "treble boost"
	PresetVocal       = "vocal"
	PresetRock        = "rock"
	PresetElectronic  = "electronic"
	PresetAcoustic    = "acoustic"
	PresetCustom      = "custom"
)

var presets = map[string]Gains{
	PresetFlat:        {0, 0, 0, 0, 0, 0},
	PresetBassBoost:   {6, 4, 1, 0, 0, 0},
	PresetTrebleBoost: {0, 0, 0, 1, 4, 6},
	PresetVocal:       {-2, -1, 2, 4, 3, 0},
	PresetRock:        {5, 3, -1, 1, 3, 4},
	PresetElectronic:  {5, 4, 0, -1, 2, 4},
	PresetAcoustic:    {3, 2, 1, 2, 2, 3},
}

var presetOrder = []string{
	PresetFlat, PresetBassBoost, PresetTrebleBoost, PresetVocal,
	PresetRock, PresetElectronic, PresetAcoustic,
}

// Presets returns the built-in preset names in display order.
func Presets() []string {
	return slices.Clone(presetOrder)
}

// PresetGains returns the gains of a built-in preset.
func PresetGains(name string) (Gains, bool) {
	g, ok := presets[name]
	return g, ok
}

// Applier receives the computed bands. player.Sink implements it.
type Applier interface {
	SetEqualizer(bands []player.Band)
}

// Store persists the settings.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// Settings is the persisted equalizer state.
type Settings struct {
	Enabled bool   `json:"enabled"`
	Preset  string `json:"preset"`
	Gains   Gains  `json:"gains"`
}

// Equalizer owns the settings. It is safe for concurrent use.
type Equalizer struct {
	applier Applier
	store   Store
	logger  *log.Logger

	mu       sync.Mutex
	settings Settings
}

// New loads the saved settings, or flat and enabled, and applies them.
// A nil applier only edits the stored settings.
func New(applier Applier, store Store, logger *log.Logger) (*Equalizer, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	e := &Equalizer{
		applier:  applier,
		store:    store,
		logger:   logger.With("component", "equalizer"),
		settings: Settings{Enabled: true, Preset: PresetFlat},
	}
	if store != nil {
		b, ok, err := store.Get(stateKey)
		if err != nil {
			return nil, fmt.Errorf("load equalizer: %w", err)
		}
		if ok {
			var s Settings
			if err := json.Unmarshal(b, &s); err != nil {
				e.logger.Warn("ignoring invalid equalizer settings", "err", err)
			} else {
				e.settings = normalize(s)
			}
		}
	}
	e.apply(e.settings)
	return e, nil
}

func (e *Equalizer) apply(s Settings) {
	if e.applier != nil {
		e.applier.SetEqualizer(bandsFor(s))
	}
}

func normalize(s Settings) Settings {
	for i := range s.Gains {
		s.Gains[i] = clampGain(s.Gains[i])
	}
	if _, ok := presets[s.Preset]; !ok {
		s.Preset = PresetCustom
	}
	return s
}

func clampGain(g float64) float64 {
	return min(max(g, -MaxGain), MaxGain)
}

// Settings returns the current settings.
func (e *Equalizer) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// SetPreset loads a built-in preset.
func (e *Equalizer) SetPreset(name string) error {
	g, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	return e.update(func(s *Settings) {
		s.Preset = name
		s.Gains = g
	})
}

// SetBand sets one band's gain, clamped to MaxGain. The preset becomes
// custom.
func (e *Equalizer) SetBand(index int, gain float64) error {
	if index < 0 || index >= BandCount {
		return fmt.Errorf("band %d out of range", index)
	}
	return e.update(func(s *Settings) {
		s.Gains[index] = clampGain(gain)
		s.Preset = PresetCustom
	})
}

func (e *Equalizer) SetEnabled(enabled bool) error {
	return e.update(func(s *Settings) { s.Enabled = enabled })
}

// Reset goes back to the flat preset. Enabled is unchanged.
func (e *Equalizer) Reset() error {
	return e.SetPreset(PresetFlat)
}

func (e *Equalizer) update(fn func(*Settings)) error {
	// The sink is updated under the lock so concurrent updates reach it in
	// the same order as they reach the settings.
	e.mu.Lock()
	fn(&e.settings)
	s := e.settings
	e.apply(s)
	e.mu.Unlock()

	e.logger.Debug("equalizer updated", "preset", s.Preset, "enabled", s.Enabled)

	if e.store == nil {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := e.store.Set(stateKey, b); err != nil {
		return fmt.Errorf("save equalizer: %w", err)
	}
	return nil
}

// bandsFor computes the sink bands. Disabled settings yield zero gains. The
// outer bands get wide sections so they act like shelves.
func bandsFor(s Settings) []player.Band {
	bands := make([]player.Band, BandCount)
	for i, f := range Frequencies {
		width := f
		switch i {
		case 0:
			width = 2 * f
		case BandCount - 1:
			width = 8000
		}
		gain := 0.0
		if s.Enabled {
			gain = s.Gains[i]
		}
		bands[i] = player.Band{Frequency: f, Bandwidth: width, Gain: gain}
	}
	return bands
}
