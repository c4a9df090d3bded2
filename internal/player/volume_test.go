package player

import (
	"math"
	"testing"
)

func TestLevelToVolume(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{1, 0},
		{1.5, 0},
		{0.5, -1},
		{0.25, -2},
		{0, -10},
		{-1, -10},
		{0.0001, -10},
	}

	for _, tt := range tests {
		got := levelToVolume(tt.level)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("levelToVolume(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestEQSections(t *testing.T) {
	bands := []Band{
		{Frequency: 60, Bandwidth: 120, Gain: 6},
		{Frequency: 400, Gain: 0},
		{Frequency: 1000, Gain: -3},
		{Frequency: 15000, Bandwidth: 20000, Gain: 4},
		{Frequency: 30000, Gain: 5},
	}

	got := eqSections(bands)

	if len(got) != 3 {
		t.Fatalf("eqSections() returned %d sections, want 3", len(got))
	}
	if got[0].F0 != 60 || got[0].Bf != 120 || got[0].G != 6 || got[0].GB != 3 {
		t.Errorf("section[0] = %+v", got[0])
	}
	if got[1].Bf != 1000 {
		t.Errorf("section[1].Bf = %v, want default width 1000", got[1].Bf)
	}
	nyquist := float64(SpeakerRate) / 2
	if got[2].F0+got[2].Bf > nyquist {
		t.Errorf("section[2] extends past nyquist: %+v", got[2])
	}
}

func TestEQSections_FlatIsEmpty(t *testing.T) {
	if got := eqSections([]Band{{Frequency: 60}, {Frequency: 1000, Gain: 0.01}}); len(got) != 0 {
		t.Errorf("eqSections(flat) = %v, want none", got)
	}
}

func TestPCMConversion(t *testing.T) {
	stereo := interleavedToFrames(nil, []int16{16384, -16384, 0, 32767}, 2)
	if len(stereo) != 2 || stereo[0] != [2]float64{0.5, -0.5} {
		t.Errorf("interleavedToFrames(stereo) = %v", stereo)
	}

	mono := interleavedToFrames(nil, []int16{-32768}, 1)
	if len(mono) != 1 || mono[0] != [2]float64{-1, -1} {
		t.Errorf("interleavedToFrames(mono) = %v", mono)
	}

	le16 := le16ToFrames(nil, []byte{0x00, 0x40, 0x00, 0xC0}, 2)
	if len(le16) != 1 || le16[0] != [2]float64{0.5, -0.5} {
		t.Errorf("le16ToFrames() = %v", le16)
	}

	le24 := le24ToFrames(nil, []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xC0}, 2)
	if len(le24) != 1 || le24[0] != [2]float64{0.5, -0.5} {
		t.Errorf("le24ToFrames() = %v", le24)
	}

	if got := le16ToFrames(nil, []byte{0x01}, 2); len(got) != 0 {
		t.Errorf("partial frame produced %d frames", len(got))
	}
}
