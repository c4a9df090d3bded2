package player

import "encoding/binary"

const (
	int16Scale = 32768.0
	int24Scale = 8388608.0
)

// interleavedToFrames converts interleaved int16 samples into stereo frames,
// duplicating mono.
func interleavedToFrames(dst [][2]float64, pcm []int16, channels int) [][2]float64 {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / channels
	dst = growFrames(dst, frames)
	for i := range frames {
		left := float64(pcm[i*channels]) / int16Scale
		right := left
		if channels > 1 {
			right = float64(pcm[i*channels+1]) / int16Scale
		}
		dst[i] = [2]float64{left, right}
	}
	return dst
}

// le16ToFrames converts little-endian 16-bit PCM bytes into stereo frames.
func le16ToFrames(dst [][2]float64, data []byte, channels int) [][2]float64 {
	if channels < 1 {
		channels = 1
	}
	stride := 2 * channels
	frames := len(data) / stride
	dst = growFrames(dst, frames)
	for i := range frames {
		off := i * stride
		left := float64(int16(binary.LittleEndian.Uint16(data[off:]))) / int16Scale //nolint:gosec // audio samples
		right := left
		if channels > 1 {
			right = float64(int16(binary.LittleEndian.Uint16(data[off+2:]))) / int16Scale //nolint:gosec // audio samples
		}
		dst[i] = [2]float64{left, right}
	}
	return dst
}

// le24ToFrames converts little-endian 24-bit PCM bytes into stereo frames.
func le24ToFrames(dst [][2]float64, data []byte, channels int) [][2]float64 {
	if channels < 1 {
		channels = 1
	}
	stride := 3 * channels
	frames := len(data) / stride
	dst = growFrames(dst, frames)
	for i := range frames {
		off := i * stride
		left := float64(int24(data[off:])) / int24Scale
		right := left
		if channels > 1 {
			right = float64(int24(data[off+3:])) / int24Scale
		}
		dst[i] = [2]float64{left, right}
	}
	return dst
}

func int24(b []byte) int32 {
	v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	if v&0x800000 != 0 {
		v |= ^0xFFFFFF
	}
	return v
}

func growFrames(dst [][2]float64, n int) [][2]float64 {
	if cap(dst) < n {
		return make([][2]float64, n)
	}
	return dst[:n]
}
