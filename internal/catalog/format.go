package catalog

import (
	"mime"
	"sort"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// Quality selects among the available audio formats of a video.
type Quality string

const (
	QualityNormal   Quality = "normal"
	QualityHigh     Quality = "high"
	QualityVeryHigh Quality = "very_high"
)

// ParseQuality maps a config value onto a Quality, defaulting to high.
func ParseQuality(s string) Quality {
	switch Quality(strings.ToLower(strings.TrimSpace(s))) {
	case QualityNormal:
		return QualityNormal
	case QualityVeryHigh:
		return QualityVeryHigh
	default:
		return QualityHigh
	}
}

// AudioFormats returns the audio-only formats sorted by bitrate, highest
// first.
func AudioFormats(formats youtube.FormatList) youtube.FormatList {
	var audio youtube.FormatList
	for _, f := range formats {
		if strings.HasPrefix(f.MimeType, "audio/") && f.URL != "" {
			audio = append(audio, f)
		}
	}
	// Formats without a direct URL need signature deciphering; keep them as
	// a fallback so GetStreamURL can resolve them.
	if len(audio) == 0 {
		for _, f := range formats {
			if strings.HasPrefix(f.MimeType, "audio/") {
				audio = append(audio, f)
			}
		}
	}
	sort.SliceStable(audio, func(i, j int) bool {
		return audio[i].Bitrate > audio[j].Bitrate
	})
	return audio
}

// SelectAudioFormat picks an audio format for the requested quality.
// very_high takes the highest bitrate, high the format a third of the way
// down the list, normal the median. Returns nil if the video has no audio
// formats.
func SelectAudioFormat(formats youtube.FormatList, q Quality) *youtube.Format {
	audio := AudioFormats(formats)
	if len(audio) == 0 {
		return nil
	}

	var idx int
	switch q {
	case QualityVeryHigh:
		idx = 0
	case QualityHigh:
		idx = len(audio) / 3
	case QualityNormal:
		idx = len(audio) / 2
	}
	idx = min(idx, len(audio)-1)
	f := audio[idx]
	return &f
}

// MediaType strips codec parameters from a MIME type
// ("audio/mp4; codecs=\"mp4a.40.2\"" -> "audio/mp4").
func MediaType(mimeType string) string {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		if i := strings.IndexByte(mimeType, ';'); i >= 0 {
			return strings.TrimSpace(mimeType[:i])
		}
		return strings.TrimSpace(mimeType)
	}
	return mt
}

// Extension returns the file extension conventionally used for a MIME type.
func Extension(mimeType string) string {
	switch MediaType(mimeType) {
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "audio/webm":
		return ".webm"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	case "audio/ogg", "audio/vorbis":
		return ".ogg"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	default:
		return ".audio"
	}
}
