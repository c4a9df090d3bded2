package player

import (
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/llehouerou/vyra/internal/catalog"
)

type codec string

const (
	codecMP3    codec = "mp3"
	codecFLAC   codec = "flac"
	codecVorbis codec = "vorbis"
	codecWAV    codec = "wav"
	codecMP4    codec = "mp4"
)

const (
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extOGG  = ".ogg"
	extOGA  = ".oga"
	extWAV  = ".wav"
	extM4A  = ".m4a"
	extMP4  = ".mp4"
)

// detectCodec picks a decoder from the MIME type, falling back to the URL's
// file extension.
func detectCodec(mimeType, rawURL string) (codec, error) {
	switch catalog.MediaType(strings.ToLower(mimeType)) {
	case "audio/mpeg", "audio/mp3":
		return codecMP3, nil
	case "audio/flac", "audio/x-flac":
		return codecFLAC, nil
	case "audio/ogg", "audio/vorbis":
		return codecVorbis, nil
	case "audio/wav", "audio/x-wav", "audio/wave":
		return codecWAV, nil
	case "audio/mp4", "audio/m4a", "audio/x-m4a", "audio/aac":
		return codecMP4, nil
	}

	ext := ""
	if u, err := url.Parse(rawURL); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	switch ext {
	case extMP3:
		return codecMP3, nil
	case extFLAC:
		return codecFLAC, nil
	case extOGG, extOGA:
		return codecVorbis, nil
	case extWAV:
		return codecWAV, nil
	case extM4A, extMP4:
		return codecMP4, nil
	}

	if mimeType == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, rawURL)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
}

func decode(rs io.ReadSeekCloser, c codec) (beep.StreamSeekCloser, beep.Format, error) {
	switch c {
	case codecMP3:
		return decodeGoMP3(rs)
	case codecFLAC:
		return flac.Decode(rs)
	case codecVorbis:
		return vorbis.Decode(rs)
	case codecWAV:
		return wav.Decode(rs)
	case codecMP4:
		return decodeM4A(rs)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, c)
	}
}
