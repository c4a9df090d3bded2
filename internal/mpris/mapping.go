package mpris

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/playback"
)

const noTrackID = "/org/mpris/MediaPlayer2/TrackList/NoTrack"

func formatTrackID(id string) dbus.ObjectPath {
	if id == "" {
		return noTrackID
	}
	h := fnv.New64a()
	h.Write([]byte(id))
	return dbus.ObjectPath(fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64()))
}

// metadataFor builds the MPRIS metadata of a track. A nil track yields the
// NoTrack id.
func metadataFor(track *catalog.Track, duration time.Duration) types.Metadata {
	if track == nil {
		return types.Metadata{TrackId: noTrackID}
	}
	length := track.Duration
	if duration > 0 {
		length = duration
	}
	meta := types.Metadata{
		TrackId: formatTrackID(track.ID),
		Length:  types.Microseconds(length.Microseconds()),
		Title:   track.Title,
		Artist:  artistNames(track),
		Album:   track.AlbumName(),
		ArtUrl:  track.Thumbnail,
	}
	return meta
}

func artistNames(track *catalog.Track) []string {
	names := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

func statusFor(f playback.Facts) types.PlaybackStatus {
	switch {
	case f.IsPlaying:
		return types.PlaybackStatusPlaying
	case f.CurrentTrack == nil:
		return types.PlaybackStatusStopped
	case f.State == playback.StatePaused, f.State == playback.StateLoading, f.State == playback.StateReady:
		return types.PlaybackStatusPaused
	}
	return types.PlaybackStatusStopped
}

func loopStatusFor(mode playback.RepeatMode) types.LoopStatus {
	switch mode {
	case playback.RepeatOne:
		return types.LoopStatusTrack
	case playback.RepeatAll:
		return types.LoopStatusPlaylist
	}
	return types.LoopStatusNone
}

func repeatFor(status types.LoopStatus) (playback.RepeatMode, bool) {
	switch status {
	case types.LoopStatusNone:
		return playback.RepeatOff, true
	case types.LoopStatusTrack:
		return playback.RepeatOne, true
	case types.LoopStatusPlaylist:
		return playback.RepeatAll, true
	}
	return playback.RepeatOff, false
}

// seekTarget applies a relative MPRIS offset, clamped to the track.
func seekTarget(f playback.Facts, offset types.Microseconds) time.Duration {
	target := f.Position + time.Duration(offset)*time.Microsecond
	return min(max(target, 0), f.Duration)
}

// changes reports which MPRIS properties differ between two snapshots.
type changes struct {
	status  bool
	track   bool
	options bool
	volume  bool
}

func diff(prev, next playback.Facts) changes {
	return changes{
		status: statusFor(prev) != statusFor(next),
		track:  trackID(prev) != trackID(next) || prev.Duration != next.Duration,
		options: prev.Repeat != next.Repeat || prev.Shuffle != next.Shuffle ||
			prev.QueueIndex != next.QueueIndex || prev.QueueLen != next.QueueLen,
		volume: prev.Volume != next.Volume,
	}
}

func trackID(f playback.Facts) string {
	if f.CurrentTrack == nil {
		return ""
	}
	return f.CurrentTrack.ID
}
