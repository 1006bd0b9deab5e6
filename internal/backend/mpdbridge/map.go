package mpdbridge

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/edumarques81/lumen-audioplayer-frontend/internal/model"
)

// trackID derives a stable string ID from a file URI, matching the
// daemon's convention of hashing the path.
func trackID(uri string) string {
	h := fnv.New64a()
	h.Write([]byte(uri))
	return strconv.FormatUint(h.Sum64(), 16)
}

// trackFromAttrs maps an MPD song entry onto the canonical track. Songs
// without a title fall back to the file name, the same way the daemon
// fills display fields.
func trackFromAttrs(attrs mpd.Attrs) model.Track {
	uri := attrs["file"]

	title := attrs["Title"]
	if title == "" && uri != "" {
		parts := strings.Split(uri, "/")
		title = parts[len(parts)-1]
	}

	duration := 0
	if d, err := strconv.ParseFloat(attrs["duration"], 64); err == nil {
		duration = int(d)
	} else if d, err := strconv.Atoi(attrs["Time"]); err == nil {
		duration = d
	}

	return model.Track{
		ID:           trackID(uri),
		Path:         uri,
		Title:        title,
		Artist:       attrs["Artist"],
		Album:        attrs["Album"],
		DurationSecs: duration,
	}
}

// loopFromStatus maps MPD's repeat/single flags onto the loop enum:
// single wins over repeat, repeat alone loops the playlist.
func loopFromStatus(status mpd.Attrs) model.LoopMode {
	switch {
	case status["single"] == "1":
		return model.LoopTrack
	case status["repeat"] == "1":
		return model.LoopPlaylist
	default:
		return model.LoopOff
	}
}

// snapshotFromStatus maps MPD status and current-song attrs onto the
// canonical playback snapshot. MPD reports volume 0-100 and elapsed as
// fractional seconds.
func snapshotFromStatus(status, song mpd.Attrs) model.PlaybackSnapshot {
	snap := model.PlaybackSnapshot{
		IsPlaying: status["state"] == "play",
		Shuffle:   status["random"] == "1",
		Loop:      loopFromStatus(status),
		Volume:    1,
	}

	if uri := song["file"]; uri != "" && status["state"] != "stop" {
		snap.CurrentTrackID = trackID(uri)
	}

	if elapsed, err := strconv.ParseFloat(status["elapsed"], 64); err == nil {
		snap.ElapsedSecs = elapsed
	}

	if d, err := strconv.ParseFloat(status["duration"], 64); err == nil {
		snap.DurationSecs = int(d)
	} else if d, err := strconv.Atoi(song["Time"]); err == nil {
		snap.DurationSecs = d
	}

	if vol, err := strconv.Atoi(status["volume"]); err == nil && vol >= 0 {
		snap.Volume = model.ClampUnit(float64(vol) / 100)
	}

	return snap
}
