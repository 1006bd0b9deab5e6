package backend

import (
	"encoding/json"
	"fmt"

	"github.com/edumarques81/lumen-audioplayer-frontend/internal/model"
)

// statusPayload is the wire shape of a playback_status push. The daemon
// always sends a complete snapshot; Songs is present only when the
// library changed alongside playback (for example after a scan).
type statusPayload struct {
	IsPlaying      bool           `json:"is_playing"`
	CurrentTrackID string         `json:"current_track_id"`
	ElapsedSecs    float64        `json:"elapsed_secs"`
	DurationSecs   int            `json:"duration_secs"`
	Volume         float64        `json:"volume"`
	Shuffle        bool           `json:"shuffle"`
	LoopMode       model.LoopMode `json:"loop_mode"`
	Songs          []model.Track  `json:"songs,omitempty"`
}

// DecodePlaybackStatus maps a playback_status payload onto the canonical
// snapshot plus the optional embedded song list (nil when absent).
func DecodePlaybackStatus(payload json.RawMessage) (model.PlaybackSnapshot, []model.Track, error) {
	var p statusPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return model.PlaybackSnapshot{}, nil, fmt.Errorf("decode playback status: %w", err)
	}
	snap := model.PlaybackSnapshot{
		IsPlaying:      p.IsPlaying,
		CurrentTrackID: p.CurrentTrackID,
		ElapsedSecs:    p.ElapsedSecs,
		DurationSecs:   p.DurationSecs,
		Volume:         model.ClampUnit(p.Volume),
		Shuffle:        p.Shuffle,
		Loop:           p.LoopMode,
	}
	return snap, p.Songs, nil
}

// EncodePlaybackStatus builds a playback_status payload. Used by the MPD
// bridge, which produces pushes locally instead of relaying them.
func EncodePlaybackStatus(snap model.PlaybackSnapshot, songs []model.Track) (json.RawMessage, error) {
	return json.Marshal(statusPayload{
		IsPlaying:      snap.IsPlaying,
		CurrentTrackID: snap.CurrentTrackID,
		ElapsedSecs:    snap.ElapsedSecs,
		DurationSecs:   snap.DurationSecs,
		Volume:         snap.Volume,
		Shuffle:        snap.Shuffle,
		LoopMode:       snap.Loop,
		Songs:          songs,
	})
}

// DecodeAlbumArt returns the base64 image payload of an album_art push.
// The daemon sends null to clear the art.
func DecodeAlbumArt(payload json.RawMessage) (string, error) {
	var art *string
	if err := json.Unmarshal(payload, &art); err != nil {
		return "", fmt.Errorf("decode album art: %w", err)
	}
	if art == nil {
		return "", nil
	}
	return *art, nil
}

// DecodeError returns the human-readable message of an error push.
func DecodeError(payload json.RawMessage) (string, error) {
	var msg string
	if err := json.Unmarshal(payload, &msg); err != nil {
		return "", fmt.Errorf("decode error event: %w", err)
	}
	return msg, nil
}
