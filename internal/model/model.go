// Package model defines the canonical state schema mirrored from the
// playback daemon. The daemon owns every value here; the client never
// invents library or playback data, it only replaces its mirror.
package model

import (
	"encoding/json"
	"fmt"
)

// Track is a single audio file in the library. Identity is the ID, a
// stable string the daemon derives from the file path. All other fields
// are display data and are never mutated client-side.
type Track struct {
	ID           string `json:"id"`
	Path         string `json:"path"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Album        string `json:"album"`
	DurationSecs int    `json:"duration_secs"`
}

// Playlist is an ordered sequence of track IDs. Order is meaningful and
// a track may appear more than once.
type Playlist struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	TrackIDs []string `json:"track_ids"`
}

// LoopMode is the repeat behaviour of the player.
type LoopMode uint8

const (
	LoopOff LoopMode = iota
	LoopPlaylist
	LoopTrack

	loopLen
)

// Cycle returns the mode that follows m when the loop button is pressed
// repeatedly: off -> playlist -> single track -> off.
func (m LoopMode) Cycle() LoopMode {
	return (m + 1) % loopLen
}

// String returns the wire name of the mode.
func (m LoopMode) String() string {
	switch m {
	case LoopPlaylist:
		return "playlist"
	case LoopTrack:
		return "single"
	default:
		return "off"
	}
}

// ParseLoopMode converts a wire name to a LoopMode.
func ParseLoopMode(s string) (LoopMode, error) {
	switch s {
	case "off":
		return LoopOff, nil
	case "playlist":
		return LoopPlaylist, nil
	case "single":
		return LoopTrack, nil
	}
	return LoopOff, fmt.Errorf("unknown loop mode %q", s)
}

// MarshalJSON encodes the mode as its wire name.
func (m LoopMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a wire name into the mode.
func (m *LoopMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLoopMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// PlaybackSnapshot is the complete "what is happening now" value. Each
// daemon push carries a whole snapshot; the mirror replaces, never merges.
type PlaybackSnapshot struct {
	IsPlaying      bool     `json:"is_playing"`
	CurrentTrackID string   `json:"current_track_id"` // empty means nothing loaded
	ElapsedSecs    float64  `json:"elapsed_secs"`
	DurationSecs   int      `json:"duration_secs"`
	Volume         float64  `json:"volume"` // 0.0 to 1.0
	Shuffle        bool     `json:"shuffle"`
	Loop           LoopMode `json:"loop_mode"`
}

// InitialState is the full snapshot returned by the daemon's startup
// fetch: library, playlists, playback, and the active playlist selector.
type InitialState struct {
	Library          []Track          `json:"library"`
	Playlists        []Playlist       `json:"playlists"`
	Playback         PlaybackSnapshot `json:"playback"`
	ActivePlaylistID string           `json:"active_playlist_id"`
}

// ClampUnit clamps v to the closed interval [0, 1]. Volume and progress
// values cross this before being stored or sent to the daemon.
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
