// Package backend defines the command/event surface of the playback
// daemon and the wire adapter that maps its payloads onto the canonical
// model. The daemon owns real playback; everything here is a round trip
// or a push notification.
package backend

import (
	"context"
	"encoding/json"

	"github.com/edumarques81/lumen-audioplayer-frontend/internal/model"
)

// Topic names a channel of daemon-pushed notifications.
type Topic string

const (
	// TopicPlaybackStatus carries a full PlaybackSnapshot, optionally
	// with an embedded song list.
	TopicPlaybackStatus Topic = "playback_status"

	// TopicAlbumArt carries the base64 image for the current track.
	TopicAlbumArt Topic = "album_art"

	// TopicError carries a human-readable daemon error message.
	TopicError Topic = "error"
)

// Event is one pushed notification. Payload is decoded lazily at the
// ingestion boundary so the transport stays schema-agnostic.
type Event struct {
	Topic   Topic
	Payload json.RawMessage
}

// Subscriber hands out per-topic event streams. Cancellation is
// idempotent and events published after cancel are never delivered.
type Subscriber interface {
	Subscribe(topic Topic) (<-chan Event, func())
}

// Client is the full command surface of the daemon. Every call is a
// single round trip; state changes are confirmed either by the return
// value or by a later push on TopicPlaybackStatus.
type Client interface {
	Subscriber

	// FetchInitialState returns the complete startup snapshot.
	FetchInitialState(ctx context.Context) (model.InitialState, error)

	// ScanDirectory asks the daemon to scan an absolute path and
	// returns the discovered tracks.
	ScanDirectory(ctx context.Context, path string) ([]model.Track, error)

	// PlayTrack starts playback of a track; confirmed via push.
	PlayTrack(ctx context.Context, trackID string) error

	// Pause and Resume control playback; confirmed via push.
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error

	// TogglePlayback flips play/pause and returns the authoritative
	// is-playing flag.
	TogglePlayback(ctx context.Context) (bool, error)

	// SetVolume sets the daemon volume, 0.0 to 1.0.
	SetVolume(ctx context.Context, volume float64) error

	// SelectPlaylist records the active playlist on the daemon.
	SelectPlaylist(ctx context.Context, playlistID string) error

	// ToggleShuffle flips shuffle and returns the new value.
	ToggleShuffle(ctx context.Context) (bool, error)

	// CycleLoopMode advances the loop mode and returns the new value.
	CycleLoopMode(ctx context.Context) (model.LoopMode, error)

	// Close tears the connection down. Idempotent.
	Close() error
}
