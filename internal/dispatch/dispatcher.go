// Package dispatch translates user intents into daemon commands and
// reconciles the results with the state mirror.
//
// Two reconciliation policies exist, chosen per command. Confirm-then-
// apply commands (toggle playback, shuffle, loop mode) wait for the
// daemon's authoritative return value before touching the mirror.
// Apply-then-call commands (volume, playlist selection) mutate the
// mirror first for responsiveness; a rejected call is not rolled back,
// the next status push is the corrector.
package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/lumen-audioplayer-frontend/internal/backend"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/model"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/store"
)

// FolderPicker is the out-of-scope file dialog collaborator. ok=false
// means the user cancelled, which is a no-op and never an error.
type FolderPicker interface {
	PickFolder(ctx context.Context) (path string, ok bool, err error)
}

// defaultVolumeWindow bounds how often a slider drag reaches the daemon.
const defaultVolumeWindow = 80 * time.Millisecond

// callTimeout bounds the deferred volume call, which runs outside any
// caller context.
const callTimeout = 5 * time.Second

// Dispatcher is the single gateway for user intents. Every daemon
// failure is caught here and logged with the command and its input;
// errors are also returned so awaitable callers can react, but ignoring
// them is always safe.
type Dispatcher struct {
	backend backend.Client
	store   *store.Store
	picker  FolderPicker
	volume  *volumeCoalescer
}

// New wires a dispatcher. picker may be nil when the host never scans.
func New(b backend.Client, st *store.Store, picker FolderPicker) *Dispatcher {
	return NewWithVolumeWindow(b, st, picker, defaultVolumeWindow)
}

// NewWithVolumeWindow is New with an explicit volume coalescing window.
func NewWithVolumeWindow(b backend.Client, st *store.Store, picker FolderPicker, window time.Duration) *Dispatcher {
	d := &Dispatcher{backend: b, store: st, picker: picker}
	d.volume = newVolumeCoalescer(window, d.sendVolume)
	return d
}

// Close flushes any pending coalesced volume call.
func (d *Dispatcher) Close() {
	d.volume.Stop()
}

// TogglePlayback flips play/pause. Confirm-then-apply: the mirror keeps
// the previous state until the daemon answers.
func (d *Dispatcher) TogglePlayback(ctx context.Context) error {
	playing, err := d.backend.TogglePlayback(ctx)
	if err != nil {
		log.Error().Err(err).Str("command", "toggle_playback").Msg("Command failed")
		return err
	}
	d.store.SetPlaying(playing)
	return nil
}

// ToggleShuffle flips shuffle. Confirm-then-apply.
func (d *Dispatcher) ToggleShuffle(ctx context.Context) error {
	on, err := d.backend.ToggleShuffle(ctx)
	if err != nil {
		log.Error().Err(err).Str("command", "toggle_shuffle").Msg("Command failed")
		return err
	}
	d.store.SetShuffle(on)
	return nil
}

// CycleLoopMode advances the loop mode. Confirm-then-apply.
func (d *Dispatcher) CycleLoopMode(ctx context.Context) error {
	mode, err := d.backend.CycleLoopMode(ctx)
	if err != nil {
		log.Error().Err(err).Str("command", "cycle_loop_mode").Msg("Command failed")
		return err
	}
	d.store.SetLoopMode(mode)
	return nil
}

// PlayTrack starts a track. The daemon confirms via a status push, so
// the mirror is not touched here.
func (d *Dispatcher) PlayTrack(ctx context.Context, trackID string) error {
	if err := d.backend.PlayTrack(ctx, trackID); err != nil {
		log.Error().Err(err).Str("command", "play_track").Str("track_id", trackID).Msg("Command failed")
		return err
	}
	return nil
}

// Pause pauses playback; confirmed via push.
func (d *Dispatcher) Pause(ctx context.Context) error {
	if err := d.backend.Pause(ctx); err != nil {
		log.Error().Err(err).Str("command", "pause").Msg("Command failed")
		return err
	}
	return nil
}

// Resume resumes playback; confirmed via push.
func (d *Dispatcher) Resume(ctx context.Context) error {
	if err := d.backend.Resume(ctx); err != nil {
		log.Error().Err(err).Str("command", "resume").Msg("Command failed")
		return err
	}
	return nil
}

// SetVolume applies the clamped value to the mirror immediately and
// schedules the daemon call through the coalescer. Apply-then-call: a
// rejected call leaves the optimistic value in place.
func (d *Dispatcher) SetVolume(volume float64) {
	volume = model.ClampUnit(volume)
	d.store.SetVolume(volume)
	d.volume.Set(volume)
}

func (d *Dispatcher) sendVolume(volume float64) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	if err := d.backend.SetVolume(ctx, volume); err != nil {
		// No rollback: the next status push corrects the mirror.
		log.Error().Err(err).Str("command", "set_volume").Float64("volume", volume).Msg("Command failed")
	}
}

// SelectPlaylist focuses a playlist. Apply-then-call.
func (d *Dispatcher) SelectPlaylist(ctx context.Context, playlistID string) error {
	d.store.SetActivePlaylist(playlistID)
	if err := d.backend.SelectPlaylist(ctx, playlistID); err != nil {
		log.Error().Err(err).Str("command", "select_playlist").Str("playlist_id", playlistID).Msg("Command failed")
		return err
	}
	return nil
}

// ScanLibrary opens the folder picker and, if the user chose a path,
// asks the daemon to scan it and replaces the whole library with the
// result. Cancellation is a silent no-op.
func (d *Dispatcher) ScanLibrary(ctx context.Context) error {
	path, ok, err := d.picker.PickFolder(ctx)
	if err != nil {
		log.Error().Err(err).Str("command", "scan_directory").Msg("Folder picker failed")
		return err
	}
	if !ok {
		log.Debug().Msg("Folder selection cancelled")
		return nil
	}

	tracks, err := d.backend.ScanDirectory(ctx, path)
	if err != nil {
		log.Error().Err(err).Str("command", "scan_directory").Str("path", path).Msg("Command failed")
		return err
	}

	d.store.ReplaceLibrary(tracks)
	log.Info().Str("path", path).Int("tracks", len(tracks)).Msg("Library replaced from scan")
	return nil
}
