// Package views derives read-only projections from store snapshots.
// Every projection is a pure function of the snapshot value: identical
// inputs always yield identical outputs, and no projection touches the
// daemon or mutates anything.
package views

import (
	"sync"

	"github.com/edumarques81/lumen-audioplayer-frontend/internal/model"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/store"
)

// CurrentTrack resolves the playing track against the library. It reports
// ok=false when nothing is loaded or when the library has not caught up
// with the pushed ID yet; a dangling reference is a normal absent case,
// never an error.
func CurrentTrack(snap store.Snapshot) (model.Track, bool) {
	id := snap.Playback.CurrentTrackID
	if id == "" {
		return model.Track{}, false
	}
	tr, ok := snap.Library[id]
	return tr, ok
}

// ActivePlaylist resolves the playlist currently in focus, ok=false when
// none is selected or the selector is dangling.
func ActivePlaylist(snap store.Snapshot) (model.Playlist, bool) {
	if snap.ActivePlaylistID == "" {
		return model.Playlist{}, false
	}
	pl, ok := snap.Playlists[snap.ActivePlaylistID]
	return pl, ok
}

// ActivePlaylistTracks maps the active playlist's track IDs to full
// tracks. IDs the library has not loaded are silently omitted.
func ActivePlaylistTracks(snap store.Snapshot) []model.Track {
	pl, ok := ActivePlaylist(snap)
	if !ok {
		return nil
	}
	tracks := make([]model.Track, 0, len(pl.TrackIDs))
	for _, id := range pl.TrackIDs {
		if tr, ok := snap.Library[id]; ok {
			tracks = append(tracks, tr)
		}
	}
	return tracks
}

// ProgressRatio returns elapsed/duration clamped to [0,1]. A zero
// duration yields 0, guarding against division by zero during track
// transitions and the empty startup state.
func ProgressRatio(snap store.Snapshot) float64 {
	d := snap.Playback.DurationSecs
	if d <= 0 {
		return 0
	}
	return model.ClampUnit(snap.Playback.ElapsedSecs / float64(d))
}

// Projection bundles every derivation for one snapshot version.
type Projection struct {
	CurrentTrack    model.Track
	HasCurrentTrack bool

	ActivePlaylist    model.Playlist
	HasActivePlaylist bool

	ActivePlaylistTracks []model.Track
	ProgressRatio        float64
}

// Engine computes projections over a store and caches the result per
// snapshot version, so repeated reads between mutations cost one map
// lookup instead of a recomputation.
type Engine struct {
	store *store.Store

	mu      sync.Mutex
	version uint64
	cached  Projection
	valid   bool
}

// NewEngine returns an engine bound to st.
func NewEngine(st *store.Store) *Engine {
	return &Engine{store: st}
}

// Project returns the projection for the store's current snapshot,
// recomputing only when the snapshot version moved.
func (e *Engine) Project() Projection {
	snap := e.store.Snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.valid && e.version == snap.Version {
		return e.cached
	}

	p := Projection{ProgressRatio: ProgressRatio(snap)}
	p.CurrentTrack, p.HasCurrentTrack = CurrentTrack(snap)
	p.ActivePlaylist, p.HasActivePlaylist = ActivePlaylist(snap)
	p.ActivePlaylistTracks = ActivePlaylistTracks(snap)

	e.version = snap.Version
	e.cached = p
	e.valid = true
	return p
}
