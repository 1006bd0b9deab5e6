// Package store holds the in-process mirror of the daemon's state. The
// mirror is the single shared mutable resource of the client; every other
// component reads it through snapshots or reacts to it through
// subscriptions.
package store

import (
	"sync"

	"github.com/edumarques81/lumen-audioplayer-frontend/internal/model"
)

// Snapshot is a self-consistent value of the whole mirror. The maps are
// never mutated after a snapshot is taken; mutators install fresh maps
// instead, so holding a Snapshot across goroutines is safe.
type Snapshot struct {
	// Version increments on every mutation except album art updates.
	// Derived views memoize on it.
	Version uint64

	// ArtVersion increments only when the album art side channel is
	// replaced, so large payloads do not invalidate unrelated views.
	ArtVersion uint64

	Library          map[string]model.Track
	Playlists        map[string]model.Playlist
	Playback         model.PlaybackSnapshot
	ActivePlaylistID string

	// AlbumArt is the base64 image payload for the current track, or
	// empty when none has been pushed.
	AlbumArt string
}

// Subscriber receives the new snapshot after every mutation.
type Subscriber func(Snapshot)

// Store is the canonical client-side state. It is constructed once at
// application start and passed to the components that need it; mutation
// happens only through the event ingestion channel and the command
// dispatcher.
type Store struct {
	mu      sync.RWMutex
	snap    Snapshot
	subs    map[int]Subscriber
	nextSub int
}

// New returns an empty mirror with default playback state. Derived views
// over it degrade to their zero projections until the initial fetch lands.
func New() *Store {
	return &Store{
		snap: Snapshot{
			Library:   map[string]model.Track{},
			Playlists: map[string]model.Playlist{},
			Playback:  model.PlaybackSnapshot{Volume: 1},
		},
		subs: map[int]Subscriber{},
	}
}

// Snapshot returns the current state of the mirror.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers fn to be called synchronously with the new snapshot
// after every mutation. The returned cancel func is idempotent.
func (s *Store) Subscribe(fn Subscriber) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// mutate applies fn to the snapshot under the write lock, bumps the
// version unless fn reports an art-only change, and notifies subscribers
// with the resulting snapshot.
func (s *Store) mutate(artOnly bool, fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	if artOnly {
		s.snap.ArtVersion++
	} else {
		s.snap.Version++
	}
	snap := s.snap
	subs := make([]Subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

// ApplyInitial installs the daemon's startup snapshot wholesale.
func (s *Store) ApplyInitial(init model.InitialState) {
	library := indexTracks(init.Library)
	playlists := make(map[string]model.Playlist, len(init.Playlists))
	for _, pl := range init.Playlists {
		playlists[pl.ID] = pl
	}
	playback := init.Playback
	playback.Volume = model.ClampUnit(playback.Volume)

	s.mutate(false, func(snap *Snapshot) {
		snap.Library = library
		snap.Playlists = playlists
		snap.Playback = playback
		snap.ActivePlaylistID = init.ActivePlaylistID
	})
}

// ReplacePlayback overwrites the playback snapshot with a complete value
// from a daemon push. No field of the previous snapshot survives.
func (s *Store) ReplacePlayback(pb model.PlaybackSnapshot) {
	pb.Volume = model.ClampUnit(pb.Volume)
	s.mutate(false, func(snap *Snapshot) {
		snap.Playback = pb
	})
}

// ReplaceLibrary overwrites the whole library mapping with the given
// tracks, keyed by ID.
func (s *Store) ReplaceLibrary(tracks []model.Track) {
	library := indexTracks(tracks)
	s.mutate(false, func(snap *Snapshot) {
		snap.Library = library
	})
}

// ReplacePlaylists overwrites the playlist mapping.
func (s *Store) ReplacePlaylists(playlists []model.Playlist) {
	index := make(map[string]model.Playlist, len(playlists))
	for _, pl := range playlists {
		index[pl.ID] = pl
	}
	s.mutate(false, func(snap *Snapshot) {
		snap.Playlists = index
	})
}

// SetActivePlaylist records the playlist currently in focus. It is only
// ever changed by explicit user selection.
func (s *Store) SetActivePlaylist(id string) {
	s.mutate(false, func(snap *Snapshot) {
		snap.ActivePlaylistID = id
	})
}

// SetVolume applies an optimistic volume value, clamped to [0,1].
func (s *Store) SetVolume(v float64) {
	v = model.ClampUnit(v)
	s.mutate(false, func(snap *Snapshot) {
		snap.Playback.Volume = v
	})
}

// SetPlaying records the daemon-confirmed is-playing flag.
func (s *Store) SetPlaying(playing bool) {
	s.mutate(false, func(snap *Snapshot) {
		snap.Playback.IsPlaying = playing
	})
}

// SetShuffle records the daemon-confirmed shuffle flag.
func (s *Store) SetShuffle(on bool) {
	s.mutate(false, func(snap *Snapshot) {
		snap.Playback.Shuffle = on
	})
}

// SetLoopMode records the daemon-confirmed loop mode.
func (s *Store) SetLoopMode(mode model.LoopMode) {
	s.mutate(false, func(snap *Snapshot) {
		snap.Playback.Loop = mode
	})
}

// SetAlbumArt replaces the album art side channel. Only ArtVersion moves,
// so playback and library derivations keep their memoized values.
func (s *Store) SetAlbumArt(b64 string) {
	s.mutate(true, func(snap *Snapshot) {
		snap.AlbumArt = b64
	})
}

func indexTracks(tracks []model.Track) map[string]model.Track {
	index := make(map[string]model.Track, len(tracks))
	for _, tr := range tracks {
		index[tr.ID] = tr
	}
	return index
}
