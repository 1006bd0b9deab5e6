package store

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/edumarques81/lumen-audioplayer-frontend/internal/model"
)

func TestNewStoreHasEmptyDefaults(t *testing.T) {
	s := New()
	snap := s.Snapshot()

	if len(snap.Library) != 0 {
		t.Errorf("expected empty library, got %d tracks", len(snap.Library))
	}
	if len(snap.Playlists) != 0 {
		t.Errorf("expected empty playlists, got %d", len(snap.Playlists))
	}
	if snap.Playback.CurrentTrackID != "" {
		t.Errorf("expected no current track, got %q", snap.Playback.CurrentTrackID)
	}
	if snap.Playback.Volume != 1 {
		t.Errorf("expected default volume 1, got %v", snap.Playback.Volume)
	}
}

func TestReplacePlaybackLastWriteWins(t *testing.T) {
	s := New()

	e1 := model.PlaybackSnapshot{
		IsPlaying:      true,
		CurrentTrackID: "a",
		ElapsedSecs:    42,
		DurationSecs:   180,
		Volume:         0.8,
		Shuffle:        true,
		Loop:           model.LoopPlaylist,
	}
	e2 := model.PlaybackSnapshot{
		CurrentTrackID: "b",
		DurationSecs:   90,
		Volume:         0.5,
	}

	s.ReplacePlayback(e1)
	s.ReplacePlayback(e2)

	// No field from e1 survives: the push is a whole snapshot.
	if diff := deep.Equal(s.Snapshot().Playback, e2); diff != nil {
		t.Errorf("playback does not equal the second push: %v", diff)
	}
}

func TestReplacePlaybackClampsVolume(t *testing.T) {
	s := New()
	s.ReplacePlayback(model.PlaybackSnapshot{Volume: 2.5})
	if got := s.Snapshot().Playback.Volume; got != 1 {
		t.Errorf("expected volume clamped to 1, got %v", got)
	}

	s.ReplacePlayback(model.PlaybackSnapshot{Volume: -0.1})
	if got := s.Snapshot().Playback.Volume; got != 0 {
		t.Errorf("expected volume clamped to 0, got %v", got)
	}
}

func TestReplaceLibraryKeysTracksByID(t *testing.T) {
	s := New()
	s.ReplaceLibrary([]model.Track{
		{ID: "a", Title: "First"},
		{ID: "b", Title: "Second"},
	})

	snap := s.Snapshot()
	if len(snap.Library) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(snap.Library))
	}
	if snap.Library["a"].Title != "First" || snap.Library["b"].Title != "Second" {
		t.Errorf("library not keyed by id: %+v", snap.Library)
	}
}

func TestReplaceLibraryIsWholesale(t *testing.T) {
	s := New()
	s.ReplaceLibrary([]model.Track{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	s.ReplaceLibrary([]model.Track{{ID: "d"}})

	snap := s.Snapshot()
	if len(snap.Library) != 1 {
		t.Fatalf("expected 1 track after replacement, got %d", len(snap.Library))
	}
	if _, ok := snap.Library["d"]; !ok {
		t.Error("expected only the new track to remain")
	}
}

func TestApplyInitialInstallsAllSlices(t *testing.T) {
	s := New()
	s.ApplyInitial(model.InitialState{
		Library:   []model.Track{{ID: "a", Title: "Song"}},
		Playlists: []model.Playlist{{ID: "p1", Name: "Mix", TrackIDs: []string{"a", "a"}}},
		Playback: model.PlaybackSnapshot{
			CurrentTrackID: "a",
			Volume:         0.6,
		},
		ActivePlaylistID: "p1",
	})

	snap := s.Snapshot()
	if snap.Library["a"].Title != "Song" {
		t.Error("library not installed")
	}
	if got := snap.Playlists["p1"]; got.Name != "Mix" || len(got.TrackIDs) != 2 {
		t.Errorf("playlist not installed: %+v", got)
	}
	if snap.Playback.CurrentTrackID != "a" {
		t.Error("playback not installed")
	}
	if snap.ActivePlaylistID != "p1" {
		t.Error("active playlist selector not installed")
	}
}

func TestSubscribeNotifiesOnEveryMutation(t *testing.T) {
	s := New()

	var calls int
	var last Snapshot
	cancel := s.Subscribe(func(snap Snapshot) {
		calls++
		last = snap
	})
	defer cancel()

	s.SetVolume(0.4)
	s.SetPlaying(true)

	if calls != 2 {
		t.Fatalf("expected 2 notifications, got %d", calls)
	}
	if last.Playback.Volume != 0.4 || !last.Playback.IsPlaying {
		t.Errorf("subscriber saw stale snapshot: %+v", last.Playback)
	}
}

func TestSubscribeCancelIsIdempotent(t *testing.T) {
	s := New()

	var calls int
	cancel := s.Subscribe(func(Snapshot) { calls++ })

	cancel()
	cancel() // second cancel must be a no-op

	s.SetVolume(0.2)
	if calls != 0 {
		t.Errorf("expected no notifications after cancel, got %d", calls)
	}
}

func TestVersionIncrementsPerMutation(t *testing.T) {
	s := New()
	v0 := s.Snapshot().Version

	s.SetPlaying(true)
	s.SetActivePlaylist("p1")

	if got := s.Snapshot().Version; got != v0+2 {
		t.Errorf("expected version %d, got %d", v0+2, got)
	}
}

func TestSetAlbumArtDoesNotBumpStateVersion(t *testing.T) {
	s := New()
	before := s.Snapshot()

	s.SetAlbumArt("aGVsbG8=")

	after := s.Snapshot()
	if after.Version != before.Version {
		t.Errorf("album art bumped state version: %d -> %d", before.Version, after.Version)
	}
	if after.ArtVersion != before.ArtVersion+1 {
		t.Errorf("expected art version bump, got %d -> %d", before.ArtVersion, after.ArtVersion)
	}
	if after.AlbumArt != "aGVsbG8=" {
		t.Errorf("album art not stored: %q", after.AlbumArt)
	}
}

func TestSetVolumeClamps(t *testing.T) {
	s := New()
	s.SetVolume(1.8)
	if got := s.Snapshot().Playback.Volume; got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
}
