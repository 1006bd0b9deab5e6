package views

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/edumarques81/lumen-audioplayer-frontend/internal/model"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/store"
)

func TestProgressRatioZeroDurationYieldsZero(t *testing.T) {
	s := store.New()
	s.ReplacePlayback(model.PlaybackSnapshot{ElapsedSecs: 15, DurationSecs: 0})

	if got := ProgressRatio(s.Snapshot()); got != 0 {
		t.Errorf("expected 0 for zero duration, got %v", got)
	}
}

func TestProgressRatioClampsTransientOverrun(t *testing.T) {
	s := store.New()
	// Elapsed briefly exceeds duration during track transition.
	s.ReplacePlayback(model.PlaybackSnapshot{ElapsedSecs: 181.5, DurationSecs: 180})

	if got := ProgressRatio(s.Snapshot()); got != 1 {
		t.Errorf("expected clamp to 1, got %v", got)
	}
}

func TestProgressRatio(t *testing.T) {
	s := store.New()
	s.ReplacePlayback(model.PlaybackSnapshot{ElapsedSecs: 45, DurationSecs: 180})

	if got := ProgressRatio(s.Snapshot()); got != 0.25 {
		t.Errorf("expected 0.25, got %v", got)
	}
}

func TestCurrentTrackAbsentFromLibraryIsNotFound(t *testing.T) {
	s := store.New()
	s.ReplaceLibrary([]model.Track{{ID: "a"}})
	s.ReplacePlayback(model.PlaybackSnapshot{CurrentTrackID: "ghost"})

	if _, ok := CurrentTrack(s.Snapshot()); ok {
		t.Error("expected no current track for unknown id")
	}
}

func TestCurrentTrackEmptyIDIsNotFound(t *testing.T) {
	s := store.New()
	s.ReplaceLibrary([]model.Track{{ID: "a"}})

	if _, ok := CurrentTrack(s.Snapshot()); ok {
		t.Error("expected no current track when nothing is loaded")
	}
}

func TestCurrentTrackResolvesAgainstLibrary(t *testing.T) {
	s := store.New()
	s.ReplaceLibrary([]model.Track{{ID: "a", Title: "Song A"}})
	s.ReplacePlayback(model.PlaybackSnapshot{CurrentTrackID: "a", IsPlaying: true, DurationSecs: 180})

	tr, ok := CurrentTrack(s.Snapshot())
	if !ok {
		t.Fatal("expected current track to resolve")
	}
	if tr.Title != "Song A" {
		t.Errorf("expected Song A, got %q", tr.Title)
	}
}

func TestActivePlaylistTracksOmitsUnresolvedIDs(t *testing.T) {
	s := store.New()
	s.ReplaceLibrary([]model.Track{{ID: "a", Title: "A"}, {ID: "c", Title: "C"}})
	s.ReplacePlaylists([]model.Playlist{{ID: "p1", TrackIDs: []string{"a", "b", "c"}}})
	s.SetActivePlaylist("p1")

	tracks := ActivePlaylistTracks(s.Snapshot())
	want := []model.Track{{ID: "a", Title: "A"}, {ID: "c", Title: "C"}}
	if diff := deep.Equal(tracks, want); diff != nil {
		t.Errorf("unresolved id not omitted: %v", diff)
	}
}

func TestActivePlaylistTracksPreservesOrderAndDuplicates(t *testing.T) {
	s := store.New()
	s.ReplaceLibrary([]model.Track{{ID: "a"}, {ID: "b"}})
	s.ReplacePlaylists([]model.Playlist{{ID: "p1", TrackIDs: []string{"b", "a", "b"}}})
	s.SetActivePlaylist("p1")

	tracks := ActivePlaylistTracks(s.Snapshot())
	if len(tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(tracks))
	}
	if tracks[0].ID != "b" || tracks[1].ID != "a" || tracks[2].ID != "b" {
		t.Errorf("order not preserved: %+v", tracks)
	}
}

func TestActivePlaylistTracksEmptyWhenNoSelection(t *testing.T) {
	s := store.New()
	if tracks := ActivePlaylistTracks(s.Snapshot()); len(tracks) != 0 {
		t.Errorf("expected empty sequence, got %+v", tracks)
	}
}

func TestEmptyStoreDerivationsDegradeToDefaults(t *testing.T) {
	// Before the initial fetch lands the store is empty; every derivation
	// must tolerate it.
	s := store.New()
	e := NewEngine(s)
	p := e.Project()

	if p.HasCurrentTrack {
		t.Error("expected no current track on empty store")
	}
	if p.HasActivePlaylist {
		t.Error("expected no active playlist on empty store")
	}
	if len(p.ActivePlaylistTracks) != 0 {
		t.Error("expected no playlist tracks on empty store")
	}
	if p.ProgressRatio != 0 {
		t.Errorf("expected ratio 0, got %v", p.ProgressRatio)
	}
}

func TestEngineMemoizesPerVersion(t *testing.T) {
	s := store.New()
	s.ReplaceLibrary([]model.Track{{ID: "a", Title: "A"}})
	s.ReplacePlaylists([]model.Playlist{{ID: "p1", TrackIDs: []string{"a"}}})
	s.SetActivePlaylist("p1")

	e := NewEngine(s)
	first := e.Project()
	second := e.Project()

	if diff := deep.Equal(first, second); diff != nil {
		t.Errorf("identical version produced different projections: %v", diff)
	}

	s.ReplacePlayback(model.PlaybackSnapshot{CurrentTrackID: "a", DurationSecs: 60, ElapsedSecs: 30})
	third := e.Project()
	if !third.HasCurrentTrack {
		t.Error("engine did not recompute after version bump")
	}
	if third.ProgressRatio != 0.5 {
		t.Errorf("expected ratio 0.5 after recompute, got %v", third.ProgressRatio)
	}
}

func TestEngineIgnoresArtOnlyChanges(t *testing.T) {
	s := store.New()
	e := NewEngine(s)

	before := e.Project()
	s.SetAlbumArt("aW1hZ2U=")
	after := e.Project()

	if diff := deep.Equal(before, after); diff != nil {
		t.Errorf("art-only change recomputed unrelated projections: %v", diff)
	}
}
