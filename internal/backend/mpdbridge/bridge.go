package mpdbridge

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/lumen-audioplayer-frontend/internal/backend"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/model"
)

// queuePlaylistID is the single playlist the bridge exposes: MPD's play
// queue.
const queuePlaylistID = "queue"

// Bridge implements backend.Client against a local MPD server. Pushes
// are produced locally from MPD's idle notifications instead of being
// relayed from a daemon.
type Bridge struct {
	conn   *conn
	broker *backend.Broker

	mu      sync.Mutex
	uris    map[string]string // track ID -> MPD uri
	lastArt string            // uri whose art was last pushed

	closeOnce sync.Once
	watcher   *mpd.Watcher
	watchDone chan struct{}
}

// Connect dials MPD and starts the idle watcher that feeds the event
// topics.
func Connect(host string, port int, password string) (*Bridge, error) {
	b := &Bridge{
		conn:   newConn(host, port, password),
		broker: backend.NewBroker(),
		uris:   map[string]string{},
	}

	// Verify the server is reachable before wiring the watcher.
	if _, err := b.conn.status(); err != nil {
		return nil, err
	}

	watcher, err := b.conn.watch("player", "mixer", "options", "playlist")
	if err != nil {
		b.conn.close()
		return nil, err
	}
	b.watcher = watcher
	b.watchDone = make(chan struct{})
	go b.watchLoop()

	log.Info().Str("addr", b.conn.addr()).Msg("Connected to MPD bridge")
	return b, nil
}

// watchLoop converts MPD idle notifications into daemon-style pushes.
func (b *Bridge) watchLoop() {
	defer close(b.watchDone)

	for {
		select {
		case subsystem, ok := <-b.watcher.Event:
			if !ok {
				return
			}
			log.Debug().Str("subsystem", subsystem).Msg("MPD subsystem changed")
			b.pushStatus(subsystem == "playlist")
			if subsystem == "player" {
				b.pushAlbumArt()
			}
		case err, ok := <-b.watcher.Error:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("MPD watcher error")
			b.publishError(fmt.Sprintf("mpd watcher: %v", err))
		}
	}
}

// pushStatus publishes a playback_status event built from live MPD
// state. withSongs embeds the queue contents, matching the daemon's
// behaviour when the song list changed.
func (b *Bridge) pushStatus(withSongs bool) {
	status, err := b.conn.status()
	if err != nil {
		b.publishError(fmt.Sprintf("mpd status: %v", err))
		return
	}
	song, err := b.conn.currentSong()
	if err != nil {
		song = mpd.Attrs{}
	}

	var songs []model.Track
	if withSongs {
		songs = b.queueTracks()
	}

	payload, err := backend.EncodePlaybackStatus(snapshotFromStatus(status, song), songs)
	if err != nil {
		log.Error().Err(err).Msg("Encode playback status")
		return
	}
	b.broker.Publish(backend.Event{Topic: backend.TopicPlaybackStatus, Payload: payload})
}

// pushAlbumArt publishes the current track's embedded art once per track.
func (b *Bridge) pushAlbumArt() {
	song, err := b.conn.currentSong()
	if err != nil {
		return
	}
	uri := song["file"]

	b.mu.Lock()
	same := uri == b.lastArt
	b.lastArt = uri
	b.mu.Unlock()
	if same {
		return
	}

	var art *string
	if uri != "" {
		if data, err := b.conn.readPicture(uri); err == nil && len(data) > 0 {
			encoded := base64.StdEncoding.EncodeToString(data)
			art = &encoded
		} else if err != nil {
			log.Debug().Err(err).Str("uri", uri).Msg("No album art")
		}
	}

	payload, err := encodeJSON(art)
	if err != nil {
		return
	}
	b.broker.Publish(backend.Event{Topic: backend.TopicAlbumArt, Payload: payload})
}

func (b *Bridge) publishError(msg string) {
	payload, err := encodeJSON(msg)
	if err != nil {
		return
	}
	b.broker.Publish(backend.Event{Topic: backend.TopicError, Payload: payload})
}

// queueTracks returns MPD's queue as canonical tracks and refreshes the
// ID-to-uri index.
func (b *Bridge) queueTracks() []model.Track {
	entries, err := b.conn.playlistInfo()
	if err != nil {
		b.publishError(fmt.Sprintf("mpd queue: %v", err))
		return nil
	}

	tracks := make([]model.Track, 0, len(entries))
	b.mu.Lock()
	for _, attrs := range entries {
		tr := trackFromAttrs(attrs)
		b.uris[tr.ID] = attrs["file"]
		tracks = append(tracks, tr)
	}
	b.mu.Unlock()
	return tracks
}

// Subscribe implements backend.Subscriber.
func (b *Bridge) Subscribe(topic backend.Topic) (<-chan backend.Event, func()) {
	return b.broker.Subscribe(topic)
}

// FetchInitialState implements backend.Client. The library is MPD's full
// database; the only playlist is the play queue.
func (b *Bridge) FetchInitialState(ctx context.Context) (model.InitialState, error) {
	status, err := b.conn.status()
	if err != nil {
		return model.InitialState{}, err
	}
	song, err := b.conn.currentSong()
	if err != nil {
		song = mpd.Attrs{}
	}

	all, err := b.conn.listAllInfo("/")
	if err != nil {
		return model.InitialState{}, fmt.Errorf("list MPD database: %w", err)
	}

	library := make([]model.Track, 0, len(all))
	b.mu.Lock()
	for _, attrs := range all {
		if attrs["file"] == "" {
			continue // directory or playlist entry
		}
		tr := trackFromAttrs(attrs)
		b.uris[tr.ID] = attrs["file"]
		library = append(library, tr)
	}
	b.mu.Unlock()

	queue := b.queueTracks()
	ids := make([]string, len(queue))
	for i, tr := range queue {
		ids[i] = tr.ID
	}

	return model.InitialState{
		Library: library,
		Playlists: []model.Playlist{
			{ID: queuePlaylistID, Name: "Queue", TrackIDs: ids},
		},
		Playback:         snapshotFromStatus(status, song),
		ActivePlaylistID: queuePlaylistID,
	}, nil
}

// ScanDirectory implements backend.Client. The path is interpreted
// relative to MPD's music directory.
func (b *Bridge) ScanDirectory(ctx context.Context, path string) ([]model.Track, error) {
	entries, err := b.conn.listAllInfo(path)
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", path, err)
	}

	tracks := make([]model.Track, 0, len(entries))
	b.mu.Lock()
	for _, attrs := range entries {
		if attrs["file"] == "" {
			continue
		}
		tr := trackFromAttrs(attrs)
		b.uris[tr.ID] = attrs["file"]
		tracks = append(tracks, tr)
	}
	b.mu.Unlock()
	return tracks, nil
}

// PlayTrack implements backend.Client. Tracks not yet in the queue are
// appended first.
func (b *Bridge) PlayTrack(ctx context.Context, trackID string) error {
	b.mu.Lock()
	uri, ok := b.uris[trackID]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("play track %q: unknown id", trackID)
	}

	entries, err := b.conn.playlistInfo()
	if err != nil {
		return err
	}
	for pos, attrs := range entries {
		if attrs["file"] == uri {
			return b.conn.play(pos)
		}
	}

	if err := b.conn.add(uri); err != nil {
		return fmt.Errorf("enqueue %q: %w", uri, err)
	}
	return b.conn.play(len(entries))
}

// Pause implements backend.Client.
func (b *Bridge) Pause(ctx context.Context) error {
	return b.conn.pause(true)
}

// Resume implements backend.Client.
func (b *Bridge) Resume(ctx context.Context) error {
	return b.conn.pause(false)
}

// TogglePlayback implements backend.Client.
func (b *Bridge) TogglePlayback(ctx context.Context) (bool, error) {
	status, err := b.conn.status()
	if err != nil {
		return false, err
	}

	switch status["state"] {
	case "play":
		return false, b.conn.pause(true)
	case "pause":
		return true, b.conn.pause(false)
	default:
		return true, b.conn.play(-1)
	}
}

// SetVolume implements backend.Client, mapping 0.0-1.0 onto MPD's 0-100.
func (b *Bridge) SetVolume(ctx context.Context, volume float64) error {
	return b.conn.setVolume(int(model.ClampUnit(volume)*100 + 0.5))
}

// SelectPlaylist implements backend.Client. The bridge only has the
// queue; selection is accepted for it and rejected otherwise.
func (b *Bridge) SelectPlaylist(ctx context.Context, playlistID string) error {
	if playlistID != queuePlaylistID {
		return fmt.Errorf("select playlist %q: unknown id", playlistID)
	}
	return nil
}

// ToggleShuffle implements backend.Client.
func (b *Bridge) ToggleShuffle(ctx context.Context) (bool, error) {
	status, err := b.conn.status()
	if err != nil {
		return false, err
	}
	next := status["random"] != "1"
	if err := b.conn.random(next); err != nil {
		return false, err
	}
	return next, nil
}

// CycleLoopMode implements backend.Client, driving MPD's repeat/single
// flags through off -> playlist -> single track.
func (b *Bridge) CycleLoopMode(ctx context.Context) (model.LoopMode, error) {
	status, err := b.conn.status()
	if err != nil {
		return model.LoopOff, err
	}

	next := loopFromStatus(status).Cycle()
	if err := b.conn.repeat(next != model.LoopOff); err != nil {
		return model.LoopOff, err
	}
	if err := b.conn.single(next == model.LoopTrack); err != nil {
		return model.LoopOff, err
	}
	return next, nil
}

// Close implements backend.Client. Idempotent.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.watcher.Close()
		<-b.watchDone
		b.broker.Close()
		b.conn.close()
	})
	return nil
}
