// Package ingest ties the daemon's push topics to the state mirror. One
// subscription per topic lives for the whole application; each received
// snapshot replaces its store slice wholesale.
package ingest

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/lumen-audioplayer-frontend/internal/backend"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/store"
)

// ErrorSink receives daemon-reported errors. They never touch the store;
// surfacing them is a presentational concern.
type ErrorSink interface {
	BackendError(msg string)
}

// LogSink reports daemon errors to the structured log. The default sink.
type LogSink struct{}

// BackendError implements ErrorSink.
func (LogSink) BackendError(msg string) {
	log.Error().Str("source", "daemon").Msg(msg)
}

// Channel is the live set of topic subscriptions feeding the store.
type Channel struct {
	store *store.Store
	sink  ErrorSink

	cancels   []func()
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open subscribes to every daemon topic and starts applying pushes to
// st. A nil sink falls back to LogSink. Close releases all
// subscriptions; callers must pair every Open with exactly one Close.
func Open(sub backend.Subscriber, st *store.Store, sink ErrorSink) *Channel {
	if sink == nil {
		sink = LogSink{}
	}
	c := &Channel{store: st, sink: sink}

	c.run(sub, backend.TopicPlaybackStatus, c.applyStatus)
	c.run(sub, backend.TopicAlbumArt, c.applyAlbumArt)
	c.run(sub, backend.TopicError, c.forwardError)

	return c
}

// run subscribes to one topic and consumes it on its own goroutine,
// preserving the per-topic delivery order.
func (c *Channel) run(sub backend.Subscriber, topic backend.Topic, apply func(backend.Event)) {
	ch, cancel := sub.Subscribe(topic)
	c.cancels = append(c.cancels, cancel)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for ev := range ch {
			apply(ev)
		}
	}()
}

func (c *Channel) applyStatus(ev backend.Event) {
	snap, songs, err := backend.DecodePlaybackStatus(ev.Payload)
	if err != nil {
		log.Warn().Err(err).Msg("Dropping malformed playback push")
		return
	}
	// Install the embedded song list before the snapshot that may
	// reference it.
	if songs != nil {
		c.store.ReplaceLibrary(songs)
	}
	c.store.ReplacePlayback(snap)
}

func (c *Channel) applyAlbumArt(ev backend.Event) {
	art, err := backend.DecodeAlbumArt(ev.Payload)
	if err != nil {
		log.Warn().Err(err).Msg("Dropping malformed album art push")
		return
	}
	c.store.SetAlbumArt(art)
}

func (c *Channel) forwardError(ev backend.Event) {
	msg, err := backend.DecodeError(ev.Payload)
	if err != nil {
		log.Warn().Err(err).Msg("Dropping malformed error push")
		return
	}
	c.sink.BackendError(msg)
}

// Close cancels every subscription and waits for in-flight applies to
// finish. Idempotent; events emitted after Close never reach the store.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		for _, cancel := range c.cancels {
			cancel()
		}
		c.wg.Wait()
	})
}
