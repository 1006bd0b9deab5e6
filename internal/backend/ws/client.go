// Package ws implements the daemon transport over a single WebSocket
// connection: JSON text frames carrying correlated request/response pairs
// and server-initiated event pushes.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/edumarques81/lumen-audioplayer-frontend/internal/backend"
	"github.com/edumarques81/lumen-audioplayer-frontend/internal/model"
)

// ErrClosed is returned for calls made after the connection went away.
var ErrClosed = errors.New("ws: connection closed")

const handshakeTimeout = 2 * time.Second

// envelope is the wire frame. Type selects which fields are meaningful:
// "req" carries id/cmd/params, "res" carries id/result/error, "event"
// carries topic/payload.
type envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Cmd     string          `json:"cmd,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Topic   backend.Topic   `json:"topic,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type response struct {
	result json.RawMessage
	err    error
}

// Client talks to the playback daemon. It satisfies backend.Client.
type Client struct {
	url     string
	timeout time.Duration

	conn    *websocket.Conn
	writeMu sync.Mutex

	pendMu  sync.Mutex
	pending map[string]chan response

	broker *backend.Broker

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the daemon at wsURL. timeout bounds each command
// round trip when the caller's context carries no earlier deadline.
func Dial(wsURL string, timeout time.Duration) (*Client, error) {
	d := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := d.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	c := &Client{
		url:     wsURL,
		timeout: timeout,
		conn:    conn,
		pending: map[string]chan response{},
		broker:  backend.NewBroker(),
		done:    make(chan struct{}),
	}
	go c.readLoop()

	log.Info().Str("url", wsURL).Msg("Connected to playback daemon")
	return c, nil
}

// DialRetry keeps dialing until the daemon accepts or ctx is cancelled.
func DialRetry(ctx context.Context, wsURL string, timeout time.Duration) (*Client, error) {
	for {
		c, err := Dial(wsURL, timeout)
		if err == nil {
			return c, nil
		}
		log.Warn().Err(err).Str("url", wsURL).Msg("Daemon not reachable, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// Done is closed when the connection is gone, whether by Close or by a
// transport failure.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down and fails all in-flight calls.
// Idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
		c.broker.Close()

		c.pendMu.Lock()
		for id, ch := range c.pending {
			delete(c.pending, id)
			ch <- response{err: ErrClosed}
		}
		c.pendMu.Unlock()
	})
	return nil
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				log.Error().Err(err).Msg("Daemon connection lost")
			}
			c.Close()
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn().Err(err).Msg("Malformed frame from daemon")
			continue
		}

		switch env.Type {
		case "res":
			c.resolve(env)
		case "event":
			c.broker.Publish(backend.Event{Topic: env.Topic, Payload: env.Payload})
		default:
			log.Warn().Str("type", env.Type).Msg("Unexpected frame type from daemon")
		}
	}
}

func (c *Client) resolve(env envelope) {
	c.pendMu.Lock()
	ch, ok := c.pending[env.ID]
	if ok {
		delete(c.pending, env.ID)
	}
	c.pendMu.Unlock()

	if !ok {
		log.Warn().Str("id", env.ID).Msg("Response for unknown request")
		return
	}

	if env.Error != "" {
		ch <- response{err: errors.New(env.Error)}
		return
	}
	ch <- response{result: env.Result}
}

// call performs one correlated round trip. A nil out discards the result.
func (c *Client) call(ctx context.Context, cmd string, params, out any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var rawParams json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("%s: marshal params: %w", cmd, err)
		}
		rawParams = data
	}

	id := uuid.NewString()
	respCh := make(chan response, 1)
	c.pendMu.Lock()
	c.pending[id] = respCh
	c.pendMu.Unlock()

	frame, err := json.Marshal(envelope{Type: "req", ID: id, Cmd: cmd, Params: rawParams})
	if err != nil {
		return fmt.Errorf("%s: marshal frame: %w", cmd, err)
	}

	c.writeMu.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, frame)
	c.writeMu.Unlock()
	if err != nil {
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return fmt.Errorf("%s: write: %w", cmd, err)
	}

	select {
	case <-ctx.Done():
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
		return fmt.Errorf("%s: %w", cmd, ctx.Err())
	case resp := <-respCh:
		if resp.err != nil {
			return fmt.Errorf("%s: %w", cmd, resp.err)
		}
		if out != nil && len(resp.result) > 0 {
			if err := json.Unmarshal(resp.result, out); err != nil {
				return fmt.Errorf("%s: decode result: %w", cmd, err)
			}
		}
		return nil
	}
}

// Subscribe implements backend.Subscriber.
func (c *Client) Subscribe(topic backend.Topic) (<-chan backend.Event, func()) {
	return c.broker.Subscribe(topic)
}

// FetchInitialState implements backend.Client.
func (c *Client) FetchInitialState(ctx context.Context) (model.InitialState, error) {
	var init model.InitialState
	err := c.call(ctx, "get_initial_state", nil, &init)
	return init, err
}

// ScanDirectory implements backend.Client.
func (c *Client) ScanDirectory(ctx context.Context, path string) ([]model.Track, error) {
	var tracks []model.Track
	err := c.call(ctx, "scan_directory", map[string]string{"path": path}, &tracks)
	return tracks, err
}

// PlayTrack implements backend.Client.
func (c *Client) PlayTrack(ctx context.Context, trackID string) error {
	return c.call(ctx, "play_track", map[string]string{"track_id": trackID}, nil)
}

// Pause implements backend.Client.
func (c *Client) Pause(ctx context.Context) error {
	return c.call(ctx, "pause", nil, nil)
}

// Resume implements backend.Client.
func (c *Client) Resume(ctx context.Context) error {
	return c.call(ctx, "resume", nil, nil)
}

// TogglePlayback implements backend.Client.
func (c *Client) TogglePlayback(ctx context.Context) (bool, error) {
	var playing bool
	err := c.call(ctx, "toggle_playback", nil, &playing)
	return playing, err
}

// SetVolume implements backend.Client.
func (c *Client) SetVolume(ctx context.Context, volume float64) error {
	volume = model.ClampUnit(volume)
	return c.call(ctx, "set_volume", map[string]float64{"volume": volume}, nil)
}

// SelectPlaylist implements backend.Client.
func (c *Client) SelectPlaylist(ctx context.Context, playlistID string) error {
	return c.call(ctx, "select_playlist", map[string]string{"playlist_id": playlistID}, nil)
}

// ToggleShuffle implements backend.Client.
func (c *Client) ToggleShuffle(ctx context.Context) (bool, error) {
	var on bool
	err := c.call(ctx, "toggle_shuffle", nil, &on)
	return on, err
}

// CycleLoopMode implements backend.Client.
func (c *Client) CycleLoopMode(ctx context.Context) (model.LoopMode, error) {
	var mode model.LoopMode
	err := c.call(ctx, "cycle_loop_mode", nil, &mode)
	return mode, err
}
