// Package mpdbridge adapts a local MPD server to the same command/event
// surface the remote playback daemon exposes, so the client core can be
// developed and tested against plain MPD.
package mpdbridge

import (
	"fmt"
	"sync"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
)

// conn wraps the gompd client with reconnection, mirroring how the wire
// transport survives daemon restarts.
type conn struct {
	mu       sync.Mutex
	client   *mpd.Client
	host     string
	port     int
	password string
}

func newConn(host string, port int, password string) *conn {
	return &conn{host: host, port: port, password: password}
}

func (c *conn) addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

func (c *conn) connectLocked() error {
	client, err := mpd.Dial("tcp", c.addr())
	if err != nil {
		return fmt.Errorf("connect to MPD: %w", err)
	}
	if c.password != "" {
		if err := client.Command("password %s", c.password).OK(); err != nil {
			client.Close()
			return fmt.Errorf("MPD authentication: %w", err)
		}
	}
	c.client = client
	return nil
}

// do runs fn against a live connection, reconnecting once if the previous
// connection went stale.
func (c *conn) do(fn func(*mpd.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		if err := c.connectLocked(); err != nil {
			return err
		}
	} else if err := c.client.Ping(); err != nil {
		log.Warn().Err(err).Msg("MPD connection lost, reconnecting")
		c.client.Close()
		c.client = nil
		if err := c.connectLocked(); err != nil {
			return err
		}
	}

	return fn(c.client)
}

func (c *conn) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

func (c *conn) status() (mpd.Attrs, error) {
	var attrs mpd.Attrs
	err := c.do(func(cl *mpd.Client) error {
		var err error
		attrs, err = cl.Status()
		return err
	})
	return attrs, err
}

func (c *conn) currentSong() (mpd.Attrs, error) {
	var attrs mpd.Attrs
	err := c.do(func(cl *mpd.Client) error {
		var err error
		attrs, err = cl.CurrentSong()
		return err
	})
	return attrs, err
}

func (c *conn) playlistInfo() ([]mpd.Attrs, error) {
	var attrs []mpd.Attrs
	err := c.do(func(cl *mpd.Client) error {
		var err error
		attrs, err = cl.PlaylistInfo(-1, -1)
		return err
	})
	return attrs, err
}

func (c *conn) listAllInfo(uri string) ([]mpd.Attrs, error) {
	var attrs []mpd.Attrs
	err := c.do(func(cl *mpd.Client) error {
		var err error
		attrs, err = cl.ListAllInfo(uri)
		return err
	})
	return attrs, err
}

func (c *conn) play(pos int) error {
	return c.do(func(cl *mpd.Client) error { return cl.Play(pos) })
}

func (c *conn) pause(on bool) error {
	return c.do(func(cl *mpd.Client) error { return cl.Pause(on) })
}

func (c *conn) add(uri string) error {
	return c.do(func(cl *mpd.Client) error { return cl.Add(uri) })
}

func (c *conn) setVolume(vol int) error {
	return c.do(func(cl *mpd.Client) error { return cl.SetVolume(vol) })
}

func (c *conn) random(on bool) error {
	return c.do(func(cl *mpd.Client) error { return cl.Random(on) })
}

func (c *conn) repeat(on bool) error {
	return c.do(func(cl *mpd.Client) error { return cl.Repeat(on) })
}

func (c *conn) single(on bool) error {
	return c.do(func(cl *mpd.Client) error { return cl.Single(on) })
}

func (c *conn) readPicture(uri string) ([]byte, error) {
	var data []byte
	err := c.do(func(cl *mpd.Client) error {
		var err error
		data, err = cl.ReadPicture(uri)
		if err != nil {
			// Fall back to a cover file next to the track.
			data, err = cl.AlbumArt(uri)
		}
		return err
	})
	return data, err
}

// watch opens a subsystem watcher on its own connection, the way gompd
// requires.
func (c *conn) watch(subsystems ...string) (*mpd.Watcher, error) {
	w, err := mpd.NewWatcher("tcp", c.addr(), c.password, subsystems...)
	if err != nil {
		return nil, fmt.Errorf("create MPD watcher: %w", err)
	}
	return w, nil
}
