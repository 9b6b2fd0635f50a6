// Package peer is the player side of the sync protocol. A Client joins a
// host, keeps a local playfield for immediate feedback and mirrors the
// match record the host sends every round.
package peer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/kolortris/codec"
	"github.com/wfunc/kolortris/config"
	"github.com/wfunc/kolortris/logger"
	"github.com/wfunc/kolortris/match"
	"github.com/wfunc/kolortris/network"
	"github.com/wfunc/kolortris/playfield"
)

var (
	ErrNotConnected = errors.New("peer: not connected")
	ErrConnected    = errors.New("peer: already connected")
)

type Config struct {
	// RequestedID is sent in the join message. Zero lets the host pick.
	RequestedID      int
	Name             string
	Authority        string
	Playfield        playfield.Config
	GarbageMilestone int
	ReadTimeout      time.Duration
}

func DefaultConfig() Config {
	return Config{
		Name:             playfield.DefaultName,
		Authority:        config.AuthorityHost,
		Playfield:        playfield.DefaultConfig(),
		GarbageMilestone: 150,
		ReadTimeout:      10 * time.Second,
	}
}

type Client struct {
	cfg     Config
	field   *playfield.Playfield
	tracker *match.GarbageTracker

	mutex   sync.Mutex
	conn    network.Connection
	id      int
	pending []network.Command
	mirror  codec.MatchState
	named   bool
	err     error

	closeOnce sync.Once
	done      chan struct{}
}

func New(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		field:   playfield.New(cfg.Name, cfg.Playfield),
		tracker: match.NewGarbageTracker(cfg.GarbageMilestone),
		done:    make(chan struct{}),
	}
}

// Connect dials addr, a host:port for TCP or a ws:// URL, and joins the
// match. It returns the dial or handshake error rather than giving up on
// the process.
func (c *Client) Connect(ctx context.Context, addr string) error {
	var conn network.Connection
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		ws, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
		if err != nil {
			return fmt.Errorf("peer: dial %s: %w", addr, err)
		}
		conn = network.NewWSConnection(ws)
	} else {
		var d net.Dialer
		raw, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("peer: dial %s: %w", addr, err)
		}
		conn = network.NewTCPConnection(raw)
	}

	if err := c.Attach(conn); err != nil {
		conn.Close()
		return err
	}
	return nil
}

// Attach runs the handshake on an open connection and starts the round
// worker.
func (c *Client) Attach(conn network.Connection) error {
	c.mutex.Lock()
	if c.conn != nil {
		c.mutex.Unlock()
		return ErrConnected
	}
	c.mutex.Unlock()

	conn.SetReadTimeout(c.cfg.ReadTimeout)
	if err := conn.Send(network.FormatJoin(c.cfg.RequestedID)); err != nil {
		return err
	}
	lines, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w: empty handshake reply", network.ErrMalformed)
	}
	id, err := network.ParseClientID(lines[0])
	if err != nil {
		return err
	}

	c.mutex.Lock()
	c.conn, c.id = conn, id
	c.mutex.Unlock()
	c.tracker.Track(id, c.field.Score())

	logger.Log.Infof("Joined %s as player %d", conn.RemoteAddr(), id)
	go c.run(conn)
	return nil
}

// Send queues cmd for the next round and applies it to the local field.
func (c *Client) Send(cmd network.Command) error {
	if !cmd.Known() {
		return fmt.Errorf("%w: %q", network.ErrUnknownCommand, cmd)
	}
	c.mutex.Lock()
	if c.conn == nil {
		c.mutex.Unlock()
		return ErrNotConnected
	}
	c.pending = append(c.pending, cmd)
	c.mutex.Unlock()

	applyLocal(c.field, cmd)
	return nil
}

// SetName changes the local name and reports it on the next round.
func (c *Client) SetName(name string) {
	c.field.SetName(name)
	c.mutex.Lock()
	c.named = false
	c.mutex.Unlock()
}

func applyLocal(pf *playfield.Playfield, cmd network.Command) {
	switch cmd {
	case network.MoveLeft:
		pf.MoveLeft()
	case network.MoveRight:
		pf.MoveRight()
	case network.MoveDown:
		pf.MoveDown()
	case network.Rotate:
		pf.Rotate()
	case network.Hold:
		pf.Hold()
	case network.HardDrop:
		pf.HardDrop()
	}
}

func (c *Client) run(conn network.Connection) {
	defer close(c.done)
	defer c.field.Stop()

	for {
		lines, err := conn.ReadMessage()
		if err != nil {
			c.mutex.Lock()
			c.err = err
			c.mutex.Unlock()
			logger.Log.Infof("Player %d disconnected: %v", c.ID(), err)
			return
		}
		c.receive(lines)
		if err := conn.Send(c.reply()...); err != nil {
			c.mutex.Lock()
			c.err = err
			c.mutex.Unlock()
			return
		}
	}
}

func (c *Client) receive(lines []string) {
	for _, line := range lines {
		if n, ok := network.ParseGarbage(line); ok {
			c.field.AddGarbage(n)
			continue
		}
		record, ok := network.ParseSnapshot(line)
		if !ok {
			logger.Log.Debugf("Ignoring host line %q", line)
			continue
		}
		ms, err := codec.DecodeMatch(record)
		if err != nil {
			logger.Log.Warnf("Bad snapshot from host: %v", err)
			continue
		}
		c.mutex.Lock()
		c.mirror = ms
		c.mutex.Unlock()

		if ms.Phase == codec.PhasePlaying {
			c.field.Start()
		} else {
			c.field.Stop()
		}
		// the host owns the field; take its version
		if !c.peerAuthority() {
			if mine, ok := ms.Player(c.ID()); ok {
				c.field.Restore(mine.Playfield)
			}
		}
	}
}

func (c *Client) reply() []string {
	c.mutex.Lock()
	id := c.id
	cmds := c.pending
	c.pending = nil
	named := c.named
	c.named = true
	c.mutex.Unlock()

	var out []string
	if !named {
		out = append(out, network.FormatSetName(id, c.field.Name()))
	}
	if !c.peerAuthority() {
		for _, cmd := range cmds {
			out = append(out, network.FormatCommand(id, cmd))
		}
		return out
	}

	if sent := c.tracker.Round(map[int]int{id: c.field.Score()}); sent[id] > 0 {
		out = append(out, network.FormatSendGarbage(id, sent[id]))
	}
	return append(out, network.FormatPeerState(id, codec.EncodePlayfield(c.field.Snapshot())))
}

func (c *Client) peerAuthority() bool {
	return c.cfg.Authority == config.AuthorityPeer
}

// ID returns the id the host assigned, or zero before the handshake.
func (c *Client) ID() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.id
}

// Field returns the local playfield.
func (c *Client) Field() *playfield.Playfield {
	return c.field
}

// Mirror returns the last match record received from the host.
func (c *Client) Mirror() codec.MatchState {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.mirror
}

func (c *Client) Phase() codec.Phase {
	return c.Mirror().Phase
}

// Done is closed when the round worker exits.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the round worker.
func (c *Client) Err() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.err
}

// Close stops the round worker, the local field and the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mutex.Lock()
		conn := c.conn
		c.mutex.Unlock()

		c.field.Stop()
		if conn == nil {
			return
		}
		err = conn.Close()
		<-c.done
	})
	return err
}
