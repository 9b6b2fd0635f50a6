package network

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection carries framed messages: each message is one or more lines
// followed by an EOM line.
type Connection interface {
	Send(lines ...string) error
	ReadMessage() ([]string, error)
	SetReadTimeout(d time.Duration)
	RemoteAddr() net.Addr
	Close() error
}

var (
	ErrFrameTooLarge = errors.New("network: frame too large")
	ErrLineTooLong   = errors.New("network: line too long")
)

const (
	// MaxFrameLines bounds how many lines one message may carry.
	MaxFrameLines = 1024
	// MaxLineBytes bounds one line on a stream connection.
	MaxLineBytes = 1 << 20
	// MaxMessageBytes bounds one websocket message.
	MaxMessageBytes = 4 << 20
)

func frame(lines []string) []byte {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString(EOM)
	b.WriteByte('\n')
	return []byte(b.String())
}

// TCPConnection frames messages over a byte stream.
type TCPConnection struct {
	conn        net.Conn
	scanner     *bufio.Scanner
	sendMutex   sync.Mutex
	readTimeout time.Duration
}

func NewTCPConnection(conn net.Conn) *TCPConnection {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 16*1024), MaxLineBytes)
	return &TCPConnection{
		conn:    conn,
		scanner: scanner,
	}
}

// Send writes lines and the EOM sentinel in a single write.
func (c *TCPConnection) Send(lines ...string) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	_, err := c.conn.Write(frame(lines))
	return err
}

// ReadMessage blocks until a full message has arrived and returns its lines
// without the sentinel. Any read error, a timeout included, leaves the
// connection unusable.
func (c *TCPConnection) ReadMessage() ([]string, error) {
	if c.readTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return nil, err
		}
	}

	var lines []string
	for {
		if !c.scanner.Scan() {
			err := c.scanner.Err()
			switch {
			case err == nil:
				return nil, io.EOF
			case errors.Is(err, bufio.ErrTooLong):
				return nil, ErrLineTooLong
			}
			return nil, err
		}
		line := c.scanner.Text()
		if line == EOM {
			return lines, nil
		}
		if len(lines) >= MaxFrameLines {
			return nil, ErrFrameTooLarge
		}
		lines = append(lines, line)
	}
}

func (c *TCPConnection) SetReadTimeout(d time.Duration) {
	c.readTimeout = d
}

func (c *TCPConnection) Close() error {
	return c.conn.Close()
}

func (c *TCPConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// WSConnection sends each message as one websocket text message holding the
// same lines as the stream framing.
type WSConnection struct {
	conn        *websocket.Conn
	sendMutex   sync.Mutex
	readTimeout time.Duration
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	conn.SetReadLimit(MaxMessageBytes)
	return &WSConnection{conn: conn}
}

func (c *WSConnection) Send(lines ...string) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()

	return c.conn.WriteMessage(websocket.TextMessage, frame(lines))
}

func (c *WSConnection) ReadMessage() ([]string, error) {
	if c.readTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return nil, err
		}
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 0 || strings.TrimRight(lines[len(lines)-1], "\r") != EOM {
		return nil, ErrMalformed
	}
	lines = lines[:len(lines)-1]
	if len(lines) > MaxFrameLines {
		return nil, ErrFrameTooLarge
	}
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines, nil
}

func (c *WSConnection) SetReadTimeout(d time.Duration) {
	c.readTimeout = d
}

func (c *WSConnection) Close() error {
	return c.conn.Close()
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
