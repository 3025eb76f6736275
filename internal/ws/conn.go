package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Socket is the transport face of one duplex channel. *websocket.Conn
// satisfies it; tests substitute fakes.
type Socket interface {
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// ConnInfo carries request metadata captured at handshake time, used for
// telemetry only.
type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// Conn is one live duplex connection to exactly one user. Writes are
// serialized through a per-connection mutex since the dispatcher and the
// lifecycle handler may both write concurrently.
type Conn struct {
	sock Socket
	info ConnInfo

	mu sync.Mutex
}

// NewConn wraps a socket for registry ownership.
func NewConn(sock Socket, info ConnInfo) *Conn {
	return &Conn{sock: sock, info: info}
}

// Info returns the handshake metadata.
func (c *Conn) Info() ConnInfo {
	return c.info
}

// Send writes one event. A non-nil error means the connection is dead and
// the caller is expected to evict it.
func (c *Conn) Send(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.WriteJSON(event)
}

// Close tears the transport down. Safe to call more than once.
func (c *Conn) Close() error {
	return c.sock.Close()
}

// CloseWithCode sends a close frame with the given code before tearing the
// transport down, so the client can distinguish why it was dropped.
func (c *Conn) CloseWithCode(code int, reason string) {
	c.mu.Lock()
	_ = c.sock.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
	c.mu.Unlock()
	_ = c.sock.Close()
}
