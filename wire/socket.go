package wire

import (
	"net"
	"strings"

	"github.com/gorilla/websocket"
)

// WebsocketChannel adapts a *websocket.Conn to the Channel contract,
// writing each value as one binary message. SameHost resolves the
// remote address and reports true only for loopback, preserving
// spec.md's Open Question 2: "preserve the contract but document that
// non-socket outputs always receive compressed form."
type WebsocketChannel struct {
	conn  *websocket.Conn
	order ByteOrder
}

// NewWebsocketChannel wraps conn. order controls how the 8-byte header's
// length field is framed; the payload itself is always little-endian.
func NewWebsocketChannel(conn *websocket.Conn, order ByteOrder) *WebsocketChannel {
	return &WebsocketChannel{conn: conn, order: order}
}

func (c *WebsocketChannel) Write(p []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *WebsocketChannel) Order() ByteOrder { return c.order }

// SameHost reports whether the remote endpoint of the underlying
// connection resolves to a loopback address.
func (c *WebsocketChannel) SameHost() bool {
	addr := c.conn.RemoteAddr()
	if addr == nil {
		return false
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// BufferChannel is an in-memory Channel over a byte slice, used for
// embedded (non-socket) serialization paths and tests. It defaults to
// SameHost() == false so payloads are compressed as if crossing the
// wire, per spec.md's "non-socket outputs always receive compressed
// form" guidance; tests that need to exercise the loopback skip-compress
// path can flip it with SetSameHost.
type BufferChannel struct {
	buf      []byte
	order    ByteOrder
	sameHost bool
}

// NewBufferChannel returns an empty BufferChannel framing lengths in order.
func NewBufferChannel(order ByteOrder) *BufferChannel {
	return &BufferChannel{order: order}
}

func (c *BufferChannel) Write(p []byte) (int, error) {
	c.buf = append(c.buf, p...)
	return len(p), nil
}

func (c *BufferChannel) Order() ByteOrder { return c.order }
func (c *BufferChannel) SameHost() bool   { return c.sameHost }

// SetSameHost overrides the loopback capability probe result.
func (c *BufferChannel) SetSameHost(sameHost bool) { c.sameHost = sameHost }

// Bytes returns everything written so far.
func (c *BufferChannel) Bytes() []byte { return c.buf }
