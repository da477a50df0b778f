// Package gorilla implements a websocket connection by wrapping gorilla/websocket.
package gorilla

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/jacobpatterson1549/number-race/server/watch"
)

type (
	// Upgrader implements the watch.Upgrader interface by wrapping a gorilla/websocket Upgrader.
	Upgrader struct {
		*websocket.Upgrader
	}

	// Conn implements the watch.Conn interface by wrapping a gorilla/websocket Conn.
	Conn struct {
		*websocket.Conn
	}
)

// maxCloseReasonLength is the control frame payload limit less the two bytes of the close code.
const maxCloseReasonLength = 123

// NewUpgrader returns a upgrader that creates gorilla websocket connections.
func NewUpgrader() *Upgrader {
	u := new(websocket.Upgrader)
	return &Upgrader{u}
}

// Upgrade creates a Conn from the http request.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (watch.Conn, error) {
	c, err := u.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{c}, nil
}

// ReadMessage reads and discards the next message from the connection.
func (c *Conn) ReadMessage() error {
	_, _, err := c.Conn.ReadMessage()
	return err
}

// WritePing writes a ping message on the connection.
func (c *Conn) WritePing() error {
	return c.Conn.WriteMessage(websocket.PingMessage, nil)
}

// WriteClose writes a close message on the connection.  The connection is NOT closed.
// Long reasons are truncated to fit in the control frame.
func (c *Conn) WriteClose(reason string) error {
	if len(reason) > maxCloseReasonLength {
		reason = reason[:maxCloseReasonLength]
	}
	data := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	return c.Conn.WriteMessage(websocket.CloseMessage, data)
}

// IsNormalClose determines if the error message is not an unexpected close error.
func (*Conn) IsNormalClose(err error) bool {
	_, ok := err.(*websocket.CloseError) // only errors from gorilla can be normal close errors
	return ok && !websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived)
}
