package protocol

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// dialTimeout bounds the initial TLS+HTTP upgrade handshake (§4.1.1).
const dialTimeout = 15 * time.Second

// Conn is one Connect websocket connection: JSON Envelope frames in, JSON
// Envelope frames out, serialized against concurrent writers (§4.1.1,
// §6.3).
type Conn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Dial opens the websocket to url (already carrying the user_token and
// client-version query parameters, §4.1.1 step 2) with the given cookie
// header replicated from the gateway session.
func Dial(ctx context.Context, url string, header http.Header) (*Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("protocol: dial: %w", err)
	}
	conn.SetReadLimit(MaxMessageBytes)
	return &Conn{conn: conn}, nil
}

// Send writes one Envelope as a text frame.
func (c *Conn) Send(env Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("protocol: send: %w", err)
	}
	return nil
}

// Receive blocks for the next inbound Envelope, enforcing the 8 KiB cap
// (§4.1.4) ahead of JSON decoding.
func (c *Conn) Receive() (Envelope, error) {
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		return Envelope{}, fmt.Errorf("protocol: receive: %w", err)
	}
	return DecodeEnvelope(raw)
}

// Close sends a normal-closure control frame and releases the connection.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}
