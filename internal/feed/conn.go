package feed

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"
)

const defaultHandshakeTimeout = 10 * time.Second

// Conn is one live stream connection. ReadMessage blocks until a data
// frame arrives or the connection fails.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(payload []byte) error
	Close() error
}

// Dialer opens stream connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

type wsDialer struct {
	url string
}

// NewDialer builds a websocket dialer for the given endpoint.
func NewDialer(host, port, path string) Dialer {
	return &wsDialer{
		url: "wss://" + host + ":" + port + path,
	}
}

func (d *wsDialer) Dial(ctx context.Context) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: defaultHandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, d.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "dial stream")
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *wsConn) WriteMessage(payload []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
