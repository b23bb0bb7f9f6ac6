package appcontrol

import (
	"context"
	"fmt"
	"net"
)

// Client is the companion-app side of the protocol. Go-side companion
// apps and tests use it to talk to a session's control server.
type Client struct {
	conn net.Conn
}

// Dial connects to a session control server.
func Dial(ctx context.Context, ip string, port int) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", ip, port))
	if err != nil {
		return nil, fmt.Errorf("could not connect to app control server: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Send(msg Message) error {
	return WriteMessage(c.conn, msg)
}

// SendEvent sends a bare event message such as "waiting" or "ready".
func (c *Client) SendEvent(eventType string) error {
	return c.Send(NewMessage(eventType, nil))
}

// Receive blocks until the next message from the server.
func (c *Client) Receive() (Message, error) {
	return ReadMessage(c.conn)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
