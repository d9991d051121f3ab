package service

import (
	"github.com/gorilla/websocket"
	"github.com/tonote/notary-stream-service/internal/model"
)

// Client is one live WebSocket connection with its bound identity.
// Identity fields are immutable after registration.
type Client struct {
	ID        string
	Username  string
	Room      string // empty in legacy roomless mode
	Token     string // opaque, forwarded but never validated here
	StreamKey string // empty unless the full handshake bound a session title
	Mode      model.HandshakeMode
	Conn      *websocket.Conn
	Send      chan []byte
}

// participant returns the API view of this client.
func (c *Client) participant() model.Participant {
	return model.Participant{
		ConnectionID: c.ID,
		Username:     c.Username,
		StreamKey:    c.StreamKey,
	}
}
