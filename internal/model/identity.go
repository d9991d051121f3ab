package model

import "errors"

// HandshakeMode is the protocol variant resolved from handshake parameters.
type HandshakeMode string

const (
	// ModeLegacy is a username-only handshake: no room, global request events only.
	ModeLegacy HandshakeMode = "legacy"
	// ModeRoom is username + session room: room-scoped relay.
	ModeRoom HandshakeMode = "room"
	// ModeFull is username + token + room + title: relay plus stream capture,
	// with the session title doubling as the stream key.
	ModeFull HandshakeMode = "full"
)

var (
	ErrUsernameRequired = errors.New("invalid username")
	ErrRoomRequired     = errors.New("session room is required")
	ErrTitleRequired    = errors.New("session title is required")
)

// Identity is the immutable identity bound to a connection at handshake time.
type Identity struct {
	Username  string
	Room      string
	Token     string
	StreamKey string
	Mode      HandshakeMode
}

// Handshake holds the raw handshake parameters before validation.
type Handshake struct {
	Username string
	Room     string
	Token    string
	Title    string
}

// ResolveIdentity validates handshake parameters and binds an identity.
// The three supported shapes are mutually exclusive: username only,
// username+room, and username+token+room+title. Any other combination
// is rejected before the connection sees a single event.
func ResolveIdentity(h Handshake) (Identity, error) {
	if h.Username == "" {
		return Identity{}, ErrUsernameRequired
	}
	if h.Token != "" {
		if h.Room == "" {
			return Identity{}, ErrRoomRequired
		}
		if h.Title == "" {
			return Identity{}, ErrTitleRequired
		}
		return Identity{
			Username:  h.Username,
			Room:      h.Room,
			Token:     h.Token,
			StreamKey: h.Title,
			Mode:      ModeFull,
		}, nil
	}
	if h.Room != "" {
		return Identity{Username: h.Username, Room: h.Room, Mode: ModeRoom}, nil
	}
	return Identity{Username: h.Username, Mode: ModeLegacy}, nil
}
