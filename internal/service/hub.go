package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tonote/notary-stream-service/internal/model"
	"go.uber.org/zap"
)

// StreamRecorder receives capture fragments and end-of-stream signals
// for the connection's bound stream key (optional).
type StreamRecorder interface {
	WriteChunk(ctx context.Context, streamKey string, data []byte)
	EndStream(ctx context.Context, streamKey string)
}

// Hub tracks every live connection, routes session events by fan-out
// policy, and feeds capture fragments to the recorder.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client // connection id -> client, all rooms
	rooms      *RoomRegistry
	upgrader   websocket.Upgrader
	maxMsgSize int64
	log        *zap.Logger
	recorder   StreamRecorder  // optional
	ctx        context.Context // app context for capture (shutdown propagation)
}

// NewHub creates a hub over the given room registry.
func NewHub(rooms *RoomRegistry, maxMessageSize int64, log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      rooms,
		maxMsgSize: maxMessageSize,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024 * 4,
			WriteBufferSize: 1024 * 4,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
	}
}

// SetRecorder sets the optional capture recorder.
func (h *Hub) SetRecorder(r StreamRecorder) { h.recorder = r }

// SetContext sets the app context propagated to capture operations.
func (h *Hub) SetContext(ctx context.Context) { h.ctx = ctx }

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *Hub) Upgrader() *websocket.Upgrader { return &h.upgrader }

// Rooms returns the room registry.
func (h *Hub) Rooms() *RoomRegistry { return h.rooms }

// Register binds the resolved identity to a new client, joins its room,
// announces the join, and returns the client with a cleanup function.
func (h *Hub) Register(id model.Identity, conn *websocket.Conn) (*Client, func()) {
	if h.maxMsgSize > 0 {
		conn.SetReadLimit(h.maxMsgSize)
	}
	c := &Client{
		ID:        uuid.New().String(),
		Username:  id.Username,
		Room:      id.Room,
		Token:     id.Token,
		StreamKey: id.StreamKey,
		Mode:      id.Mode,
		Conn:      conn,
		Send:      make(chan []byte, 256),
	}
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.rooms.Join(c)

	h.log.Info("client registered",
		zap.String("connection_id", c.ID),
		zap.String("username", c.Username),
		zap.String("room", c.Room),
		zap.String("mode", string(c.Mode)))

	if c.Room != "" {
		h.announceJoin(c)
	}

	cleanup := func() { h.unregister(c) }
	return c, cleanup
}

func (h *Hub) announceJoin(c *Client) {
	data, _ := json.Marshal(model.JoinMessagePayload{
		Message: fmt.Sprintf("%s has joined the notary session.", c.Username),
	})
	raw, _ := json.Marshal(model.Envelope{Event: model.EventJoinRoomMessage, Data: data})
	h.broadcastRoom(c.Room, nil, raw)
}

// unregister removes the client everywhere and flushes its stream buffer
// best-effort. Safe to call once per client.
func (h *Hub) unregister(c *Client) {
	h.rooms.Leave(c)
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
	close(c.Send)

	h.log.Info("client unregistered",
		zap.String("connection_id", c.ID),
		zap.String("username", c.Username))

	if h.recorder != nil && c.StreamKey != "" {
		h.recorder.EndStream(h.appCtx(), c.StreamKey)
	}
}

// Dispatch routes one inbound text frame. Malformed or unknown frames are
// dropped; events that need a room from roomless connections are dropped too.
func (h *Hub) Dispatch(c *Client, raw []byte) {
	var env model.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.log.Debug("dropping malformed frame", zap.String("connection_id", c.ID), zap.Error(err))
		return
	}

	switch env.Event {
	case model.EventStreamFragmentStart:
		h.appendFragment(c, env.Data)
		return
	case model.EventStreamFragmentEnd:
		h.endFragmentStream(c, env.Data)
		return
	}

	policy, known := model.PolicyFor(env.Event)
	if !known {
		h.log.Debug("dropping unknown event", zap.String("event", string(env.Event)))
		return
	}
	switch policy {
	case model.FanoutRoomRelay:
		if c.Room == "" {
			h.log.Debug("dropping roomless event", zap.String("event", string(env.Event)), zap.String("connection_id", c.ID))
			return
		}
		h.broadcastRoom(c.Room, c, raw)
	case model.FanoutRoomInclusive:
		if c.Room == "" {
			h.log.Debug("dropping roomless event", zap.String("event", string(env.Event)), zap.String("connection_id", c.ID))
			return
		}
		h.broadcastRoom(c.Room, nil, raw)
	case model.FanoutGlobal:
		h.broadcastGlobal(raw)
	}
}

// AppendBinary treats a raw binary frame as a fragment for the client's
// bound stream key. Connections without a stream key drop it.
func (h *Hub) AppendBinary(c *Client, data []byte) {
	if h.recorder == nil || c.StreamKey == "" || len(data) == 0 {
		return
	}
	h.recorder.WriteChunk(h.appCtx(), c.StreamKey, data)
}

func (h *Hub) appendFragment(c *Client, data json.RawMessage) {
	if h.recorder == nil {
		return
	}
	var p model.FragmentPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.log.Debug("dropping malformed fragment", zap.String("connection_id", c.ID), zap.Error(err))
		return
	}
	key := p.Stream
	if key == "" {
		key = c.StreamKey
	}
	if key == "" || len(p.Chunk) == 0 {
		return
	}
	h.recorder.WriteChunk(h.appCtx(), key, p.Chunk)
}

func (h *Hub) endFragmentStream(c *Client, data json.RawMessage) {
	if h.recorder == nil {
		return
	}
	var p model.FragmentEndPayload
	_ = json.Unmarshal(data, &p)
	key := p.Stream
	if key == "" {
		key = c.StreamKey
	}
	if key == "" {
		return
	}
	h.recorder.EndStream(h.appCtx(), key)
}

// broadcastRoom delivers raw to the room's members, skipping sender when
// non-nil. Sends are non-blocking: a member with a full buffer misses it.
func (h *Hub) broadcastRoom(roomID string, sender *Client, raw []byte) {
	for _, m := range h.rooms.Members(roomID) {
		if sender != nil && m.ID == sender.ID {
			continue
		}
		h.send(m, raw)
	}
}

// broadcastGlobal delivers raw to every connection on the server.
func (h *Hub) broadcastGlobal(raw []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		h.send(c, raw)
	}
}

func (h *Hub) send(c *Client, raw []byte) {
	select {
	case c.Send <- raw:
	default:
		h.log.Warn("client send buffer full, dropping event",
			zap.String("connection_id", c.ID),
			zap.String("username", c.Username))
	}
}

// ClientCount returns the number of live connections (for debugging).
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) appCtx() context.Context {
	if h.ctx != nil {
		return h.ctx
	}
	return context.Background()
}
