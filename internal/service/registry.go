package service

import (
	"sync"

	"github.com/tonote/notary-stream-service/internal/errs"
	"github.com/tonote/notary-stream-service/internal/model"
)

// room is a named set of member connections with its own lock, so activity
// in one room never serializes against another.
type room struct {
	mu      sync.RWMutex
	members map[string]*Client // connection id -> client
	removed bool               // set when reclaimed; joins must not land here
}

// RoomRegistry maps room ids to member sets. Membership is keyed by
// connection id: two connections may share a username in the same room.
// Rooms are created lazily on first join and removed on last leave.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewRoomRegistry creates an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*room)}
}

// Join adds the client to its bound room. A roomless client is a no-op.
func (r *RoomRegistry) Join(c *Client) {
	if c.Room == "" {
		return
	}
	for {
		r.mu.Lock()
		rm, ok := r.rooms[c.Room]
		if !ok {
			rm = &room{members: make(map[string]*Client)}
			r.rooms[c.Room] = rm
		}
		r.mu.Unlock()

		rm.mu.Lock()
		if rm.removed {
			// Lost a race with the last leave; the struct is orphaned.
			rm.mu.Unlock()
			continue
		}
		rm.members[c.ID] = c
		rm.mu.Unlock()
		return
	}
}

// Leave removes the client from its room. Idempotent; roomless is a no-op.
// The room itself is reclaimed when its last member leaves.
func (r *RoomRegistry) Leave(c *Client) {
	if c.Room == "" {
		return
	}
	r.mu.Lock()
	rm, ok := r.rooms[c.Room]
	if !ok {
		r.mu.Unlock()
		return
	}
	rm.mu.Lock()
	delete(rm.members, c.ID)
	if len(rm.members) == 0 {
		rm.removed = true
		delete(r.rooms, c.Room)
	}
	rm.mu.Unlock()
	r.mu.Unlock()
}

// Members returns a snapshot of the room's members. The snapshot is taken
// under the room lock so a racing join never yields a partial set.
func (r *RoomRegistry) Members(roomID string) []*Client {
	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	out := make([]*Client, 0, len(rm.members))
	for _, c := range rm.members {
		out = append(out, c)
	}
	return out
}

// Exists reports whether the room currently has any members.
func (r *RoomRegistry) Exists(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

// Participants returns the API view of the room's membership, or
// errs.ErrRoomNotFound when the room has no members.
func (r *RoomRegistry) Participants(roomID string) ([]model.Participant, error) {
	if !r.Exists(roomID) {
		return nil, errs.ErrRoomNotFound
	}
	members := r.Members(roomID)
	out := make([]model.Participant, 0, len(members))
	for _, c := range members {
		out = append(out, c.participant())
	}
	return out, nil
}
