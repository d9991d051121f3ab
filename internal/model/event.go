package model

import "encoding/json"

// EventKind is the wire name of a session event.
type EventKind string

const (
	EventJoinRoomMessage       EventKind = "join-room-message"
	EventNotaryAvailable       EventKind = "notary-available"
	EventNotarySendTools       EventKind = "notary-send-tools"
	EventNotaryEditTools       EventKind = "notary-edit-tools"
	EventNotaryDeleteTools     EventKind = "notary-delete-tools"
	EventNotaryCompleteSession EventKind = "notary-complete-session"
	EventNotaryCancelSession   EventKind = "notary-cancel-session"
	EventRemove                EventKind = "remove"
	EventInviteParticipants    EventKind = "doc-owner-invite-participants"
	EventUserLeaveCompleted    EventKind = "user-leave-completed-session"
	EventNotaryNewRequest      EventKind = "notary-new-request"
	EventNotaryAcceptRequest   EventKind = "notary-accept-request"
	EventNotaryRejectRequest   EventKind = "notary-reject-request"
	EventNotaryCancelRequest   EventKind = "notary-cancel-request"
	EventOwnerCompleteSession  EventKind = "owner-complete-session"
	EventOwnerCancelledSession EventKind = "owner-cancelled-session"
	EventPlaySound             EventKind = "play-sound"
	EventStopRecording         EventKind = "stop-recording"
	EventShowRecordingNotice   EventKind = "show-recording-notice"
	EventStreamFragmentStart   EventKind = "stream-fragment-start"
	EventStreamFragmentEnd     EventKind = "stream-fragment-end"
)

// FanoutPolicy decides which connections receive an event kind.
type FanoutPolicy int

const (
	// FanoutNone means the event is consumed by the server, never relayed.
	FanoutNone FanoutPolicy = iota
	// FanoutRoomRelay delivers to the sender's room, excluding the sender.
	FanoutRoomRelay
	// FanoutRoomInclusive delivers to the sender's room, including the sender.
	FanoutRoomInclusive
	// FanoutGlobal delivers to every connection on the server.
	FanoutGlobal
)

// fanout maps every known event kind to its delivery policy.
var fanout = map[EventKind]FanoutPolicy{
	EventJoinRoomMessage:       FanoutRoomInclusive,
	EventNotaryAvailable:       FanoutRoomRelay,
	EventNotarySendTools:       FanoutRoomRelay,
	EventNotaryEditTools:       FanoutRoomRelay,
	EventNotaryDeleteTools:     FanoutRoomRelay,
	EventNotaryCompleteSession: FanoutRoomRelay,
	EventNotaryCancelSession:   FanoutRoomRelay,
	EventRemove:                FanoutRoomRelay,
	EventInviteParticipants:    FanoutRoomRelay,
	EventUserLeaveCompleted:    FanoutRoomRelay,
	EventNotaryNewRequest:      FanoutGlobal,
	EventNotaryAcceptRequest:   FanoutGlobal,
	EventNotaryRejectRequest:   FanoutGlobal,
	EventNotaryCancelRequest:   FanoutGlobal,
	EventOwnerCompleteSession:  FanoutRoomInclusive,
	EventOwnerCancelledSession: FanoutRoomInclusive,
	EventPlaySound:             FanoutRoomInclusive,
	EventStopRecording:         FanoutRoomInclusive,
	EventShowRecordingNotice:   FanoutRoomInclusive,
	EventStreamFragmentStart:   FanoutNone,
	EventStreamFragmentEnd:     FanoutNone,
}

// PolicyFor returns the fan-out policy for kind and whether the kind is known.
func PolicyFor(kind EventKind) (FanoutPolicy, bool) {
	p, ok := fanout[kind]
	return p, ok
}

// Envelope is the wire form of a session event. Data is forwarded verbatim.
type Envelope struct {
	Event EventKind       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// FragmentPayload is the data of a stream-fragment-start event.
// Chunk is base64 (standard encoding/json []byte handling).
type FragmentPayload struct {
	Stream string `json:"stream"`
	Chunk  []byte `json:"chunk"`
}

// FragmentEndPayload is the data of a stream-fragment-end event.
type FragmentEndPayload struct {
	Stream string `json:"stream"`
}

// JoinMessagePayload is the data of the join-room-message announcement.
type JoinMessagePayload struct {
	Message string `json:"message"`
}
