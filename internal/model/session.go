package model

import "time"

// Participant is a live room member - API response DTO.
type Participant struct {
	ConnectionID string `json:"connection_id"`
	Username     string `json:"username"`
	StreamKey    string `json:"stream_key,omitempty"`
}

// RoomParticipantsResponse is the response for GET /rooms/:id/participants.
type RoomParticipantsResponse struct {
	RoomID       string        `json:"room_id"`
	Participants []Participant `json:"participants"`
}

// RecordingResponse is the API view of a persisted recording.
type RecordingResponse struct {
	ID        string    `json:"id"`
	StreamKey string    `json:"stream_key"`
	ObjectKey string    `json:"object_key"`
	Location  string    `json:"location,omitempty"`
	Status    string    `json:"status"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordingsResponse is the response for GET /recordings.
type RecordingsResponse struct {
	Recordings []RecordingResponse `json:"recordings"`
}
