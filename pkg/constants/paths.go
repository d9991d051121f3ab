package constants

// HTTP paths served by the router.
const (
	PathRoot             = "/"
	PathHealth           = "/health"
	PathReady            = "/ready"
	PathRecordings       = "/recordings"
	PathRecording        = "/recordings/:id"
	PathRoomParticipants = "/rooms/:id/participants"
	PathWSSession        = "/ws/session"
)
