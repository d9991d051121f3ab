package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tonote/notary-stream-service/internal/handler"
	"github.com/tonote/notary-stream-service/pkg/constants"
)

// New builds the HTTP router.
func New(
	rooms *handler.RoomHandler,
	recordings *handler.RecordingHandler,
	sessionWS *handler.SessionWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathRoot, health.Root)
	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	r.GET(constants.PathRoomParticipants, rooms.GetParticipants)
	r.GET(constants.PathRecordings, recordings.ListRecordings)
	r.GET(constants.PathRecording, recordings.GetRecording)

	// WebSocket: /ws/session?username=...&room=...&token=...&title=...
	r.GET(constants.PathWSSession, sessionWS.ServeWS)

	return r
}
