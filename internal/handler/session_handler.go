package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tonote/notary-stream-service/internal/errs"
	"github.com/tonote/notary-stream-service/internal/model"
	"github.com/tonote/notary-stream-service/internal/service"
)

// RoomHandler exposes live room membership.
type RoomHandler struct {
	rooms *service.RoomRegistry
}

// NewRoomHandler creates a room handler over the registry.
func NewRoomHandler(rooms *service.RoomRegistry) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// GetParticipants godoc
// GET /rooms/:id/participants
func (h *RoomHandler) GetParticipants(c *gin.Context) {
	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room id required"})
		return
	}
	participants, err := h.rooms.Participants(roomID)
	if err != nil {
		if errors.Is(err, errs.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get participants"})
		return
	}
	c.JSON(http.StatusOK, model.RoomParticipantsResponse{
		RoomID:       roomID,
		Participants: participants,
	})
}

// RecordingHandler exposes persisted recording metadata.
type RecordingHandler struct {
	svc *service.RecordingService
}

// NewRecordingHandler creates a recording handler.
func NewRecordingHandler(svc *service.RecordingService) *RecordingHandler {
	return &RecordingHandler{svc: svc}
}

// ListRecordings godoc
// GET /recordings?stream=...
func (h *RecordingHandler) ListRecordings(c *gin.Context) {
	recs, err := h.svc.List(c.Request.Context(), c.Query("stream"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recordings"})
		return
	}
	out := make([]model.RecordingResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, recordingResponse(r))
	}
	c.JSON(http.StatusOK, model.RecordingsResponse{Recordings: out})
}

// GetRecording godoc
// GET /recordings/:id
func (h *RecordingHandler) GetRecording(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recording id required"})
		return
	}
	rec, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recording not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get recording"})
		return
	}
	c.JSON(http.StatusOK, recordingResponse(*rec))
}

func recordingResponse(r model.Recording) model.RecordingResponse {
	return model.RecordingResponse{
		ID:        r.ID,
		StreamKey: r.StreamKey,
		ObjectKey: r.ObjectKey,
		Location:  r.Location,
		Status:    r.Status,
		SizeBytes: r.SizeBytes,
		CreatedAt: r.CreatedAt,
	}
}
