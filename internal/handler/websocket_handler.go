package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tonote/notary-stream-service/internal/model"
	"github.com/tonote/notary-stream-service/internal/service"
	"go.uber.org/zap"
)

// SessionWSHandler handles WebSocket connections for /ws/session.
type SessionWSHandler struct {
	hub    *service.Hub
	logger *zap.Logger
}

// NewSessionWSHandler creates the session WebSocket handler.
func NewSessionWSHandler(hub *service.Hub, logger *zap.Logger) *SessionWSHandler {
	return &SessionWSHandler{hub: hub, logger: logger}
}

// ServeWS validates handshake parameters, upgrades the request and runs the
// event loop. Query params: username (required), room, token, title - the
// three handshake shapes of the protocol. Validation failures reject the
// connection before it can see a single event.
func (h *SessionWSHandler) ServeWS(c *gin.Context) {
	hs := model.Handshake{
		Username: c.Query("username"),
		Room:     c.Query("room"),
		Token:    c.Query("token"),
		Title:    c.Query("title"),
	}
	id, err := model.ResolveIdentity(hs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	client, cleanup := h.hub.Register(id, conn)
	defer cleanup()

	go h.writePump(client)
	h.readPump(client)
}

// readPump receives frames until the connection drops. Text frames are
// session events; binary frames are capture fragments for the bound stream.
func (h *SessionWSHandler) readPump(c *service.Client) {
	defer func() {
		_ = c.Conn.Close()
	}()
	for {
		mt, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			break
		}
		switch mt {
		case websocket.TextMessage:
			h.hub.Dispatch(c, data)
		case websocket.BinaryMessage:
			h.hub.AppendBinary(c, data)
		}
	}
}

func (h *SessionWSHandler) writePump(c *service.Client) {
	defer func() {
		_ = c.Conn.Close()
	}()
	for data := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
}
