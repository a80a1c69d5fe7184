package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"teamboard/internal/services"
	"teamboard/internal/utils"
	"teamboard/pkg/logger"
	"teamboard/pkg/response"
)

// EventsHandler streams broadcast events to subscribers over SSE.
type EventsHandler struct {
	hub            *services.Hub
	projectService *services.ProjectService
}

func NewEventsHandler(db *gorm.DB, hub *services.Hub) *EventsHandler {
	return &EventsHandler{
		hub:            hub,
		projectService: services.NewProjectService(db, hub),
	}
}

// Stream subscribes the caller to the global channel plus the channel of
// every project it is currently a member of. The channel set is captured at
// connect time; there is no replay of earlier events and no re-join on
// membership changes — clients reconnect to pick those up.
// GET /api/events
func (h *EventsHandler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		response.Unauthorized(c, "authorization required")
		return
	}

	claims, err := utils.ParseToken(token)
	if err != nil {
		response.Unauthorized(c, "invalid token")
		return
	}

	projectIDs, err := h.projectService.MemberProjectIDs(claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	events := h.hub.Subscribe(clientID, projectIDs)
	defer h.hub.Unsubscribe(clientID)

	logger.Info().
		Str("client_id", clientID).
		Uint("user_id", claims.UserID).
		Int("total", h.hub.ClientCount()).
		Msg("event stream connected")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error().Err(err).Msg("event marshal error")
				return true
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			c.Writer.Flush()
			return true
		case <-c.Request.Context().Done():
			logger.Info().Str("client_id", clientID).Msg("event stream disconnected")
			return false
		}
	})
}
