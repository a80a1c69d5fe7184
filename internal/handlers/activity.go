package handlers

import (
	"github.com/gin-gonic/gin"

	"teamboard/internal/services"
	"teamboard/pkg/response"
)

type ActivityHandler struct {
	logService *services.ActivityLogService
}

func NewActivityHandler(logService *services.ActivityLogService) *ActivityHandler {
	return &ActivityHandler{logService: logService}
}

// List returns recent audit entries
// GET /api/activity
func (h *ActivityHandler) List(c *gin.Context) {
	var req services.ActivityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.logService.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, resp)
}
