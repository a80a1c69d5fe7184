package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"teamboard/internal/services"
	"teamboard/pkg/response"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{userService: services.NewUserService(db)}
}

// List returns the user directory
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"users": users})
}
