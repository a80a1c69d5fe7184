package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"teamboard/internal/utils"
	"teamboard/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextUserName = "user_name"
)

// AuthRequired checks for a valid bearer token and puts the actor identity
// into the request context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserName, claims.Name)

		c.Next()
	}
}

// GetUserID returns the authenticated actor id from the context.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(uint)
	}
	return 0
}

// GetUserName returns the authenticated actor's display name.
func GetUserName(c *gin.Context) string {
	if name, exists := c.Get(ContextUserName); exists {
		return name.(string)
	}
	return ""
}
