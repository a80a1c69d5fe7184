package main

import (
	"github.com/gin-gonic/gin"

	"teamboard/internal/middleware"
	"teamboard/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS())

	// Rate limiter for the public auth routes
	authLimiter := middleware.NewRateLimiter(5, 10)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "teamboard"})
	})

	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Event stream (public route with its own token validation)
		api.GET("/events", svc.eventsHandler.Stream)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog(svc.activityLogs))
		{
			protected.GET("/auth/me", svc.authHandler.Me)

			protected.GET("/users", svc.userHandler.List)

			protected.GET("/projects", svc.projectHandler.List)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects/:id", svc.projectHandler.Get)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)
			protected.POST("/projects/:id/members", svc.projectHandler.AddMember)
			protected.DELETE("/projects/:id/members/:userId", svc.projectHandler.RemoveMember)

			protected.GET("/tasks", svc.taskHandler.List)
			protected.GET("/tasks/project/:projectId", svc.taskHandler.ListForProject)
			protected.POST("/tasks", svc.taskHandler.Create)
			protected.GET("/tasks/:id", svc.taskHandler.Get)
			protected.PUT("/tasks/:id", svc.taskHandler.Update)
			protected.DELETE("/tasks/:id", svc.taskHandler.Delete)
			protected.POST("/tasks/:id/comments", svc.taskHandler.AddComment)

			protected.GET("/activity", svc.activityHandler.List)
		}
	}
}
