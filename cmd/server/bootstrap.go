package main

import (
	"gorm.io/gorm"

	"teamboard/internal/config"
	"teamboard/internal/handlers"
	"teamboard/internal/models"
	"teamboard/internal/services"
	"teamboard/internal/utils"
	"teamboard/pkg/logger"
)

// appServices holds the initialized dependencies shared by the routes.
type appServices struct {
	db              *gorm.DB
	hub             *services.Hub
	activityLogs    *services.ActivityLogService
	authHandler     *handlers.AuthHandler
	userHandler     *handlers.UserHandler
	projectHandler  *handlers.ProjectHandler
	taskHandler     *handlers.TaskHandler
	eventsHandler   *handlers.EventsHandler
	activityHandler *handlers.ActivityHandler
}

// bootstrap wires the database, the broadcast hub and every handler. The hub
// is passed down explicitly as the event publisher; nothing reaches for it
// through ambient state.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	db, err := models.Open(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	hub := services.NewHub()

	activityLogs := services.NewActivityLogService(db)
	activityLogs.StartCleanupScheduler(cfg.Log.ActivityRetentionDays)

	return &appServices{
		db:              db,
		hub:             hub,
		activityLogs:    activityLogs,
		authHandler:     handlers.NewAuthHandler(db, &cfg.JWT),
		userHandler:     handlers.NewUserHandler(db),
		projectHandler:  handlers.NewProjectHandler(db, hub),
		taskHandler:     handlers.NewTaskHandler(db, hub),
		eventsHandler:   handlers.NewEventsHandler(db, hub),
		activityHandler: handlers.NewActivityHandler(activityLogs),
	}
}

// shutdown stops the background schedulers.
func (s *appServices) shutdown() {
	s.activityLogs.StopCleanupScheduler()
	logger.Info().Msg("schedulers stopped")
}
