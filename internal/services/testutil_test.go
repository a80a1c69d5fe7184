package services

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"teamboard/internal/models"
)

// newTestDB creates an in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// One connection, or each pooled connection gets its own empty :memory: db
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	events []Event
}

func (p *capturePublisher) Publish(ev Event) {
	p.events = append(p.events, ev)
}

func (p *capturePublisher) last(t *testing.T) Event {
	t.Helper()
	if len(p.events) == 0 {
		t.Fatal("no events published")
	}
	return p.events[len(p.events)-1]
}

func (p *capturePublisher) reset() {
	p.events = nil
}

var userSeq int

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	userSeq++
	user := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s%d@example.com", name, userSeq),
		Password: "hashed",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func createProject(t *testing.T, svc *ProjectService, name string, ownerID uint) *models.Project {
	t.Helper()
	project, err := svc.Create(&CreateProjectRequest{Name: name}, ownerID)
	if err != nil {
		t.Fatalf("failed to create project %s: %v", name, err)
	}
	return project
}
