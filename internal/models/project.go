package models

import (
	"time"

	"gorm.io/gorm"
)

// Project statuses.
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

// Project is the root aggregate of the collaboration graph. It exclusively
// owns its tasks: deleting a project deletes every task (and comment) under
// it. Membership rows live in project_members; Members is resolved at read
// time in insertion order.
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description"`
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	Owner       *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Status      string         `gorm:"size:20;default:active" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Resolved, not persisted on the projects row itself.
	Members   []User `gorm:"-" json:"members,omitempty"`
	TaskCount int64  `gorm:"-" json:"task_count"`
}

func (Project) TableName() string { return "projects" }

// NewProject is the only way to construct a project. The returned membership
// row inserts the owner into the member set, so the owner-is-a-member
// invariant holds from the first commit.
func NewProject(name, description string, ownerID uint) (*Project, *ProjectMember) {
	p := &Project{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Status:      ProjectStatusActive,
	}
	return p, &ProjectMember{UserID: ownerID}
}

// ValidProjectStatus reports whether s is one of the known project statuses.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusArchived:
		return true
	}
	return false
}

// HasMember reports whether userID is in the resolved member set.
func (p *Project) HasMember(userID uint) bool {
	for i := range p.Members {
		if p.Members[i].ID == userID {
			return true
		}
	}
	return false
}
