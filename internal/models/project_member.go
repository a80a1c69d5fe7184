package models

import (
	"time"
)

// ProjectMember is one membership edge between a project and a user. The
// unique (project_id, user_id) index makes concurrent duplicate adds resolve
// at the store rather than in the pipeline. Rows are hard-deleted so a
// removed member can be re-added without tripping the index.
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectMember) TableName() string { return "project_members" }
