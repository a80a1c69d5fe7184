package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is an append-only discussion entry on a task. Comments are never
// edited or removed individually; they disappear only when their task does.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TaskID    uint           `gorm:"not null;index" json:"task_id"`
	UserID    uint           `gorm:"not null" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Text      string         `gorm:"size:500;not null" json:"text"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Comment) TableName() string { return "comments" }
