package models

import (
	"time"

	"gorm.io/gorm"
)

// Task statuses.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusDone       = "done"
)

// Task priorities.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
)

// Task belongs to exactly one project for its whole life; ProjectID is never
// updated after creation. AssignedToID is validated against the member set
// only when the assignment is made — a later member removal leaves the
// assignment in place.
type Task struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	Description  string         `gorm:"size:1000" json:"description"`
	ProjectID    uint           `gorm:"not null;index" json:"project_id"`
	Project      *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	AssignedToID *uint          `json:"assigned_to_id"`
	AssignedTo   *User          `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	CreatedByID  uint           `gorm:"not null;index" json:"created_by_id"`
	CreatedBy    *User          `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Status       string         `gorm:"size:20;default:todo" json:"status"`
	Priority     string         `gorm:"size:20;default:medium" json:"priority"`
	DueDate      *time.Time     `json:"due_date"`
	Comments     []Comment      `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string { return "tasks" }

// NewTask constructs a task with the documented defaults applied.
func NewTask(title, description string, projectID, createdByID uint) *Task {
	return &Task{
		Title:       title,
		Description: description,
		ProjectID:   projectID,
		CreatedByID: createdByID,
		Status:      TaskStatusTodo,
		Priority:    TaskPriorityMedium,
	}
}

// ValidTaskStatus reports whether s is one of the known task statuses.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// ValidTaskPriority reports whether p is one of the known task priorities.
func ValidTaskPriority(p string) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}
