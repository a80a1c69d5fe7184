package models

import "time"

// ActivityLog records one mutating request for the audit trail. Rows are
// pruned by the retention scheduler, never updated.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `json:"user_id"`
	Method    string    `gorm:"size:10" json:"method"`
	Path      string    `gorm:"size:255" json:"path"`
	Status    int       `json:"status"`
	IP        string    `gorm:"size:45" json:"ip"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	Body      string    `gorm:"size:2000" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
