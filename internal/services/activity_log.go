package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"teamboard/internal/models"
	"teamboard/pkg/logger"
)

// ActivityLogService records the audit trail of mutating requests and prunes
// it on a schedule.
type ActivityLogService struct {
	db        *gorm.DB
	scheduler *cron.Cron
}

func NewActivityLogService(db *gorm.DB) *ActivityLogService {
	return &ActivityLogService{db: db}
}

// Record appends one audit row. Failures are logged and swallowed; auditing
// never fails a request.
func (s *ActivityLogService) Record(entry *models.ActivityLog) {
	if err := s.db.Create(entry).Error; err != nil {
		logger.Error().Err(err).Msg("failed to record activity log")
	}
}

type ActivityListRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type ActivityListResponse struct {
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Items    []models.ActivityLog `json:"items"`
}

// List returns audit rows, newest first.
func (s *ActivityLogService) List(req *ActivityListRequest) (*ActivityListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var logs []models.ActivityLog
	var total int64

	query := s.db.Model(&models.ActivityLog{})
	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &ActivityListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// Cleanup deletes audit rows older than retentionDays and returns how many
// were removed.
func (s *ActivityLogService) Cleanup(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// StartCleanupScheduler runs Cleanup once now and then nightly at 03:00.
func (s *ActivityLogService) StartCleanupScheduler(retentionDays int) {
	if retentionDays <= 0 {
		logger.Info().Msg("activity log cleanup disabled")
		return
	}

	run := func() {
		deleted, err := s.Cleanup(retentionDays)
		if err != nil {
			logger.Error().Err(err).Msg("activity log cleanup failed")
			return
		}
		if deleted > 0 {
			logger.Info().Int64("deleted", deleted).Int("retention_days", retentionDays).Msg("activity log cleanup")
		}
	}

	go run()

	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc("0 3 * * *", run); err != nil {
		logger.Error().Err(err).Msg("failed to schedule activity log cleanup")
		return
	}
	s.scheduler.Start()
}

// StopCleanupScheduler stops the nightly job.
func (s *ActivityLogService) StopCleanupScheduler() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
