package services

import (
	"gorm.io/gorm"

	"teamboard/internal/models"
)

// UserService exposes the user directory used when picking members and
// assignees.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// List returns all users ordered by name.
func (s *UserService) List() ([]models.User, error) {
	var users []models.User
	err := s.db.Order("name ASC").Find(&users).Error
	return users, err
}
