package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"teamboard/internal/config"
	"teamboard/internal/models"
	"teamboard/internal/utils"
	"teamboard/pkg/response"
)

// AuthService is the authentication boundary: it turns credentials into the
// actor identity the rest of the pipeline assumes.
type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwtConfig: jwtCfg}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Avatar   string `json:"avatar" binding:"omitempty,max=500"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token    string       `json:"token"`
	User     *models.User `json:"user"`
	ExpireAt time.Time    `json:"expire_at"`
}

// Register creates a new user account.
func (s *AuthService) Register(req *RegisterRequest) (*LoginResponse, error) {
	var existing models.User
	err := s.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return nil, response.NewConflict("email is already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Avatar:   req.Avatar,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewValidation("invalid email or password")
		}
		return nil, err
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, response.NewValidation("invalid email or password")
	}

	return s.issueToken(&user)
}

// GetUserByID returns the user for an authenticated actor id.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	return &user, nil
}

func (s *AuthService) issueToken(user *models.User) (*LoginResponse, error) {
	hours := s.jwtConfig.ExpireHour
	if hours <= 0 {
		hours = 24
	}

	token, err := utils.GenerateToken(user.ID, user.Name, hours)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Token:    token,
		User:     user,
		ExpireAt: time.Now().Add(time.Duration(hours) * time.Hour),
	}, nil
}
