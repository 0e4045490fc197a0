package dto

import (
	"time"

	"github.com/yigit/coursepath/internal/app/models"
)

// TokenTypeBearer is the only token type issued
const TokenTypeBearer = "Bearer"

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"student"`
	Password string `json:"password" binding:"required" example:"student123"`
}

// RegisterRequest represents a user registration request. Role defaults to STUDENT.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,username" example:"jdoe"`
	Password string `json:"password" binding:"required,min=6,max=100" example:"secret123"`
	Name     string `json:"name" binding:"required,min=3,max=100" example:"John Doe"`
	Email    string `json:"email" binding:"required,email,max=255" example:"jdoe@example.com"`
	Role     string `json:"role" binding:"omitempty,role" example:"STUDENT" enums:"ADMIN,STUDENT"`
}

// UserResponse represents a user summary
type UserResponse struct {
	ID              string    `json:"id" example:"6c1f0a43-3f1e-4a4b-9a43-9c2b2f5d1e10"`
	Username        string    `json:"username" example:"student"`
	Name            string    `json:"name" example:"Student User"`
	Email           string    `json:"email" example:"student@lms.com"`
	Role            string    `json:"role" example:"STUDENT"`
	CreatedAt       time.Time `json:"createdAt"`
	EnrolledCourses []string  `json:"enrolledCourses"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token     string    `json:"token"`
	Type      string    `json:"type" example:"Bearer"`
	ExpiresAt time.Time `json:"expiresAt"`
	ExpiresIn int64     `json:"expiresIn" example:"86400"`
	ID        string    `json:"id"`
	Username  string    `json:"username" example:"student"`
	Name      string    `json:"name" example:"Student User"`
	Email     string    `json:"email" example:"student@lms.com"`
	Role      string    `json:"role" example:"STUDENT"`
}

// NewUserResponse converts a user model, never exposing the password hash
func NewUserResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}
	enrolled := user.EnrolledCourses
	if enrolled == nil {
		enrolled = []string{}
	}
	return &UserResponse{
		ID:              user.ID,
		Username:        user.Username,
		Name:            user.Name,
		Email:           user.Email,
		Role:            string(user.Role),
		CreatedAt:       user.CreatedAt,
		EnrolledCourses: enrolled,
	}
}
