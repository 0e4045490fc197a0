package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID              string    `json:"id" db:"id" example:"6c1f0a43-3f1e-4a4b-9a43-9c2b2f5d1e10"` // Unique identifier for the user
	Username        string    `json:"username" db:"username" example:"student"`                  // Login name, unique
	Password        string    `json:"-" db:"password"`                                           // bcrypt hash (excluded from JSON)
	Name            string    `json:"name" db:"name" example:"Student User"`                     // Display name
	Email           string    `json:"email" db:"email" example:"student@lms.com"`                // Unique email address
	Role            RoleType  `json:"role" db:"role" example:"STUDENT"`                          // ADMIN or STUDENT, immutable
	CreatedAt       time.Time `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"`
	EnrolledCourses []string  `json:"enrolledCourses"` // Derived from enrollments, no db column
}
