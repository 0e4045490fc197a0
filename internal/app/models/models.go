package models

// RoleType defines the user role type
type RoleType string

const (
	RoleAdmin   RoleType = "ADMIN"
	RoleStudent RoleType = "STUDENT"
)

// IsValid reports whether r is one of the known roles
func (r RoleType) IsValid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// EnrollmentStatus is derived from an enrollment's progress
type EnrollmentStatus string

const (
	StatusEnrolled  EnrollmentStatus = "ENROLLED"
	StatusCompleted EnrollmentStatus = "COMPLETED"
)
