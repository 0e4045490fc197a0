package dto

import (
	"time"

	"github.com/yigit/coursepath/internal/app/models"
)

// EnrollRequest is the body for enrolling the caller in a course
type EnrollRequest struct {
	CourseID string `json:"courseId" binding:"required" example:"0b7d6c1e-5f55-4c43-9d0e-2f1f6f9c8a11"`
}

// ModuleProgressRequest marks a module complete or incomplete
type ModuleProgressRequest struct {
	// Pointer so an explicit false is distinguishable from a missing field
	Completed *bool `json:"completed" binding:"required" example:"true"`
}

// EnrollmentResponse is an enrollment with its derived status
type EnrollmentResponse struct {
	ID               string    `json:"id"`
	CourseID         string    `json:"courseId"`
	StudentID        string    `json:"studentId"`
	EnrolledDate     time.Time `json:"enrolledDate"`
	Progress         float64   `json:"progress" example:"33.33"`
	CompletedModules []string  `json:"completedModules"`
	Status           string    `json:"status" example:"ENROLLED" enums:"ENROLLED,COMPLETED"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewEnrollmentResponse converts an enrollment model
func NewEnrollmentResponse(enrollment *models.Enrollment) *EnrollmentResponse {
	if enrollment == nil {
		return nil
	}
	completed := enrollment.CompletedModules
	if completed == nil {
		completed = []string{}
	}
	return &EnrollmentResponse{
		ID:               enrollment.ID,
		CourseID:         enrollment.CourseID,
		StudentID:        enrollment.StudentID,
		EnrolledDate:     enrollment.EnrolledDate,
		Progress:         enrollment.Progress,
		CompletedModules: completed,
		Status:           string(enrollment.Status()),
		UpdatedAt:        enrollment.UpdatedAt,
	}
}

// NewEnrollmentListResponse converts a list of enrollment models
func NewEnrollmentListResponse(enrollments []*models.Enrollment) []*EnrollmentResponse {
	out := make([]*EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, NewEnrollmentResponse(e))
	}
	return out
}
