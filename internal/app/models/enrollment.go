package models

import "time"

// Enrollment is the ledger record tying one student to one course.
type Enrollment struct {
	ID               string    `json:"id" db:"id"`
	CourseID         string    `json:"courseId" db:"course_id"`
	StudentID        string    `json:"studentId" db:"student_id"`
	EnrolledDate     time.Time `json:"enrolledDate" db:"enrolled_at"`
	Progress         float64   `json:"progress" db:"progress"`
	CompletedModules []string  `json:"completedModules" db:"completed_modules"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// Status derives the enrollment state from its progress.
func (e *Enrollment) Status() EnrollmentStatus {
	if e.Progress >= 100 {
		return StatusCompleted
	}
	return StatusEnrolled
}

// HasCompleted reports whether moduleID is in the completed set.
func (e *Enrollment) HasCompleted(moduleID string) bool {
	for _, id := range e.CompletedModules {
		if id == moduleID {
			return true
		}
	}
	return false
}
