package services

import (
	"time"

	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/pkg/auth"
)

// Services defined in this package:
// - AuthService: login, registration and profile lookup
// - CourseService: the course catalog
// - EnrollmentService: enrollment ledger and module progress
// - AnalyticsService: admin dashboard figures

// TokenIssuer signs access tokens
type TokenIssuer interface {
	Issue(identity auth.Identity) (string, time.Time, error)
}

// Clock returns the current time
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// ComputeProgress returns completed/total as a percentage in [0, 100].
// A course without modules has progress 0.
func ComputeProgress(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	progress := float64(completed) / float64(total) * 100
	if progress > 100 {
		return 100
	}
	return progress
}

func identityOf(user *models.User) auth.Identity {
	return auth.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
}
