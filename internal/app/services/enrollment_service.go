package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/app/repositories"
	"github.com/yigit/coursepath/internal/pkg/apperrors"
	"github.com/yigit/coursepath/internal/pkg/metrics"
)

// EnrollmentService defines enrollment and progress operations
type EnrollmentService interface {
	Enroll(ctx context.Context, courseID, studentID string) (*models.Enrollment, error)
	SetModuleCompletion(ctx context.Context, courseID, studentID, moduleID string, completed bool) (*models.Enrollment, error)
	// GetEnrollment returns nil, nil when the student is not enrolled
	GetEnrollment(ctx context.Context, courseID, studentID string) (*models.Enrollment, error)
	ListForStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error)
}

// enrollmentServiceImpl implements the EnrollmentService interface
type enrollmentServiceImpl struct {
	enrollmentRepo repositories.IEnrollmentRepository
	courseRepo     repositories.ICourseRepository
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	now            Clock
}

// NewEnrollmentService creates a new enrollment service instance. Metrics may be nil.
func NewEnrollmentService(
	enrollmentRepo repositories.IEnrollmentRepository,
	courseRepo repositories.ICourseRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentServiceImpl{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		metrics:        m,
		logger:         logger,
		now:            utcNow,
	}
}

// Enroll is idempotent: an existing enrollment is returned unchanged
func (s *enrollmentServiceImpl) Enroll(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	existing, err := s.enrollmentRepo.Get(ctx, courseID, studentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	now := s.now()
	enrollment, created, err := s.enrollmentRepo.Create(ctx, &models.Enrollment{
		ID:               uuid.NewString(),
		CourseID:         courseID,
		StudentID:        studentID,
		EnrolledDate:     now,
		Progress:         0,
		CompletedModules: []string{},
		UpdatedAt:        now,
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.metrics.RecordEnrollment(courseID)
		s.logger.Info().Str("courseID", courseID).Str("studentID", studentID).Msg("Student enrolled")
	}
	return enrollment, nil
}

// SetModuleCompletion marks a module complete or incomplete and recomputes
// progress against the course's current module list.
func (s *enrollmentServiceImpl) SetModuleCompletion(ctx context.Context, courseID, studentID, moduleID string, completed bool) (*models.Enrollment, error) {
	changed := false

	enrollment, err := s.enrollmentRepo.UpdateCompletion(ctx, courseID, studentID, func(e *models.Enrollment, course *models.Course) error {
		var err error
		changed, err = applyCompletion(e, course, moduleID, completed)
		if err != nil {
			return err
		}
		e.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.RecordModuleCompletion(completed)
		s.logger.Info().
			Str("courseID", courseID).
			Str("studentID", studentID).
			Str("moduleID", moduleID).
			Bool("completed", completed).
			Float64("progress", enrollment.Progress).
			Msg("Module progress updated")
	}
	return enrollment, nil
}

// GetEnrollment returns the enrollment for the pair, or nil when absent
func (s *enrollmentServiceImpl) GetEnrollment(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	return s.enrollmentRepo.Get(ctx, courseID, studentID)
}

// ListForStudent returns every enrollment of the student
func (s *enrollmentServiceImpl) ListForStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	return s.enrollmentRepo.ListByStudent(ctx, studentID)
}

// applyCompletion edits the completed set and progress of e. Completed IDs of
// modules no longer in the course are dropped first. It reports whether the
// requested module's state changed.
func applyCompletion(e *models.Enrollment, course *models.Course, moduleID string, completed bool) (bool, error) {
	if completed && !course.HasModule(moduleID) {
		return false, apperrors.ErrModuleNotFound
	}

	set := make([]string, 0, len(e.CompletedModules)+1)
	seen := make(map[string]struct{}, len(e.CompletedModules)+1)
	for _, id := range e.CompletedModules {
		if _, dup := seen[id]; dup || !course.HasModule(id) {
			continue
		}
		seen[id] = struct{}{}
		set = append(set, id)
	}

	_, present := seen[moduleID]
	changed := false
	switch {
	case completed && !present:
		set = append(set, moduleID)
		changed = true
	case !completed && present:
		filtered := set[:0]
		for _, id := range set {
			if id != moduleID {
				filtered = append(filtered, id)
			}
		}
		set = filtered
		changed = true
	}

	e.CompletedModules = set
	e.Progress = ComputeProgress(len(set), len(course.Modules))
	return changed, nil
}
