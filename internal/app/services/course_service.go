package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/coursepath/internal/app/cache"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/app/repositories"
	"github.com/yigit/coursepath/internal/pkg/apperrors"
	"github.com/yigit/coursepath/internal/pkg/validation"
)

// CourseService defines the course catalog operations
type CourseService interface {
	CreateCourse(ctx context.Context, course *models.Course) (*models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	UpdateCourse(ctx context.Context, id string, update *models.Course) (*models.Course, error)
	DeleteCourse(ctx context.Context, id string) error
	ListCourses(ctx context.Context) ([]*models.Course, error)
	ListEnrolledCourses(ctx context.Context, studentID string) ([]*models.Course, error)
}

// courseServiceImpl implements the CourseService interface
type courseServiceImpl struct {
	courseRepo     repositories.ICourseRepository
	enrollmentRepo repositories.IEnrollmentRepository
	cache          cache.CourseCache
	logger         zerolog.Logger
	now            Clock
}

// NewCourseService creates a new course service instance. A nil cache disables caching.
func NewCourseService(
	courseRepo repositories.ICourseRepository,
	enrollmentRepo repositories.IEnrollmentRepository,
	courseCache cache.CourseCache,
	logger zerolog.Logger,
) CourseService {
	if courseCache == nil {
		courseCache = cache.NoopCourseCache{}
	}
	return &courseServiceImpl{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		cache:          courseCache,
		logger:         logger,
		now:            utcNow,
	}
}

// validateCourse validates course data before database operations
func validateCourse(course *models.Course) error {
	if course == nil {
		return apperrors.NewValidationError("course is required")
	}

	if !validation.NewStringValidation(course.Title).WithMaxLength(validation.CourseTitleMaxLength).Validate() {
		return apperrors.NewValidationError("title is required and must be at most 200 characters")
	}

	seen := make(map[string]struct{}, len(course.Modules))
	for i, module := range course.Modules {
		if !validation.IsValidModuleID(module.ID) {
			return apperrors.NewValidationError(fmt.Sprintf("modules[%d]: id must be 1-64 letters, digits, dashes or underscores", i))
		}
		if _, dup := seen[module.ID]; dup {
			return apperrors.NewValidationError(fmt.Sprintf("modules[%d]: duplicate module id %q", i, module.ID))
		}
		seen[module.ID] = struct{}{}
	}
	return nil
}

func normalizeCourse(course *models.Course) {
	course.Title = strings.TrimSpace(course.Title)
	course.Instructor = strings.TrimSpace(course.Instructor)
	course.Duration = strings.TrimSpace(course.Duration)
	if course.Modules == nil {
		course.Modules = []models.Module{}
	}
}

// CreateCourse stores a new course and returns it with empty membership
func (s *courseServiceImpl) CreateCourse(ctx context.Context, course *models.Course) (*models.Course, error) {
	if course != nil {
		normalizeCourse(course)
	}
	if err := validateCourse(course); err != nil {
		return nil, err
	}

	now := s.now()
	course.ID = uuid.NewString()
	course.CreatedAt = now
	course.UpdatedAt = now
	course.EnrolledStudents = []string{}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, course.ID)

	s.logger.Info().Str("courseID", course.ID).Str("title", course.Title).Int("modules", len(course.Modules)).Msg("Course created")
	return course, nil
}

// GetCourse returns a course with its enrolled students
func (s *courseServiceImpl) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, ticket, ok := s.cache.GetCourse(ctx, id)
	if !ok {
		var err error
		course, err = s.courseRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.cache.SetCourse(ctx, ticket, course)
	}

	if err := s.attachMembership(ctx, []*models.Course{course}); err != nil {
		return nil, err
	}
	return course, nil
}

// UpdateCourse replaces content and modules; enrollments are untouched
func (s *courseServiceImpl) UpdateCourse(ctx context.Context, id string, update *models.Course) (*models.Course, error) {
	if update != nil {
		normalizeCourse(update)
	}
	if err := validateCourse(update); err != nil {
		return nil, err
	}

	existing, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Title = update.Title
	existing.Description = update.Description
	existing.Thumbnail = update.Thumbnail
	existing.Instructor = update.Instructor
	existing.Duration = update.Duration
	existing.Modules = update.Modules
	existing.UpdatedAt = s.now()

	if err := s.courseRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)

	if err := s.attachMembership(ctx, []*models.Course{existing}); err != nil {
		return nil, err
	}

	s.logger.Info().Str("courseID", id).Int("modules", len(existing.Modules)).Msg("Course updated")
	return existing, nil
}

// DeleteCourse removes a course; courses with enrollments are rejected with a conflict
func (s *courseServiceImpl) DeleteCourse(ctx context.Context, id string) error {
	if err := s.courseRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)

	s.logger.Info().Str("courseID", id).Msg("Course deleted")
	return nil
}

// ListCourses returns the whole catalog ordered by creation time
func (s *courseServiceImpl) ListCourses(ctx context.Context) ([]*models.Course, error) {
	courses, ticket, ok := s.cache.GetCatalog(ctx)
	if !ok {
		var err error
		courses, err = s.courseRepo.List(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.SetCatalog(ctx, ticket, courses)
	}

	if err := s.attachMembership(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// ListEnrolledCourses returns the courses a student is enrolled in
func (s *courseServiceImpl) ListEnrolledCourses(ctx context.Context, studentID string) ([]*models.Course, error) {
	courses, err := s.courseRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if err := s.attachMembership(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// attachMembership fills EnrolledStudents from the enrollment ledger
func (s *courseServiceImpl) attachMembership(ctx context.Context, courses []*models.Course) error {
	if len(courses) == 0 {
		return nil
	}

	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}

	members, err := s.enrollmentRepo.StudentIDsByCourses(ctx, ids)
	if err != nil {
		return fmt.Errorf("error loading enrolled students: %w", err)
	}
	for _, c := range courses {
		c.EnrolledStudents = members[c.ID]
		if c.EnrolledStudents == nil {
			c.EnrolledStudents = []string{}
		}
	}
	return nil
}
