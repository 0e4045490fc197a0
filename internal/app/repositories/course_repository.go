package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/db"
	"github.com/yigit/coursepath/internal/pkg/apperrors"
	"github.com/yigit/coursepath/internal/pkg/dberrors"
	"github.com/yigit/coursepath/internal/pkg/helpers"
	"github.com/yigit/coursepath/internal/pkg/logger"
)

const enrollmentsCourseFKey = "enrollments_course_id_fkey"

var courseColumns = []string{
	"c.id", "c.title", "c.description", "c.thumbnail", "c.instructor", "c.duration", "c.modules", "c.created_at", "c.updated_at",
}

// ICourseRepository defines the interface for course catalog persistence.
// Returned courses never carry enrolledStudents; membership lives in the enrollment ledger.
type ICourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]*models.Course, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// CourseRepository handles course database operations
type CourseRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

var _ ICourseRepository = (*CourseRepository)(nil)

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(q db.Querier) *CourseRepository {
	return &CourseRepository{
		db: q,
		sb: psql,
	}
}

// Create inserts a course with its module list
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	modules, err := encodeModules(course.Modules)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("courses").
		Columns("id", "title", "description", "thumbnail", "instructor", "duration", "modules", "created_at", "updated_at").
		Values(course.ID, course.Title, course.Description, course.Thumbnail, course.Instructor, course.Duration, modules, course.CreatedAt, course.UpdatedAt).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create course SQL")
		return fmt.Errorf("failed to build create course query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("courseID", course.ID).Msg("Error executing create course query")
		return fmt.Errorf("error creating course: %w", err)
	}
	return nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).
		From("courses c").
		Where(squirrel.Eq{"c.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get course by ID SQL")
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Str("courseID", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error getting course by ID: %w", err)
	}
	return course, nil
}

// List retrieves every course ordered by creation time
func (r *CourseRepository) List(ctx context.Context) ([]*models.Course, error) {
	query := r.sb.Select(courseColumns...).
		From("courses c").
		OrderBy("c.created_at ASC", "c.id ASC")
	return r.queryCourses(ctx, query)
}

// ListByStudent retrieves the courses a student is enrolled in, oldest enrollment first
func (r *CourseRepository) ListByStudent(ctx context.Context, studentID string) ([]*models.Course, error) {
	query := r.sb.Select(courseColumns...).
		From("courses c").
		Join("enrollments e ON e.course_id = c.id").
		Where(squirrel.Eq{"e.student_id": studentID}).
		OrderBy("e.enrolled_at ASC", "c.id ASC")
	return r.queryCourses(ctx, query)
}

// Update replaces the course's content fields and module list
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	modules, err := encodeModules(course.Modules)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Update("courses").
		SetMap(map[string]interface{}{
			"title":       course.Title,
			"description": course.Description,
			"thumbnail":   course.Thumbnail,
			"instructor":  course.Instructor,
			"duration":    course.Duration,
			"modules":     modules,
			"updated_at":  course.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": course.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update course SQL")
		return fmt.Errorf("failed to build update course query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("courseID", course.ID).Msg("Error executing update course query")
		return fmt.Errorf("error updating course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// Delete removes a course that has no enrollments
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	checkSQL, checkArgs, err := r.sb.Select("1").
		From("enrollments").
		Where(squirrel.Eq{"course_id": id}).
		Prefix("SELECT EXISTS (").Suffix(")").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building check enrollments SQL")
		return fmt.Errorf("failed to build check enrollments query: %w", err)
	}

	var hasEnrollments bool
	if err := r.db.QueryRow(ctx, checkSQL, checkArgs...).Scan(&hasEnrollments); err != nil {
		logger.Error().Err(err).Str("courseID", id).Msg("Error checking course enrollments")
		return fmt.Errorf("error checking course enrollments: %w", err)
	}
	if hasEnrollments {
		return apperrors.ErrCourseHasEnrollments
	}

	sql, args, err := r.sb.Delete("courses").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete course SQL")
		return fmt.Errorf("failed to build delete course query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		// An enrollment can slip in between the check and the delete
		if dberrors.IsForeignKeyViolation(err, enrollmentsCourseFKey) {
			return apperrors.ErrCourseHasEnrollments
		}
		logger.Error().Err(err).Str("courseID", id).Msg("Error executing delete course query")
		return fmt.Errorf("error deleting course: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// Count returns the number of courses in the catalog
func (r *CourseRepository) Count(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").From("courses").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count courses query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		logger.Error().Err(err).Msg("Error counting courses")
		return 0, fmt.Errorf("error counting courses: %w", err)
	}
	return count, nil
}

func (r *CourseRepository) queryCourses(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Course, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list courses SQL")
		return nil, fmt.Errorf("failed to build list courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list courses query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning course row")
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating course rows")
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}
	return courses, nil
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	course := &models.Course{}
	var modules []byte
	if err := row.Scan(
		&course.ID, &course.Title, &course.Description, &course.Thumbnail, &course.Instructor,
		&course.Duration, &modules, &course.CreatedAt, &course.UpdatedAt,
	); err != nil {
		return nil, err
	}

	decoded, err := decodeModules(modules)
	if err != nil {
		return nil, fmt.Errorf("course %s: %w", course.ID, err)
	}
	course.Modules = decoded
	course.CreatedAt = helpers.ToUTC(course.CreatedAt)
	course.UpdatedAt = helpers.ToUTC(course.UpdatedAt)
	course.EnrolledStudents = []string{}
	return course, nil
}

func encodeModules(modules []models.Module) ([]byte, error) {
	if modules == nil {
		modules = []models.Module{}
	}
	data, err := json.Marshal(modules)
	if err != nil {
		return nil, fmt.Errorf("failed to encode modules: %w", err)
	}
	return data, nil
}

func decodeModules(data []byte) ([]models.Module, error) {
	modules := []models.Module{}
	if len(data) == 0 {
		return modules, nil
	}
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, fmt.Errorf("failed to decode modules: %w", err)
	}
	return modules, nil
}
