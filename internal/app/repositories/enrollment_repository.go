package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/db"
	"github.com/yigit/coursepath/internal/pkg/apperrors"
	"github.com/yigit/coursepath/internal/pkg/dberrors"
	"github.com/yigit/coursepath/internal/pkg/helpers"
	"github.com/yigit/coursepath/internal/pkg/logger"
)

const enrollmentsStudentFKey = "enrollments_student_id_fkey"

var enrollmentColumns = []string{"id", "course_id", "student_id", "enrolled_at", "progress", "completed_modules", "updated_at"}

// CompletionMutator edits an enrollment in place while its row is locked.
// course is read on the same transaction as the lock.
type CompletionMutator func(enrollment *models.Enrollment, course *models.Course) error

// IEnrollmentRepository defines the enrollment ledger operations
type IEnrollmentRepository interface {
	// Create inserts the enrollment unless one already exists for the pair.
	// It returns the stored record and whether this call created it.
	Create(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, bool, error)
	// Get returns nil, nil when the student is not enrolled.
	Get(ctx context.Context, courseID, studentID string) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error)
	CourseIDsByStudent(ctx context.Context, studentID string) ([]string, error)
	StudentIDsByCourses(ctx context.Context, courseIDs []string) (map[string][]string, error)
	// UpdateCompletion locks the record, loads its course, applies mutate and persists
	// progress and completed modules. Returns apperrors.ErrNotEnrolled when no record exists.
	UpdateCompletion(ctx context.Context, courseID, studentID string, mutate CompletionMutator) (*models.Enrollment, error)
	Summary(ctx context.Context) (*models.EnrollmentSummary, error)
	CountsByCourse(ctx context.Context) ([]models.CourseEnrollmentCount, error)
}

// EnrollmentRepository is the enrollment ledger backed by the enrollments table
type EnrollmentRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

var _ IEnrollmentRepository = (*EnrollmentRepository)(nil)

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(database *db.PostgresDB) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: database,
		sb: psql,
	}
}

// Create inserts with ON CONFLICT DO NOTHING so concurrent enrolls converge on one row
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) (*models.Enrollment, bool, error) {
	completed := enrollment.CompletedModules
	if completed == nil {
		completed = []string{}
	}

	sql, args, err := r.sb.Insert("enrollments").
		Columns(enrollmentColumns...).
		Values(enrollment.ID, enrollment.CourseID, enrollment.StudentID, enrollment.EnrolledDate,
			enrollment.Progress, completed, enrollment.UpdatedAt).
		Suffix("ON CONFLICT (course_id, student_id) DO NOTHING RETURNING " + strings.Join(enrollmentColumns, ", ")).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create enrollment SQL")
		return nil, false, fmt.Errorf("failed to build create enrollment query: %w", err)
	}

	created, err := scanEnrollment(r.db.Pool.QueryRow(ctx, sql, args...))
	switch {
	case err == nil:
		return created, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Lost the race: another request enrolled the same pair first
		existing, getErr := r.Get(ctx, enrollment.CourseID, enrollment.StudentID)
		if getErr != nil {
			return nil, false, getErr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("enrollment conflict for course %s but no row found", enrollment.CourseID)
		}
		return existing, false, nil
	case dberrors.IsForeignKeyViolation(err, enrollmentsCourseFKey):
		return nil, false, apperrors.ErrCourseNotFound
	case dberrors.IsForeignKeyViolation(err, enrollmentsStudentFKey):
		return nil, false, apperrors.ErrUserNotFound
	default:
		logger.Error().Err(err).Str("courseID", enrollment.CourseID).Str("studentID", enrollment.StudentID).Msg("Error executing create enrollment query")
		return nil, false, fmt.Errorf("error creating enrollment: %w", err)
	}
}

// Get retrieves the enrollment for a (course, student) pair
func (r *EnrollmentRepository) Get(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	sql, args, err := r.sb.Select(enrollmentColumns...).
		From("enrollments").
		Where(squirrel.Eq{"course_id": courseID, "student_id": studentID}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get enrollment SQL")
		return nil, fmt.Errorf("failed to build get enrollment query: %w", err)
	}

	enrollment, err := scanEnrollment(r.db.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		logger.Error().Err(err).Str("courseID", courseID).Str("studentID", studentID).Msg("Error scanning enrollment row")
		return nil, fmt.Errorf("error getting enrollment: %w", err)
	}
	return enrollment, nil
}

// ListByStudent retrieves all enrollments of a student, oldest first
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	sql, args, err := r.sb.Select(enrollmentColumns...).
		From("enrollments").
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("enrolled_at ASC", "id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list enrollments SQL")
		return nil, fmt.Errorf("failed to build list enrollments query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("studentID", studentID).Msg("Error executing list enrollments query")
		return nil, fmt.Errorf("error querying enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []*models.Enrollment{}
	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning enrollment row")
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, enrollment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}
	return enrollments, nil
}

// CourseIDsByStudent derives a student's enrolled course list from the ledger
func (r *EnrollmentRepository) CourseIDsByStudent(ctx context.Context, studentID string) ([]string, error) {
	sql, args, err := r.sb.Select("course_id").
		From("enrollments").
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("enrolled_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build course ids query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("studentID", studentID).Msg("Error querying enrolled course ids")
		return nil, fmt.Errorf("error querying enrolled course ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("error collecting enrolled course ids: %w", err)
	}
	return ids, nil
}

// StudentIDsByCourses derives enrolledStudents for each of the given courses.
// Every requested course is present in the result, possibly with an empty slice.
func (r *EnrollmentRepository) StudentIDsByCourses(ctx context.Context, courseIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(courseIDs))
	for _, id := range courseIDs {
		result[id] = []string{}
	}
	if len(courseIDs) == 0 {
		return result, nil
	}

	sql, args, err := r.sb.Select("course_id", "student_id").
		From("enrollments").
		Where(squirrel.Eq{"course_id": courseIDs}).
		OrderBy("enrolled_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build student ids query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying enrolled student ids")
		return nil, fmt.Errorf("error querying enrolled student ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var courseID, studentID string
		if err := rows.Scan(&courseID, &studentID); err != nil {
			return nil, fmt.Errorf("error scanning enrolled student id: %w", err)
		}
		result[courseID] = append(result[courseID], studentID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrolled student ids: %w", err)
	}
	return result, nil
}

// UpdateCompletion serializes read-modify-write of one ledger row with SELECT ... FOR UPDATE
func (r *EnrollmentRepository) UpdateCompletion(ctx context.Context, courseID, studentID string, mutate CompletionMutator) (*models.Enrollment, error) {
	var updated *models.Enrollment

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		enrollment, err := r.lockAndApply(ctx, tx, courseID, studentID, mutate)
		if err != nil {
			return err
		}
		updated = enrollment
		return nil
	})
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotEnrolled, apperrors.ErrResourceNotFound) {
			logger.Error().Err(err).Str("courseID", courseID).Str("studentID", studentID).Msg("Error updating enrollment completion")
		}
		return nil, err
	}
	return updated, nil
}

// lockAndApply runs every statement of a completion update on q, so the lock,
// the course read and the write share one connection.
func (r *EnrollmentRepository) lockAndApply(ctx context.Context, q db.Querier, courseID, studentID string, mutate CompletionMutator) (*models.Enrollment, error) {
	selectSQL, selectArgs, err := r.sb.Select(enrollmentColumns...).
		From("enrollments").
		Where(squirrel.Eq{"course_id": courseID, "student_id": studentID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build lock enrollment query: %w", err)
	}

	enrollment, err := scanEnrollment(q.QueryRow(ctx, selectSQL, selectArgs...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotEnrolled
		}
		return nil, fmt.Errorf("error locking enrollment: %w", err)
	}

	course, err := NewCourseRepository(q).GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if err := mutate(enrollment, course); err != nil {
		return nil, err
	}

	updateSQL, updateArgs, err := r.sb.Update("enrollments").
		SetMap(map[string]interface{}{
			"progress":          enrollment.Progress,
			"completed_modules": enrollment.CompletedModules,
			"updated_at":        enrollment.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": enrollment.ID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update enrollment query: %w", err)
	}
	if _, err := q.Exec(ctx, updateSQL, updateArgs...); err != nil {
		return nil, fmt.Errorf("error updating enrollment: %w", err)
	}
	return enrollment, nil
}

// Summary aggregates the ledger for the admin dashboard
func (r *EnrollmentRepository) Summary(ctx context.Context) (*models.EnrollmentSummary, error) {
	sql, args, err := r.sb.Select(
		"COUNT(*)",
		"COUNT(DISTINCT e.student_id)",
		"COALESCE(SUM(cardinality(e.completed_modules)), 0)",
		"COALESCE(SUM(jsonb_array_length(c.modules)), 0)",
		"COUNT(*) FILTER (WHERE e.progress <= 0)",
		"COUNT(*) FILTER (WHERE e.progress > 0 AND e.progress <= 25)",
		"COUNT(*) FILTER (WHERE e.progress > 25 AND e.progress <= 75)",
		"COUNT(*) FILTER (WHERE e.progress > 75 AND e.progress < 100)",
		"COUNT(*) FILTER (WHERE e.progress >= 100)",
	).
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build enrollment summary query: %w", err)
	}

	summary := &models.EnrollmentSummary{}
	var notStarted, justStarted, inProgress, almostComplete, completed int64
	err = r.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&summary.TotalEnrollments, &summary.DistinctStudents, &summary.CompletedModules, &summary.AvailableModules,
		&notStarted, &justStarted, &inProgress, &almostComplete, &completed,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Error scanning enrollment summary")
		return nil, fmt.Errorf("error getting enrollment summary: %w", err)
	}

	summary.Buckets = map[models.ProgressBucket]int64{
		models.BucketNotStarted:     notStarted,
		models.BucketJustStarted:    justStarted,
		models.BucketInProgress:     inProgress,
		models.BucketAlmostComplete: almostComplete,
		models.BucketCompleted:      completed,
	}
	return summary, nil
}

// CountsByCourse returns enrollment counts for every course, busiest first
func (r *EnrollmentRepository) CountsByCourse(ctx context.Context) ([]models.CourseEnrollmentCount, error) {
	sql, args, err := r.sb.Select("c.id", "c.title", "COUNT(e.id)").
		From("courses c").
		LeftJoin("enrollments e ON e.course_id = c.id").
		GroupBy("c.id", "c.title").
		OrderBy("COUNT(e.id) DESC", "c.title ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build enrollment counts query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing enrollment counts query")
		return nil, fmt.Errorf("error querying enrollment counts: %w", err)
	}
	defer rows.Close()

	counts := []models.CourseEnrollmentCount{}
	for rows.Next() {
		var count models.CourseEnrollmentCount
		if err := rows.Scan(&count.CourseID, &count.Title, &count.Enrollments); err != nil {
			return nil, fmt.Errorf("error scanning enrollment count: %w", err)
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment counts: %w", err)
	}
	return counts, nil
}

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{}
	if err := row.Scan(
		&enrollment.ID, &enrollment.CourseID, &enrollment.StudentID, &enrollment.EnrolledDate,
		&enrollment.Progress, &enrollment.CompletedModules, &enrollment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if enrollment.CompletedModules == nil {
		enrollment.CompletedModules = []string{}
	}
	enrollment.EnrolledDate = helpers.ToUTC(enrollment.EnrolledDate)
	enrollment.UpdatedAt = helpers.ToUTC(enrollment.UpdatedAt)
	return enrollment, nil
}
