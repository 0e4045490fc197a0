package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/pkg/apperrors"
	"github.com/yigit/coursepath/internal/pkg/metrics"
)

type enrollmentFixture struct {
	svc     *enrollmentServiceImpl
	ledger  *fakeEnrollmentRepo
	courses *fakeCourseRepo
	metrics *metrics.Metrics
	clock   *time.Time
}

func newEnrollmentFixture(t *testing.T) *enrollmentFixture {
	t.Helper()
	ledger := newFakeEnrollmentRepo()
	courses := newFakeCourseRepo(ledger)
	m := metrics.New()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f := &enrollmentFixture{ledger: ledger, courses: courses, metrics: m, clock: &now}
	svc := NewEnrollmentService(ledger, courses, m, zerolog.Nop()).(*enrollmentServiceImpl)
	svc.now = func() time.Time { return *f.clock }
	f.svc = svc

	courses.put(&models.Course{
		ID:      "course-c",
		Title:   "Course C",
		Modules: []models.Module{{ID: "m1"}, {ID: "m2"}, {ID: "m3"}},
	})
	return f
}

func (f *enrollmentFixture) advance(d time.Duration) {
	next := f.clock.Add(d)
	*f.clock = next
}

func TestEnrollCreatesZeroProgressRecord(t *testing.T) {
	f := newEnrollmentFixture(t)

	enrollment, err := f.svc.Enroll(context.Background(), "course-c", "student-s")
	require.NoError(t, err)

	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, "course-c", enrollment.CourseID)
	assert.Equal(t, "student-s", enrollment.StudentID)
	assert.Equal(t, 0.0, enrollment.Progress)
	assert.Empty(t, enrollment.CompletedModules)
	assert.Equal(t, *f.clock, enrollment.EnrolledDate)
	assert.Equal(t, models.StatusEnrolled, enrollment.Status())
}

func TestEnrollTwiceIsIdempotent(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()

	first, err := f.svc.Enroll(ctx, "course-c", "student-s")
	require.NoError(t, err)
	_, err = f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m1", true)
	require.NoError(t, err)

	f.advance(time.Hour)
	second, err := f.svc.Enroll(ctx, "course-c", "student-s")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.EnrolledDate, second.EnrolledDate)
	assert.InDelta(t, 100.0/3, second.Progress, 1e-9)
	assert.Equal(t, []string{"m1"}, second.CompletedModules)

	all, err := f.svc.ListForStudent(ctx, "student-s")
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, 1.0, testutilCounter(f.metrics, "course-c"))
}

func TestEnrollUnknownCourse(t *testing.T) {
	f := newEnrollmentFixture(t)

	_, err := f.svc.Enroll(context.Background(), "missing", "student-s")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestConcurrentEnrollConvergesOnOneRecord(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := f.svc.Enroll(ctx, "course-c", "student-s")
			if assert.NoError(t, err) {
				ids[i] = e.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	all, err := f.svc.ListForStudent(ctx, "student-s")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProgressScenario(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Enroll(ctx, "course-c", "student-s")
	require.NoError(t, err)

	e, err := f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m1", true)
	require.NoError(t, err)
	assert.InDelta(t, 33.33, e.Progress, 0.01)
	assert.Equal(t, []string{"m1"}, e.CompletedModules)

	e, err = f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m2", true)
	require.NoError(t, err)
	assert.InDelta(t, 66.67, e.Progress, 0.01)

	e, err = f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m1", false)
	require.NoError(t, err)
	assert.InDelta(t, 33.33, e.Progress, 0.01)
	assert.Equal(t, []string{"m2"}, e.CompletedModules)

	stored, err := f.svc.GetEnrollment(ctx, "course-c", "student-s")
	require.NoError(t, err)
	assert.Equal(t, e.CompletedModules, stored.CompletedModules)
	assert.Equal(t, e.Progress, stored.Progress)
}

func TestCompletionReadsCourseInsideLedgerTransaction(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Enroll(ctx, "course-c", "student-s")
	require.NoError(t, err)
	callsAfterEnroll := f.courses.getCalls

	_, err = f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m1", true)
	require.NoError(t, err)
	_, err = f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m1", false)
	require.NoError(t, err)

	assert.Equal(t, callsAfterEnroll, f.courses.getCalls, "course must not be read outside the ledger transaction")
	assert.Equal(t, []string{"course-c", "course-c"}, f.ledger.txCourseIDs)
}

func TestAllModulesCompletedIsExactlyHundred(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	_, err := f.svc.Enroll(ctx, "course-c", "student-s")
	require.NoError(t, err)

	var e *models.Enrollment
	for _, m := range []string{"m1", "m2", "m3"} {
		e, err = f.svc.SetModuleCompletion(ctx, "course-c", "student-s", m, true)
		require.NoError(t, err)
	}

	assert.Equal(t, 100.0, e.Progress)
	assert.Equal(t, models.StatusCompleted, e.Status())
}

func TestRemarkingAndUnmarkingAreNoOps(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	_, err := f.svc.Enroll(ctx, "course-c", "student-s")
	require.NoError(t, err)

	before, err := f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m2", true)
	require.NoError(t, err)

	again, err := f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m2", true)
	require.NoError(t, err)
	assert.Equal(t, before.CompletedModules, again.CompletedModules)
	assert.Equal(t, before.Progress, again.Progress)

	unmarked, err := f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m3", false)
	require.NoError(t, err)
	assert.Equal(t, before.Progress, unmarked.Progress)
	assert.Equal(t, []string{"m2"}, unmarked.CompletedModules)
}

func TestProgressWithoutEnrollmentFailsPrecondition(t *testing.T) {
	f := newEnrollmentFixture(t)

	_, err := f.svc.SetModuleCompletion(context.Background(), "course-c", "student-s", "m1", true)
	assert.ErrorIs(t, err, apperrors.ErrPrecondition)
	assert.ErrorIs(t, err, apperrors.ErrNotEnrolled)
}

func TestCompletingUnknownModuleIsNotFound(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	_, err := f.svc.Enroll(ctx, "course-c", "student-s")
	require.NoError(t, err)

	_, err = f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m9", true)
	assert.ErrorIs(t, err, apperrors.ErrModuleNotFound)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	stored, err := f.svc.GetEnrollment(ctx, "course-c", "student-s")
	require.NoError(t, err)
	assert.Empty(t, stored.CompletedModules)
}

func TestProgressUsesCurrentModuleCount(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	_, err := f.svc.Enroll(ctx, "course-c", "student-s")
	require.NoError(t, err)
	_, err = f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m1", true)
	require.NoError(t, err)
	_, err = f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m3", true)
	require.NoError(t, err)

	// m3 removed, m4 added: the stale completion is dropped
	f.courses.put(&models.Course{
		ID:      "course-c",
		Title:   "Course C",
		Modules: []models.Module{{ID: "m1"}, {ID: "m2"}, {ID: "m4"}, {ID: "m5"}},
	})

	e, err := f.svc.SetModuleCompletion(ctx, "course-c", "student-s", "m2", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, e.CompletedModules)
	assert.Equal(t, 50.0, e.Progress)
}

func TestCourseWithoutModulesHasZeroProgress(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	f.courses.put(&models.Course{ID: "empty", Title: "Empty"})
	_, err := f.svc.Enroll(ctx, "empty", "student-s")
	require.NoError(t, err)

	e, err := f.svc.SetModuleCompletion(ctx, "empty", "student-s", "m1", false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, e.Progress)
}

func TestConcurrentCompletionsKeepEveryModule(t *testing.T) {
	f := newEnrollmentFixture(t)
	ctx := context.Background()
	modules := make([]models.Module, 10)
	for i := range modules {
		modules[i] = models.Module{ID: fmt.Sprintf("m%d", i)}
	}
	f.courses.put(&models.Course{ID: "big", Title: "Big", Modules: modules})
	_, err := f.svc.Enroll(ctx, "big", "student-s")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, m := range modules {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.SetModuleCompletion(ctx, "big", "student-s", id, true)
			assert.NoError(t, err)
		}(m.ID)
	}
	wg.Wait()

	e, err := f.svc.GetEnrollment(ctx, "big", "student-s")
	require.NoError(t, err)
	assert.Len(t, e.CompletedModules, 10)
	assert.Equal(t, 100.0, e.Progress)
}

func TestGetEnrollmentAbsentIsNil(t *testing.T) {
	f := newEnrollmentFixture(t)

	e, err := f.svc.GetEnrollment(context.Background(), "course-c", "nobody")
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestComputeProgress(t *testing.T) {
	assert.Equal(t, 0.0, ComputeProgress(0, 3))
	assert.Equal(t, 0.0, ComputeProgress(2, 0))
	assert.InDelta(t, 33.3333333, ComputeProgress(1, 3), 1e-6)
	assert.Equal(t, 100.0, ComputeProgress(3, 3))
	assert.Equal(t, 100.0, ComputeProgress(7, 7))
	assert.Equal(t, 100.0, ComputeProgress(4, 3))
}

func TestApplyCompletionPrunesDuplicatesAndStaleIDs(t *testing.T) {
	course := &models.Course{Modules: []models.Module{{ID: "a"}, {ID: "b"}}}
	e := &models.Enrollment{CompletedModules: []string{"a", "a", "gone"}}

	changed, err := applyCompletion(e, course, "b", true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"a", "b"}, e.CompletedModules)
	assert.Equal(t, 100.0, e.Progress)
}

func testutilCounter(m *metrics.Metrics, courseID string) float64 {
	return promtestutil.ToFloat64(m.EnrollmentsCreated.WithLabelValues(courseID))
}
