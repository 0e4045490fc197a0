package services

import (
	"context"
	"sort"
	"sync"

	"github.com/yigit/coursepath/internal/app/cache"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/app/repositories"
	"github.com/yigit/coursepath/internal/pkg/apperrors"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return apperrors.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return apperrors.ErrEmailTaken
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeCourseRepo struct {
	mu       sync.Mutex
	courses  map[string]*models.Course
	order    []string
	ledger   *fakeEnrollmentRepo
	getCalls int
	// afterRead runs once, between a read and its return, to interleave a concurrent writer
	afterRead func()
}

func newFakeCourseRepo(ledger *fakeEnrollmentRepo) *fakeCourseRepo {
	r := &fakeCourseRepo{courses: map[string]*models.Course{}, ledger: ledger}
	ledger.courses = r
	return r
}

// snapshot reads a course without counting it as a GetByID call
func (r *fakeCourseRepo) snapshot(id string) (*models.Course, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, false
	}
	return copyCourse(c), true
}

func copyCourse(c *models.Course) *models.Course {
	cp := *c
	cp.Modules = append([]models.Module{}, c.Modules...)
	cp.EnrolledStudents = []string{}
	return &cp
}

func (r *fakeCourseRepo) Create(_ context.Context, course *models.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[course.ID] = copyCourse(course)
	r.order = append(r.order, course.ID)
	return nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, id string) (*models.Course, error) {
	r.mu.Lock()
	r.getCalls++
	c, ok := r.courses[id]
	var out *models.Course
	if ok {
		out = copyCourse(c)
	}
	r.mu.Unlock()

	r.runAfterRead()
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	return out, nil
}

func (r *fakeCourseRepo) List(_ context.Context) ([]*models.Course, error) {
	r.mu.Lock()
	out := []*models.Course{}
	for _, id := range r.order {
		if c, ok := r.courses[id]; ok {
			out = append(out, copyCourse(c))
		}
	}
	r.mu.Unlock()

	r.runAfterRead()
	return out, nil
}

func (r *fakeCourseRepo) runAfterRead() {
	r.mu.Lock()
	hook := r.afterRead
	r.afterRead = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (r *fakeCourseRepo) ListByStudent(ctx context.Context, studentID string) ([]*models.Course, error) {
	ids, _ := r.ledger.CourseIDsByStudent(ctx, studentID)
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Course{}
	for _, id := range ids {
		if c, ok := r.courses[id]; ok {
			out = append(out, copyCourse(c))
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) Update(_ context.Context, course *models.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[course.ID]; !ok {
		return apperrors.ErrCourseNotFound
	}
	r.courses[course.ID] = copyCourse(course)
	return nil
}

func (r *fakeCourseRepo) Delete(ctx context.Context, id string) error {
	if r.ledger.hasCourse(id) {
		return apperrors.ErrCourseHasEnrollments
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[id]; !ok {
		return apperrors.ErrCourseNotFound
	}
	delete(r.courses, id)
	return nil
}

func (r *fakeCourseRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.courses)), nil
}

func (r *fakeCourseRepo) put(course *models.Course) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[course.ID] = copyCourse(course)
	r.order = append(r.order, course.ID)
}

// fakeEnrollmentRepo mimics the unique (course, student) constraint and row locking
type fakeEnrollmentRepo struct {
	mu      sync.Mutex
	records []*models.Enrollment
	summary *models.EnrollmentSummary
	counts  []models.CourseEnrollmentCount
	err     error
	// courses plays the tables the ledger transaction reads
	courses     *fakeCourseRepo
	txCourseIDs []string
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{}
}

func copyEnrollment(e *models.Enrollment) *models.Enrollment {
	cp := *e
	cp.CompletedModules = append([]string{}, e.CompletedModules...)
	return &cp
}

func (r *fakeEnrollmentRepo) find(courseID, studentID string) *models.Enrollment {
	for _, e := range r.records {
		if e.CourseID == courseID && e.StudentID == studentID {
			return e
		}
	}
	return nil
}

func (r *fakeEnrollmentRepo) hasCourse(courseID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.records {
		if e.CourseID == courseID {
			return true
		}
	}
	return false
}

func (r *fakeEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) (*models.Enrollment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.find(enrollment.CourseID, enrollment.StudentID); existing != nil {
		return copyEnrollment(existing), false, nil
	}
	stored := copyEnrollment(enrollment)
	r.records = append(r.records, stored)
	return copyEnrollment(stored), true, nil
}

func (r *fakeEnrollmentRepo) Get(_ context.Context, courseID, studentID string) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if e := r.find(courseID, studentID); e != nil {
		return copyEnrollment(e), nil
	}
	return nil, nil
}

func (r *fakeEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Enrollment{}
	for _, e := range r.records {
		if e.StudentID == studentID {
			out = append(out, copyEnrollment(e))
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) CourseIDsByStudent(_ context.Context, studentID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []string{}
	for _, e := range r.records {
		if e.StudentID == studentID {
			ids = append(ids, e.CourseID)
		}
	}
	return ids, nil
}

func (r *fakeEnrollmentRepo) StudentIDsByCourses(_ context.Context, courseIDs []string) (map[string][]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]string, len(courseIDs))
	for _, id := range courseIDs {
		out[id] = []string{}
	}
	for _, e := range r.records {
		if _, ok := out[e.CourseID]; ok {
			out[e.CourseID] = append(out[e.CourseID], e.StudentID)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) UpdateCompletion(_ context.Context, courseID, studentID string, mutate repositories.CompletionMutator) (*models.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.find(courseID, studentID)
	if stored == nil {
		return nil, apperrors.ErrNotEnrolled
	}
	course, ok := r.courses.snapshot(courseID)
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	r.txCourseIDs = append(r.txCourseIDs, courseID)
	working := copyEnrollment(stored)
	if err := mutate(working, course); err != nil {
		return nil, err
	}
	*stored = *copyEnrollment(working)
	return working, nil
}

func (r *fakeEnrollmentRepo) Summary(_ context.Context) (*models.EnrollmentSummary, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.summary, nil
}

func (r *fakeEnrollmentRepo) CountsByCourse(_ context.Context) ([]models.CourseEnrollmentCount, error) {
	return r.counts, nil
}

// fakeCache is an in-memory CourseCache that records invalidations and honours tickets
type fakeCache struct {
	mu          sync.Mutex
	courses     map[string]*models.Course
	catalog     []*models.Course
	generation  cache.Ticket
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{courses: map[string]*models.Course{}}
}

func (c *fakeCache) GetCourse(_ context.Context, id string) (*models.Course, cache.Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	course, ok := c.courses[id]
	if !ok {
		return nil, c.generation, false
	}
	return copyCourse(course), c.generation, true
}

func (c *fakeCache) SetCourse(_ context.Context, ticket cache.Ticket, course *models.Course) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ticket != c.generation {
		return
	}
	c.courses[course.ID] = copyCourse(course)
}

func (c *fakeCache) GetCatalog(_ context.Context) ([]*models.Course, cache.Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catalog == nil {
		return nil, c.generation, false
	}
	out := make([]*models.Course, 0, len(c.catalog))
	for _, course := range c.catalog {
		out = append(out, copyCourse(course))
	}
	return out, c.generation, true
}

func (c *fakeCache) SetCatalog(_ context.Context, ticket cache.Ticket, courses []*models.Course) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ticket != c.generation {
		return
	}
	c.catalog = make([]*models.Course, 0, len(courses))
	for _, course := range courses {
		c.catalog = append(c.catalog, copyCourse(course))
	}
}

func (c *fakeCache) Invalidate(_ context.Context, courseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	delete(c.courses, courseID)
	c.catalog = nil
	c.invalidated = append(c.invalidated, courseID)
}

func sortedCopy(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}

var (
	_ repositories.IUserRepository       = (*fakeUserRepo)(nil)
	_ repositories.ICourseRepository     = (*fakeCourseRepo)(nil)
	_ repositories.IEnrollmentRepository = (*fakeEnrollmentRepo)(nil)
	_ cache.CourseCache                  = (*fakeCache)(nil)
)
