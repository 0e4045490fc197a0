package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appAuth "github.com/yigit/coursepath/internal/app/auth"
	"github.com/yigit/coursepath/internal/app/controllers"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/app/models/dto"
	"github.com/yigit/coursepath/internal/middleware"
	"github.com/yigit/coursepath/internal/pkg/apperrors"
	"github.com/yigit/coursepath/internal/pkg/auth"
	"github.com/yigit/coursepath/internal/pkg/metrics"
)

type stubAuthService struct{}

func (stubAuthService) Login(_ context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if req.Username != "student" || req.Password != "student123" {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &dto.AuthResponse{Token: "t", Type: dto.TokenTypeBearer, ID: "s1", Username: "student", Role: "STUDENT"}, nil
}

func (stubAuthService) Register(_ context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if req.Username == "taken" {
		return nil, apperrors.ErrUsernameTaken
	}
	return &dto.UserResponse{ID: "new", Username: req.Username, Role: "STUDENT", EnrolledCourses: []string{}}, nil
}

func (stubAuthService) GetProfile(_ context.Context, userID string) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: userID, EnrolledCourses: []string{"c1"}}, nil
}

type stubCourseService struct {
	mu      sync.Mutex
	created int
}

func (s *stubCourseService) CreateCourse(_ context.Context, course *models.Course) (*models.Course, error) {
	s.mu.Lock()
	s.created++
	s.mu.Unlock()
	course.ID = "c-new"
	return course, nil
}

func (s *stubCourseService) GetCourse(_ context.Context, id string) (*models.Course, error) {
	if id != "c1" {
		return nil, apperrors.ErrCourseNotFound
	}
	return &models.Course{ID: "c1", Title: "Web"}, nil
}

func (s *stubCourseService) UpdateCourse(_ context.Context, id string, update *models.Course) (*models.Course, error) {
	update.ID = id
	return update, nil
}

func (s *stubCourseService) DeleteCourse(_ context.Context, id string) error {
	if id == "c1" {
		return apperrors.ErrCourseHasEnrollments
	}
	return nil
}

func (s *stubCourseService) ListCourses(context.Context) ([]*models.Course, error) {
	return []*models.Course{{ID: "c1", Title: "Web"}}, nil
}

func (s *stubCourseService) ListEnrolledCourses(context.Context, string) ([]*models.Course, error) {
	return []*models.Course{}, nil
}

type stubEnrollmentService struct {
	mu       sync.Mutex
	enrolled int
}

func (s *stubEnrollmentService) Enroll(_ context.Context, courseID, studentID string) (*models.Enrollment, error) {
	s.mu.Lock()
	s.enrolled++
	s.mu.Unlock()
	return &models.Enrollment{ID: "e1", CourseID: courseID, StudentID: studentID, CompletedModules: []string{}}, nil
}

func (s *stubEnrollmentService) SetModuleCompletion(_ context.Context, courseID, studentID, moduleID string, completed bool) (*models.Enrollment, error) {
	if courseID != "c1" {
		return nil, apperrors.ErrNotEnrolled
	}
	e := &models.Enrollment{ID: "e1", CourseID: courseID, StudentID: studentID, CompletedModules: []string{}}
	if completed {
		e.CompletedModules = []string{moduleID}
		e.Progress = 50
	}
	return e, nil
}

func (s *stubEnrollmentService) GetEnrollment(context.Context, string, string) (*models.Enrollment, error) {
	return nil, nil
}

func (s *stubEnrollmentService) ListForStudent(context.Context, string) ([]*models.Enrollment, error) {
	return []*models.Enrollment{}, nil
}

type stubAnalyticsService struct{}

func (stubAnalyticsService) GetDashboard(context.Context) (*dto.AnalyticsResponse, error) {
	return &dto.AnalyticsResponse{TotalCourses: 3}, nil
}

type testEnv struct {
	router      *gin.Engine
	courses     *stubCourseService
	enrollments *stubEnrollmentService
	adminToken  string
	studentTok  string
}

func newTestEnv(t *testing.T, healthErr error) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterValidators())

	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "routes-test", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	adminToken, _, err := jwtService.Issue(auth.Identity{UserID: "a1", Username: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	studentToken, _, err := jwtService.Issue(auth.Identity{UserID: "s1", Username: "student", Role: models.RoleStudent})
	require.NoError(t, err)

	logger := zerolog.Nop()
	courses := &stubCourseService{}
	enrollments := &stubEnrollmentService{}

	router := gin.New()
	SetupRouter(router,
		controllers.NewAuthController(stubAuthService{}, logger),
		controllers.NewCourseController(courses, logger),
		controllers.NewEnrollmentController(enrollments, logger),
		controllers.NewAnalyticsController(stubAnalyticsService{}),
		middleware.NewAuthMiddleware(appAuth.NewGate(jwtService), logger),
	)
	health := controllers.NewHealthController(map[string]controllers.HealthCheck{
		"database": func(context.Context) error { return healthErr },
	}, logger)
	SetupOperationalRoutes(router, health, metrics.New().Handler())

	return &testEnv{router: router, courses: courses, enrollments: enrollments, adminToken: adminToken, studentTok: studentToken}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func validCourse() map[string]interface{} {
	return map[string]interface{}{
		"title": "Introduction to Web Development",
		"modules": []map[string]string{
			{"id": "m1", "title": "HTML Fundamentals"},
			{"id": "m2", "title": "CSS Styling"},
		},
	}
}

func TestStudentCannotCreateCourse(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodPost, "/api/v1/courses", env.studentTok, validCourse())

	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, string(dto.ErrorCodeForbidden), body.Error.Code)
	assert.Zero(t, env.courses.created, "handler must not run when the gate rejects")
}

func TestAdminCannotEnroll(t *testing.T) {
	env := newTestEnv(t, nil)

	w, _ := env.do(t, http.MethodPost, "/api/v1/me/enrollments", env.adminToken, map[string]string{"courseId": "c1"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, env.enrollments.enrolled)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/courses"},
		{http.MethodDelete, "/api/v1/courses/c1"},
		{http.MethodGet, "/api/v1/me/enrollments"},
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/v1/admin/analytics"},
	} {
		w, _ := env.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.method+" "+tc.path)
	}
}

func TestAdminCourseLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodPost, "/api/v1/courses", env.adminToken, validCourse())
	require.Equal(t, http.StatusCreated, w.Code)
	var created dto.CourseResponse
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "c-new", created.ID)
	assert.Len(t, created.Modules, 2)
	assert.Equal(t, []string{}, created.EnrolledStudents)

	w, _ = env.do(t, http.MethodPut, "/api/v1/courses/c2", env.adminToken, validCourse())
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = env.do(t, http.MethodDelete, "/api/v1/courses/c1", env.adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(dto.ErrorCodeConflict), body.Error.Code)

	w, _ = env.do(t, http.MethodDelete, "/api/v1/courses/c2", env.adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateCourseRejectsBadModules(t *testing.T) {
	env := newTestEnv(t, nil)
	course := validCourse()
	course["modules"] = []map[string]string{{"id": "bad id!", "title": "x"}}

	w, body := env.do(t, http.MethodPost, "/api/v1/courses", env.adminToken, course)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(dto.ErrorCodeValidationFailed), body.Error.Code)
	assert.Zero(t, env.courses.created)
}

func TestPublicCatalog(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodGet, "/api/v1/courses", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)

	w, _ = env.do(t, http.MethodGet, "/api/v1/courses/c1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = env.do(t, http.MethodGet, "/api/v1/courses/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(dto.ErrorCodeResourceNotFound), body.Error.Code)
}

func TestStudentEnrollmentEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodPost, "/api/v1/me/enrollments", env.studentTok, map[string]string{"courseId": "c1"})
	require.Equal(t, http.StatusOK, w.Code)
	var enrollment dto.EnrollmentResponse
	require.NoError(t, json.Unmarshal(body.Data, &enrollment))
	assert.Equal(t, "s1", enrollment.StudentID, "student ID comes from the token")
	assert.Equal(t, "ENROLLED", enrollment.Status)

	w, body = env.do(t, http.MethodGet, "/api/v1/me/enrollments/c9", env.studentTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", string(body.Data))

	w, body = env.do(t, http.MethodPut, "/api/v1/me/enrollments/c1/modules/m1", env.studentTok, map[string]bool{"completed": true})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(body.Data, &enrollment))
	assert.Equal(t, []string{"m1"}, enrollment.CompletedModules)

	w, _ = env.do(t, http.MethodPut, "/api/v1/me/enrollments/c1/modules/m1", env.studentTok, map[string]bool{"completed": false})
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = env.do(t, http.MethodPut, "/api/v1/me/enrollments/c9/modules/m1", env.studentTok, map[string]bool{"completed": true})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, string(dto.ErrorCodePreconditionFailed), body.Error.Code)

	w, _ = env.do(t, http.MethodPut, "/api/v1/me/enrollments/c1/modules/m1", env.studentTok, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/me/courses", env.studentTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	w, _ := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "student", "password": "student123"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "student", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(dto.ErrorCodeInvalidCredentials), body.Error.Code)

	register := map[string]string{"username": "taken", "password": "secret123", "name": "Taken Name", "email": "t@example.com"}
	w, body = env.do(t, http.MethodPost, "/api/v1/auth/register", "", register)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(dto.ErrorCodeResourceAlreadyExists), body.Error.Code)

	register["username"] = "fresh"
	w, _ = env.do(t, http.MethodPost, "/api/v1/auth/register", "", register)
	assert.Equal(t, http.StatusCreated, w.Code)

	register["role"] = "TEACHER"
	w, _ = env.do(t, http.MethodPost, "/api/v1/auth/register", "", register)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/auth/me", env.adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnalyticsIsAdminOnly(t *testing.T) {
	env := newTestEnv(t, nil)

	w, _ := env.do(t, http.MethodGet, "/api/v1/admin/analytics", env.studentTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/admin/analytics", env.adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOperationalRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	w, _ := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"UP"`)

	w, _ = env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	down := newTestEnv(t, errors.New("connection refused"))
	w, _ = down.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"DOWN"`)
}
