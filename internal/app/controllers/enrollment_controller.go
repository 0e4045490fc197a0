package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/coursepath/internal/app/models/dto"
	"github.com/yigit/coursepath/internal/app/services"
	"github.com/yigit/coursepath/internal/middleware"
)

// EnrollmentController handles the caller's enrollments and module progress
type EnrollmentController struct {
	enrollmentService services.EnrollmentService
	logger            zerolog.Logger
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService services.EnrollmentService, logger zerolog.Logger) *EnrollmentController {
	return &EnrollmentController{
		enrollmentService: enrollmentService,
		logger:            logger,
	}
}

// Enroll enrolls the caller in a course
// @Summary Enroll in a course
// @Description Student only. Enrolling again returns the existing enrollment unchanged.
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.EnrollRequest true "Course to enroll in"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentResponse} "Enrollment"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Missing or invalid token"
// @Failure 403 {object} dto.ErrorResponse "Student role required"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /me/enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	studentID, err := middleware.GetUserID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.EnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	enrollment, err := c.enrollmentService.Enroll(ctx.Request.Context(), req.CourseID, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewEnrollmentResponse(enrollment)))
}

// ListMyEnrollments returns all of the caller's enrollments
// @Summary My enrollments
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.EnrollmentResponse} "Enrollments"
// @Failure 401 {object} dto.ErrorResponse "Missing or invalid token"
// @Failure 403 {object} dto.ErrorResponse "Student role required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /me/enrollments [get]
func (c *EnrollmentController) ListMyEnrollments(ctx *gin.Context) {
	studentID, err := middleware.GetUserID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	enrollments, err := c.enrollmentService.ListForStudent(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewEnrollmentListResponse(enrollments)))
}

// GetMyEnrollment returns the caller's enrollment in one course, or null
// @Summary My enrollment in a course
// @Description Returns data null when the caller is not enrolled
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentResponse} "Enrollment or null"
// @Failure 401 {object} dto.ErrorResponse "Missing or invalid token"
// @Failure 403 {object} dto.ErrorResponse "Student role required"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /me/enrollments/{courseId} [get]
func (c *EnrollmentController) GetMyEnrollment(ctx *gin.Context) {
	studentID, err := middleware.GetUserID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	enrollment, err := c.enrollmentService.GetEnrollment(ctx.Request.Context(), ctx.Param("courseId"), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if enrollment == nil {
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(nil))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewEnrollmentResponse(enrollment)))
}

// UpdateModuleProgress marks a module complete or incomplete
// @Summary Update module progress
// @Description Student only. Recomputes progress against the course's current modules.
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param moduleId path string true "Module ID"
// @Param request body dto.ModuleProgressRequest true "Completion flag"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentResponse} "Updated enrollment"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Missing or invalid token"
// @Failure 403 {object} dto.ErrorResponse "Student role required"
// @Failure 404 {object} dto.ErrorResponse "Course or module not found"
// @Failure 412 {object} dto.ErrorResponse "Not enrolled in the course"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /me/enrollments/{courseId}/modules/{moduleId} [put]
func (c *EnrollmentController) UpdateModuleProgress(ctx *gin.Context) {
	studentID, err := middleware.GetUserID(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.ModuleProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	enrollment, err := c.enrollmentService.SetModuleCompletion(
		ctx.Request.Context(),
		ctx.Param("courseId"),
		studentID,
		ctx.Param("moduleId"),
		*req.Completed,
	)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewEnrollmentResponse(enrollment)))
}
