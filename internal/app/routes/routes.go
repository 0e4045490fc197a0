package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/coursepath/internal/app/controllers"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/middleware"
)

// SetupRouter configures all application routes. Every protected route
// declares the role it requires; the gate runs before the controller.
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	courseController *controllers.CourseController,
	enrollmentController *controllers.EnrollmentController,
	analyticsController *controllers.AnalyticsController,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.GET("/me", authMiddleware.Authenticated(), authController.Me)
	}

	// --- Course catalog ---
	courses := v1.Group("/courses")
	{
		courses.GET("", courseController.ListCourses)
		courses.GET("/:id", courseController.GetCourse)

		adminOnly := courses.Group("")
		adminOnly.Use(authMiddleware.RequireRole(models.RoleAdmin))
		{
			adminOnly.POST("", courseController.CreateCourse)
			adminOnly.PUT("/:id", courseController.UpdateCourse)
			adminOnly.DELETE("/:id", courseController.DeleteCourse)
		}
	}

	// --- Student self-service ---
	me := v1.Group("/me")
	me.Use(authMiddleware.RequireRole(models.RoleStudent))
	{
		me.GET("/courses", courseController.ListMyCourses)
		me.POST("/enrollments", enrollmentController.Enroll)
		me.GET("/enrollments", enrollmentController.ListMyEnrollments)
		me.GET("/enrollments/:courseId", enrollmentController.GetMyEnrollment)
		me.PUT("/enrollments/:courseId/modules/:moduleId", enrollmentController.UpdateModuleProgress)
	}

	// --- Admin ---
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/analytics", analyticsController.GetDashboard)
	}
}

// SetupOperationalRoutes registers /health and /metrics outside the API group
func SetupOperationalRoutes(router *gin.Engine, healthController *controllers.HealthController, metricsHandler http.Handler) {
	router.GET("/health", healthController.Health)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}
}
