package dto

import "github.com/yigit/coursepath/internal/app/models"

// ProgressBucketCount is the number of enrollments in one progress bucket
type ProgressBucketCount struct {
	Bucket models.ProgressBucket `json:"bucket" example:"IN_PROGRESS"`
	Count  int64                 `json:"count" example:"4"`
}

// AnalyticsResponse is the admin dashboard payload
type AnalyticsResponse struct {
	TotalCourses         int64                          `json:"totalCourses" example:"3"`
	TotalEnrollments     int64                          `json:"totalEnrollments" example:"12"`
	TotalStudents        int64                          `json:"totalStudents" example:"5"`
	CompletedModules     int64                          `json:"completedModules" example:"17"`
	ModuleCompletionRate float64                        `json:"moduleCompletionRate" example:"54.84"`
	CourseEnrollments    []models.CourseEnrollmentCount `json:"courseEnrollments"`
	ProgressDistribution []ProgressBucketCount          `json:"progressDistribution"`
}
