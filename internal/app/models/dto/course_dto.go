package dto

import (
	"time"

	"github.com/yigit/coursepath/internal/app/models"
)

// ModuleRequest describes one module in a course write
type ModuleRequest struct {
	ID       string `json:"id" binding:"required,moduleid" example:"m1"`
	Title    string `json:"title" binding:"required,max=200" example:"HTML Fundamentals"`
	Content  string `json:"content" example:"Learn the basics of HTML."`
	VideoURL string `json:"videoUrl" binding:"omitempty,url" example:"https://www.youtube.com/watch?v=qz0aGYrrlhU"`
}

// CourseRequest is the body for creating or replacing a course
type CourseRequest struct {
	Title       string          `json:"title" binding:"required,max=200" example:"Introduction to Web Development"`
	Description string          `json:"description" example:"Learn the fundamentals of web development."`
	Thumbnail   string          `json:"thumbnail" binding:"omitempty,url"`
	Instructor  string          `json:"instructor" binding:"max=100" example:"Jane Smith"`
	Duration    string          `json:"duration" binding:"max=50" example:"8 weeks"`
	Modules     []ModuleRequest `json:"modules" binding:"dive"`
}

// ToModel converts the request into a course definition
func (r *CourseRequest) ToModel() *models.Course {
	modules := make([]models.Module, 0, len(r.Modules))
	for _, m := range r.Modules {
		modules = append(modules, models.Module{
			ID:       m.ID,
			Title:    m.Title,
			Content:  m.Content,
			VideoURL: m.VideoURL,
		})
	}
	return &models.Course{
		Title:       r.Title,
		Description: r.Description,
		Thumbnail:   r.Thumbnail,
		Instructor:  r.Instructor,
		Duration:    r.Duration,
		Modules:     modules,
	}
}

// CourseResponse is a course with its derived membership
type CourseResponse struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Thumbnail        string          `json:"thumbnail"`
	Instructor       string          `json:"instructor"`
	Duration         string          `json:"duration"`
	Modules          []models.Module `json:"modules"`
	EnrolledStudents []string        `json:"enrolledStudents"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// NewCourseResponse converts a course model
func NewCourseResponse(course *models.Course) *CourseResponse {
	if course == nil {
		return nil
	}
	modules := course.Modules
	if modules == nil {
		modules = []models.Module{}
	}
	students := course.EnrolledStudents
	if students == nil {
		students = []string{}
	}
	return &CourseResponse{
		ID:               course.ID,
		Title:            course.Title,
		Description:      course.Description,
		Thumbnail:        course.Thumbnail,
		Instructor:       course.Instructor,
		Duration:         course.Duration,
		Modules:          modules,
		EnrolledStudents: students,
		CreatedAt:        course.CreatedAt,
		UpdatedAt:        course.UpdatedAt,
	}
}

// NewCourseListResponse converts a list of course models
func NewCourseListResponse(courses []*models.Course) []*CourseResponse {
	out := make([]*CourseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, NewCourseResponse(c))
	}
	return out
}
