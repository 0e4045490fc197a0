// Package seed creates the default accounts and sample catalog on first start.
package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/coursepath/internal/app/models"
	"github.com/yigit/coursepath/internal/app/models/dto"
	"github.com/yigit/coursepath/internal/app/services"
	"github.com/yigit/coursepath/internal/pkg/apperrors"
)

// DefaultUsers are registered when missing
var DefaultUsers = []dto.RegisterRequest{
	{Username: "admin", Password: "admin123", Name: "Admin User", Email: "admin@lms.com", Role: string(models.RoleAdmin)},
	{Username: "student", Password: "student123", Name: "Student User", Email: "student@lms.com", Role: string(models.RoleStudent)},
}

// SampleCourses are created only when the catalog is empty
func SampleCourses() []*models.Course {
	return []*models.Course{
		{
			Title:       "Introduction to Web Development",
			Description: "Learn the basics of HTML, CSS, and JavaScript to build modern websites.",
			Thumbnail:   "https://images.unsplash.com/photo-1593720213428-28a5b9e94613?q=80&w=500",
			Instructor:  "Jane Smith",
			Duration:    "8 weeks",
			Modules: []models.Module{
				{ID: "m1", Title: "HTML Fundamentals", Content: "Learn the basics of HTML, the backbone of any website.", VideoURL: "https://www.youtube.com/watch?v=qz0aGYrrlhU"},
				{ID: "m2", Title: "CSS Styling", Content: "Learn how to style your HTML elements with CSS.", VideoURL: "https://www.youtube.com/watch?v=1PnVor36_40"},
				{ID: "m3", Title: "JavaScript Basics", Content: "Introduction to JavaScript programming language.", VideoURL: "https://www.youtube.com/watch?v=W6NZfCO5SIk"},
			},
		},
		{
			Title:       "Advanced React Development",
			Description: "Master React by building real-world applications with hooks, context API, and more.",
			Thumbnail:   "https://images.unsplash.com/photo-1633356122544-f134324a6cee?q=80&w=500",
			Instructor:  "John Doe",
			Duration:    "10 weeks",
			Modules: []models.Module{
				{ID: "m1", Title: "React Hooks", Content: "Learn how to use React Hooks to manage state and side effects.", VideoURL: "https://www.youtube.com/watch?v=dpw9EHDh2bM"},
				{ID: "m2", Title: "Context API", Content: "Learn how to use Context API for state management.", VideoURL: "https://www.youtube.com/watch?v=35lXWvCuM8o"},
			},
		},
		{
			Title:       "MongoDB for Developers",
			Description: "Learn how to use MongoDB for modern web applications.",
			Thumbnail:   "https://images.unsplash.com/photo-1580894896813-652ff5aa8146?q=80&w=500",
			Instructor:  "Alice Johnson",
			Duration:    "6 weeks",
			Modules: []models.Module{
				{ID: "m1", Title: "Introduction to MongoDB", Content: "Learn the basics of MongoDB and how it differs from SQL databases.", VideoURL: "https://www.youtube.com/watch?v=pWbMrx5rVBE"},
				{ID: "m2", Title: "CRUD Operations", Content: "Learn how to perform Create, Read, Update, and Delete operations in MongoDB.", VideoURL: "https://www.youtube.com/watch?v=UzLwcPjJtIU"},
			},
		},
	}
}

// CreateDefaultData registers the default users and, on an empty catalog, the
// sample courses. Existing users are skipped; other failures are collected
// and returned without stopping the remaining steps.
func CreateDefaultData(ctx context.Context, authService services.AuthService, courseService services.CourseService, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (users/courses)...")
	var finalErr error

	for i := range DefaultUsers {
		req := DefaultUsers[i]
		_, err := authService.Register(ctx, &req)
		switch {
		case err == nil:
			lgr.Info().Str("username", req.Username).Str("role", req.Role).Msg("Default user created")
		case errors.Is(err, apperrors.ErrConflict):
			lgr.Debug().Str("username", req.Username).Msg("Default user already exists")
		default:
			lgr.Error().Err(err).Str("username", req.Username).Msg("Error creating default user")
			finalErr = errors.Join(finalErr, err)
		}
	}

	existing, err := courseService.ListCourses(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Error listing courses before seeding")
		return errors.Join(finalErr, err)
	}
	if len(existing) > 0 {
		lgr.Debug().Int("courses", len(existing)).Msg("Catalog not empty, skipping sample courses")
		return finalErr
	}

	for _, course := range SampleCourses() {
		if _, err := courseService.CreateCourse(ctx, course); err != nil {
			lgr.Error().Err(err).Str("title", course.Title).Msg("Error creating sample course")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		lgr.Info().Str("title", course.Title).Msg("Sample course created")
	}

	return finalErr
}
