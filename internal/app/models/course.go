package models

import "time"

// Module is a unit of course content. Its ID is unique within the owning course only.
type Module struct {
	ID       string `json:"id" example:"m1"`
	Title    string `json:"title" example:"HTML Fundamentals"`
	Content  string `json:"content" example:"Learn the basics of HTML."`
	VideoURL string `json:"videoUrl,omitempty" example:"https://www.youtube.com/watch?v=qz0aGYrrlhU"`
}

// Course represents a catalog entry with an ordered module list.
type Course struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Thumbnail   string    `json:"thumbnail" db:"thumbnail"`
	Instructor  string    `json:"instructor" db:"instructor"`
	Duration    string    `json:"duration" db:"duration"`
	Modules     []Module  `json:"modules" db:"modules"` // stored as JSONB, order preserved
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	// Derived from enrollments, never stored on the course row
	EnrolledStudents []string `json:"enrolledStudents"`
}

// HasModule reports whether moduleID belongs to the course.
func (c *Course) HasModule(moduleID string) bool {
	for _, m := range c.Modules {
		if m.ID == moduleID {
			return true
		}
	}
	return false
}

// ModuleIDs returns the module identifiers in course order.
func (c *Course) ModuleIDs() []string {
	ids := make([]string, 0, len(c.Modules))
	for _, m := range c.Modules {
		ids = append(ids, m.ID)
	}
	return ids
}
