package repositories

import (
	"github.com/Masterminds/squirrel"
	"github.com/yigit/coursepath/internal/db"
)

// psql builds PostgreSQL statements with $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository       *UserRepository
	CourseRepository     *CourseRepository
	EnrollmentRepository *EnrollmentRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		UserRepository:       NewUserRepository(database.Pool),
		CourseRepository:     NewCourseRepository(database.Pool),
		EnrollmentRepository: NewEnrollmentRepository(database),
	}
}
