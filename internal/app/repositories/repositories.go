package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is the shared sentinel for missing rows. Domain repositories
// alias it so callers can match on either.
var ErrNotFound = errors.New("record not found")

// isDuplicateKeyError checks if the error is a PostgreSQL unique violation error.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // 23505 is unique_violation
}

// Repositories holds all the repository instances
type Repositories struct {
	FacultyRepository      *FacultyRepository
	TeacherRepository      *TeacherRepository
	CourseRepository       *CourseRepository
	ConversationRepository *ConversationRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		FacultyRepository:      NewFacultyRepository(db),
		TeacherRepository:      NewTeacherRepository(db),
		CourseRepository:       NewCourseRepository(db),
		ConversationRepository: NewConversationRepository(db),
	}
}
