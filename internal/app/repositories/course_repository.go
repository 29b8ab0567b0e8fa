package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/pkg/logger"
)

// Course error types
var (
	// ErrCourseNotFound is returned when a course is not found.
	ErrCourseNotFound = ErrNotFound
	// ErrCourseAlreadyExists is returned when a course with the same code exists.
	ErrCourseAlreadyExists = errors.New("course with this code already exists")
)

// CourseRepository handles course and review database operations
type CourseRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// courseColumns is the select list shared by course queries. Review
// statistics come from a LEFT JOIN so unreviewed courses keep NULL rating.
var courseColumns = []string{
	"c.id", "c.code", "c.name", "c.description", "c.credits", "c.type",
	"c.faculty_id", "c.teacher_id", "f.name AS faculty_name", "t.name AS teacher_name",
	"AVG(r.rating)::float8 AS average_rating",
	"COUNT(r.id) AS review_count",
}

func (r *CourseRepository) baseQuery() squirrel.SelectBuilder {
	return r.sb.Select(courseColumns...).
		From("courses c").
		Join("faculties f ON f.id = c.faculty_id").
		Join("teachers t ON t.id = c.teacher_id").
		LeftJoin("reviews r ON r.course_id = c.id").
		GroupBy("c.id", "f.name", "t.name")
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	course := &models.Course{}
	var avgRating *float64
	var reviewCount int

	err := row.Scan(
		&course.ID, &course.Code, &course.Name, &course.Description, &course.Credits, &course.Type,
		&course.FacultyID, &course.TeacherID, &course.FacultyName, &course.TeacherName,
		&avgRating, &reviewCount)
	if err != nil {
		return nil, err
	}

	course.AverageRating = avgRating
	if reviewCount > 0 {
		course.ReviewCount = &reviewCount
	}
	return course, nil
}

// CreateCourse creates a new course
func (r *CourseRepository) CreateCourse(ctx context.Context, course *models.Course) (int64, error) {
	sql, args, err := r.sb.Insert("courses").
		Columns("code", "name", "description", "credits", "type", "faculty_id", "teacher_id").
		Values(course.Code, course.Name, course.Description, course.Credits, course.Type, course.FacultyID, course.TeacherID).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create course SQL")
		return 0, fmt.Errorf("failed to build create course query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if isDuplicateKeyError(err) {
			return 0, ErrCourseAlreadyExists
		}
		logger.Error().Err(err).Msg("Error executing create course query")
		return 0, fmt.Errorf("error creating course: %w", err)
	}

	return id, nil
}

// GetCourseByID retrieves a course with review statistics
func (r *CourseRepository) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.baseQuery().
		Where(squirrel.Eq{"c.id": id}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get course by ID SQL")
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error getting course by ID: %w", err)
	}

	return course, nil
}

// GetAllCourses retrieves the full catalog with review statistics in
// insertion order. The catalog order is the recommendation tie-breaker, so
// it must be stable.
func (r *CourseRepository) GetAllCourses(ctx context.Context) ([]*models.Course, error) {
	sql, args, err := r.baseQuery().
		OrderBy("c.id ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get all courses SQL")
		return nil, fmt.Errorf("failed to build get all courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing get all courses query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning course row during get all")
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating course rows")
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}

	return courses, nil
}

// AddReview inserts a review for a course. rating must be within 1..5, the
// check constraint rejects anything else.
func (r *CourseRepository) AddReview(ctx context.Context, courseID int64, rating int, comment string) (int64, error) {
	sql, args, err := r.sb.Insert("reviews").
		Columns("course_id", "rating", "comment").
		Values(courseID, rating, comment).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building add review SQL")
		return 0, fmt.Errorf("failed to build add review query: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error executing add review query")
		return 0, fmt.Errorf("error adding review: %w", err)
	}

	return id, nil
}
