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

// Teacher error types
var (
	// ErrTeacherNotFound is returned when a teacher is not found.
	ErrTeacherNotFound = ErrNotFound
	// ErrTeacherAlreadyExists is returned when a teacher with the same name exists in the faculty.
	ErrTeacherAlreadyExists = errors.New("teacher already exists in this faculty")
)

// TeacherRepository handles teacher database operations
type TeacherRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTeacherRepository creates a new TeacherRepository
func NewTeacherRepository(db *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateTeacher creates a new teacher
func (r *TeacherRepository) CreateTeacher(ctx context.Context, teacher *models.Teacher) (int64, error) {
	sql, args, err := r.sb.Insert("teachers").
		Columns("name", "title", "specialty", "faculty_id").
		Values(teacher.Name, teacher.Title, teacher.Specialty, teacher.FacultyID).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create teacher SQL")
		return 0, fmt.Errorf("failed to build create teacher query: %w", err)
	}

	var id int64
	err = r.db.QueryRow(ctx, sql, args...).Scan(&id)
	if err != nil {
		if isDuplicateKeyError(err) {
			return 0, ErrTeacherAlreadyExists
		}
		logger.Error().Err(err).Msg("Error executing create teacher query")
		return 0, fmt.Errorf("error creating teacher: %w", err)
	}

	return id, nil
}

// GetTeacherByID retrieves a teacher with its faculty
func (r *TeacherRepository) GetTeacherByID(ctx context.Context, id int64) (*models.Teacher, error) {
	sql, args, err := r.sb.Select(
		"t.id", "t.name", "t.title", "t.specialty", "t.faculty_id",
		"f.id", "f.name", "f.code").
		From("teachers t").
		Join("faculties f ON f.id = t.faculty_id").
		Where(squirrel.Eq{"t.id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get teacher by ID SQL")
		return nil, fmt.Errorf("failed to build get teacher query: %w", err)
	}

	teacher := &models.Teacher{Faculty: &models.Faculty{}}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&teacher.ID, &teacher.Name, &teacher.Title, &teacher.Specialty, &teacher.FacultyID,
		&teacher.Faculty.ID, &teacher.Faculty.Name, &teacher.Faculty.Code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeacherNotFound
		}
		logger.Error().Err(err).Int64("teacherID", id).Msg("Error scanning teacher row")
		return nil, fmt.Errorf("error getting teacher by ID: %w", err)
	}

	return teacher, nil
}

// GetAllTeachers retrieves all teachers with their faculties in insertion
// order. Like the faculty list, the order matters for lexicon matching.
func (r *TeacherRepository) GetAllTeachers(ctx context.Context) ([]*models.Teacher, error) {
	sql, args, err := r.sb.Select(
		"t.id", "t.name", "t.title", "t.specialty", "t.faculty_id",
		"f.id", "f.name", "f.code").
		From("teachers t").
		Join("faculties f ON f.id = t.faculty_id").
		OrderBy("t.id ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get all teachers SQL")
		return nil, fmt.Errorf("failed to build get all teachers query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing get all teachers query")
		return nil, fmt.Errorf("error querying teachers: %w", err)
	}
	defer rows.Close()

	teachers := []*models.Teacher{}
	for rows.Next() {
		teacher := &models.Teacher{Faculty: &models.Faculty{}}
		if err := rows.Scan(
			&teacher.ID, &teacher.Name, &teacher.Title, &teacher.Specialty, &teacher.FacultyID,
			&teacher.Faculty.ID, &teacher.Faculty.Name, &teacher.Faculty.Code); err != nil {
			logger.Error().Err(err).Msg("Error scanning teacher row during get all")
			return nil, fmt.Errorf("error scanning teacher row: %w", err)
		}
		teachers = append(teachers, teacher)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating teacher rows")
		return nil, fmt.Errorf("error iterating teacher rows: %w", err)
	}

	return teachers, nil
}
