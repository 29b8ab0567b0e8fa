package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/liuwen/courseadvisor/internal/app/extractor"
	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/app/repositories"
	"github.com/liuwen/courseadvisor/internal/pkg/apperrors"
)

// CatalogStore is the data access surface the catalog service needs.
type CatalogStore interface {
	GetAllCourses(ctx context.Context) ([]*models.Course, error)
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
	GetAllFaculties(ctx context.Context) ([]*models.Faculty, error)
	GetAllTeachers(ctx context.Context) ([]*models.Teacher, error)
}

// CatalogService serves the course catalog and the extraction lexicon behind
// a TTL cache. Review statistics go stale for at most the TTL.
type CatalogService interface {
	Courses(ctx context.Context) ([]*models.Course, error)
	CourseByID(ctx context.Context, id int64) (*models.Course, error)
	Faculties(ctx context.Context) ([]*models.Faculty, error)
	Teachers(ctx context.Context) ([]*models.Teacher, error)
	Lexicon(ctx context.Context) (extractor.Lexicon, error)
	// Invalidate drops the cached snapshot; the next read reloads.
	Invalidate()
}

// catalogSnapshot is one cached load of the whole catalog.
type catalogSnapshot struct {
	courses   []*models.Course
	faculties []*models.Faculty
	teachers  []*models.Teacher
	expiresAt time.Time
}

func (s *catalogSnapshot) expired(now time.Time) bool {
	return s == nil || now.After(s.expiresAt)
}

type catalogServiceImpl struct {
	store  CatalogStore
	ttl    time.Duration
	logger zerolog.Logger

	mu       sync.Mutex
	snapshot *catalogSnapshot
	now      func() time.Time
}

// NewCatalogService creates a catalog service with the given cache TTL.
func NewCatalogService(store CatalogStore, ttl time.Duration, logger zerolog.Logger) CatalogService {
	return &catalogServiceImpl{
		store:  store,
		ttl:    ttl,
		logger: logger.With().Str("component", "catalog_service").Logger(),
		now:    time.Now,
	}
}

// load returns the current snapshot, reloading it when expired. Concurrent
// callers during a reload wait on the mutex and get the fresh snapshot.
func (s *catalogServiceImpl) load(ctx context.Context) (*catalogSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.snapshot.expired(s.now()) {
		return s.snapshot, nil
	}

	courses, err := s.store.GetAllCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading course catalog: %w", err)
	}
	faculties, err := s.store.GetAllFaculties(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading faculties: %w", err)
	}
	teachers, err := s.store.GetAllTeachers(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading teachers: %w", err)
	}

	s.snapshot = &catalogSnapshot{
		courses:   courses,
		faculties: faculties,
		teachers:  teachers,
		expiresAt: s.now().Add(s.ttl),
	}
	s.logger.Debug().
		Int("courses", len(courses)).
		Int("faculties", len(faculties)).
		Int("teachers", len(teachers)).
		Msg("Catalog cache reloaded")

	return s.snapshot, nil
}

func (s *catalogServiceImpl) Courses(ctx context.Context) ([]*models.Course, error) {
	snapshot, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.courses, nil
}

func (s *catalogServiceImpl) CourseByID(ctx context.Context, id int64) (*models.Course, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid course ID", apperrors.ErrValidationFailed)
	}

	course, err := s.store.GetCourseByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCourseNotFound) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return course, nil
}

func (s *catalogServiceImpl) Faculties(ctx context.Context) ([]*models.Faculty, error) {
	snapshot, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.faculties, nil
}

func (s *catalogServiceImpl) Teachers(ctx context.Context) ([]*models.Teacher, error) {
	snapshot, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.teachers, nil
}

func (s *catalogServiceImpl) Lexicon(ctx context.Context) (extractor.Lexicon, error) {
	snapshot, err := s.load(ctx)
	if err != nil {
		return extractor.Lexicon{}, err
	}
	return extractor.Lexicon{
		Faculties: snapshot.faculties,
		Teachers:  snapshot.teachers,
	}, nil
}

func (s *catalogServiceImpl) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
}
