package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/app/repositories"
	"github.com/liuwen/courseadvisor/internal/pkg/apperrors"
)

// fakeCatalogStore counts loads so cache behavior is observable.
type fakeCatalogStore struct {
	courses   []*models.Course
	faculties []*models.Faculty
	teachers  []*models.Teacher
	loads     int
	err       error
}

func (f *fakeCatalogStore) GetAllCourses(_ context.Context) ([]*models.Course, error) {
	f.loads++
	return f.courses, f.err
}

func (f *fakeCatalogStore) GetCourseByID(_ context.Context, id int64) (*models.Course, error) {
	for _, c := range f.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repositories.ErrCourseNotFound
}

func (f *fakeCatalogStore) GetAllFaculties(_ context.Context) ([]*models.Faculty, error) {
	return f.faculties, f.err
}

func (f *fakeCatalogStore) GetAllTeachers(_ context.Context) ([]*models.Teacher, error) {
	return f.teachers, f.err
}

func newCatalogFixture() *fakeCatalogStore {
	return &fakeCatalogStore{
		courses: []*models.Course{
			{ID: 1, Code: "CS101", Name: "人工智能导论", Credits: 3, Type: models.CourseTypeElective},
		},
		faculties: []*models.Faculty{{ID: 1, Name: "创新工程学院", Code: "FIE"}},
		teachers:  []*models.Teacher{{ID: 1, Name: "陈伟", FacultyID: 1}},
	}
}

func TestCatalogServiceCachesWithinTTL(t *testing.T) {
	store := newCatalogFixture()
	svc := NewCatalogService(store, 5*time.Minute, zerolog.Nop()).(*catalogServiceImpl)

	now := time.Now()
	svc.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		courses, err := svc.Courses(context.Background())
		if err != nil {
			t.Fatalf("Courses returned error: %v", err)
		}
		if len(courses) != 1 {
			t.Fatalf("expected 1 course, got %d", len(courses))
		}
	}
	if store.loads != 1 {
		t.Errorf("expected a single load within the TTL, got %d", store.loads)
	}

	now = now.Add(6 * time.Minute)
	if _, err := svc.Courses(context.Background()); err != nil {
		t.Fatalf("Courses returned error after expiry: %v", err)
	}
	if store.loads != 2 {
		t.Errorf("expected a reload after expiry, got %d loads", store.loads)
	}
}

func TestCatalogServiceInvalidateForcesReload(t *testing.T) {
	store := newCatalogFixture()
	svc := NewCatalogService(store, time.Hour, zerolog.Nop())

	if _, err := svc.Courses(context.Background()); err != nil {
		t.Fatalf("Courses returned error: %v", err)
	}
	svc.Invalidate()
	if _, err := svc.Faculties(context.Background()); err != nil {
		t.Fatalf("Faculties returned error: %v", err)
	}
	if store.loads != 2 {
		t.Errorf("expected reload after Invalidate, got %d loads", store.loads)
	}
}

func TestCatalogServiceLexicon(t *testing.T) {
	store := newCatalogFixture()
	svc := NewCatalogService(store, time.Hour, zerolog.Nop())

	lex, err := svc.Lexicon(context.Background())
	if err != nil {
		t.Fatalf("Lexicon returned error: %v", err)
	}
	if !lex.HasFaculty("创新工程学院") {
		t.Error("lexicon should carry catalog faculties")
	}
	if !lex.HasTeacher("陈伟") {
		t.Error("lexicon should carry catalog teachers")
	}
}

func TestCatalogServiceCourseByIDBypassesCache(t *testing.T) {
	store := newCatalogFixture()
	svc := NewCatalogService(store, time.Hour, zerolog.Nop())

	course, err := svc.CourseByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("CourseByID returned error: %v", err)
	}
	if course.Name != "人工智能导论" {
		t.Errorf("unexpected course: %q", course.Name)
	}
	if store.loads != 0 {
		t.Error("CourseByID should not trigger a full catalog load")
	}

	if _, err := svc.CourseByID(context.Background(), 999); !errors.Is(err, apperrors.ErrCourseNotFound) {
		t.Errorf("expected course not found, got %v", err)
	}
	if _, err := svc.CourseByID(context.Background(), 0); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("expected validation failure for id 0, got %v", err)
	}
}

func TestCatalogServicePropagatesLoadErrors(t *testing.T) {
	store := newCatalogFixture()
	store.err = errors.New("connection refused")
	svc := NewCatalogService(store, time.Hour, zerolog.Nop())

	if _, err := svc.Courses(context.Background()); err == nil {
		t.Fatal("expected load error to propagate")
	}
}
