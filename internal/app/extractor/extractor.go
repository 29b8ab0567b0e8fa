// Package extractor turns a free-form user utterance into a structured
// criteria delta. Two strategies exist: a rule-based extractor that is always
// available, and an LLM-backed one that understands fuzzy phrasing. Callers
// fall back from the latter to the former on any failure.
package extractor

import (
	"context"

	"github.com/liuwen/courseadvisor/internal/app/models"
)

// Lexicon is the closed vocabulary extraction is allowed to produce faculty
// and teacher names from. It comes from the catalog, never from user input.
type Lexicon struct {
	Faculties []*models.Faculty
	Teachers  []*models.Teacher
}

// FacultyNames returns the faculty names in catalog order.
func (l Lexicon) FacultyNames() []string {
	names := make([]string, 0, len(l.Faculties))
	for _, f := range l.Faculties {
		names = append(names, f.Name)
	}
	return names
}

// TeacherNames returns the teacher names in catalog order.
func (l Lexicon) TeacherNames() []string {
	names := make([]string, 0, len(l.Teachers))
	for _, t := range l.Teachers {
		names = append(names, t.Name)
	}
	return names
}

// HasFaculty reports whether name exactly matches a lexicon faculty.
func (l Lexicon) HasFaculty(name string) bool {
	for _, f := range l.Faculties {
		if f.Name == name {
			return true
		}
	}
	return false
}

// HasTeacher reports whether name exactly matches a lexicon teacher.
func (l Lexicon) HasTeacher(name string) bool {
	for _, t := range l.Teachers {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Result is the outcome of one extraction run. Delta holds only the fields
// the utterance itself established; merging over prior criteria is the
// caller's job. NeedMoreInfo is advisory and never blocks a recommendation.
type Result struct {
	Delta              models.Criteria
	Confidence         float64
	NeedMoreInfo       bool
	ClarifyingQuestion string
}

// Extractor is one criteria extraction strategy.
type Extractor interface {
	Extract(ctx context.Context, utterance string, prior models.Criteria, lex Lexicon) (Result, error)
}
