package narrator

import (
	"context"

	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/app/recommender"
)

// TemplateNarrator builds the reply from the rule engine's own explanations.
// It never fails, which makes it the fallback strategy.
type TemplateNarrator struct{}

// NewTemplateNarrator returns the deterministic narration strategy.
func NewTemplateNarrator() *TemplateNarrator {
	return &TemplateNarrator{}
}

// Narrate produces a fixed greeting, one explained reason per course and a
// follow-up hint listing the criteria the user has not given yet.
func (n *TemplateNarrator) Narrate(_ context.Context, criteria models.Criteria, courses []models.ScoredCourse) (Narrative, error) {
	reasons := make(map[int64]string, len(courses))
	for _, sc := range courses {
		reasons[sc.Course.ID] = recommender.Explain(sc.Course, criteria)
	}

	return Narrative{
		Greeting:   DefaultGreeting,
		Reasons:    reasons,
		Suggestion: recommender.SuggestNext(criteria),
	}, nil
}
