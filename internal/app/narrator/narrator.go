// Package narrator turns a scored course list into the conversational reply
// shown to the user. The template strategy is deterministic and always
// available; the LLM strategy produces warmer copy and is used when the
// model endpoint is up.
package narrator

import (
	"context"

	"github.com/liuwen/courseadvisor/internal/app/models"
)

// Narrative is the textual wrapping of one recommendation: an opening line,
// a reason per course keyed by course ID, and a closing suggestion.
type Narrative struct {
	Greeting   string
	Reasons    map[int64]string
	Suggestion string
}

// Narrator is one reply generation strategy.
type Narrator interface {
	Narrate(ctx context.Context, criteria models.Criteria, courses []models.ScoredCourse) (Narrative, error)
}

// DefaultGreeting opens a recommendation when no custom copy is available.
const DefaultGreeting = "根据您的需求，我为您推荐以下课程："

// DefaultReason is the per-course fallback when no specific reason exists.
const DefaultReason = "这门课程符合您的需求"
