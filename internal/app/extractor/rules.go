package extractor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/liuwen/courseadvisor/internal/app/models"
)

// ruleConfidence is the fixed confidence reported for rule-based extraction.
// Keyword matching against a closed vocabulary is reliable but blind to
// phrasing, so it sits below a confident LLM parse.
const ruleConfidence = 0.6

var creditsPattern = regexp.MustCompile(`(\d+)\s*学分`)

// RuleExtractor extracts criteria with substring and regexp rules. It has no
// external dependencies and never fails, which makes it the fallback when the
// LLM path is unavailable.
type RuleExtractor struct{}

// NewRuleExtractor returns the rule-based extraction strategy.
func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{}
}

// Extract scans the utterance for course type markers, a credit count,
// difficulty words and lexicon faculty or teacher names. Unrecognized
// dimensions stay unset. prior is unused; rule extraction looks at the
// current utterance only.
func (e *RuleExtractor) Extract(_ context.Context, utterance string, _ models.Criteria, lex Lexicon) (Result, error) {
	var delta models.Criteria

	if strings.Contains(utterance, "必修") {
		delta.CourseType = models.CourseTypeCompulsory
	} else if strings.Contains(utterance, "选修") {
		delta.CourseType = models.CourseTypeElective
	}

	if m := creditsPattern.FindStringSubmatch(utterance); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			credits := float64(n)
			delta.Credits = &credits
		}
	}

	if containsAny(utterance, "简单", "容易", "轻松") {
		delta.Difficulty = models.DifficultyEasy
	} else if containsAny(utterance, "难", "有挑战") {
		delta.Difficulty = models.DifficultyHard
	}

	for _, faculty := range lex.Faculties {
		if strings.Contains(utterance, faculty.Name) {
			delta.Faculty = faculty.Name
			break
		}
	}

	for _, teacher := range lex.Teachers {
		if strings.Contains(utterance, teacher.Name) {
			delta.Teacher = teacher.Name
			break
		}
	}

	return Result{
		Delta:        delta,
		Confidence:   ruleConfidence,
		NeedMoreInfo: delta.IsEmpty(),
	}, nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
