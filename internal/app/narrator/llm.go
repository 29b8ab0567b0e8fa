package narrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/pkg/llm"
)

// Narration wants natural prose, so temperature runs higher than intent
// parsing.
const (
	narrateTemperature = 0.7
	narrateMaxTokens   = 800

	descriptionPreview = 100
)

const responseGeneratorPrompt = `你是一个友好、专业的课程推荐顾问。你的任务是为推荐的课程生成自然、个性化的介绍文案。

要求：
1. 语气要友好、热情，但不过分夸张
2. 为每门课程生成独特的推荐理由（基于课程特点，如评分、难度、实用性等）
3. 推荐理由要具体、有说服力
4. 可以适当提供学习建议

必须严格按照以下JSON格式输出：
{
  "greeting": "根据您的需求，我为您精选了以下课程：",
  "courses": [
    {
      "course_id": 1,
      "reason": "这门课程评分高达4.5分，内容循序渐进，非常适合初学者入门"
    }
  ],
  "suggestion": "建议您优先考虑第一门课程，它的难度适中且实用性强。"
}`

// LLMNarrator asks a chat completion model for the reply copy. Any failure
// maps to llm.ErrServiceUnavailable so the caller can fall back to the
// template strategy.
type LLMNarrator struct {
	client llm.Client
	logger zerolog.Logger
}

// NewLLMNarrator creates the LLM-backed narration strategy.
func NewLLMNarrator(client llm.Client, logger zerolog.Logger) *LLMNarrator {
	return &LLMNarrator{
		client: client,
		logger: logger.With().Str("component", "llm_narrator").Logger(),
	}
}

type narrativePayload struct {
	Greeting string `json:"greeting"`
	Courses  []struct {
		CourseID int64  `json:"course_id"`
		Reason   string `json:"reason"`
	} `json:"courses"`
	Suggestion string `json:"suggestion"`
}

// Narrate renders the criteria and shortlist into the prompt and parses the
// structured reply. Courses the model skipped get the generic reason.
func (n *LLMNarrator) Narrate(ctx context.Context, criteria models.Criteria, courses []models.ScoredCourse) (Narrative, error) {
	resp, err := n.client.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: responseGeneratorPrompt},
			{Role: llm.RoleUser, Content: recommendationPrompt(criteria, courses)},
		},
		Temperature: narrateTemperature,
		MaxTokens:   narrateMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return Narrative{}, fmt.Errorf("narration: %w", err)
	}

	var payload narrativePayload
	if err := json.Unmarshal([]byte(resp.Content), &payload); err != nil {
		n.logger.Warn().Err(err).Msg("Narrative response is not valid JSON")
		return Narrative{}, fmt.Errorf("narration: %w: malformed response", llm.ErrServiceUnavailable)
	}

	out := Narrative{
		Greeting:   payload.Greeting,
		Reasons:    make(map[int64]string, len(courses)),
		Suggestion: payload.Suggestion,
	}
	if out.Greeting == "" {
		out.Greeting = DefaultGreeting
	}
	for _, c := range payload.Courses {
		if c.Reason != "" {
			out.Reasons[c.CourseID] = c.Reason
		}
	}
	for _, sc := range courses {
		if _, ok := out.Reasons[sc.Course.ID]; !ok {
			out.Reasons[sc.Course.ID] = DefaultReason
		}
	}
	return out, nil
}

// recommendationPrompt renders the user's constraints and the shortlist for
// the response generator.
func recommendationPrompt(criteria models.Criteria, courses []models.ScoredCourse) string {
	var b strings.Builder

	b.WriteString("用户需求：\n")
	if criteria.CourseType != "" {
		fmt.Fprintf(&b, "- 课程类型：%s\n", courseTypeLabel(criteria.CourseType))
	}
	if criteria.Credits != nil {
		fmt.Fprintf(&b, "- 学分：%g\n", *criteria.Credits)
	}
	if len(criteria.Keywords) > 0 {
		fmt.Fprintf(&b, "- 兴趣关键词：%s\n", strings.Join(criteria.Keywords, "、"))
	}
	if criteria.Difficulty != "" {
		fmt.Fprintf(&b, "- 难度偏好：%s\n", difficultyLabel(criteria.Difficulty))
	}

	b.WriteString("\n推荐的课程列表：\n")
	for i, sc := range courses {
		course := sc.Course
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, course.Name, course.Code)
		fmt.Fprintf(&b, "   - 课程ID: %d\n", course.ID)
		fmt.Fprintf(&b, "   - 学分: %g\n", course.Credits)
		fmt.Fprintf(&b, "   - 类型: %s\n", shortTypeLabel(course.Type))
		if rating, ok := course.Rating(); ok {
			fmt.Fprintf(&b, "   - 评分: %.1f/5.0\n", rating)
		}
		if count, ok := course.Reviews(); ok {
			fmt.Fprintf(&b, "   - 评价数: %d条\n", count)
		}
		if course.TeacherName != "" {
			fmt.Fprintf(&b, "   - 授课教师: %s\n", course.TeacherName)
		}
		if course.Description != "" {
			fmt.Fprintf(&b, "   - 简介: %s...\n", previewDescription(course.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString("请为这些课程生成友好的介绍文案和个性化推荐理由。")
	return b.String()
}

func previewDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= descriptionPreview {
		return s
	}
	return string(runes[:descriptionPreview])
}

func courseTypeLabel(t models.CourseType) string {
	if t == models.CourseTypeCompulsory {
		return "必修课"
	}
	return "选修课"
}

func shortTypeLabel(t models.CourseType) string {
	if t == models.CourseTypeCompulsory {
		return "必修"
	}
	return "选修"
}

func difficultyLabel(d models.Difficulty) string {
	switch d {
	case models.DifficultyEasy:
		return "简单"
	case models.DifficultyMedium:
		return "中等"
	case models.DifficultyHard:
		return "困难"
	}
	return string(d)
}
