package narrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/pkg/llm"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func shortlist() []models.ScoredCourse {
	return []models.ScoredCourse{
		{
			Course: &models.Course{
				ID: 1, Code: "CS301", Name: "人工智能导论", Credits: 3,
				Type: models.CourseTypeElective, FacultyName: "创新工程学院", TeacherName: "陈伟",
				Description:   "介绍人工智能的基本概念与方法",
				AverageRating: fptr(4.6), ReviewCount: iptr(40),
			},
			MatchScore: 57.7,
		},
		{
			Course: &models.Course{
				ID: 4, Code: "ART210", Name: "西方艺术史", Credits: 3,
				Type: models.CourseTypeElective, FacultyName: "人文艺术学院", TeacherName: "王艺琳",
				AverageRating: fptr(4.8), ReviewCount: iptr(8),
			},
			MatchScore: 55.4,
		},
	}
}

func TestTemplateNarrate(t *testing.T) {
	n := NewTemplateNarrator()
	criteria := models.Criteria{CourseType: models.CourseTypeElective}

	got, err := n.Narrate(context.Background(), criteria, shortlist())
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}

	if got.Greeting != DefaultGreeting {
		t.Errorf("greeting = %q", got.Greeting)
	}
	if len(got.Reasons) != 2 {
		t.Fatalf("expected a reason per course, got %d", len(got.Reasons))
	}
	if !strings.Contains(got.Reasons[1], "陈伟") {
		t.Errorf("reason should mention the teacher, got %q", got.Reasons[1])
	}
	// Faculty, keywords and teacher are still unconstrained.
	if !strings.Contains(got.Suggestion, "学院") {
		t.Errorf("suggestion should hint at missing criteria, got %q", got.Suggestion)
	}
}

type mockClient struct {
	content string
	err     error
	lastReq llm.CompletionRequest
}

func (m *mockClient) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.content}, nil
}

func (m *mockClient) Available() bool { return true }

func TestLLMNarrate(t *testing.T) {
	mock := &mockClient{content: `{
		"greeting": "为您精选了这些课程：",
		"courses": [
			{"course_id": 1, "reason": "评分4.6，入门人工智能的首选"}
		],
		"suggestion": "建议从第一门开始。"
	}`}

	n := NewLLMNarrator(mock, zerolog.Nop())
	got, err := n.Narrate(context.Background(), models.Criteria{}, shortlist())
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}

	if got.Greeting != "为您精选了这些课程：" {
		t.Errorf("greeting = %q", got.Greeting)
	}
	if got.Reasons[1] != "评分4.6，入门人工智能的首选" {
		t.Errorf("reason[1] = %q", got.Reasons[1])
	}
	// Course 4 was skipped by the model and must get the generic reason.
	if got.Reasons[4] != DefaultReason {
		t.Errorf("reason[4] = %q", got.Reasons[4])
	}

	if mock.lastReq.Temperature != narrateTemperature || mock.lastReq.MaxTokens != narrateMaxTokens || !mock.lastReq.JSONMode {
		t.Errorf("unexpected request settings: %+v", mock.lastReq)
	}
	prompt := mock.lastReq.Messages[1].Content
	if !strings.Contains(prompt, "人工智能导论") || !strings.Contains(prompt, "课程ID: 1") {
		t.Errorf("prompt should list the shortlist, got %q", prompt)
	}
}

func TestLLMNarrateMalformedResponse(t *testing.T) {
	mock := &mockClient{content: "好的，以下是推荐。"}
	n := NewLLMNarrator(mock, zerolog.Nop())

	_, err := n.Narrate(context.Background(), models.Criteria{}, shortlist())
	if !errors.Is(err, llm.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestLLMNarrateTransportError(t *testing.T) {
	mock := &mockClient{err: llm.ErrServiceUnavailable}
	n := NewLLMNarrator(mock, zerolog.Nop())

	_, err := n.Narrate(context.Background(), models.Criteria{}, shortlist())
	if !errors.Is(err, llm.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}
