package extractor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/pkg/llm"
)

// Intent parsing wants stable structured output, so temperature stays low.
const (
	intentTemperature = 0.3
	intentMaxTokens   = 500

	defaultConfidence = 0.8
)

// LLMExtractor parses intent with a chat completion model. Any transport or
// shape failure surfaces as llm.ErrServiceUnavailable so the caller can fall
// back to rule extraction; individual invalid fields are dropped instead.
type LLMExtractor struct {
	client llm.Client
	logger zerolog.Logger
}

// NewLLMExtractor creates the LLM-backed extraction strategy.
func NewLLMExtractor(client llm.Client, logger zerolog.Logger) *LLMExtractor {
	return &LLMExtractor{
		client: client,
		logger: logger.With().Str("component", "llm_extractor").Logger(),
	}
}

// intentPayload mirrors the JSON shape the intent parser prompt demands.
type intentPayload struct {
	Intent     string `json:"intent"`
	Parameters struct {
		CourseType *string  `json:"courseType"`
		Credits    *float64 `json:"credits"`
		Keywords   []string `json:"keywords"`
		Difficulty *string  `json:"difficulty"`
		Faculty    *string  `json:"faculty"`
		Teacher    *string  `json:"teacher"`
	} `json:"parameters"`
	Confidence   *float64 `json:"confidence"`
	NeedMoreInfo bool     `json:"needMoreInfo"`
	NextQuestion *string  `json:"nextQuestion"`
}

// Extract sends the utterance plus prior criteria to the model and validates
// the returned parameters against the lexicon.
func (e *LLMExtractor) Extract(ctx context.Context, utterance string, prior models.Criteria, lex Lexicon) (Result, error) {
	resp, err := e.client.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: intentParserPrompt(lex)},
			{Role: llm.RoleUser, Content: userContextPrompt(utterance, prior)},
		},
		Temperature: intentTemperature,
		MaxTokens:   intentMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("intent parsing: %w", err)
	}

	var payload intentPayload
	if err := json.Unmarshal([]byte(resp.Content), &payload); err != nil {
		e.logger.Warn().Err(err).Msg("Intent response is not valid JSON")
		return Result{}, fmt.Errorf("intent parsing: %w: malformed response", llm.ErrServiceUnavailable)
	}

	result := Result{
		Delta:        e.validateDelta(payload, lex),
		Confidence:   defaultConfidence,
		NeedMoreInfo: payload.NeedMoreInfo,
	}
	if payload.Confidence != nil {
		result.Confidence = *payload.Confidence
	}
	if payload.NextQuestion != nil {
		result.ClarifyingQuestion = *payload.NextQuestion
	}
	return result, nil
}

// validateDelta keeps only fields with values the system can act on.
// An out-of-vocabulary faculty or teacher, an unknown enum value or a
// non-positive credit count is dropped; the rest of the delta survives.
func (e *LLMExtractor) validateDelta(payload intentPayload, lex Lexicon) models.Criteria {
	var delta models.Criteria
	p := payload.Parameters

	if p.CourseType != nil {
		if models.ValidCourseType(*p.CourseType) {
			delta.CourseType = models.CourseType(*p.CourseType)
		} else {
			e.logger.Warn().Str("courseType", *p.CourseType).Msg("Dropping invalid course type from intent")
		}
	}

	if p.Credits != nil {
		if *p.Credits > 0 {
			credits := *p.Credits
			delta.Credits = &credits
		} else {
			e.logger.Warn().Float64("credits", *p.Credits).Msg("Dropping non-positive credits from intent")
		}
	}

	if len(p.Keywords) > 0 {
		delta.Keywords = append([]string(nil), p.Keywords...)
		delta.NormalizeKeywords()
	}

	if p.Difficulty != nil {
		if models.ValidDifficulty(*p.Difficulty) {
			delta.Difficulty = models.Difficulty(*p.Difficulty)
		} else {
			e.logger.Warn().Str("difficulty", *p.Difficulty).Msg("Dropping invalid difficulty from intent")
		}
	}

	if p.Faculty != nil && *p.Faculty != "" {
		if lex.HasFaculty(*p.Faculty) {
			delta.Faculty = *p.Faculty
		} else {
			e.logger.Warn().Str("faculty", *p.Faculty).Msg("Dropping unknown faculty from intent")
		}
	}

	if p.Teacher != nil && *p.Teacher != "" {
		if lex.HasTeacher(*p.Teacher) {
			delta.Teacher = *p.Teacher
		} else {
			e.logger.Warn().Str("teacher", *p.Teacher).Msg("Dropping unknown teacher from intent")
		}
	}

	return delta
}
