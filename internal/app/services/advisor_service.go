package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/liuwen/courseadvisor/internal/app/extractor"
	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/app/models/dto"
	"github.com/liuwen/courseadvisor/internal/app/narrator"
	"github.com/liuwen/courseadvisor/internal/app/recommender"
	"github.com/liuwen/courseadvisor/internal/app/repositories"
	"github.com/liuwen/courseadvisor/internal/pkg/apperrors"
)

// Reply copy for turns that produce no shortlist.
const (
	noResultsReply   = "抱歉，我暂时没有找到符合条件的课程。您可以换个说法，或者告诉我更多偏好。"
	defaultClarifier = "您可以告诉我感兴趣的学院、课程类型或关键词，我来为您推荐。"
)

// AdvisorService runs the chat pipeline: extract criteria, merge them into
// the conversation, rank the catalog and narrate the result.
type AdvisorService interface {
	Chat(ctx context.Context, userID int64, req dto.ChatRequest) (*dto.ChatReplyResponse, error)
	Status() dto.AdvisorStatusResponse
}

// AdvisorConfig wires the strategies. Primary extractor and narrator are
// optional; when nil (or failing) the deterministic fallbacks run instead.
type AdvisorConfig struct {
	Conversations     ConversationStore
	Catalog           CatalogService
	PrimaryExtractor  extractor.Extractor
	FallbackExtractor extractor.Extractor
	PrimaryNarrator   narrator.Narrator
	FallbackNarrator  narrator.Narrator
	LLMTimeout        time.Duration
	LLMAvailable      bool
	Model             string
}

type advisorServiceImpl struct {
	conversations     ConversationStore
	catalog           CatalogService
	primaryExtractor  extractor.Extractor
	fallbackExtractor extractor.Extractor
	primaryNarrator   narrator.Narrator
	fallbackNarrator  narrator.Narrator
	llmTimeout        time.Duration
	llmAvailable      bool
	model             string
	locks             conversationLocks
	logger            zerolog.Logger
}

// NewAdvisorService creates the advisor orchestrator.
func NewAdvisorService(cfg AdvisorConfig, logger zerolog.Logger) AdvisorService {
	return &advisorServiceImpl{
		conversations:     cfg.Conversations,
		catalog:           cfg.Catalog,
		primaryExtractor:  cfg.PrimaryExtractor,
		fallbackExtractor: cfg.FallbackExtractor,
		primaryNarrator:   cfg.PrimaryNarrator,
		fallbackNarrator:  cfg.FallbackNarrator,
		llmTimeout:        cfg.LLMTimeout,
		llmAvailable:      cfg.LLMAvailable,
		model:             cfg.Model,
		locks:             conversationLocks{locks: make(map[string]*conversationLock)},
		logger:            logger.With().Str("component", "advisor_service").Logger(),
	}
}

// conversationLocks serializes turns per conversation. Distinct
// conversations proceed concurrently. Entries are reference counted and
// removed once the last holder releases, so the table stays bounded by the
// number of in-flight turns.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*conversationLock
}

type conversationLock struct {
	sync.Mutex
	refs int
}

func (c *conversationLocks) acquire(key string) *conversationLock {
	c.mu.Lock()
	lock, ok := c.locks[key]
	if !ok {
		lock = &conversationLock{}
		c.locks[key] = lock
	}
	lock.refs++
	c.mu.Unlock()

	lock.Lock()
	return lock
}

func (c *conversationLocks) release(key string, lock *conversationLock) {
	lock.Unlock()

	c.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(c.locks, key)
	}
	c.mu.Unlock()
}

// Status reports whether the LLM strategies are live. The advisor answers
// either way; without them it runs on rule extraction and template copy.
func (s *advisorServiceImpl) Status() dto.AdvisorStatusResponse {
	if s.llmAvailable {
		return dto.AdvisorStatusResponse{
			Available: true,
			Model:     s.model,
			Message:   "AI服务运行正常",
		}
	}
	return dto.AdvisorStatusResponse{
		Available: false,
		Message:   "AI服务未启用，当前使用规则推荐",
	}
}

// Chat runs one full advising turn. The user message is persisted before the
// pipeline runs, so a failed turn still leaves the question in the
// transcript. Only store failures abort the turn.
func (s *advisorServiceImpl) Chat(ctx context.Context, userID int64, req dto.ChatRequest) (*dto.ChatReplyResponse, error) {
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = NewConversationID()
	}

	key := lockKey(userID, conversationID)
	lock := s.locks.acquire(key)
	defer s.locks.release(key, lock)

	conv, err := s.ensureConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	userMsg := &models.Message{
		MessageID: NewMessageID(),
		Role:      models.RoleUser,
		Content:   req.Message,
		Type:      models.MessageTypeText,
	}
	if err := s.conversations.AppendMessage(ctx, conv.ID, userMsg); err != nil {
		return nil, apperrors.NewPersistenceError("failed to store user message", err)
	}

	if conv.Title == "" {
		title := models.DeriveTitle(req.Message)
		if err := s.conversations.UpdateTitle(ctx, conv.ID, title); err != nil {
			// The turn can still answer; the title is cosmetic.
			s.logger.Warn().Err(err).Str("conversationID", conversationID).Msg("Failed to set conversation title")
		} else {
			conv.Title = title
		}
	}

	result := s.extract(ctx, req.Message, conv.Criteria)

	merged := conv.Criteria.Merge(result.Delta)
	merged.NormalizeKeywords()

	catalog, err := s.catalog.Courses(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to load course catalog", err)
	}

	shortlist := recommender.Recommend(merged, catalog)

	reply := s.compose(ctx, merged, shortlist, result)

	// Criteria are stored together with the reply they produced, so a turn
	// that fails mid-pipeline leaves the conversation context untouched.
	if err := s.conversations.UpdateCriteria(ctx, conv.ID, merged); err != nil {
		return nil, apperrors.NewPersistenceError("failed to store updated criteria", err)
	}

	assistantMsg := &models.Message{
		MessageID: NewMessageID(),
		Role:      models.RoleAssistant,
		Content:   reply.Content,
		Type:      models.MessageType(reply.Type),
		Courses:   replyCourses(reply),
	}
	if err := s.conversations.AppendMessage(ctx, conv.ID, assistantMsg); err != nil {
		return nil, apperrors.NewPersistenceError("failed to store assistant message", err)
	}

	reply.ConversationID = conversationID
	reply.UpdatedContext = merged
	return reply, nil
}

// ensureConversation loads the conversation, creating it when the id is new.
func (s *advisorServiceImpl) ensureConversation(ctx context.Context, userID int64, conversationID string) (*models.Conversation, error) {
	conv, err := s.conversations.GetConversation(ctx, userID, conversationID)
	if err == nil {
		return conv, nil
	}
	if errors.Is(err, repositories.ErrConversationAccessDenied) {
		return nil, apperrors.ErrPermissionDenied
	}
	if !errors.Is(err, repositories.ErrConversationNotFound) {
		return nil, apperrors.NewPersistenceError("failed to load conversation", err)
	}

	conv, err = s.conversations.CreateConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to create conversation", err)
	}
	return conv, nil
}

// extract tries the primary strategy within the LLM timeout and falls back
// to rule extraction on any failure. Extraction never aborts a turn.
func (s *advisorServiceImpl) extract(ctx context.Context, utterance string, prior models.Criteria) extractor.Result {
	lex, err := s.lexicon(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Lexicon unavailable, extraction runs without closed lists")
	}

	if s.primaryExtractor != nil {
		llmCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
		result, err := s.primaryExtractor.Extract(llmCtx, utterance, prior, lex)
		cancel()
		if err == nil {
			return result
		}
		s.logger.Warn().Err(err).Msg("Intent extraction degraded to rules")
	}

	result, err := s.fallbackExtractor.Extract(ctx, utterance, prior, lex)
	if err != nil {
		// The rule extractor is total; this is defensive only.
		s.logger.Error().Err(err).Msg("Rule extraction failed")
		return extractor.Result{}
	}
	return result
}

func (s *advisorServiceImpl) lexicon(ctx context.Context) (extractor.Lexicon, error) {
	return s.catalog.Lexicon(ctx)
}

// compose turns the shortlist into reply copy, preferring the LLM narrator.
func (s *advisorServiceImpl) compose(ctx context.Context, criteria models.Criteria, shortlist []models.ScoredCourse, extraction extractor.Result) *dto.ChatReplyResponse {
	if len(shortlist) == 0 {
		content := noResultsReply
		if extraction.ClarifyingQuestion != "" {
			content = extraction.ClarifyingQuestion
		} else if criteria.IsEmpty() {
			content = defaultClarifier
		}
		return &dto.ChatReplyResponse{Type: dto.ReplyTypeText, Content: content}
	}

	narrative := s.narrate(ctx, criteria, shortlist)

	content := narrative.Greeting
	if narrative.Suggestion != "" {
		content += "\n\n" + narrative.Suggestion
	}

	reply := &dto.ChatReplyResponse{
		Type:    dto.ReplyTypeRecommendation,
		Content: content,
	}
	for _, sc := range shortlist {
		reason, ok := narrative.Reasons[sc.Course.ID]
		if !ok {
			reason = recommender.Explain(sc.Course, criteria)
		}
		rec := dto.ToCourseResponse(sc.Course)
		reply.Courses = append(reply.Courses, dto.RecommendedCourseResponse{
			CourseResponse: rec,
			MatchScore:     sc.MatchScore,
			Reason:         reason,
		})
	}
	return reply
}

func (s *advisorServiceImpl) narrate(ctx context.Context, criteria models.Criteria, shortlist []models.ScoredCourse) narrator.Narrative {
	if s.primaryNarrator != nil {
		llmCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
		narrative, err := s.primaryNarrator.Narrate(llmCtx, criteria, shortlist)
		cancel()
		if err == nil {
			return narrative
		}
		s.logger.Warn().Err(err).Msg("Narration degraded to templates")
	}

	narrative, err := s.fallbackNarrator.Narrate(ctx, criteria, shortlist)
	if err != nil {
		// The template narrator is total; this is defensive only.
		s.logger.Error().Err(err).Msg("Template narration failed")
		return narrator.Narrative{Greeting: narrator.DefaultGreeting}
	}
	return narrative
}

// replyCourses converts the reply shortlist into the persisted snapshot.
func replyCourses(reply *dto.ChatReplyResponse) []models.CourseRecommendation {
	if len(reply.Courses) == 0 {
		return nil
	}
	recs := make([]models.CourseRecommendation, 0, len(reply.Courses))
	for _, c := range reply.Courses {
		recs = append(recs, models.CourseRecommendation{
			CourseID:      c.ID,
			Code:          c.Code,
			Name:          c.Name,
			Credits:       c.Credits,
			Type:          c.Type,
			FacultyName:   c.FacultyName,
			TeacherName:   c.TeacherName,
			AverageRating: c.AverageRating,
			ReviewCount:   c.ReviewCount,
			MatchScore:    c.MatchScore,
			Reason:        c.Reason,
		})
	}
	return recs
}

func lockKey(userID int64, conversationID string) string {
	return conversationID + "#" + strconv.FormatInt(userID, 10)
}
