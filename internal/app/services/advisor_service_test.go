package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/liuwen/courseadvisor/internal/app/extractor"
	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/app/models/dto"
	"github.com/liuwen/courseadvisor/internal/app/narrator"
	"github.com/liuwen/courseadvisor/internal/app/repositories"
	"github.com/liuwen/courseadvisor/internal/pkg/apperrors"
)

// fakeConversationStore is an in-memory ConversationStore.
type fakeConversationStore struct {
	nextID        int64
	conversations map[string]*models.Conversation
	messages      map[int64][]*models.Message

	failAppend   bool
	failTitle    bool
	failCriteria bool
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{
		nextID:        1,
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[int64][]*models.Message),
	}
}

func (f *fakeConversationStore) CreateConversation(_ context.Context, userID int64, conversationID string) (*models.Conversation, error) {
	if _, exists := f.conversations[conversationID]; exists {
		return nil, repositories.ErrConversationAlreadyExists
	}
	conv := &models.Conversation{
		ID:             f.nextID,
		ConversationID: conversationID,
		UserID:         userID,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	f.nextID++
	f.conversations[conversationID] = conv
	return conv, nil
}

func (f *fakeConversationStore) GetConversation(_ context.Context, userID int64, conversationID string) (*models.Conversation, error) {
	conv, ok := f.conversations[conversationID]
	if !ok {
		return nil, repositories.ErrConversationNotFound
	}
	if conv.UserID != userID {
		return nil, repositories.ErrConversationAccessDenied
	}
	copied := *conv
	return &copied, nil
}

func (f *fakeConversationStore) ListConversations(_ context.Context, userID int64) ([]*models.Conversation, error) {
	var result []*models.Conversation
	for _, conv := range f.conversations {
		if conv.UserID == userID {
			result = append(result, conv)
		}
	}
	return result, nil
}

func (f *fakeConversationStore) GetMessages(_ context.Context, conversationDBID int64) ([]*models.Message, error) {
	return f.messages[conversationDBID], nil
}

func (f *fakeConversationStore) AppendMessage(_ context.Context, conversationDBID int64, msg *models.Message) error {
	if f.failAppend {
		return errors.New("disk on fire")
	}
	msg.CreatedAt = time.Now()
	f.messages[conversationDBID] = append(f.messages[conversationDBID], msg)
	return nil
}

func (f *fakeConversationStore) UpdateCriteria(_ context.Context, conversationDBID int64, criteria models.Criteria) error {
	if f.failCriteria {
		return errors.New("disk on fire")
	}
	for _, conv := range f.conversations {
		if conv.ID == conversationDBID {
			conv.Criteria = criteria
			return nil
		}
	}
	return repositories.ErrConversationNotFound
}

func (f *fakeConversationStore) UpdateTitle(_ context.Context, conversationDBID int64, title string) error {
	if f.failTitle {
		return errors.New("disk on fire")
	}
	for _, conv := range f.conversations {
		if conv.ID == conversationDBID {
			conv.Title = title
			return nil
		}
	}
	return repositories.ErrConversationNotFound
}

func (f *fakeConversationStore) SoftDeleteConversation(_ context.Context, userID int64, conversationID string) error {
	conv, ok := f.conversations[conversationID]
	if !ok || conv.UserID != userID {
		return repositories.ErrConversationNotFound
	}
	delete(f.conversations, conversationID)
	return nil
}

func (f *fakeConversationStore) SoftDeleteAllConversations(_ context.Context, userID int64) (int64, error) {
	var count int64
	for id, conv := range f.conversations {
		if conv.UserID == userID {
			delete(f.conversations, id)
			count++
		}
	}
	return count, nil
}

// fakeCatalog serves a fixed catalog without a database.
type fakeCatalog struct {
	courses   []*models.Course
	faculties []*models.Faculty
	teachers  []*models.Teacher
	err       error
}

func (f *fakeCatalog) Courses(_ context.Context) ([]*models.Course, error) {
	return f.courses, f.err
}

func (f *fakeCatalog) CourseByID(_ context.Context, id int64) (*models.Course, error) {
	for _, c := range f.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.ErrCourseNotFound
}

func (f *fakeCatalog) Faculties(_ context.Context) ([]*models.Faculty, error) {
	return f.faculties, f.err
}

func (f *fakeCatalog) Teachers(_ context.Context) ([]*models.Teacher, error) {
	return f.teachers, f.err
}

func (f *fakeCatalog) Lexicon(_ context.Context) (extractor.Lexicon, error) {
	return extractor.Lexicon{Faculties: f.faculties, Teachers: f.teachers}, f.err
}

func (f *fakeCatalog) Invalidate() {}

// extractorFunc adapts a function to the Extractor interface.
type extractorFunc func(ctx context.Context, utterance string, prior models.Criteria, lex extractor.Lexicon) (extractor.Result, error)

func (fn extractorFunc) Extract(ctx context.Context, utterance string, prior models.Criteria, lex extractor.Lexicon) (extractor.Result, error) {
	return fn(ctx, utterance, prior, lex)
}

// narratorFunc adapts a function to the Narrator interface.
type narratorFunc func(ctx context.Context, criteria models.Criteria, shortlist []models.ScoredCourse) (narrator.Narrative, error)

func (fn narratorFunc) Narrate(ctx context.Context, criteria models.Criteria, shortlist []models.ScoredCourse) (narrator.Narrative, error) {
	return fn(ctx, criteria, shortlist)
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func advisorCatalog() *fakeCatalog {
	faculties := []*models.Faculty{
		{ID: 1, Name: "创新工程学院", Code: "FIE"},
		{ID: 2, Name: "商学院", Code: "BUS"},
	}
	teachers := []*models.Teacher{
		{ID: 1, Name: "陈伟", Title: "教授", FacultyID: 1},
		{ID: 2, Name: "刘芳", Title: "副教授", FacultyID: 2},
	}
	courses := []*models.Course{
		{
			ID: 1, Code: "CS101", Name: "人工智能导论", Description: "人工智能基础课程",
			Credits: 3, Type: models.CourseTypeElective,
			FacultyID: 1, TeacherID: 1, FacultyName: "创新工程学院", TeacherName: "陈伟",
			AverageRating: floatPtr(4.6), ReviewCount: intPtr(40),
		},
		{
			ID: 2, Code: "BUS201", Name: "市场营销学", Description: "市场营销基本理论",
			Credits: 2, Type: models.CourseTypeCompulsory,
			FacultyID: 2, TeacherID: 2, FacultyName: "商学院", TeacherName: "刘芳",
			AverageRating: floatPtr(4.1), ReviewCount: intPtr(25),
		},
	}
	return &fakeCatalog{courses: courses, faculties: faculties, teachers: teachers}
}

func newTestAdvisor(store ConversationStore, catalog CatalogService, cfgMut func(*AdvisorConfig)) AdvisorService {
	cfg := AdvisorConfig{
		Conversations:     store,
		Catalog:           catalog,
		FallbackExtractor: extractor.NewRuleExtractor(),
		FallbackNarrator:  narrator.NewTemplateNarrator(),
		LLMTimeout:        time.Second,
	}
	if cfgMut != nil {
		cfgMut(&cfg)
	}
	return NewAdvisorService(cfg, zerolog.Nop())
}

func TestChatStartsConversationAndRecommends(t *testing.T) {
	store := newFakeConversationStore()
	svc := newTestAdvisor(store, advisorCatalog(), nil)

	reply, err := svc.Chat(context.Background(), 7, dto.ChatRequest{Message: "我想要3学分的选修课"})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	if reply.ConversationID == "" || !strings.HasPrefix(reply.ConversationID, "conv_") {
		t.Errorf("expected generated conversation id, got %q", reply.ConversationID)
	}
	if reply.Type != dto.ReplyTypeRecommendation {
		t.Fatalf("expected recommendation reply, got %q", reply.Type)
	}
	if len(reply.Courses) == 0 {
		t.Fatal("expected recommended courses")
	}
	if reply.Courses[0].Name != "人工智能导论" {
		t.Errorf("expected the elective 3-credit course first, got %q", reply.Courses[0].Name)
	}
	if reply.UpdatedContext.CourseType != models.CourseTypeElective {
		t.Errorf("expected ELECTIVE in updated context, got %q", reply.UpdatedContext.CourseType)
	}
	if reply.UpdatedContext.Credits == nil || *reply.UpdatedContext.Credits != 3 {
		t.Error("expected credits 3 in updated context")
	}

	conv := store.conversations[reply.ConversationID]
	if conv == nil {
		t.Fatal("conversation was not persisted")
	}
	if conv.Title != "我想要3学分的选修课" {
		t.Errorf("expected title derived from first message, got %q", conv.Title)
	}
	msgs := store.messages[conv.ID]
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[1].Role != models.RoleAssistant {
		t.Error("expected user message then assistant message")
	}
	if msgs[1].Type != models.MessageTypeRecommendation {
		t.Errorf("expected recommendation message type, got %q", msgs[1].Type)
	}
	if len(msgs[1].Courses) != len(reply.Courses) {
		t.Error("assistant message should snapshot the recommended courses")
	}
}

func TestChatAccumulatesCriteriaAcrossTurns(t *testing.T) {
	store := newFakeConversationStore()
	svc := newTestAdvisor(store, advisorCatalog(), nil)

	first, err := svc.Chat(context.Background(), 7, dto.ChatRequest{Message: "我想要选修课"})
	if err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	second, err := svc.Chat(context.Background(), 7, dto.ChatRequest{
		Message:        "要3学分的",
		ConversationID: first.ConversationID,
	})
	if err != nil {
		t.Fatalf("second turn failed: %v", err)
	}

	if second.ConversationID != first.ConversationID {
		t.Error("second turn should stay in the same conversation")
	}
	if second.UpdatedContext.CourseType != models.CourseTypeElective {
		t.Error("course type from the first turn should survive the merge")
	}
	if second.UpdatedContext.Credits == nil || *second.UpdatedContext.Credits != 3 {
		t.Error("credits from the second turn should be merged in")
	}

	conv := store.conversations[first.ConversationID]
	if conv.Title != "我想要选修课" {
		t.Errorf("title should come from the first message only, got %q", conv.Title)
	}
	if len(store.messages[conv.ID]) != 4 {
		t.Errorf("expected 4 messages after two turns, got %d", len(store.messages[conv.ID]))
	}
}

func TestChatFallsBackWhenPrimaryExtractorFails(t *testing.T) {
	store := newFakeConversationStore()
	svc := newTestAdvisor(store, advisorCatalog(), func(cfg *AdvisorConfig) {
		cfg.PrimaryExtractor = extractorFunc(func(ctx context.Context, _ string, _ models.Criteria, _ extractor.Lexicon) (extractor.Result, error) {
			<-ctx.Done()
			return extractor.Result{}, ctx.Err()
		})
		cfg.LLMTimeout = 10 * time.Millisecond
	})

	reply, err := svc.Chat(context.Background(), 7, dto.ChatRequest{Message: "我想要3学分的选修课"})
	if err != nil {
		t.Fatalf("Chat should survive extractor timeout: %v", err)
	}
	if reply.UpdatedContext.CourseType != models.CourseTypeElective {
		t.Error("rule fallback should still extract the course type")
	}
}

func TestChatFallsBackWhenNarratorFails(t *testing.T) {
	store := newFakeConversationStore()
	svc := newTestAdvisor(store, advisorCatalog(), func(cfg *AdvisorConfig) {
		cfg.PrimaryNarrator = narratorFunc(func(_ context.Context, _ models.Criteria, _ []models.ScoredCourse) (narrator.Narrative, error) {
			return narrator.Narrative{}, errors.New("model overloaded")
		})
	})

	reply, err := svc.Chat(context.Background(), 7, dto.ChatRequest{Message: "我想要选修课"})
	if err != nil {
		t.Fatalf("Chat should survive narrator failure: %v", err)
	}
	if reply.Type != dto.ReplyTypeRecommendation {
		t.Fatalf("expected recommendation reply, got %q", reply.Type)
	}
	if reply.Content == "" {
		t.Error("template fallback should still produce reply content")
	}
	for _, c := range reply.Courses {
		if c.Reason == "" {
			t.Errorf("course %q has no reason", c.Name)
		}
	}
}

func TestChatUsesPrimaryNarrativeReasons(t *testing.T) {
	store := newFakeConversationStore()
	svc := newTestAdvisor(store, advisorCatalog(), func(cfg *AdvisorConfig) {
		cfg.PrimaryNarrator = narratorFunc(func(_ context.Context, _ models.Criteria, _ []models.ScoredCourse) (narrator.Narrative, error) {
			return narrator.Narrative{
				Greeting:   "为您找到了这些课程：",
				Reasons:    map[int64]string{1: "这门课与您的兴趣高度契合"},
				Suggestion: "还想了解什么？",
			}, nil
		})
	})

	reply, err := svc.Chat(context.Background(), 7, dto.ChatRequest{Message: "人工智能"})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if !strings.HasPrefix(reply.Content, "为您找到了这些课程：") {
		t.Errorf("greeting missing from content: %q", reply.Content)
	}
	if !strings.Contains(reply.Content, "还想了解什么？") {
		t.Errorf("suggestion missing from content: %q", reply.Content)
	}
	for _, c := range reply.Courses {
		if c.ID == 1 && c.Reason != "这门课与您的兴趣高度契合" {
			t.Errorf("narrative reason not applied, got %q", c.Reason)
		}
		if c.ID != 1 && c.Reason == "" {
			t.Errorf("course %d should get a template reason fallback", c.ID)
		}
	}
}

func TestChatClarifiesWhenNothingMatches(t *testing.T) {
	store := newFakeConversationStore()
	catalog := advisorCatalog()
	catalog.courses = nil
	svc := newTestAdvisor(store, catalog, nil)

	reply, err := svc.Chat(context.Background(), 7, dto.ChatRequest{Message: "随便聊聊"})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if reply.Type != dto.ReplyTypeText {
		t.Fatalf("expected text reply, got %q", reply.Type)
	}
	if reply.Content == "" {
		t.Error("empty-catalog turn should still answer with text")
	}
	if len(reply.Courses) != 0 {
		t.Error("text reply should carry no courses")
	}
}

func TestChatAbortsOnPersistenceFailure(t *testing.T) {
	store := newFakeConversationStore()
	store.failAppend = true
	svc := newTestAdvisor(store, advisorCatalog(), nil)

	_, err := svc.Chat(context.Background(), 7, dto.ChatRequest{Message: "我想要选修课"})
	if !errors.Is(err, apperrors.ErrPersistenceFailure) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
}

func TestChatFailedTurnLeavesCriteriaUntouched(t *testing.T) {
	store := newFakeConversationStore()
	svc := newTestAdvisor(store, advisorCatalog(), nil)

	first, err := svc.Chat(context.Background(), 7, dto.ChatRequest{Message: "我想要选修课"})
	if err != nil {
		t.Fatalf("setup turn failed: %v", err)
	}

	failing := advisorCatalog()
	failing.err = errors.New("connection reset")
	svc = newTestAdvisor(store, failing, nil)

	_, err = svc.Chat(context.Background(), 7, dto.ChatRequest{
		Message:        "要3学分的",
		ConversationID: first.ConversationID,
	})
	if !errors.Is(err, apperrors.ErrPersistenceFailure) {
		t.Fatalf("expected persistence failure, got %v", err)
	}

	conv := store.conversations[first.ConversationID]
	if conv.Criteria.Credits != nil {
		t.Error("failed turn must not persist the merged criteria")
	}
	if conv.Criteria.CourseType != models.CourseTypeElective {
		t.Errorf("criteria from the successful turn should survive, got %q", conv.Criteria.CourseType)
	}
}

func TestChatReleasesConversationLock(t *testing.T) {
	store := newFakeConversationStore()
	svc := newTestAdvisor(store, advisorCatalog(), nil)
	impl := svc.(*advisorServiceImpl)

	first, err := svc.Chat(context.Background(), 7, dto.ChatRequest{Message: "我想要选修课"})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.Chat(context.Background(), 7, dto.ChatRequest{
			Message:        "要3学分的",
			ConversationID: first.ConversationID,
		}); err != nil {
			t.Fatalf("turn %d failed: %v", i, err)
		}
	}

	impl.locks.mu.Lock()
	remaining := len(impl.locks.locks)
	impl.locks.mu.Unlock()
	if remaining != 0 {
		t.Errorf("lock table holds %d entries after all turns finished, want 0", remaining)
	}
}

func TestChatTitleFailureIsNotFatal(t *testing.T) {
	store := newFakeConversationStore()
	store.failTitle = true
	svc := newTestAdvisor(store, advisorCatalog(), nil)

	reply, err := svc.Chat(context.Background(), 7, dto.ChatRequest{Message: "我想要选修课"})
	if err != nil {
		t.Fatalf("title failure should not abort the turn: %v", err)
	}
	if reply.Type != dto.ReplyTypeRecommendation {
		t.Errorf("expected recommendation reply, got %q", reply.Type)
	}
}

func TestChatDeniesForeignConversation(t *testing.T) {
	store := newFakeConversationStore()
	svc := newTestAdvisor(store, advisorCatalog(), nil)

	first, err := svc.Chat(context.Background(), 7, dto.ChatRequest{Message: "我想要选修课"})
	if err != nil {
		t.Fatalf("setup turn failed: %v", err)
	}

	_, err = svc.Chat(context.Background(), 8, dto.ChatRequest{
		Message:        "给我推荐",
		ConversationID: first.ConversationID,
	})
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestAdvisorStatus(t *testing.T) {
	store := newFakeConversationStore()

	enabled := newTestAdvisor(store, advisorCatalog(), func(cfg *AdvisorConfig) {
		cfg.LLMAvailable = true
		cfg.Model = "deepseek-chat"
	})
	status := enabled.Status()
	if !status.Available || status.Model != "deepseek-chat" {
		t.Errorf("unexpected enabled status: %+v", status)
	}

	disabled := newTestAdvisor(store, advisorCatalog(), nil)
	status = disabled.Status()
	if status.Available {
		t.Error("advisor without LLM should report unavailable")
	}
	if status.Message == "" {
		t.Error("degraded status should explain itself")
	}
}
