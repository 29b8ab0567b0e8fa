package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/app/repositories"
	"github.com/liuwen/courseadvisor/internal/pkg/apperrors"
)

// ConversationStore is the persistence surface conversation handling needs.
// Implemented by repositories.ConversationRepository; tests use fakes.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID int64, conversationID string) (*models.Conversation, error)
	GetConversation(ctx context.Context, userID int64, conversationID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID int64) ([]*models.Conversation, error)
	GetMessages(ctx context.Context, conversationDBID int64) ([]*models.Message, error)
	AppendMessage(ctx context.Context, conversationDBID int64, msg *models.Message) error
	UpdateCriteria(ctx context.Context, conversationDBID int64, criteria models.Criteria) error
	UpdateTitle(ctx context.Context, conversationDBID int64, title string) error
	SoftDeleteConversation(ctx context.Context, userID int64, conversationID string) error
	SoftDeleteAllConversations(ctx context.Context, userID int64) (int64, error)
}

// ConversationService defines conversation management operations.
type ConversationService interface {
	Create(ctx context.Context, userID int64, conversationID string) (*models.Conversation, error)
	Get(ctx context.Context, userID int64, conversationID string) (*models.Conversation, error)
	List(ctx context.Context, userID int64) ([]*models.Conversation, error)
	AppendMessage(ctx context.Context, userID int64, conversationID string, role models.MessageRole, content string) (*models.Message, error)
	UpdateContext(ctx context.Context, userID int64, conversationID string, criteria models.Criteria) error
	UpdateTitle(ctx context.Context, userID int64, conversationID, title string) error
	Delete(ctx context.Context, userID int64, conversationID string) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
}

// conversationServiceImpl implements the ConversationService interface
type conversationServiceImpl struct {
	store  ConversationStore
	logger zerolog.Logger
}

// NewConversationService creates a new conversation service instance
func NewConversationService(store ConversationStore, logger zerolog.Logger) ConversationService {
	return &conversationServiceImpl{
		store:  store,
		logger: logger.With().Str("component", "conversation_service").Logger(),
	}
}

// NewConversationID generates a server-side conversation identifier.
func NewConversationID() string {
	return "conv_" + uuid.NewString()
}

// NewMessageID generates a message identifier.
func NewMessageID() string {
	return "msg_" + uuid.NewString()
}

// mapStoreError translates repository sentinels into the service error
// vocabulary controllers dispatch on.
func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrConversationNotFound):
		return apperrors.ErrConversationNotFound
	case errors.Is(err, repositories.ErrConversationAccessDenied):
		return apperrors.ErrPermissionDenied
	case errors.Is(err, repositories.ErrConversationAlreadyExists):
		return apperrors.NewConflictError("conversation id already exists")
	default:
		return apperrors.NewPersistenceError("conversation store failure", err)
	}
}

// Create starts a conversation. An empty conversationID gets a generated one.
func (s *conversationServiceImpl) Create(ctx context.Context, userID int64, conversationID string) (*models.Conversation, error) {
	if conversationID == "" {
		conversationID = NewConversationID()
	}

	conv, err := s.store.CreateConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.logger.Info().Int64("userID", userID).Str("conversationID", conversationID).Msg("Conversation created")
	return conv, nil
}

// Get loads a conversation with its full transcript.
func (s *conversationServiceImpl) Get(ctx context.Context, userID int64, conversationID string) (*models.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	messages, err := s.store.GetMessages(ctx, conv.ID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	conv.Messages = messages

	return conv, nil
}

// List returns the user's conversations, most recently updated first.
func (s *conversationServiceImpl) List(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	conversations, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return conversations, nil
}

// AppendMessage appends a plain text message without running the advisor
// pipeline. Used by clients that restore transcripts.
func (s *conversationServiceImpl) AppendMessage(ctx context.Context, userID int64, conversationID string, role models.MessageRole, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content cannot be empty", apperrors.ErrValidationFailed)
	}

	conv, err := s.store.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	msg := &models.Message{
		MessageID: NewMessageID(),
		Role:      role,
		Content:   content,
		Type:      models.MessageTypeText,
	}
	if err := s.store.AppendMessage(ctx, conv.ID, msg); err != nil {
		return nil, mapStoreError(err)
	}

	return msg, nil
}

// UpdateContext replaces the accumulated criteria wholesale.
func (s *conversationServiceImpl) UpdateContext(ctx context.Context, userID int64, conversationID string, criteria models.Criteria) error {
	criteria.NormalizeKeywords()

	conv, err := s.store.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return mapStoreError(err)
	}

	if err := s.store.UpdateCriteria(ctx, conv.ID, criteria); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// UpdateTitle sets a conversation title chosen by the user.
func (s *conversationServiceImpl) UpdateTitle(ctx context.Context, userID int64, conversationID, title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title cannot be empty", apperrors.ErrValidationFailed)
	}

	conv, err := s.store.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return mapStoreError(err)
	}

	if err := s.store.UpdateTitle(ctx, conv.ID, title); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// Delete soft deletes one conversation.
func (s *conversationServiceImpl) Delete(ctx context.Context, userID int64, conversationID string) error {
	if err := s.store.SoftDeleteConversation(ctx, userID, conversationID); err != nil {
		return mapStoreError(err)
	}
	s.logger.Info().Int64("userID", userID).Str("conversationID", conversationID).Msg("Conversation deleted")
	return nil
}

// DeleteAll soft deletes every conversation of the user and returns how many
// were affected.
func (s *conversationServiceImpl) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	count, err := s.store.SoftDeleteAllConversations(ctx, userID)
	if err != nil {
		return 0, mapStoreError(err)
	}
	s.logger.Info().Int64("userID", userID).Int64("count", count).Msg("All conversations deleted")
	return count, nil
}
