package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liuwen/courseadvisor/internal/app/models"
	"github.com/liuwen/courseadvisor/internal/pkg/logger"
)

// Conversation error types
var (
	// ErrConversationNotFound is returned when a conversation is missing or soft deleted.
	ErrConversationNotFound = ErrNotFound
	// ErrConversationAccessDenied is returned when a conversation belongs to another user.
	ErrConversationAccessDenied = errors.New("conversation belongs to another user")
	// ErrConversationAlreadyExists is returned when the client-supplied conversation id is taken.
	ErrConversationAlreadyExists = errors.New("conversation id already exists")
)

// ConversationRepository handles conversation and message database operations.
// Conversations are soft deleted; messages are append-only.
type ConversationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateConversation inserts a conversation with empty criteria.
func (r *ConversationRepository) CreateConversation(ctx context.Context, userID int64, conversationID string) (*models.Conversation, error) {
	sql, args, err := r.sb.Insert("conversations").
		Columns("conversation_id", "user_id", "title", "criteria").
		Values(conversationID, userID, "", []byte("{}")).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building create conversation SQL")
		return nil, fmt.Errorf("failed to build create conversation query: %w", err)
	}

	conv := &models.Conversation{
		ConversationID: conversationID,
		UserID:         userID,
	}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrConversationAlreadyExists
		}
		logger.Error().Err(err).Str("conversationID", conversationID).Msg("Error executing create conversation query")
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	return conv, nil
}

// GetConversation loads one live conversation and verifies ownership.
// Messages are not loaded; use GetMessages for the transcript.
func (r *ConversationRepository) GetConversation(ctx context.Context, userID int64, conversationID string) (*models.Conversation, error) {
	sql, args, err := r.sb.Select("id", "conversation_id", "user_id", "title", "criteria", "created_at", "updated_at").
		From("conversations").
		Where(squirrel.Eq{"conversation_id": conversationID, "is_deleted": false}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get conversation SQL")
		return nil, fmt.Errorf("failed to build get conversation query: %w", err)
	}

	conv := &models.Conversation{}
	var criteriaJSON []byte
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&conv.ID, &conv.ConversationID, &conv.UserID, &conv.Title, &criteriaJSON,
		&conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		logger.Error().Err(err).Str("conversationID", conversationID).Msg("Error scanning conversation row")
		return nil, fmt.Errorf("error getting conversation: %w", err)
	}

	if conv.UserID != userID {
		return nil, ErrConversationAccessDenied
	}

	if err := json.Unmarshal(criteriaJSON, &conv.Criteria); err != nil {
		logger.Error().Err(err).Str("conversationID", conversationID).Msg("Error decoding stored criteria")
		return nil, fmt.Errorf("error decoding criteria: %w", err)
	}

	return conv, nil
}

// ListConversations returns the user's live conversations, most recently
// updated first, without messages.
func (r *ConversationRepository) ListConversations(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	sql, args, err := r.sb.Select("id", "conversation_id", "user_id", "title", "criteria", "created_at", "updated_at").
		From("conversations").
		Where(squirrel.Eq{"user_id": userID, "is_deleted": false}).
		OrderBy("updated_at DESC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list conversations SQL")
		return nil, fmt.Errorf("failed to build list conversations query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing list conversations query")
		return nil, fmt.Errorf("error querying conversations: %w", err)
	}
	defer rows.Close()

	conversations := []*models.Conversation{}
	for rows.Next() {
		conv := &models.Conversation{}
		var criteriaJSON []byte
		if err := rows.Scan(
			&conv.ID, &conv.ConversationID, &conv.UserID, &conv.Title, &criteriaJSON,
			&conv.CreatedAt, &conv.UpdatedAt); err != nil {
			logger.Error().Err(err).Msg("Error scanning conversation row during list")
			return nil, fmt.Errorf("error scanning conversation row: %w", err)
		}
		if err := json.Unmarshal(criteriaJSON, &conv.Criteria); err != nil {
			logger.Error().Err(err).Str("conversationID", conv.ConversationID).Msg("Error decoding stored criteria")
			return nil, fmt.Errorf("error decoding criteria: %w", err)
		}
		conversations = append(conversations, conv)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating conversation rows")
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}

	return conversations, nil
}

// GetMessages returns a conversation's messages in creation order.
func (r *ConversationRepository) GetMessages(ctx context.Context, conversationDBID int64) ([]*models.Message, error) {
	sql, args, err := r.sb.Select("id", "message_id", "conversation_id", "role", "content", "message_type", "courses", "created_at").
		From("messages").
		Where(squirrel.Eq{"conversation_id": conversationDBID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get messages SQL")
		return nil, fmt.Errorf("failed to build get messages query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("conversationDBID", conversationDBID).Msg("Error executing get messages query")
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		msg := &models.Message{}
		var coursesJSON []byte
		if err := rows.Scan(
			&msg.ID, &msg.MessageID, &msg.ConversationID, &msg.Role, &msg.Content,
			&msg.Type, &coursesJSON, &msg.CreatedAt); err != nil {
			logger.Error().Err(err).Msg("Error scanning message row")
			return nil, fmt.Errorf("error scanning message row: %w", err)
		}
		if len(coursesJSON) > 0 {
			if err := json.Unmarshal(coursesJSON, &msg.Courses); err != nil {
				logger.Error().Err(err).Str("messageID", msg.MessageID).Msg("Error decoding stored courses")
				return nil, fmt.Errorf("error decoding message courses: %w", err)
			}
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating message rows")
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}

	return messages, nil
}

// AppendMessage inserts a message and bumps the conversation's updated_at.
func (r *ConversationRepository) AppendMessage(ctx context.Context, conversationDBID int64, msg *models.Message) error {
	var coursesJSON []byte
	if len(msg.Courses) > 0 {
		var err error
		coursesJSON, err = json.Marshal(msg.Courses)
		if err != nil {
			return fmt.Errorf("error encoding message courses: %w", err)
		}
	}

	sql, args, err := r.sb.Insert("messages").
		Columns("message_id", "conversation_id", "role", "content", "message_type", "courses").
		Values(msg.MessageID, conversationDBID, msg.Role, msg.Content, msg.Type, coursesJSON).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building append message SQL")
		return fmt.Errorf("failed to build append message query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		logger.Error().Err(err).Int64("conversationDBID", conversationDBID).Msg("Error executing append message query")
		return fmt.Errorf("error appending message: %w", err)
	}
	msg.ConversationID = conversationDBID

	return r.touchConversation(ctx, conversationDBID)
}

// UpdateCriteria replaces the stored criteria wholesale.
func (r *ConversationRepository) UpdateCriteria(ctx context.Context, conversationDBID int64, criteria models.Criteria) error {
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return fmt.Errorf("error encoding criteria: %w", err)
	}

	sql, args, err := r.sb.Update("conversations").
		SetMap(map[string]interface{}{
			"criteria":   criteriaJSON,
			"updated_at": squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": conversationDBID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update criteria SQL")
		return fmt.Errorf("failed to build update criteria query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("conversationDBID", conversationDBID).Msg("Error executing update criteria query")
		return fmt.Errorf("error updating criteria: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}

	return nil
}

// UpdateTitle sets the conversation title.
func (r *ConversationRepository) UpdateTitle(ctx context.Context, conversationDBID int64, title string) error {
	sql, args, err := r.sb.Update("conversations").
		SetMap(map[string]interface{}{
			"title":      title,
			"updated_at": squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": conversationDBID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update title SQL")
		return fmt.Errorf("failed to build update title query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("conversationDBID", conversationDBID).Msg("Error executing update title query")
		return fmt.Errorf("error updating title: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}

	return nil
}

// SoftDeleteConversation hides a conversation from all reads. Ownership is
// enforced by the WHERE clause so a foreign id comes back as not found.
func (r *ConversationRepository) SoftDeleteConversation(ctx context.Context, userID int64, conversationID string) error {
	sql, args, err := r.sb.Update("conversations").
		SetMap(map[string]interface{}{
			"is_deleted": true,
			"updated_at": squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"conversation_id": conversationID, "user_id": userID, "is_deleted": false}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building soft delete conversation SQL")
		return fmt.Errorf("failed to build soft delete query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("conversationID", conversationID).Msg("Error executing soft delete query")
		return fmt.Errorf("error soft deleting conversation: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}

	return nil
}

// SoftDeleteAllConversations hides every conversation of one user.
func (r *ConversationRepository) SoftDeleteAllConversations(ctx context.Context, userID int64) (int64, error) {
	sql, args, err := r.sb.Update("conversations").
		SetMap(map[string]interface{}{
			"is_deleted": true,
			"updated_at": squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"user_id": userID, "is_deleted": false}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building soft delete all SQL")
		return 0, fmt.Errorf("failed to build soft delete all query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing soft delete all query")
		return 0, fmt.Errorf("error soft deleting conversations: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}

func (r *ConversationRepository) touchConversation(ctx context.Context, conversationDBID int64) error {
	sql, args, err := r.sb.Update("conversations").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": conversationDBID}).
		ToSql()

	if err != nil {
		return fmt.Errorf("failed to build touch conversation query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("conversationDBID", conversationDBID).Msg("Error touching conversation")
		return fmt.Errorf("error touching conversation: %w", err)
	}
	return nil
}
