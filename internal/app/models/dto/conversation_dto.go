package dto

import (
	"time"

	"github.com/liuwen/courseadvisor/internal/app/models"
)

// --- Request DTOs ---

// CreateConversationRequest represents data for creating a conversation.
// ConversationID is optional; the server generates one when absent.
type CreateConversationRequest struct {
	ConversationID string `json:"conversationId"`
}

// UpdateConversationTitleRequest represents a title change
type UpdateConversationTitleRequest struct {
	Title string `json:"title" binding:"required"`
}

// UpdateConversationContextRequest replaces the accumulated criteria
// wholesale. Unknown enum values are rejected, not silently dropped, since
// this is an explicit client edit rather than an extraction guess.
type UpdateConversationContextRequest struct {
	CourseType string   `json:"courseType"`
	Credits    *float64 `json:"credits"`
	Keywords   []string `json:"keywords"`
	Difficulty string   `json:"difficulty"`
	Faculty    string   `json:"faculty"`
	Teacher    string   `json:"teacher"`
}

// AppendMessageRequest represents a message appended directly to a
// conversation without running the advisor pipeline.
type AppendMessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// --- Response DTOs ---

// MessageResponse represents one conversation message
type MessageResponse struct {
	MessageID string                      `json:"messageId"`
	Role      string                      `json:"role"`
	Content   string                      `json:"content"`
	Type      string                      `json:"type"`
	Courses   []RecommendedCourseResponse `json:"courses,omitempty"`
	CreatedAt time.Time                   `json:"createdAt"`
}

// ConversationResponse represents a conversation summary
type ConversationResponse struct {
	ConversationID string          `json:"conversationId"`
	Title          string          `json:"title"`
	Context        models.Criteria `json:"context"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ConversationDetailResponse extends ConversationResponse with the transcript
type ConversationDetailResponse struct {
	ConversationResponse
	Messages []MessageResponse `json:"messages"`
}

// ConversationListResponse represents a user's conversations
type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

// ToMessageResponse transforms a models.Message to MessageResponse
func ToMessageResponse(message *models.Message) MessageResponse {
	response := MessageResponse{
		MessageID: message.MessageID,
		Role:      string(message.Role),
		Content:   message.Content,
		Type:      string(message.Type),
		CreatedAt: message.CreatedAt,
	}
	for _, rec := range message.Courses {
		response.Courses = append(response.Courses, ToRecommendedCourseResponse(rec))
	}
	return response
}

// ToConversationResponse transforms a models.Conversation to a summary
func ToConversationResponse(conv *models.Conversation) ConversationResponse {
	return ConversationResponse{
		ConversationID: conv.ConversationID,
		Title:          conv.Title,
		Context:        conv.Criteria,
		CreatedAt:      conv.CreatedAt,
		UpdatedAt:      conv.UpdatedAt,
	}
}

// ToConversationDetailResponse transforms a conversation with its transcript
func ToConversationDetailResponse(conv *models.Conversation) ConversationDetailResponse {
	response := ConversationDetailResponse{
		ConversationResponse: ToConversationResponse(conv),
		Messages:             make([]MessageResponse, 0, len(conv.Messages)),
	}
	for _, message := range conv.Messages {
		response.Messages = append(response.Messages, ToMessageResponse(message))
	}
	return response
}
