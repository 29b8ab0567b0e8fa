package dto

import (
	"github.com/liuwen/courseadvisor/internal/app/models"
)

// --- Request DTOs ---

// ChatRequest represents one chat turn from the user. ConversationID is
// optional; when absent a new conversation is started.
type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversationId"`
}

// --- Response DTOs ---

// Chat reply types
const (
	ReplyTypeText           = "text"
	ReplyTypeRecommendation = "recommendation"
)

// ChatReplyResponse is the assistant's answer to one chat turn
type ChatReplyResponse struct {
	ConversationID string                      `json:"conversationId"`
	Type           string                      `json:"type"`
	Content        string                      `json:"content"`
	Courses        []RecommendedCourseResponse `json:"courses,omitempty"`
	UpdatedContext models.Criteria             `json:"updatedContext"`
}

// AdvisorStatusResponse reports whether the LLM-backed pipeline is live.
// The service works either way; degraded means deterministic fallbacks.
type AdvisorStatusResponse struct {
	Available bool   `json:"available"`
	Model     string `json:"model,omitempty"`
	Message   string `json:"message"`
}
