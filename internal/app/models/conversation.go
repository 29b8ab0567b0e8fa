package models

import "time"

// MessageRole identifies who authored a conversation message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// MessageType distinguishes plain text replies from recommendation replies
type MessageType string

const (
	MessageTypeText           MessageType = "text"
	MessageTypeRecommendation MessageType = "recommendation"
)

// TitleMaxRunes is the truncation point for conversation titles derived
// from the first user message.
const TitleMaxRunes = 20

// Conversation is one advising session for a user. Criteria accumulates
// across turns; Messages are append-only in creation order.
type Conversation struct {
	ID             int64     `json:"-" db:"id"`
	ConversationID string    `json:"conversationId" db:"conversation_id"`
	UserID         int64     `json:"userId" db:"user_id"`
	Title          string    `json:"title" db:"title"`
	Criteria       Criteria  `json:"context" db:"criteria"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Messages []*Message `json:"messages,omitempty"`
}

// Message is a single conversation entry. Immutable once appended.
type Message struct {
	ID             int64                  `json:"-" db:"id"`
	MessageID      string                 `json:"messageId" db:"message_id"`
	ConversationID int64                  `json:"-" db:"conversation_id"`
	Role           MessageRole            `json:"role" db:"role"`
	Content        string                 `json:"content" db:"content"`
	Type           MessageType            `json:"type" db:"message_type"`
	Courses        []CourseRecommendation `json:"courses,omitempty" db:"courses"`
	CreatedAt      time.Time              `json:"createdAt" db:"created_at"`
}

// CourseRecommendation is the snapshot of one recommended course as shown to
// the user, stored verbatim with the assistant message that carried it.
type CourseRecommendation struct {
	CourseID      int64    `json:"courseId"`
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Credits       float64  `json:"credits"`
	Type          string   `json:"type"`
	FacultyName   string   `json:"facultyName"`
	TeacherName   string   `json:"teacherName"`
	AverageRating *float64 `json:"averageRating,omitempty"`
	ReviewCount   *int     `json:"reviewCount,omitempty"`
	MatchScore    float64  `json:"matchScore"`
	Reason        string   `json:"reason"`
}

// DeriveTitle builds a conversation title from the first user message,
// truncating long messages at TitleMaxRunes runes with an ellipsis marker.
func DeriveTitle(firstMessage string) string {
	runes := []rune(firstMessage)
	if len(runes) <= TitleMaxRunes {
		return firstMessage
	}
	return string(runes[:TitleMaxRunes]) + "..."
}
