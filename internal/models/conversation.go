package models

import (
	"time"
)

// Role identifies the sender of a message. It is a closed set: anything
// other than the two constants below is rejected at the boundary.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the two known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Conversation represents a chat conversation owned by a single user
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index;type:uuid" json:"user_id"`
	Title     string    `gorm:"type:text" json:"title"`
	Model     string    `gorm:"type:text" json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message represents one message inside a conversation. Index is 0-based
// and assigned at insertion time; assistant messages start empty and are
// rewritten while streaming progresses.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"index" json:"conversation_id"`
	Index          int       `gorm:"column:index" json:"index"`
	Role           Role      `gorm:"type:text" json:"role"`
	Content        string    `gorm:"type:text" json:"content"`
	Model          string    `gorm:"type:text" json:"model,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// ConversationCreateRequest is the request structure for creating a conversation
type ConversationCreateRequest struct {
	Title string `json:"title"`
	Model string `json:"model"`
}

// ConversationUpdateRequest is the request structure for patching a conversation
type ConversationUpdateRequest struct {
	Title *string `json:"title"`
	Model *string `json:"model"`
}

// ConversationSearchResult groups a conversation with its matching messages
type ConversationSearchResult struct {
	Conversation     Conversation `json:"conversation"`
	MatchingMessages []Message    `json:"matching_messages"`
}
