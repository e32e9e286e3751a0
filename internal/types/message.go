package types

import (
	"strings"
	"time"
)

// Conversation roles, normalized at the ingestion boundary.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is the single normalized message representation. Upstream
// providers disagree on role vocabulary ("human", "ai", "model"); every
// message entering the system goes through NewChatMessage so the rest of
// the code never sniffs representations.
type ChatMessage struct {
	ID        int       `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChatMessage builds a normalized message for a session.
func NewChatMessage(sessionID, role, content string) ChatMessage {
	return ChatMessage{
		SessionID: sessionID,
		Role:      NormalizeRole(role),
		Content:   content,
	}
}

// NormalizeRole maps provider-specific role labels onto the three
// canonical roles. Unknown labels default to user.
func NormalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAssistant, "ai", "model":
		return RoleAssistant
	case RoleSystem:
		return RoleSystem
	default:
		return RoleUser
	}
}
