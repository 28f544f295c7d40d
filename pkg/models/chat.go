package models

import "time"

// ChatRole is the author of a chat turn, in the LLM's vocabulary
type ChatRole string

const (
	RoleUser    ChatRole = "user"
	RoleModel   ChatRole = "model"
	RoleUnknown ChatRole = ""
)

// ParseChatRole maps a stored role string to a ChatRole.
// Legacy "assistant" rows are read as model turns.
func ParseChatRole(s string) ChatRole {
	switch s {
	case "user":
		return RoleUser
	case "model", "assistant":
		return RoleModel
	default:
		return RoleUnknown
	}
}

// ChatMessage is a persisted chat history row
type ChatMessage struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Role      string    `json:"role" db:"role"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Turn is one prior message handed to the LLM
type Turn struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}
