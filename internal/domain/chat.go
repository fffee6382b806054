package domain

import "encoding/json"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is the provider-agnostic chat message shape shared by the chat
// widget, the keyword router and LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IsConversational reports whether the role may appear in a visitor-facing
// conversation.
func IsConversational(role string) bool {
	return role == RoleUser || role == RoleAssistant
}

// ResponseSchema is a named JSON schema an LLM completion must conform to.
type ResponseSchema struct {
	Name   string
	Schema json.RawMessage
}
