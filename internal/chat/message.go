package chat

import (
	"errors"
	"fmt"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one conversation turn as received from the widget.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	maxTurns         = 50
	maxContentLength = 4000
)

var ErrEmptyConversation = errors.New("conversation has no messages")

// ValidateConversation checks the inbound turn list. System turns are
// rejected: the server owns the system prompt.
func ValidateConversation(messages []Message) error {
	if len(messages) == 0 {
		return ErrEmptyConversation
	}
	if len(messages) > maxTurns {
		return fmt.Errorf("conversation too long: %d turns (max %d)", len(messages), maxTurns)
	}
	for i, m := range messages {
		switch m.Role {
		case RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("message %d: unsupported role %q", i, m.Role)
		}
		if m.Content == "" {
			return fmt.Errorf("message %d: empty content", i)
		}
		if len(m.Content) > maxContentLength {
			return fmt.Errorf("message %d: content exceeds %d bytes", i, maxContentLength)
		}
	}
	return nil
}
