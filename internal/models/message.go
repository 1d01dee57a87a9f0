package models

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	// RoleUser represents a message typed by the panel user. User messages are
	// immutable once appended and never carry an id.
	RoleUser Role = "user"
	// RoleAssistant represents a model-generated message. An assistant message
	// starts as an empty loading placeholder and is mutated in place while the
	// backend streams into it.
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single entry in a session transcript. ID is set only on
// assistant messages so that later update events can address them; user
// messages marshal without an id. Loading reports whether the backend is
// still streaming into the message.
type ChatMessage struct {
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Loading bool   `json:"loading,omitempty"`

	// Timestamp orders messages in exports; it is not part of the wire shape.
	Timestamp time.Time `json:"-"`
}
