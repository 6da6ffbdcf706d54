// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/tibo-tui/internal/intent"
	"github.com/jeranaias/tibo-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "Vos"
	case RoleAssistant:
		return "Tibo"
	case RoleSystem:
		return "Sistema"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry of the conversation log.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`

	// Action is the proposal card attached to an assistant reply, if any.
	Action *intent.Action `json:"action,omitempty"`

	// Intent kind that produced an assistant reply ("" otherwise).
	IntentKind intent.Kind `json:"intent_kind,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant reply for a resolved intent.
func NewAssistantMessage(in intent.Intent, action *intent.Action) Message {
	msg := NewMessage(RoleAssistant, in.Summary())
	msg.IntentKind = in.Kind()
	msg.Action = action.Clone()
	return msg
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Clone returns a deep copy; the attached action is copied too.
func (m Message) Clone() Message {
	m.Action = m.Action.Clone()
	return m
}

// HasAction reports whether a proposal card is attached.
func (m Message) HasAction() bool {
	return m.Action != nil
}

// Preview returns a width-bounded single line of the content.
func (m Message) Preview(maxWidth int) string {
	return util.TruncateWidth(util.SingleLine(m.Content), maxWidth)
}

// IsEmpty returns true if the message has no content.
func (m Message) IsEmpty() bool {
	return m.Content == ""
}

// FormattedTime returns the timestamp as HH:MM.
func (m Message) FormattedTime() string {
	return m.Timestamp.Format("15:04")
}
