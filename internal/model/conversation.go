// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/tibo-tui/internal/intent"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the append-only message log of one session.
//
// Messages are never edited, removed or reordered once appended. Readers get
// clones, so nothing outside the log can mutate an entry. The log has no size
// cap.
type Conversation struct {
	ID        string
	CreatedAt time.Time

	mu        sync.RWMutex
	messages  []Message
	updatedAt time.Time
}

// NewConversation creates an empty log with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        "conv_" + uuid.NewString(),
		CreatedAt: now,
		updatedAt: now,
		messages:  make([]Message, 0),
	}
}

// =============================================================================
// APPEND
// =============================================================================

// Append adds msg to the end of the log and returns the stored copy. Missing
// ID and timestamp are filled in.
func (c *Conversation) Append(msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	stored := msg.Clone()

	c.mu.Lock()
	c.messages = append(c.messages, stored)
	c.updatedAt = stored.Timestamp
	c.mu.Unlock()

	return stored.Clone()
}

// AppendUser appends a user message.
func (c *Conversation) AppendUser(content string) Message {
	return c.Append(NewUserMessage(content))
}

// AppendAssistant appends the reply for a resolved intent with its action.
func (c *Conversation) AppendAssistant(in intent.Intent, action *intent.Action) Message {
	return c.Append(NewAssistantMessage(in, action))
}

// AppendSystem appends a system notice.
func (c *Conversation) AppendSystem(content string) Message {
	return c.Append(NewSystemMessage(content))
}

// =============================================================================
// READ
// =============================================================================

// All returns the messages in insertion order. The sequence is lazy and can
// be ranged over any number of times; each pass sees the log as it is when
// the pass reaches each index.
func (c *Conversation) All() iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for i := 0; ; i++ {
			c.mu.RLock()
			if i >= len(c.messages) {
				c.mu.RUnlock()
				return
			}
			msg := c.messages[i].Clone()
			c.mu.RUnlock()

			if !yield(msg) {
				return
			}
		}
	}
}

// Messages returns a cloned slice of the log.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Message, len(c.messages))
	for i, msg := range c.messages {
		out[i] = msg.Clone()
	}
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// IsEmpty returns true if nothing has been appended.
func (c *Conversation) IsEmpty() bool {
	return c.Len() == 0
}

// UpdatedAt returns the timestamp of the last append.
func (c *Conversation) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// Last returns the most recent message.
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1].Clone(), true
}

// LastAssistant returns the most recent assistant message.
func (c *Conversation) LastAssistant() (Message, bool) {
	return c.lastWithRole(RoleAssistant)
}

// LastUser returns the most recent user message.
func (c *Conversation) LastUser() (Message, bool) {
	return c.lastWithRole(RoleUser)
}

func (c *Conversation) lastWithRole(role Role) (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == role {
			return c.messages[i].Clone(), true
		}
	}
	return Message{}, false
}

// FindAction returns the message carrying the action with the given ID.
func (c *Conversation) FindAction(actionID string) (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := len(c.messages) - 1; i >= 0; i-- {
		if a := c.messages[i].Action; a != nil && a.ID == actionID {
			return c.messages[i].Clone(), true
		}
	}
	return Message{}, false
}

// Actions returns every action in the log, oldest first.
func (c *Conversation) Actions() []*intent.Action {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*intent.Action
	for _, msg := range c.messages {
		if msg.Action != nil {
			out = append(out, msg.Action.Clone())
		}
	}
	return out
}

// =============================================================================
// METADATA
// =============================================================================

// Title is derived from the first user message.
func (c *Conversation) Title() string {
	for msg := range c.All() {
		if msg.Role == RoleUser {
			return msg.Preview(50)
		}
	}
	return "Nueva conversación"
}

// ConversationMeta holds lightweight metadata for export headers.
type ConversationMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	ActionCount  int       `json:"action_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GetMeta returns metadata about the conversation.
func (c *Conversation) GetMeta() ConversationMeta {
	return ConversationMeta{
		ID:           c.ID,
		Title:        c.Title(),
		MessageCount: c.Len(),
		ActionCount:  len(c.Actions()),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt(),
	}
}
