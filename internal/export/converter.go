// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"time"

	"github.com/jeranaias/tibo-tui/internal/intent"
	"github.com/jeranaias/tibo-tui/internal/lifecycle"
	"github.com/jeranaias/tibo-tui/internal/model"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the exported form of a conversation.
type Transcript struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Summary   TranscriptSummary   `json:"summary"`
	Messages  []TranscriptMessage `json:"messages"`
}

// TranscriptSummary counts what happened in the conversation.
type TranscriptSummary struct {
	Messages          int `json:"messages"`
	SalesProposed     int `json:"sales_proposed"`
	RestocksProposed  int `json:"restocks_proposed"`
	SalesConfirmed    int `json:"sales_confirmed"`
	SalesCancelled    int `json:"sales_cancelled"`
	FailedRequests    int `json:"failed_requests"`
	UnresolvedReplies int `json:"unresolved_replies"`
}

// TranscriptMessage is one exported turn.
type TranscriptMessage struct {
	ID         string         `json:"id"`
	Role       model.Role     `json:"role"`
	Timestamp  time.Time      `json:"timestamp"`
	Content    string         `json:"content"`
	IntentKind intent.Kind    `json:"intent_kind,omitempty"`
	Action     *intent.Action `json:"action,omitempty"`
}

// FromConversation copies conv into a Transcript.
func FromConversation(conv *model.Conversation) *Transcript {
	if conv == nil {
		return nil
	}

	t := &Transcript{
		ID:        conv.ID,
		Title:     conv.Title(),
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt(),
	}

	for msg := range conv.All() {
		t.Messages = append(t.Messages, TranscriptMessage{
			ID:         msg.ID,
			Role:       msg.Role,
			Timestamp:  msg.Timestamp,
			Content:    msg.Content,
			IntentKind: msg.IntentKind,
			Action:     msg.Action,
		})
		t.Summary.count(msg)
	}
	t.Summary.Messages = len(t.Messages)
	return t
}

func (s *TranscriptSummary) count(msg model.Message) {
	switch msg.Role {
	case model.RoleAssistant:
		switch msg.IntentKind {
		case intent.KindSale:
			s.SalesProposed++
		case intent.KindRestock:
			s.RestocksProposed++
		case intent.KindFailed:
			s.FailedRequests++
		case intent.KindUnresolved:
			s.UnresolvedReplies++
		}
	case model.RoleSystem:
		switch msg.Content {
		case lifecycle.MsgSaleCompleted:
			s.SalesConfirmed++
		case lifecycle.MsgSaleCancelled:
			s.SalesCancelled++
		}
	}
}
