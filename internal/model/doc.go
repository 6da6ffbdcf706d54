// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation log and its messages.
//
// # Key Types
//
//   - Conversation: append-only, ordered log of one session
//   - Message: user text, assistant reply (optionally with an action card) or system notice
//   - Role: user, assistant, system
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.AppendUser("vendí 2 coca a Juan")
//	conv.AppendAssistant(in, intent.ActionFor(in))
//	for msg := range conv.All() {
//	    fmt.Println(msg.Role.DisplayName(), msg.Content)
//	}
package model
