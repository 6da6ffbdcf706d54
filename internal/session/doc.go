// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session coordinates one ordering conversation.
//
// A Session is the single writer for the conversation log and the action
// lifecycle. Renderers never mutate either directly: they submit input, route
// card taps and edits through the Session, and draw from Snapshot.
//
// # Key Types
//
//   - Session: wires the backend client, normalizer, log, lifecycle and capturer
//   - Request: an accepted submission waiting for its backend round trip
//   - Outcome: the raw result of Fetch, applied on the writer with Apply
//   - Snapshot: read-only projection for renderers
//
// # Usage
//
// Sequential callers (the REPL, one-shot commands) use the Submit helpers:
//
//	s := session.New(backend.NewClient())
//	msg, err := s.SubmitText(ctx, "3 tomates a 100 para Ana")
//
// Event-loop callers split the round trip so the network call runs off-loop:
//
//	req, err := s.BeginText(text)   // on the loop
//	out := s.Fetch(ctx, req)        // in a goroutine
//	msg := s.Apply(out)             // back on the loop
package session
