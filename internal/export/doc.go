// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes audit transcripts of an ordering conversation.
//
// A transcript records every turn in order together with the sale and restock
// cards that were proposed, and counts how many sales were confirmed or
// cancelled. Exports are write-only; nothing here reads them back.
//
// # Key Types
//
//   - Transcript: flattened, immutable copy of a model.Conversation
//   - Exporter: format interface (Markdown, JSON)
//   - Options: output directory and detail switches
//
// # Usage
//
//	path, err := export.Export(conv, export.FormatMarkdown, export.DefaultOptions())
package export
