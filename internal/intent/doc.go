// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package intent turns backend responses into a closed set of user intents.
//
// Every entry point of Normalizer returns exactly one of four variants, and
// never nil:
//
//   - Sale: an editable draft seed built from a sale order
//   - Restock: a read-only proposal built from the first restock item
//   - Unresolved: the backend answered but the order type is unknown
//   - Failed: the backend reported an error, or the request never completed
//
// Each variant carries the user-facing summary (in Spanish) that becomes the
// assistant's reply. Sale and Restock additionally produce an Action, the
// card the user can tap to act on the proposal.
//
// # Usage
//
//	n := intent.NewNormalizer(intent.WithLogger(log))
//	resp, err := client.ProcessText(ctx, text)
//	in := n.Resolve(ctx, resp, err, intent.SourceText)
//	action := intent.ActionFor(in)
package intent
