// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package draft holds the editable sale draft derived from a sale intent.
//
// A Store owns at most one SaleDraft at a time. The draft can only be opened
// while an edit session is active (see Gate); once open it is mutated through
// the Store and read back as cloned snapshots, so renderers never alias the
// live line items.
//
// # Key Types
//
//   - LineItem: one product/quantity/unit price row
//   - SaleDraft: date, client, line items, container cost and provenance
//   - Store: the single in-flight draft with mutation operations
//   - Field: which line item field an update targets
//
// # Totals
//
// Totals are never cached. Every call to SaleDraft.Total or Store.Total walks
// the current line items:
//
//	total = containerCost + Σ(quantity × unitPrice)
//
// Arithmetic uses shopspring/decimal so that 0.1 + 0.2 stays 0.3.
//
// # Input Coercion
//
// Values typed by the user arrive as strings. CoerceQuantity keeps the leading
// integer and CoercePrice the leading decimal number; anything unparsable is 0.
// Negative values pass through unchanged.
package draft
