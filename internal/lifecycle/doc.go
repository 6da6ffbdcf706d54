// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lifecycle drives a proposed action from proposal to completion.
//
//	Idle ──Propose──▶ Proposed ──Select──▶ Editing ──Confirm──▶ Executing
//	  ▲                                      │                    │
//	  └──────────────Cancel──────────────────┘◀───Complete────────┘
//
// The Machine owns the draft store and is the store's gate: a draft can only
// be opened while the machine is Editing. Transitions requested from a state
// that does not define them are ignored and logged, never returned as errors,
// with two exceptions on Select: an unknown action ID and a restock card,
// which has no edit flow.
//
// Confirm does not wait. It returns an Execution whose Delay the caller
// schedules (tea.Tick, time.Sleep) before calling Complete. Nothing the user
// does in between can abort it.
package lifecycle
