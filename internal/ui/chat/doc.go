// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen ordering TUI.

The chat Model is a Bubble Tea model over a session.Session. It never holds
conversation or draft state of its own: every frame is drawn from
Session.Snapshot, and every user action goes through the Session.

# Key Components

## Model (model.go)

Holds the Bubble Tea components (viewport, text input, spinner, help) and the
current focus: the input line, the card list or the draft editor.

## Update Loop (update.go)

  - Enter submits text; the backend call runs in a tea.Cmd and comes back as
    a responseMsg that is applied on the loop
  - Ctrl+R starts and stops voice capture when the recorder probed OK
  - Tab moves to the cards; Enter on a sale card opens the editor
  - In the editor, Ctrl+S confirms (completion arrives via tea.Tick after the
    configured delay) and Esc cancels
  - The backend status line refreshes on a timer from /health and /stats

## Draft Editor (editor.go)

A single text input edits the focused field. Every keystroke is written to
the draft store, so the total on screen is always the recomputed one.

## View Rendering (view.go)

Header, message list with sale/restock cards, editor panel, input line and
status bar, styled by ui/styles.
*/
package chat
