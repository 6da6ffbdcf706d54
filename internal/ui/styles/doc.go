// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling for the tibo TUI.

All colors are Lip Gloss AdaptiveColor values, so the same palette works on
light and dark terminals.

# Color System (colors.go)

  - Purple: assistant replies, focused fields
  - Cyan: brand, user turns, key hints
  - Emerald: confirmed sales, backend online
  - Amber: system notices, executing state
  - Rose: errors, backend offline

# Theme System (theme.go)

NewTheme detects the terminal with termenv; NewThemeFor forces a mode from
config ("auto", "dark" or "light"):

	theme := styles.NewThemeFor(cfg.UI.Theme)
	card := theme.Card.Render(body)

Theme.SetSize feeds the responsive layout (GetLayoutMode).
*/
package styles
