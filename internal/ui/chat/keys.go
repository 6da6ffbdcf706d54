// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the ordering screen.
type KeyMap struct {
	Submit     key.Binding
	Record     key.Binding
	FocusCards key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Open       key.Binding
	Back       key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	AddItem    key.Binding
	RemoveItem key.Binding
	Confirm    key.Binding
	CancelSale key.Binding
	Export     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "enviar"),
		),
		Record: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "grabar / detener"),
		),
		FocusCards: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "tarjetas"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "anterior"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "siguiente"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "subir"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "bajar"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "editar tarjeta"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "tab"),
			key.WithHelp("Esc", "volver"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down", "enter"),
			key.WithHelp("Tab/↓", "campo siguiente"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-Tab/↑", "campo anterior"),
		),
		AddItem: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "agregar producto"),
		),
		RemoveItem: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "quitar producto"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "confirmar venta"),
		),
		CancelSale: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancelar venta"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "exportar"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "ayuda"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "salir"),
		),
	}
}

// =============================================================================
// HELP VIEWS
// =============================================================================

// helpKeyMap adapts KeyMap to help.KeyMap for the current focus.
type helpKeyMap struct {
	keys  KeyMap
	focus focusArea
}

// ShortHelp returns the bindings shown in the one-line help.
func (h helpKeyMap) ShortHelp() []key.Binding {
	k := h.keys
	switch h.focus {
	case focusCards:
		return []key.Binding{k.Up, k.Down, k.Open, k.Back, k.Help}
	case focusEditor:
		return []key.Binding{k.NextField, k.AddItem, k.RemoveItem, k.Confirm, k.CancelSale}
	default:
		return []key.Binding{k.Submit, k.Record, k.FocusCards, k.Help, k.Quit}
	}
}

// FullHelp returns the grouped bindings shown in the expanded help.
func (h helpKeyMap) FullHelp() [][]key.Binding {
	k := h.keys
	return [][]key.Binding{
		{k.Submit, k.Record, k.FocusCards, k.Export},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Open},
		{k.NextField, k.PrevField, k.AddItem, k.RemoveItem},
		{k.Confirm, k.CancelSale, k.Help, k.Quit},
	}
}
