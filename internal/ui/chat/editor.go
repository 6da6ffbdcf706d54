// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tibo-tui/internal/draft"
)

// =============================================================================
// FIELDS
// =============================================================================

type fieldKind int

const (
	fieldDate fieldKind = iota
	fieldClient
	fieldContainer
	fieldItem
)

// fieldRef addresses one editable value of the draft.
type fieldRef struct {
	kind  fieldKind
	item  int
	field draft.Field
}

// label returns the field caption shown in the editor.
func (f fieldRef) label() string {
	switch f.kind {
	case fieldDate:
		return "Fecha"
	case fieldClient:
		return "Cliente"
	case fieldContainer:
		return "Envases"
	}
	switch f.field {
	case draft.FieldProduct:
		return fmt.Sprintf("Producto %d", f.item+1)
	case draft.FieldQuantity:
		return "  Cantidad"
	default:
		return "  Precio unit."
	}
}

// value reads the field from d.
func (f fieldRef) value(d draft.SaleDraft) string {
	switch f.kind {
	case fieldDate:
		return d.Date
	case fieldClient:
		return d.ClientName
	case fieldContainer:
		return d.ContainerCost.String()
	}
	if f.item < 0 || f.item >= len(d.LineItems) {
		return ""
	}
	item := d.LineItems[f.item]
	switch f.field {
	case draft.FieldProduct:
		return item.ProductName
	case draft.FieldQuantity:
		return item.Quantity.String()
	default:
		return item.UnitPrice.String()
	}
}

// apply writes raw input to the store.
func (f fieldRef) apply(s *draft.Store, raw string) error {
	switch f.kind {
	case fieldDate:
		return s.SetDate(raw)
	case fieldClient:
		return s.SetClientName(raw)
	case fieldContainer:
		return s.SetContainerCost(raw)
	default:
		return s.UpdateLineItem(f.item, f.field, raw)
	}
}

// fieldsFor lists the editable fields of d in display order.
func fieldsFor(d draft.SaleDraft) []fieldRef {
	fields := []fieldRef{{kind: fieldDate}, {kind: fieldClient}, {kind: fieldContainer}}
	for i := range d.LineItems {
		fields = append(fields,
			fieldRef{kind: fieldItem, item: i, field: draft.FieldProduct},
			fieldRef{kind: fieldItem, item: i, field: draft.FieldQuantity},
			fieldRef{kind: fieldItem, item: i, field: draft.FieldUnitPrice},
		)
	}
	return fields
}

// =============================================================================
// EDITOR
// =============================================================================

// editor tracks focus within the open draft. The draft itself lives in the
// session's store.
type editor struct {
	fields []fieldRef
	index  int
	input  textinput.Model
}

func newEditor() editor {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 120
	return editor{input: ti}
}

// open resets focus to the first line item of d.
func (e *editor) open(d draft.SaleDraft) {
	e.fields = fieldsFor(d)
	e.index = 0
	if len(e.fields) > 3 {
		e.index = 3
	}
	e.load(d)
	e.input.Focus()
}

// close blurs the input.
func (e *editor) close() {
	e.input.Blur()
	e.fields = nil
}

// sync rebuilds the field list after items were added or removed, keeping
// focus in range.
func (e *editor) sync(d draft.SaleDraft) {
	e.fields = fieldsFor(d)
	if e.index >= len(e.fields) {
		e.index = len(e.fields) - 1
	}
	if e.index < 0 {
		e.index = 0
	}
	e.load(d)
}

// load copies the focused field's stored value into the input.
func (e *editor) load(d draft.SaleDraft) {
	if f, ok := e.focused(); ok {
		e.input.SetValue(f.value(d))
		e.input.CursorEnd()
	}
}

func (e *editor) focused() (fieldRef, bool) {
	if e.index < 0 || e.index >= len(e.fields) {
		return fieldRef{}, false
	}
	return e.fields[e.index], true
}

// move shifts focus by delta, wrapping around.
func (e *editor) move(delta int, d draft.SaleDraft) {
	if len(e.fields) == 0 {
		return
	}
	e.index = (e.index + delta + len(e.fields)) % len(e.fields)
	e.load(d)
}

// focusItem moves focus to the product field of item.
func (e *editor) focusItem(item int, d draft.SaleDraft) {
	for i, f := range e.fields {
		if f.kind == fieldItem && f.item == item && f.field == draft.FieldProduct {
			e.index = i
			break
		}
	}
	e.load(d)
}

// focusedItem returns the line item index under focus, or -1.
func (e *editor) focusedItem() int {
	f, ok := e.focused()
	if !ok || f.kind != fieldItem {
		return -1
	}
	return f.item
}

// update feeds a key to the input. changed reports whether the text changed.
func (e *editor) update(msg tea.Msg) (changed bool, cmd tea.Cmd) {
	before := e.input.Value()
	e.input, cmd = e.input.Update(msg)
	return e.input.Value() != before, cmd
}
