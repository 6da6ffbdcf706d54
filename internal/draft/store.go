// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package draft

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidState is returned by Open when no edit session is active.
	ErrInvalidState = errors.New("draft: no active edit session")

	// ErrNoActiveDraft is returned by mutations when nothing is open.
	ErrNoActiveDraft = errors.New("draft: no active draft")

	// ErrLastLineItem is returned when removing the only remaining line item.
	// The draft is left unchanged.
	ErrLastLineItem = errors.New("draft: a sale must keep at least one line item")
)

// =============================================================================
// FIELD
// =============================================================================

// Field identifies an editable LineItem field.
type Field int

const (
	FieldProduct Field = iota
	FieldQuantity
	FieldUnitPrice
)

// String returns the field name.
func (f Field) String() string {
	switch f {
	case FieldProduct:
		return "product"
	case FieldQuantity:
		return "quantity"
	case FieldUnitPrice:
		return "unit_price"
	default:
		return "unknown"
	}
}

// =============================================================================
// STORE
// =============================================================================

// Gate reports whether an edit session is currently active. The action
// lifecycle implements it; Open refuses to run without one.
type Gate interface {
	EditSessionActive() bool
}

// GateFunc adapts a function to Gate.
type GateFunc func() bool

// EditSessionActive implements Gate.
func (f GateFunc) EditSessionActive() bool { return f() }

// Store owns the single in-flight SaleDraft.
//
// Store is not safe for concurrent use; it is mutated only by the session's
// event dispatcher.
type Store struct {
	gate  Gate
	draft *SaleDraft
}

// NewStore creates an empty store guarded by gate.
func NewStore(gate Gate) *Store {
	return &Store{gate: gate}
}

// Open replaces any current draft with a copy of seed.
// Returns ErrInvalidState if the gate reports no active edit session.
func (s *Store) Open(seed SaleDraft) error {
	if s.gate == nil || !s.gate.EditSessionActive() {
		return ErrInvalidState
	}
	d := seed.Clone()
	if len(d.LineItems) == 0 {
		d.LineItems = append(d.LineItems, NewLineItem())
	}
	s.draft = &d
	return nil
}

// Close discards the draft. Subsequent reads report no active draft.
func (s *Store) Close() {
	s.draft = nil
}

// Active reports whether a draft is open.
func (s *Store) Active() bool {
	return s.draft != nil
}

// Current returns a snapshot of the open draft.
func (s *Store) Current() (SaleDraft, bool) {
	if s.draft == nil {
		return SaleDraft{}, false
	}
	return s.draft.Clone(), true
}

// ItemCount returns the number of line items, or 0 with no draft.
func (s *Store) ItemCount() int {
	if s.draft == nil {
		return 0
	}
	return len(s.draft.LineItems)
}

// =============================================================================
// LINE ITEM MUTATIONS
// =============================================================================

// AddLineItem appends a blank line item (quantity 1, price 0).
func (s *Store) AddLineItem() error {
	if s.draft == nil {
		return ErrNoActiveDraft
	}
	s.draft.LineItems = append(s.draft.LineItems, NewLineItem())
	return nil
}

// UpdateLineItem sets one field of the item at index from raw user input.
// Quantity and price are coerced (see CoerceQuantity, CoercePrice).
// An out of range index is a no-op.
func (s *Store) UpdateLineItem(index int, field Field, value string) error {
	if s.draft == nil {
		return ErrNoActiveDraft
	}
	if index < 0 || index >= len(s.draft.LineItems) {
		return nil
	}

	item := &s.draft.LineItems[index]
	switch field {
	case FieldProduct:
		item.ProductName = value
	case FieldQuantity:
		item.Quantity = CoerceQuantity(value)
	case FieldUnitPrice:
		item.UnitPrice = CoercePrice(value)
	}
	return nil
}

// RemoveLineItem removes the item at index. The last remaining item cannot be
// removed (ErrLastLineItem). An out of range index is a no-op.
func (s *Store) RemoveLineItem(index int) error {
	if s.draft == nil {
		return ErrNoActiveDraft
	}
	if len(s.draft.LineItems) <= 1 {
		return ErrLastLineItem
	}
	if index < 0 || index >= len(s.draft.LineItems) {
		return nil
	}
	items := s.draft.LineItems
	s.draft.LineItems = append(items[:index:index], items[index+1:]...)
	return nil
}

// =============================================================================
// HEADER MUTATIONS
// =============================================================================

// SetDate sets the sale date. The value is stored as typed.
func (s *Store) SetDate(date string) error {
	if s.draft == nil {
		return ErrNoActiveDraft
	}
	s.draft.Date = strings.TrimSpace(date)
	return nil
}

// SetClientName sets the client name. Empty is allowed.
func (s *Store) SetClientName(name string) error {
	if s.draft == nil {
		return ErrNoActiveDraft
	}
	s.draft.ClientName = name
	return nil
}

// SetContainerCost sets the container cost from raw user input.
func (s *Store) SetContainerCost(raw string) error {
	if s.draft == nil {
		return ErrNoActiveDraft
	}
	s.draft.ContainerCost = CoercePrice(raw)
	return nil
}

// =============================================================================
// TOTALS
// =============================================================================

// Total recomputes the draft total. ok is false with no draft.
func (s *Store) Total() (total decimal.Decimal, ok bool) {
	if s.draft == nil {
		return decimal.Zero, false
	}
	return s.draft.Total(), true
}

// DisplayTotal returns the total rounded to 2 decimals, or "" with no draft.
func (s *Store) DisplayTotal() string {
	total, ok := s.Total()
	if !ok {
		return ""
	}
	return FormatMoney(total)
}
