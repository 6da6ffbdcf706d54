// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jeranaias/tibo-tui/internal/draft"
	"github.com/jeranaias/tibo-tui/internal/intent"
	"github.com/jeranaias/tibo-tui/internal/logging"
	"github.com/jeranaias/tibo-tui/internal/model"
)

// System notices appended to the conversation.
const (
	MsgSaleCompleted = "✅ Venta generada exitosamente"
	MsgSaleCancelled = "❌ Venta cancelada"
)

// DefaultExecutionDelay is the simulated commit time of a confirmed sale.
const DefaultExecutionDelay = 2 * time.Second

var (
	// ErrNotEditable is returned when selecting a card with no edit flow.
	ErrNotEditable = errors.New("lifecycle: action is not editable")

	// ErrActionNotFound is returned when selecting an ID not in the log.
	ErrActionNotFound = errors.New("lifecycle: action not found")

	// ErrNotEditing is returned by Edit outside the Editing state.
	ErrNotEditing = errors.New("lifecycle: no edit session")
)

// =============================================================================
// STATE
// =============================================================================

// State of the pending action.
type State int

const (
	Idle State = iota
	Proposed
	Editing
	Executing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Proposed:
		return "proposed"
	case Editing:
		return "editing"
	case Executing:
		return "executing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Execution is a confirmed sale waiting for Complete.
type Execution struct {
	ID    string
	Draft draft.SaleDraft
	Total decimal.Decimal
	Delay time.Duration
}

// =============================================================================
// MACHINE
// =============================================================================

// Machine is the single source of truth for the pending action.
//
// Machine is not safe for concurrent use; the session dispatcher is its only
// caller.
type Machine struct {
	conv   *model.Conversation
	store  *draft.Store
	delay  time.Duration
	logger *logging.Logger

	state     State
	pending   *intent.Action
	execution *Execution
}

// Option configures a Machine.
type Option func(*Machine)

// WithExecutionDelay sets the Execution.Delay handed out by Confirm.
func WithExecutionDelay(d time.Duration) Option {
	return func(m *Machine) {
		if d >= 0 {
			m.delay = d
		}
	}
}

// WithLogger sets the logger for ignored transitions.
func WithLogger(l *logging.Logger) Option {
	return func(m *Machine) {
		m.logger = l.With("component", "lifecycle")
	}
}

// New creates an Idle machine appending notices to conv.
func New(conv *model.Conversation, opts ...Option) *Machine {
	m := &Machine{
		conv:  conv,
		delay: DefaultExecutionDelay,
		state: Idle,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.store = draft.NewStore(m)
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Pending returns a copy of the proposed or edited action, or nil.
func (m *Machine) Pending() *intent.Action {
	return m.pending.Clone()
}

// Store returns the draft store. Mutate it through Edit.
func (m *Machine) Store() *draft.Store {
	return m.store
}

// EditSessionActive implements draft.Gate.
func (m *Machine) EditSessionActive() bool {
	return m.state == Editing
}

// Edit runs fn against the store while Editing.
func (m *Machine) Edit(fn func(*draft.Store) error) error {
	if m.state != Editing {
		m.ignored("edit")
		return ErrNotEditing
	}
	return fn(m.store)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Propose records a new action. While Editing or Executing the current state
// is kept; the action remains selectable from its message.
func (m *Machine) Propose(action *intent.Action) {
	if action == nil {
		return
	}
	switch m.state {
	case Idle, Proposed:
		m.state = Proposed
		m.pending = action.Clone()
	default:
		m.ignored("propose")
	}
}

// Select opens the sale attached to actionID for editing, replacing any draft
// already open. Ignored while Executing.
func (m *Machine) Select(actionID string) error {
	if m.state == Executing {
		m.ignored("select")
		return nil
	}

	msg, ok := m.conv.FindAction(actionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrActionNotFound, actionID)
	}
	if !msg.Action.Editable() {
		return ErrNotEditable
	}

	prev := m.state
	m.state = Editing
	if err := m.store.Open(*msg.Action.Sale); err != nil {
		m.state = prev
		return fmt.Errorf("open draft: %w", err)
	}
	m.pending = msg.Action
	return nil
}

// Confirm freezes the draft and starts execution. Returns nil, nil outside
// Editing.
func (m *Machine) Confirm() (*Execution, error) {
	if m.state != Editing {
		m.ignored("confirm")
		return nil, nil
	}

	snapshot, ok := m.store.Current()
	if !ok {
		return nil, draft.ErrNoActiveDraft
	}

	m.state = Executing
	m.execution = &Execution{
		ID:    uuid.NewString(),
		Draft: snapshot,
		Total: snapshot.Total(),
		Delay: m.delay,
	}
	exec := *m.execution
	return &exec, nil
}

// Complete finishes the execution with the given ID. It reports whether a
// transition happened.
func (m *Machine) Complete(executionID string) bool {
	if m.state != Executing || m.execution == nil || m.execution.ID != executionID {
		m.ignored("complete")
		return false
	}

	m.conv.AppendSystem(MsgSaleCompleted)
	m.reset()
	return true
}

// Cancel abandons the edit session. It reports whether a transition happened.
func (m *Machine) Cancel() bool {
	if m.state != Editing {
		m.ignored("cancel")
		return false
	}

	m.store.Close()
	m.conv.AppendSystem(MsgSaleCancelled)
	m.reset()
	return true
}

func (m *Machine) reset() {
	m.store.Close()
	m.state = Idle
	m.pending = nil
	m.execution = nil
}

func (m *Machine) ignored(transition string) {
	ctx := m.logger.WithFields(context.Background(), map[string]any{
		"transition": transition,
		"state":      m.state.String(),
	})
	m.logger.Debug(ctx, "transition ignored")
}
