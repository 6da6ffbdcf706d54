// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lifecycle

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tibo-tui/internal/draft"
	"github.com/jeranaias/tibo-tui/internal/intent"
	"github.com/jeranaias/tibo-tui/internal/model"
)

func item(name, qty, price string) draft.LineItem {
	return draft.LineItem{
		ProductName: name,
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
	}
}

// propose appends an assistant reply for in and proposes its action, the way
// the session does.
func propose(m *Machine, conv *model.Conversation, in intent.Intent) *intent.Action {
	action := intent.ActionFor(in)
	conv.AppendAssistant(in, action)
	m.Propose(action)
	return action
}

func systemMessages(conv *model.Conversation) []string {
	var out []string
	for msg := range conv.All() {
		if msg.Role == model.RoleSystem {
			out = append(out, msg.Content)
		}
	}
	return out
}

func newMachine() (*Machine, *model.Conversation) {
	conv := model.NewConversation()
	return New(conv, WithExecutionDelay(10*time.Millisecond)), conv
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenario_ConfirmSale(t *testing.T) {
	m, conv := newMachine()
	sale := intent.Sale{Seed: draft.SaleDraft{
		Date:       "2024-05-01",
		ClientName: "Ana",
		LineItems:  []draft.LineItem{item("Tomates", "3", "100")},
	}}
	action := propose(m, conv, sale)
	assert.Equal(t, Proposed, m.State())
	assert.False(t, m.Store().Active(), "no draft before select")

	require.NoError(t, m.Select(action.ID))
	assert.Equal(t, Editing, m.State())
	assert.Equal(t, "$300.00", m.Store().DisplayTotal())

	before := conv.Len()
	exec, err := m.Confirm()
	require.NoError(t, err)
	require.NotNil(t, exec)
	assert.Equal(t, Executing, m.State())
	assert.True(t, exec.Total.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 10*time.Millisecond, exec.Delay)
	assert.Equal(t, before, conv.Len(), "nothing appended until completion")

	assert.False(t, m.Cancel(), "no cancel during execution")
	require.NoError(t, m.Select(action.ID), "select during execution is ignored")
	assert.Equal(t, Executing, m.State())

	assert.True(t, m.Complete(exec.ID))
	assert.Equal(t, Idle, m.State())
	assert.Equal(t, before+1, conv.Len())
	assert.Equal(t, []string{MsgSaleCompleted}, systemMessages(conv))
	assert.False(t, m.Store().Active())
	assert.Nil(t, m.Pending())

	assert.False(t, m.Complete(exec.ID), "second completion is a no-op")
	assert.Len(t, systemMessages(conv), 1)
}

func TestScenario_CancelEdit(t *testing.T) {
	m, conv := newMachine()
	action := propose(m, conv, intent.Sale{Seed: draft.SaleDraft{
		LineItems: []draft.LineItem{item("pan", "1", "50"), item("leche", "2", "80")},
	}})
	require.NoError(t, m.Select(action.ID))
	require.Equal(t, 2, m.Store().ItemCount())

	assert.True(t, m.Cancel())
	assert.Equal(t, Idle, m.State())
	assert.False(t, m.Store().Active())
	assert.Nil(t, m.Pending())

	assert.False(t, m.Cancel())
	assert.False(t, m.Cancel())
	assert.Equal(t, []string{MsgSaleCancelled}, systemMessages(conv))
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func TestNoOpTransitions(t *testing.T) {
	m, conv := newMachine()

	exec, err := m.Confirm()
	assert.NoError(t, err)
	assert.Nil(t, exec)
	assert.False(t, m.Cancel())
	assert.False(t, m.Complete("nope"))
	m.Propose(nil)

	assert.Equal(t, Idle, m.State())
	assert.Zero(t, conv.Len())
}

func TestSelect_Restock(t *testing.T) {
	m, conv := newMachine()
	action := propose(m, conv, intent.Restock{Proposal: intent.RestockProposal{ProductName: "harina"}})
	assert.Equal(t, Proposed, m.State())

	err := m.Select(action.ID)
	assert.ErrorIs(t, err, ErrNotEditable)
	assert.Equal(t, Proposed, m.State())
	assert.False(t, m.Store().Active())
}

func TestSelect_Unknown(t *testing.T) {
	m, _ := newMachine()
	assert.ErrorIs(t, m.Select("missing"), ErrActionNotFound)
	assert.Equal(t, Idle, m.State())
}

func TestProposeWhileEditing(t *testing.T) {
	m, conv := newMachine()
	first := propose(m, conv, intent.Sale{Seed: draft.SaleDraft{LineItems: []draft.LineItem{item("pan", "1", "50")}}})
	require.NoError(t, m.Select(first.ID))
	require.NoError(t, m.Edit(func(s *draft.Store) error { return s.SetClientName("Ana") }))

	second := propose(m, conv, intent.Sale{Seed: draft.SaleDraft{LineItems: []draft.LineItem{item("agua", "2", "10")}}})
	assert.Equal(t, Editing, m.State(), "new proposal does not cancel the edit")
	assert.Equal(t, first.ID, m.Pending().ID)
	cur, _ := m.Store().Current()
	assert.Equal(t, "Ana", cur.ClientName)

	// Opening the second card replaces the first draft.
	require.NoError(t, m.Select(second.ID))
	assert.Equal(t, second.ID, m.Pending().ID)
	assert.Equal(t, "$20.00", m.Store().DisplayTotal())
	cur, _ = m.Store().Current()
	assert.Equal(t, "", cur.ClientName)
}

func TestEdit_RequiresEditing(t *testing.T) {
	m, _ := newMachine()
	called := false
	err := m.Edit(func(*draft.Store) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrNotEditing)
	assert.False(t, called)
}

func TestConfirm_SnapshotsEditedDraft(t *testing.T) {
	m, conv := newMachine()
	action := propose(m, conv, intent.Sale{Seed: draft.SaleDraft{LineItems: []draft.LineItem{item("pan", "1", "50")}}})
	require.NoError(t, m.Select(action.ID))
	require.NoError(t, m.Edit(func(s *draft.Store) error {
		if err := s.AddLineItem(); err != nil {
			return err
		}
		if err := s.UpdateLineItem(1, draft.FieldUnitPrice, "25"); err != nil {
			return err
		}
		return s.SetContainerCost("5")
	}))

	exec, err := m.Confirm()
	require.NoError(t, err)
	assert.Len(t, exec.Draft.LineItems, 2)
	assert.Equal(t, "$80.00", draft.FormatMoney(exec.Total))

	// The original card is untouched by edits.
	msg, ok := conv.FindAction(action.ID)
	require.True(t, ok)
	assert.Len(t, msg.Action.Sale.LineItems, 1)
}

func TestComplete_WrongID(t *testing.T) {
	m, conv := newMachine()
	action := propose(m, conv, intent.Sale{Seed: draft.SaleDraft{LineItems: []draft.LineItem{item("pan", "1", "1")}}})
	require.NoError(t, m.Select(action.ID))
	exec, _ := m.Confirm()

	assert.False(t, m.Complete("other"))
	assert.Equal(t, Executing, m.State())
	assert.True(t, m.Complete(exec.ID))
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Proposed: "proposed", Editing: "editing", Executing: "executing"} {
		assert.Equal(t, want, s.String())
	}
	assert.True(t, strings.HasPrefix(State(9).String(), "state("))
}
