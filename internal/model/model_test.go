// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"

	"github.com/jeranaias/tibo-tui/internal/draft"
	"github.com/jeranaias/tibo-tui/internal/intent"
)

func saleIntent() intent.Sale {
	return intent.Sale{Seed: draft.SaleDraft{
		ClientName: "Juan",
		LineItems:  []draft.LineItem{{ProductName: "pan"}},
	}}
}

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_DisplayName(t *testing.T) {
	tests := map[Role]string{
		RoleUser:      "Vos",
		RoleAssistant: "Tibo",
		RoleSystem:    "Sistema",
		Role("otro"):  "otro",
	}
	for role, want := range tests {
		if got := role.DisplayName(); got != want {
			t.Errorf("%q.DisplayName() = %q, want %q", role, got, want)
		}
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AppendOrder(t *testing.T) {
	conv := NewConversation()
	conv.AppendUser("uno")
	conv.AppendSystem("dos")
	conv.AppendUser("tres")

	var got []string
	for msg := range conv.All() {
		got = append(got, msg.Content)
	}
	want := []string{"uno", "dos", "tres"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestConversation_AllIsRestartable(t *testing.T) {
	conv := NewConversation()
	conv.AppendUser("a")
	conv.AppendUser("b")

	seq := conv.All()
	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	if first, second := count(), count(); first != 2 || second != 2 {
		t.Errorf("passes saw %d and %d messages, want 2 and 2", first, second)
	}

	conv.AppendUser("c")
	if n := count(); n != 3 {
		t.Errorf("pass after append saw %d messages, want 3", n)
	}
}

func TestConversation_AllEarlyBreak(t *testing.T) {
	conv := NewConversation()
	for _, s := range []string{"a", "b", "c"} {
		conv.AppendUser(s)
	}
	for msg := range conv.All() {
		if msg.Content == "b" {
			break
		}
	}
	// Append after a broken iteration must not block.
	conv.AppendUser("d")
	if conv.Len() != 4 {
		t.Errorf("Len = %d, want 4", conv.Len())
	}
}

func TestConversation_EntriesAreImmutable(t *testing.T) {
	conv := NewConversation()
	in := saleIntent()
	stored := conv.AppendAssistant(in, intent.ActionFor(in))

	stored.Content = "tampered"
	stored.Action.Sale.LineItems[0].ProductName = "tampered"

	for msg := range conv.All() {
		msg.Action.Sale.ClientName = "tampered"
	}

	last, ok := conv.Last()
	if !ok {
		t.Fatal("Last() reported empty log")
	}
	if last.Content == "tampered" {
		t.Error("content changed through returned copy")
	}
	if last.Action.Sale.LineItems[0].ProductName != "pan" {
		t.Error("action changed through returned copy")
	}
	if last.Action.Sale.ClientName != "Juan" {
		t.Error("action changed through iterator copy")
	}
}

func TestConversation_AppendFillsIdentity(t *testing.T) {
	conv := NewConversation()
	msg := conv.Append(Message{Role: RoleSystem, Content: "x"})
	if msg.ID == "" {
		t.Error("expected generated ID")
	}
	if msg.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}
	if conv.UpdatedAt() != msg.Timestamp {
		t.Error("UpdatedAt should track the last append")
	}
}

func TestConversation_Lookups(t *testing.T) {
	conv := NewConversation()
	if _, ok := conv.Last(); ok {
		t.Error("Last() on empty log should report false")
	}
	if _, ok := conv.LastAssistant(); ok {
		t.Error("LastAssistant() on empty log should report false")
	}

	conv.AppendUser("vendí pan")
	in := saleIntent()
	action := intent.ActionFor(in)
	reply := conv.AppendAssistant(in, action)
	conv.AppendSystem("✅ Venta generada exitosamente")

	last, _ := conv.LastAssistant()
	if last.ID != reply.ID {
		t.Errorf("LastAssistant = %s, want %s", last.ID, reply.ID)
	}
	if last.IntentKind != intent.KindSale {
		t.Errorf("IntentKind = %q", last.IntentKind)
	}

	user, _ := conv.LastUser()
	if user.Content != "vendí pan" {
		t.Errorf("LastUser = %q", user.Content)
	}

	found, ok := conv.FindAction(action.ID)
	if !ok || found.ID != reply.ID {
		t.Errorf("FindAction(%s) = %v, %v", action.ID, found.ID, ok)
	}
	if _, ok := conv.FindAction("missing"); ok {
		t.Error("FindAction should not find unknown IDs")
	}

	if n := len(conv.Actions()); n != 1 {
		t.Errorf("Actions() = %d, want 1", n)
	}
}

func TestConversation_Meta(t *testing.T) {
	conv := NewConversation()
	if conv.Title() != "Nueva conversación" {
		t.Errorf("empty title = %q", conv.Title())
	}

	conv.AppendUser("vendí\n2 coca a Juan")
	meta := conv.GetMeta()
	if meta.Title != "vendí 2 coca a Juan" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.MessageCount != 1 || meta.ActionCount != 0 {
		t.Errorf("counts = %d/%d", meta.MessageCount, meta.ActionCount)
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewAssistantMessage(t *testing.T) {
	unresolved := intent.Unresolved{Message: intent.MsgUnresolvedGeneric}
	msg := NewAssistantMessage(unresolved, intent.ActionFor(unresolved))

	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q", msg.Role)
	}
	if msg.Content != intent.MsgUnresolvedGeneric {
		t.Errorf("Content = %q", msg.Content)
	}
	if msg.HasAction() {
		t.Error("unresolved intents carry no action")
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("vendí dos coca cola\ny un pan")
	if got := msg.Preview(12); got != "vendí dos c…" {
		t.Errorf("Preview = %q", got)
	}
	if msg.IsEmpty() {
		t.Error("IsEmpty on non-empty message")
	}
}
