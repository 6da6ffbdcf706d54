// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tibo-tui/internal/draft"
	"github.com/jeranaias/tibo-tui/internal/intent"
	"github.com/jeranaias/tibo-tui/internal/model"
	"github.com/jeranaias/tibo-tui/internal/session"
	"github.com/jeranaias/tibo-tui/internal/util"
)

// =============================================================================
// LAYOUT
// =============================================================================

// render assembles the full frame.
func (m Model) render() string {
	snap := m.sess.Snapshot()

	parts := []string{m.renderHeader(), m.viewport.View()}
	if m.focus == focusEditor && snap.Editing() {
		parts = append(parts, m.renderEditor(snap))
	}
	parts = append(parts,
		m.renderInput(snap),
		m.renderStatusBar(snap),
		m.help.View(helpKeyMap{keys: m.keys, focus: m.focus}),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// refresh re-renders the message list and resizes the viewport around the
// fixed chrome.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	snap := m.sess.Snapshot()

	chrome := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderInput(snap)) +
		lipgloss.Height(m.renderStatusBar(snap)) +
		lipgloss.Height(m.help.View(helpKeyMap{keys: m.keys, focus: m.focus}))
	if m.focus == focusEditor && snap.Editing() {
		chrome += lipgloss.Height(m.renderEditor(snap))
	}
	m.viewport.Height = max(m.height-chrome, 3)

	m.viewport.SetContent(m.renderMessages(snap))
	if m.focus != focusCards {
		m.viewport.GotoBottom()
	}
}

// cardIDs lists action IDs in log order.
func (m Model) cardIDs() []string {
	var ids []string
	for msg := range m.sess.Snapshot().Messages {
		if msg.HasAction() {
			ids = append(ids, msg.Action.ID)
		}
	}
	return ids
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("tibo")
	info := m.theme.HeaderInfo.Render(" pedidos por voz y texto")
	if m.opts.BackendURL != "" {
		info += m.theme.Muted.Render("  " + m.opts.BackendURL)
	}
	return m.theme.Header.Width(m.width).Render(title + info)
}

// =============================================================================
// MESSAGES
// =============================================================================

func (m Model) renderMessages(snap session.Snapshot) string {
	if snap.MessageCount == 0 {
		return m.theme.Muted.Render("\n  Escribí o dictá un pedido para empezar.\n")
	}

	selected := ""
	if m.focus == focusCards {
		if ids := m.cardIDs(); m.cardIndex >= 0 && m.cardIndex < len(ids) {
			selected = ids[m.cardIndex]
		}
	}
	editing := ""
	if snap.Editing() && snap.Pending != nil {
		editing = snap.Pending.ID
	}

	width := max(m.theme.ContentWidth(), 20)
	var sb strings.Builder
	for msg := range snap.Messages {
		sb.WriteString(m.renderMessage(msg, width))
		sb.WriteString("\n")
		if msg.HasAction() {
			sb.WriteString(m.renderCard(msg.Action, width, msg.Action.ID == selected, msg.Action.ID == editing))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m Model) renderMessage(msg model.Message, width int) string {
	label := m.theme.RoleLabel.Render(msg.Role.DisplayName())
	stamp := m.theme.Timestamp.Render(" " + msg.FormattedTime())

	bubble := m.theme.AssistantBubble
	switch {
	case msg.Role == model.RoleUser:
		bubble = m.theme.UserBubble
	case msg.Role == model.RoleSystem:
		bubble = m.theme.SystemBubble
	case msg.IntentKind == intent.KindFailed:
		bubble = m.theme.ErrorBubble
	}

	return label + stamp + "\n" + bubble.Width(width).Render(msg.Content)
}

// =============================================================================
// CARDS
// =============================================================================

func (m Model) renderCard(a *intent.Action, width int, selected, editing bool) string {
	style := m.theme.Card
	if selected || editing {
		style = m.theme.CardSelected
	}
	inner := min(width-6, 64)

	var body string
	switch {
	case a.Sale != nil:
		body = m.renderSaleCard(a.Sale, inner, editing)
	case a.Restock != nil:
		body = m.renderRestockCard(a.Restock)
	}
	return style.Render(body)
}

func (m Model) renderSaleCard(d *draft.SaleDraft, width int, editing bool) string {
	t := m.theme
	client := d.ClientName
	if client == "" {
		client = intent.DefaultClientLabel
	}

	lines := []string{t.CardTitle.Render("Venta") + t.CardLabel.Render(" · "+client+" · "+d.Date)}

	priceCol := 24
	nameCol := max(width-priceCol, 8)
	for _, item := range d.LineItems {
		name := util.PadRight(util.TruncateWidth(item.ProductName, nameCol-1), nameCol)
		qty := fmt.Sprintf("%s × %s", item.Quantity.String(), draft.FormatMoney(item.UnitPrice))
		lines = append(lines, t.CardValue.Render(name)+t.CardLabel.Render(util.PadLeft(qty, priceCol-10))+
			t.CardValue.Render(util.PadLeft(draft.FormatMoney(item.Subtotal()), 10)))
	}
	if !d.ContainerCost.IsZero() {
		lines = append(lines, t.CardLabel.Render(util.PadRight("Envases", nameCol+priceCol-10))+
			t.CardValue.Render(util.PadLeft(draft.FormatMoney(d.ContainerCost), 10)))
	}
	lines = append(lines, t.Total.Render("Total "+draft.FormatMoney(d.Total())))

	if !m.opts.Compact && !t.Narrow() {
		if p := provenance(d); p != "" {
			lines = append(lines, t.CardHint.Render(util.TruncateWidth(p, width)))
		}
	}

	switch {
	case editing:
		lines = append(lines, t.CardHint.Render("editando..."))
	default:
		lines = append(lines, t.CardHint.Render("Tab y Enter para editar"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRestockCard(p *intent.RestockProposal) string {
	t := m.theme
	row := func(label, value string) string {
		return t.CardLabel.Render(util.PadRight(label, 12)) + t.CardValue.Render(value)
	}
	return strings.Join([]string{
		t.RestockTitle.Render("Ingreso de mercadería"),
		row("Producto", p.ProductName),
		row("Cantidad", p.QuantityLabel),
		row("Proveedor", p.SupplierName),
		row("Precio", p.UnitPriceLabel),
		t.CardHint.Render("solo lectura"),
	}, "\n")
}

// provenance summarizes where a sale came from.
func provenance(d *draft.SaleDraft) string {
	var parts []string
	if d.SourceTranscript != "" {
		parts = append(parts, fmt.Sprintf("\"%s\"", util.SingleLine(d.SourceTranscript)))
	}
	if d.TicketID != "" {
		parts = append(parts, "ticket "+d.TicketID)
	}
	if d.ProcessingTimeMs > 0 {
		parts = append(parts, fmt.Sprintf("%dms", d.ProcessingTimeMs))
	}
	return strings.Join(parts, " · ")
}

// =============================================================================
// EDITOR
// =============================================================================

func (m Model) renderEditor(snap session.Snapshot) string {
	t := m.theme
	d := snap.Draft

	title := t.EditorTitle.Render("Editar venta") + "  " + t.Total.Render("Total "+snap.DisplayTotal)
	lines := []string{title}

	for i, f := range m.editor.fields {
		value := f.value(*d)
		var field string
		if i == m.editor.index {
			field = t.FieldFocused.Render(m.editor.input.View())
		} else {
			if value == "" {
				value = " "
			}
			field = t.Field.Render(value)
		}
		lines = append(lines, t.FieldLabel.Render(f.label())+field)
	}

	return t.Editor.Width(max(m.theme.ContentWidth(), 20)).Render(strings.Join(lines, "\n"))
}

// =============================================================================
// INPUT AND STATUS
// =============================================================================

func (m Model) renderInput(snap session.Snapshot) string {
	t := m.theme
	var line string
	switch {
	case m.recording != nil:
		line = t.Recording.Render("● Grabando ") + m.spinner.View() + t.Muted.Render("  Ctrl+R para enviar")
	case snap.Busy:
		line = m.spinner.View() + t.Muted.Render(" Procesando pedido...")
	case snap.Executing:
		line = m.spinner.View() + t.Muted.Render(" Generando venta...")
	case m.focus == focusEditor:
		line = t.Muted.Render("Editando venta. Ctrl+S confirma, Esc cancela.")
	case m.focus == focusCards:
		line = t.Muted.Render("Elegí una tarjeta con ↑/↓ y Enter.")
	default:
		line = m.input.View()
	}
	return t.InputContainer.Width(max(m.width-2, 10)).Render(line)
}

func (m Model) renderStatusBar(snap session.Snapshot) string {
	t := m.theme
	var parts []string

	switch {
	case !m.backend.checked:
		parts = append(parts, t.Muted.Render("backend ..."))
	case m.backend.online:
		s := t.StatusOnline.Render("● en línea")
		if m.backend.version != "" {
			s += t.Muted.Render(" v" + m.backend.version)
		}
		if st := m.backend.stats; st != nil {
			s += t.Muted.Render(fmt.Sprintf(" · %d pedidos, %.0f%% ok", st.RequestsTotal, st.SuccessRate))
		}
		parts = append(parts, s)
	default:
		parts = append(parts, t.StatusOffline.Render("● sin conexión"))
	}

	if snap.Voice.Supported {
		parts = append(parts, t.Muted.Render("voz: "+snap.Voice.Recorder))
	} else {
		parts = append(parts, t.Muted.Render("voz: no"))
	}
	parts = append(parts, t.Muted.Render("estado: "+snap.State.String()))

	if m.status != "" {
		style := t.HeaderInfo
		if m.statusIsErr {
			style = t.StatusOffline
		}
		parts = append(parts, style.Render(m.status))
	}

	return t.StatusBar.Width(m.width).Render(util.TruncateWidth(strings.Join(parts, "  "), max(m.width-2, 10)))
}
