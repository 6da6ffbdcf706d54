// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/tibo-tui/internal/draft"
	"github.com/jeranaias/tibo-tui/internal/intent"
	"github.com/jeranaias/tibo-tui/internal/model"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var (
	markdownRenderer     *glamour.TermRenderer
	markdownRendererOnce sync.Once
)

// renderMarkdown renders markdown for the terminal. Piped output and
// renderer failures get the source text unchanged.
func renderMarkdown(content string) string {
	if !IsStdoutTTY() {
		return content
	}
	markdownRendererOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(min(GetTerminalWidth()-4, 96)),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// RECEIPTS
// =============================================================================

// saleMarkdown lays out a sale draft as a markdown receipt.
func saleMarkdown(d draft.SaleDraft) string {
	client := d.ClientName
	if client == "" {
		client = intent.DefaultClientLabel
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "### Venta · %s · %s\n\n", escapeCell(client), d.Date)
	sb.WriteString("| # | Producto | Cantidad | Precio unitario | Subtotal |\n")
	sb.WriteString("|---|---|---:|---:|---:|\n")
	for i, item := range d.LineItems {
		name := item.ProductName
		if strings.TrimSpace(name) == "" {
			name = "(sin nombre)"
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s |\n",
			i+1, escapeCell(name), item.Quantity.String(),
			draft.FormatMoney(item.UnitPrice), draft.FormatMoney(item.Subtotal()))
	}
	sb.WriteString("\n")
	if !d.ContainerCost.IsZero() {
		fmt.Fprintf(&sb, "Envases: %s\n\n", draft.FormatMoney(d.ContainerCost))
	}
	fmt.Fprintf(&sb, "**Total: %s**\n", draft.FormatMoney(d.Total()))

	var prov []string
	if d.SourceTranscript != "" {
		prov = append(prov, fmt.Sprintf("_\"%s\"_", d.SourceTranscript))
	}
	if d.TicketID != "" {
		prov = append(prov, "ticket `"+d.TicketID+"`")
	}
	if d.ProcessingTimeMs > 0 {
		prov = append(prov, fmt.Sprintf("%d ms", d.ProcessingTimeMs))
	}
	if len(prov) > 0 {
		sb.WriteString("\n" + strings.Join(prov, " · ") + "\n")
	}
	return sb.String()
}

// restockMarkdown lays out a restock proposal.
func restockMarkdown(p intent.RestockProposal) string {
	var sb strings.Builder
	sb.WriteString("### Ingreso de mercadería\n\n")
	fmt.Fprintf(&sb, "- **Producto:** %s\n", p.ProductName)
	fmt.Fprintf(&sb, "- **Cantidad:** %s\n", p.QuantityLabel)
	fmt.Fprintf(&sb, "- **Proveedor:** %s\n", p.SupplierName)
	fmt.Fprintf(&sb, "- **Precio:** %s\n", p.UnitPriceLabel)
	return sb.String()
}

// actionMarkdown renders the card attached to an assistant message.
func actionMarkdown(a *intent.Action) string {
	switch {
	case a == nil:
		return ""
	case a.Sale != nil:
		return saleMarkdown(*a.Sale)
	case a.Restock != nil:
		return restockMarkdown(*a.Restock)
	default:
		return ""
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// =============================================================================
// MESSAGES
// =============================================================================

// printMessage writes one conversation turn, with its card when present.
func printMessage(w io.Writer, msg model.Message, render func(string) string) {
	style := AssistantRoleStyle
	switch msg.Role {
	case model.RoleUser:
		style = UserRoleStyle
	case model.RoleSystem:
		style = SystemRoleStyle
	}
	label := style.Render(msg.Role.DisplayName())
	stamp := DimStyle.Render(msg.FormattedTime())

	content := msg.Content
	if msg.IntentKind == intent.KindFailed {
		content = ErrorStyle.Render(content)
	}
	fmt.Fprintf(w, "%s %s  %s\n", stamp, label, content)

	if msg.HasAction() {
		fmt.Fprintln(w, render(actionMarkdown(msg.Action)))
	}
}
