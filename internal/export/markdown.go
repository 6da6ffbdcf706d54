// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/tibo-tui/internal/draft"
	"github.com/jeranaias/tibo-tui/internal/intent"
	"github.com/jeranaias/tibo-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders a transcript as Markdown with card tables.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	if len(t.Messages) == 0 {
		return nil, ErrEmptyConversation
	}
	if t.CreatedAt.IsZero() {
		return nil, fmt.Errorf("transcript has invalid creation timestamp")
	}

	var sb strings.Builder
	exported := e.options.now()

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(t.Title))
		fmt.Fprintf(&sb, "conversation: %s\n", t.ID)
		fmt.Fprintf(&sb, "date: %s\n", t.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(&sb, "updated: %s\n", t.UpdatedAt.Format(time.RFC3339))
		fmt.Fprintf(&sb, "messages: %d\n", t.Summary.Messages)
		fmt.Fprintf(&sb, "exported: %s\n", exported.Format(time.RFC3339))
		sb.WriteString("generator: tibo\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(t.Title))

	if e.options.IncludeMetadata {
		s := t.Summary
		sb.WriteString("## Resumen\n\n")
		fmt.Fprintf(&sb, "- **Inicio**: %s\n", formatTimestamp(t.CreatedAt))
		fmt.Fprintf(&sb, "- **Última actividad**: %s\n", formatTimestamp(t.UpdatedAt))
		fmt.Fprintf(&sb, "- **Mensajes**: %d\n", s.Messages)
		fmt.Fprintf(&sb, "- **Ventas propuestas**: %d\n", s.SalesProposed)
		fmt.Fprintf(&sb, "- **Ventas confirmadas**: %d\n", s.SalesConfirmed)
		fmt.Fprintf(&sb, "- **Ventas canceladas**: %d\n", s.SalesCancelled)
		fmt.Fprintf(&sb, "- **Ingresos propuestos**: %d\n", s.RestocksProposed)
		if s.FailedRequests > 0 {
			fmt.Fprintf(&sb, "- **Errores**: %d\n", s.FailedRequests)
		}
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversación\n\n")

	for i, msg := range t.Messages {
		label := formatRoleLabel(msg.Role)
		if e.options.IncludeTimestamps {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Timestamp))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")

		if msg.Action != nil {
			sb.WriteString(e.formatAction(msg.Action))
			sb.WriteString("\n")
		}

		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "*Exportado desde tibo el %s*\n", exported.Format("2006-01-02 15:04"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func formatRoleLabel(role model.Role) string {
	if role == "" {
		return "Desconocido"
	}
	return role.DisplayName()
}

func (e *MarkdownExporter) formatAction(a *intent.Action) string {
	switch {
	case a.Sale != nil:
		return e.formatSale(a.Sale)
	case a.Restock != nil:
		return formatRestock(a.Restock)
	default:
		return ""
	}
}

// formatSale renders the proposed sale as a table. This is the card as the
// backend proposed it, before any edits.
func (e *MarkdownExporter) formatSale(d *draft.SaleDraft) string {
	var sb strings.Builder

	client := d.ClientName
	if client == "" {
		client = intent.DefaultClientLabel
	}
	fmt.Fprintf(&sb, "**Venta** para %s, fecha %s\n\n", escapeMarkdown(client), d.Date)

	sb.WriteString("| Producto | Cantidad | Precio unitario | Subtotal |\n")
	sb.WriteString("|---|---:|---:|---:|\n")
	for _, item := range d.LineItems {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			escapeTableCell(item.ProductName),
			item.Quantity.String(),
			draft.FormatMoney(item.UnitPrice),
			draft.FormatMoney(item.Subtotal()),
		)
	}
	if !d.ContainerCost.IsZero() {
		fmt.Fprintf(&sb, "| Envases | | | %s |\n", draft.FormatMoney(d.ContainerCost))
	}
	fmt.Fprintf(&sb, "\n**Total**: %s\n", draft.FormatMoney(d.Total()))

	if e.options.IncludeProvenance {
		var parts []string
		if d.SourceTranscript != "" {
			parts = append(parts, fmt.Sprintf("Transcripción: %q", d.SourceTranscript))
		}
		if d.TicketID != "" {
			parts = append(parts, "Ticket: "+d.TicketID)
		}
		if d.ProcessingTimeMs > 0 {
			parts = append(parts, "Procesado en "+formatDuration(d.ProcessingTimeMs))
		}
		if len(parts) > 0 {
			fmt.Fprintf(&sb, "\n<sub>%s</sub>\n", strings.Join(parts, " | "))
		}
	}
	return sb.String()
}

func formatRestock(p *intent.RestockProposal) string {
	var sb strings.Builder
	sb.WriteString("**Ingreso de mercadería**\n\n")
	fmt.Fprintf(&sb, "- Producto: %s\n", escapeMarkdown(p.ProductName))
	fmt.Fprintf(&sb, "- Cantidad: %s\n", p.QuantityLabel)
	fmt.Fprintf(&sb, "- Proveedor: %s\n", escapeMarkdown(p.SupplierName))
	fmt.Fprintf(&sb, "- Precio unitario: %s\n", p.UnitPriceLabel)
	return sb.String()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes characters that break headings and inline text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

func escapeTableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return escapeMarkdown(s)
}

// escapeYAML quotes values that would break the frontmatter.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
