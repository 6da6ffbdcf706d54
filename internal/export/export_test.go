// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tibo-tui/internal/draft"
	"github.com/jeranaias/tibo-tui/internal/intent"
	"github.com/jeranaias/tibo-tui/internal/lifecycle"
	"github.com/jeranaias/tibo-tui/internal/model"
)

var exportTime = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)

func testOptions(dir string) *Options {
	opts := DefaultOptions()
	opts.OutputDir = dir
	opts.Now = func() time.Time { return exportTime }
	return opts
}

// sampleConversation logs one confirmed sale, one restock and one error.
func sampleConversation() *model.Conversation {
	conv := model.NewConversation()

	seed := draft.NewSaleDraft(exportTime)
	seed.ClientName = "Ana"
	seed.LineItems = []draft.LineItem{{
		ProductName: "Tomates",
		Quantity:    decimal.NewFromInt(3),
		UnitPrice:   decimal.NewFromInt(100),
	}}
	seed.SourceTranscript = "tres tomates para Ana"
	seed.TicketID = "T-1"
	seed.ProcessingTimeMs = 1500
	sale := intent.Sale{Seed: seed}

	conv.AppendUser("tres tomates para Ana")
	conv.AppendAssistant(sale, intent.ActionFor(sale))
	conv.AppendSystem(lifecycle.MsgSaleCompleted)

	restock := intent.Restock{Proposal: intent.RestockProposal{
		ProductName:    "Harina",
		QuantityLabel:  "10 kg",
		SupplierName:   "Don Pepe",
		UnitPriceLabel: "$800",
	}}
	conv.AppendUser("ingresaron 10 kg de harina")
	conv.AppendAssistant(restock, intent.ActionFor(restock))

	conv.AppendUser("otra cosa")
	conv.AppendAssistant(intent.Failed{Message: "timeout", Cause: intent.CauseBackend}, nil)
	return conv
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func TestFromConversation_Summary(t *testing.T) {
	tr := FromConversation(sampleConversation())
	require.NotNil(t, tr)

	assert.Equal(t, TranscriptSummary{
		Messages:         7,
		SalesProposed:    1,
		RestocksProposed: 1,
		SalesConfirmed:   1,
		FailedRequests:   1,
	}, tr.Summary)
	assert.Equal(t, "tres tomates para Ana", tr.Title)
	assert.Equal(t, model.RoleUser, tr.Messages[0].Role)
	assert.Nil(t, FromConversation(nil))
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestMarkdown_Cards(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions(t.TempDir())).Export(FromConversation(sampleConversation()))
	require.NoError(t, err)
	md := string(out)

	assert.Contains(t, md, "| Tomates | 3 | $100.00 | $300.00 |")
	assert.Contains(t, md, "**Total**: $300.00")
	assert.Contains(t, md, "Ticket: T-1")
	assert.Contains(t, md, "Procesado en 1.50s")
	assert.Contains(t, md, "- Proveedor: Don Pepe")
	assert.Contains(t, md, "Error: timeout")
	assert.Contains(t, md, "- **Ventas confirmadas**: 1")
	assert.Contains(t, md, "### Tibo <sub>")
	assert.Contains(t, md, "exported: 2025-03-14T18:30:00Z")
}

func TestMarkdown_NoMetadata(t *testing.T) {
	opts := testOptions(t.TempDir())
	opts.IncludeMetadata = false
	opts.IncludeTimestamps = false
	opts.IncludeProvenance = false

	out, err := NewMarkdownExporter(opts).Export(FromConversation(sampleConversation()))
	require.NoError(t, err)
	md := string(out)

	assert.False(t, strings.HasPrefix(md, "---"))
	assert.NotContains(t, md, "## Resumen")
	assert.NotContains(t, md, "<sub>")
	assert.Contains(t, md, "### Vos\n")
}

func TestMarkdown_YAMLNewlineEscaped(t *testing.T) {
	tr := FromConversation(sampleConversation())
	tr.Title = "Pedido\nInjection: malicious"

	out, err := NewMarkdownExporter(nil).Export(tr)
	require.NoError(t, err)

	assert.NotContains(t, string(out), "title: Pedido\nInjection")
	assert.Contains(t, string(out), `title: "Pedido\nInjection: malicious"`)
}

func TestMarkdown_TableCellEscaped(t *testing.T) {
	assert.Equal(t, `Papa \| blanca`, escapeTableCell("Papa | blanca"))
	assert.Equal(t, `\*oferta\*`, escapeTableCell("*oferta*"))
}

func TestExporters_RejectInvalid(t *testing.T) {
	tests := []struct {
		name string
		tr   *Transcript
		want string
	}{
		{"nil transcript", nil, "transcript is nil"},
		{"no messages", &Transcript{ID: "x", CreatedAt: exportTime}, "no messages"},
		{"zero timestamp", &Transcript{ID: "x", Messages: []TranscriptMessage{{Role: model.RoleUser, Content: "hola"}}}, "invalid creation timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMarkdownExporter(nil).Export(tt.tr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := NewJSONExporter(nil).Export(nil)
	assert.Error(t, err)
}

// =============================================================================
// JSON
// =============================================================================

func TestJSON_RoundTripsSummaryAndCards(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(FromConversation(sampleConversation()))
	require.NoError(t, err)

	var decoded Transcript
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, 1, decoded.Summary.SalesConfirmed)
	require.NotNil(t, decoded.Messages[1].Action)
	require.NotNil(t, decoded.Messages[1].Action.Sale)
	assert.Equal(t, "300", decoded.Messages[1].Action.Sale.Total().String())
}

// =============================================================================
// FILES
// =============================================================================

func TestExport_WritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := Export(sampleConversation(), FormatMarkdown, testOptions(dir))
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, "pedido_tres_tomates_para_Ana_20250314_183000.md", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# tres tomates para Ana")
}

func TestExport_JSONFormat(t *testing.T) {
	path, err := Export(sampleConversation(), FormatJSON, testOptions(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, ".json", filepath.Ext(path))
}

func TestExport_EmptyConversation(t *testing.T) {
	_, err := Export(model.NewConversation(), FormatMarkdown, testOptions(t.TempDir()))
	assert.True(t, errors.Is(err, ErrEmptyConversation))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"md", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{"", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{"html", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pedido de Ana", "Pedido_de_Ana"},
		{"a/b:c*d", "a-b-c-d"},
		{"", "conversacion"},
		{"línea\x01", "línea-"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
