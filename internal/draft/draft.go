// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package draft

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date layout used for SaleDraft.Date.
const DateLayout = "2006-01-02"

// =============================================================================
// LINE ITEM
// =============================================================================

// LineItem is one product row of a sale.
type LineItem struct {
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// NewLineItem returns the blank row appended by Store.AddLineItem.
func NewLineItem() LineItem {
	return LineItem{
		ProductName: "",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.Zero,
	}
}

// Subtotal returns Quantity × UnitPrice.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// Equal reports whether two line items carry the same values.
func (li LineItem) Equal(other LineItem) bool {
	return li.ProductName == other.ProductName &&
		li.Quantity.Equal(other.Quantity) &&
		li.UnitPrice.Equal(other.UnitPrice)
}

// =============================================================================
// SALE DRAFT
// =============================================================================

// SaleDraft is a mutable, not yet confirmed sale.
type SaleDraft struct {
	Date          string          `json:"date"`
	ClientName    string          `json:"client_name"`
	LineItems     []LineItem      `json:"line_items"`
	ContainerCost decimal.Decimal `json:"container_cost"`

	// Provenance, copied from the backend response that produced the draft.
	SourceTranscript string `json:"source_transcript,omitempty"`
	TicketID         string `json:"ticket_id,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms,omitempty"`
}

// NewSaleDraft returns an empty draft dated on the given day.
func NewSaleDraft(day time.Time) SaleDraft {
	return SaleDraft{
		Date:          day.Format(DateLayout),
		LineItems:     make([]LineItem, 0),
		ContainerCost: decimal.Zero,
	}
}

// Total returns ContainerCost + Σ(Quantity × UnitPrice), computed fresh.
func (d SaleDraft) Total() decimal.Decimal {
	total := d.ContainerCost
	for _, item := range d.LineItems {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Clone returns a deep copy of the draft.
func (d SaleDraft) Clone() SaleDraft {
	clone := d
	clone.LineItems = make([]LineItem, len(d.LineItems))
	copy(clone.LineItems, d.LineItems)
	return clone
}

// ItemCount returns the number of line items.
func (d SaleDraft) ItemCount() int {
	return len(d.LineItems)
}

// FormatMoney renders an amount rounded to 2 decimal places, e.g. "$300.00".
func FormatMoney(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
