// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package intent

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/tibo-tui/internal/backend"
	"github.com/jeranaias/tibo-tui/internal/draft"
	"github.com/jeranaias/tibo-tui/internal/logging"
)

// Normalizer maps backend responses and transport errors to an Intent.
// It holds no per-request state and is safe for concurrent use.
type Normalizer struct {
	now func() time.Time
	log *logging.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the clock used to date sale drafts.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// WithLogger sets the logger used for transport failures.
func WithLogger(log *logging.Logger) Option {
	return func(n *Normalizer) {
		n.log = log
	}
}

// NewNormalizer creates a Normalizer using the wall clock.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Resolve is the single entry point for one backend round trip: a non-nil
// err becomes a transport failure, otherwise resp is normalized.
func (n *Normalizer) Resolve(ctx context.Context, resp *backend.Response, err error, src Source) Intent {
	if err != nil {
		return n.FromError(ctx, err, src)
	}
	return n.Normalize(resp, src)
}

// FromError maps a failed request to a generic retry prompt. The error itself
// is logged, never shown.
func (n *Normalizer) FromError(ctx context.Context, err error, src Source) Intent {
	n.log.Error(n.log.WithField(ctx, "source", src.String()), "backend request failed", err)
	return Failed{Message: transportMessage(src), Cause: CauseTransport, Err: err}
}

// Normalize maps a backend response to an Intent. A nil response is treated
// as a transport failure.
func (n *Normalizer) Normalize(resp *backend.Response, src Source) Intent {
	if resp == nil {
		return Failed{Message: transportMessage(src), Cause: CauseTransport}
	}

	if resp.IsError() {
		msg := strings.TrimSpace(resp.Error)
		if msg == "" {
			msg = MsgUnknownError
		}
		return Failed{Message: msg, Cause: CauseBackend}
	}

	switch resp.Order.Kind() {
	case backend.OrderSale:
		return Sale{Seed: n.saleSeed(resp)}
	case backend.OrderRestock:
		return Restock{Proposal: restockProposal(resp.Order)}
	default:
		return Unresolved{Message: UnresolvedSummary(resp.Transcript), Transcript: resp.Transcript}
	}
}

func (n *Normalizer) saleSeed(resp *backend.Response) draft.SaleDraft {
	seed := draft.NewSaleDraft(n.now())
	seed.ClientName = clean(resp.Order.Cliente)
	seed.SourceTranscript = resp.Transcript
	seed.TicketID = resp.TicketID
	seed.ProcessingTimeMs = resp.ProcessingTimeMs

	for _, item := range resp.Order.Items {
		seed.LineItems = append(seed.LineItems, draft.LineItem{
			ProductName: clean(item.Producto),
			Quantity:    valueOrZero(item.Cantidad),
			UnitPrice:   valueOrZero(item.PrecioUnitario),
		})
	}
	return seed
}

// restockProposal builds the card from the first item only.
func restockProposal(order *backend.Order) RestockProposal {
	p := RestockProposal{
		ProductName:    DefaultRestockProduct,
		QuantityLabel:  "1 " + DefaultRestockUnit,
		SupplierName:   DefaultRestockSupplier,
		UnitPriceLabel: "$0",
	}
	if s := clean(order.Proveedor); s != "" {
		p.SupplierName = s
	}
	if len(order.Items) == 0 {
		return p
	}

	first := order.Items[0]
	if s := clean(first.Producto); s != "" {
		p.ProductName = s
	}

	qty := decimal.NewFromInt(1)
	if first.Cantidad.Valid && !first.Cantidad.Decimal.IsZero() {
		qty = first.Cantidad.Decimal
	}
	unit := DefaultRestockUnit
	if s := clean(first.Unidad); s != "" {
		unit = s
	}
	p.QuantityLabel = qty.String() + " " + unit

	if first.PrecioUnitario.Valid && !first.PrecioUnitario.Decimal.IsZero() {
		p.UnitPriceLabel = "$" + first.PrecioUnitario.Decimal.String()
	}
	return p
}

func transportMessage(src Source) string {
	if src == SourceAudio {
		return MsgTransportAudio
	}
	return MsgTransportText
}

func valueOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// clean trims and NFC-normalizes free text so that "café" and "café"
// compare equal downstream.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
