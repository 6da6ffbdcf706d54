// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package intent

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jeranaias/tibo-tui/internal/draft"
)

// =============================================================================
// USER-FACING MESSAGES
// =============================================================================

const (
	MsgRestockProposed   = "Perfecto, voy a registrar el ingreso de mercadería."
	MsgUnresolvedGeneric = "No pude entender la solicitud. ¿Podés ser más específico?"
	MsgTransportText     = "Hubo un error procesando tu solicitud. ¿Podés intentar de nuevo?"
	MsgTransportAudio    = "Hubo un error procesando el audio. ¿Podés intentar de nuevo?"
	MsgUnknownError      = "Error desconocido"

	DefaultRestockProduct  = "Producto"
	DefaultRestockSupplier = "Proveedor"
	DefaultRestockUnit     = "unidades"
	DefaultClientLabel     = "el cliente"
)

// SaleSummary renders the assistant reply for a sale with itemCount products.
// More than one item reads plural; zero and one read singular.
func SaleSummary(itemCount int, client string) string {
	noun := "producto"
	if itemCount > 1 {
		noun = "productos"
	}
	if client == "" {
		client = DefaultClientLabel
	}
	return fmt.Sprintf("Perfecto, procesé tu pedido. Detecté %d %s para %s. Tocá la tarjeta para editarla.",
		itemCount, noun, client)
}

// UnresolvedSummary renders the reply when the order type is not recognized.
// A non-blank transcript is embedded as received.
func UnresolvedSummary(transcript string) string {
	if strings.TrimSpace(transcript) == "" {
		return MsgUnresolvedGeneric
	}
	return fmt.Sprintf("Transcripción: \"%s\". No pude identificar si es una venta o ingreso de mercadería.", transcript)
}

// =============================================================================
// KIND / SOURCE / CAUSE
// =============================================================================

// Kind names an Intent variant.
type Kind string

const (
	KindSale       Kind = "sale"
	KindRestock    Kind = "restock"
	KindUnresolved Kind = "unresolved"
	KindFailed     Kind = "failed"
)

// Source is where the utterance came from.
type Source int

const (
	SourceText Source = iota
	SourceAudio
)

func (s Source) String() string {
	if s == SourceAudio {
		return "audio"
	}
	return "text"
}

// Cause tells backend-reported failures from transport failures.
type Cause int

const (
	CauseBackend Cause = iota
	CauseTransport
)

func (c Cause) String() string {
	if c == CauseTransport {
		return "transport"
	}
	return "backend"
}

// =============================================================================
// INTENT VARIANTS
// =============================================================================

// Intent is the closed set of outcomes of one backend round trip.
// Only the types in this package implement it.
type Intent interface {
	Kind() Kind
	// Summary is the assistant reply shown to the user.
	Summary() string
	isIntent()
}

// Sale proposes a new sale. Seed is copied into the draft store on select.
type Sale struct {
	Seed draft.SaleDraft
}

func (Sale) Kind() Kind { return KindSale }
func (s Sale) Summary() string {
	return SaleSummary(s.Seed.ItemCount(), s.Seed.ClientName)
}
func (Sale) isIntent() {}

// RestockProposal is a read-only incoming-stock card.
type RestockProposal struct {
	ProductName    string `json:"product_name"`
	QuantityLabel  string `json:"quantity_label"`
	SupplierName   string `json:"supplier_name"`
	UnitPriceLabel string `json:"unit_price_label"`
}

// Restock proposes registering incoming stock.
type Restock struct {
	Proposal RestockProposal
}

func (Restock) Kind() Kind { return KindRestock }
func (Restock) Summary() string { return MsgRestockProposed }
func (Restock) isIntent() {}

// Unresolved means the backend answered but produced no actionable order.
type Unresolved struct {
	Message    string
	Transcript string
}

func (Unresolved) Kind() Kind { return KindUnresolved }
func (u Unresolved) Summary() string { return u.Message }
func (Unresolved) isIntent() {}

// Failed means the request did not produce an order. For CauseBackend the
// Message is the backend's own text; for CauseTransport it is a generic retry
// prompt and Err holds the underlying error for logging.
type Failed struct {
	Message string
	Cause   Cause
	Err     error
}

func (Failed) Kind() Kind { return KindFailed }
func (f Failed) Summary() string {
	if f.Cause == CauseBackend {
		return "Error: " + f.Message
	}
	return f.Message
}
func (Failed) isIntent() {}

// =============================================================================
// ACTION
// =============================================================================

// Action is the tappable card attached to an assistant message.
type Action struct {
	ID      string           `json:"id"`
	Kind    Kind             `json:"kind"`
	Sale    *draft.SaleDraft `json:"sale,omitempty"`
	Restock *RestockProposal `json:"restock,omitempty"`
}

// Editable reports whether selecting the action opens an edit session.
func (a *Action) Editable() bool {
	return a != nil && a.Kind == KindSale && a.Sale != nil
}

// Clone returns a deep copy.
func (a *Action) Clone() *Action {
	if a == nil {
		return nil
	}
	c := *a
	if a.Sale != nil {
		seed := a.Sale.Clone()
		c.Sale = &seed
	}
	if a.Restock != nil {
		p := *a.Restock
		c.Restock = &p
	}
	return &c
}

// ActionFor returns a new Action for Sale and Restock intents, nil otherwise.
func ActionFor(in Intent) *Action {
	switch v := in.(type) {
	case Sale:
		seed := v.Seed.Clone()
		return &Action{ID: uuid.NewString(), Kind: KindSale, Sale: &seed}
	case Restock:
		p := v.Proposal
		return &Action{ID: uuid.NewString(), Kind: KindRestock, Restock: &p}
	default:
		return nil
	}
}
