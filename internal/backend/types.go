// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Status values of the response envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// OrderKind is the normalized order type discriminator.
type OrderKind string

const (
	OrderSale    OrderKind = "sale"
	OrderRestock OrderKind = "restock"
	OrderUnknown OrderKind = "unknown"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ProcessTextRequest is the body of POST /process-text.
type ProcessTextRequest struct {
	Text string `json:"text"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Response is the envelope returned by /process-text and /process-audio.
type Response struct {
	Status           string `json:"status"`
	Error            string `json:"error,omitempty"`
	Transcript       string `json:"transcript,omitempty"`
	Order            *Order `json:"order,omitempty"`
	TicketID         string `json:"ticket_id,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
}

// IsError reports whether the backend flagged the request as failed.
func (r *Response) IsError() bool {
	return r != nil && strings.EqualFold(r.Status, StatusError)
}

// Order is the structured interpretation of the utterance.
//
// Older backends send the discriminator as "tipo", newer ones as "type".
type Order struct {
	Tipo      string `json:"tipo,omitempty"`
	Type      string `json:"type,omitempty"`
	Cliente   string `json:"cliente,omitempty"`
	Proveedor string `json:"proveedor,omitempty"`
	Fecha     string `json:"fecha,omitempty"`
	Items     []Item `json:"items,omitempty"`
}

// Kind maps the discriminator to an OrderKind.
func (o *Order) Kind() OrderKind {
	if o == nil {
		return OrderUnknown
	}
	tag := o.Tipo
	if tag == "" {
		tag = o.Type
	}
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "orden", "sale", "venta":
		return OrderSale
	case "ingreso", "restock":
		return OrderRestock
	default:
		return OrderUnknown
	}
}

// Item is one product of an order. Numbers may arrive as JSON numbers or
// numeric strings; absent or null values decode as invalid NullDecimals.
type Item struct {
	Producto       string              `json:"producto"`
	Cantidad       decimal.NullDecimal `json:"cantidad"`
	Unidad         string              `json:"unidad,omitempty"`
	PrecioUnitario decimal.NullDecimal `json:"precio_unitario"`
	PrecioTotal    decimal.NullDecimal `json:"precio_total"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Healthy reports whether the backend declared itself healthy.
func (h *HealthResponse) Healthy() bool {
	return h != nil && h.Status == "healthy"
}

// StatsResponse is returned by GET /stats.
type StatsResponse struct {
	RequestsTotal   int64   `json:"requests_total"`
	RequestsSuccess int64   `json:"requests_success"`
	RequestsError   int64   `json:"requests_error"`
	SuccessRate     float64 `json:"success_rate"`
	UptimeSeconds   int64   `json:"uptime_seconds"`
	StartupTime     string  `json:"startup_time"`
}
