// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package draft

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	integerPrefix = regexp.MustCompile(`^[+-]?\d+`)
	decimalPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// CoerceQuantity parses the leading integer of raw. "3abc" is 3, "2.7" is 2,
// anything without a leading integer is 0.
func CoerceQuantity(raw string) decimal.Decimal {
	match := integerPrefix.FindString(strings.TrimSpace(raw))
	if match == "" {
		return decimal.Zero
	}
	return parseNumber(match)
}

// CoercePrice parses the leading decimal number of raw as a float. "12.5$" is
// 12.5, anything without a leading number is 0. Values that overflow a float64
// are 0; values that underflow it round to 0.
func CoercePrice(raw string) decimal.Decimal {
	match := decimalPrefix.FindString(strings.TrimSpace(raw))
	if match == "" {
		return decimal.Zero
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// parseNumber converts a signed integer match ("+3", "-2") to a decimal.
func parseNumber(s string) decimal.Decimal {
	negative := strings.HasPrefix(s, "-")
	d, err := decimal.NewFromString(strings.TrimLeft(s, "+-"))
	if err != nil {
		return decimal.Zero
	}
	if negative {
		return d.Neg()
	}
	return d
}
