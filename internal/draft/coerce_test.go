// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package draft

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"3", "3"},
		{"3abc", "3"},
		{"2.7", "2"},
		{"x", "0"},
		{"", "0"},
		{"  12 ", "12"},
		{"+4", "4"},
		{"-2", "-2"},
		{"-", "0"},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got := CoerceQuantity(tc.raw)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("CoerceQuantity(%q) = %s, want %s", tc.raw, got, tc.want)
			}
		})
	}
}

func TestCoercePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"100", "100"},
		{"12.5$", "12.5"},
		{"12.", "12"},
		{".5", "0.5"},
		{"-.5", "-0.5"},
		{"x", "0"},
		{"", "0"},
		{"1e2", "100"},
		{"-3.25", "-3.25"},
		{"0.1", "0.1"},
		{"2.5e3", "2500"},
		{"1e999999999", "0"},
		{"-1e999999999", "0"},
		{"1e-999999999", "0"},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got := CoercePrice(tc.raw)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("CoercePrice(%q) = %s, want %s", tc.raw, got, tc.want)
			}
		})
	}
}
