// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateWidth: column-aware truncation for card previews
//   - PadRight, PadLeft: column-aware alignment for receipts
//   - SingleLine: collapse multi-line text for one-line previews
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	preview := util.TruncateWidth(msg.Content, 40)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
