// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audio captures voice orders as WAV clips.
//
// The rest of the client depends only on the Capturer contract: probe once at
// start, then Start and Stop recordings. When the probe reports no capability
// the UI disables voice input instead of failing.
//
// # Implementations
//
//   - CommandCapturer: runs an external recorder (arecord or sox's rec) at
//     16 kHz mono and stops it with an interrupt
//   - FileCapturer: hands back a prerecorded WAV file, for demos and tests
//   - Unsupported: always reports no capability
//
// Use New to pick one from configuration.
package audio
