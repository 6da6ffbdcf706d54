// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/tibo-tui/internal/audio"
	"github.com/jeranaias/tibo-tui/internal/backend"
	"github.com/jeranaias/tibo-tui/internal/session"
)

// =============================================================================
// BACKEND MESSAGES
// =============================================================================

// responseMsg carries a finished backend round trip back to the loop.
type responseMsg struct {
	outcome session.Outcome
}

// healthMsg reports the backend status line data.
type healthMsg struct {
	health *backend.HealthResponse
	stats  *backend.StatsResponse
	err    error
	at     time.Time
}

// healthTickMsg schedules the next health poll.
type healthTickMsg struct{}

// =============================================================================
// LIFECYCLE MESSAGES
// =============================================================================

// executeDoneMsg fires when the confirm delay elapses.
type executeDoneMsg struct {
	executionID string
}

// =============================================================================
// VOICE MESSAGES
// =============================================================================

// voiceProbedMsg carries the one-time capability probe.
type voiceProbedMsg struct {
	capability audio.Capability
}

// recordingStoppedMsg carries the clip after the recorder flushed.
type recordingStoppedMsg struct {
	clip audio.Clip
	err  error
}

// =============================================================================
// STATUS MESSAGES
// =============================================================================

// exportedMsg reports a transcript export.
type exportedMsg struct {
	path string
	err  error
}
