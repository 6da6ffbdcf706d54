// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"io"
	"time"
)

// JSONResponse is the response envelope for --json output.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data any `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the RFC3339 time the response was generated
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the JSON response to w, indented.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// VersionData is returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// HealthData is returned by the health command.
type HealthData struct {
	BackendURL string       `json:"backend_url"`
	Healthy    bool         `json:"healthy"`
	Status     string       `json:"status,omitempty"`
	Version    string       `json:"version,omitempty"`
	LatencyMs  int64        `json:"latency_ms"`
	Stats      *HealthStats `json:"stats,omitempty"`
}

// HealthStats mirrors the backend's /stats counters.
type HealthStats struct {
	RequestsTotal   int64   `json:"requests_total"`
	RequestsSuccess int64   `json:"requests_success"`
	RequestsError   int64   `json:"requests_error"`
	SuccessRate     float64 `json:"success_rate"`
	UptimeSeconds   int64   `json:"uptime_seconds"`
}

// AskData is returned by the ask command.
type AskData struct {
	Source     string `json:"source"`
	Kind       string `json:"kind"`
	Reply      string `json:"reply"`
	Action     any    `json:"action,omitempty"`
	Total      string `json:"total,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// ConfigData is returned by config show/get.
type ConfigData struct {
	Path   string         `json:"path,omitempty"`
	Values map[string]any `json:"values"`
}
