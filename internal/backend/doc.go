// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the order-intent backend.
//
// The backend turns a typed sentence or a recorded audio clip into a
// structured order. This package only moves bytes: it encodes requests,
// decodes the response envelope and classifies transport failures. Turning a
// Response into something the user can act on is the job of package intent.
//
// # Endpoints
//
//   - POST /process-text   JSON {"text": "..."}
//   - POST /process-audio  multipart form, field "audio_file"
//   - GET  /health         liveness and credential check
//   - GET  /stats          request counters
//
// # Errors
//
// A response with "status": "error" is not a Go error; it is returned as a
// Response so the caller can show the backend's message. Everything else
// (connection refused, timeout, undecodable body, oversized upload) is a
// *ClientError.
//
// # Usage
//
//	client := backend.NewClient()
//	resp, err := client.ProcessText(ctx, "vendí 2 coca cola a Juan")
package backend
