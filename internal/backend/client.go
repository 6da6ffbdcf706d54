// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents a transport-level failure talking to the backend.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any *ClientError of the same Type, so the sentinels below work
// with errors.Is regardless of Message or Cause.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnreachable
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeInvalidResponse
	ErrTypeHTTPStatus
	ErrTypeUploadTooLarge
	ErrTypeUnsupportedAudio
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeUnreachable:
		return "unreachable"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeConnection:
		return "connection"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	case ErrTypeHTTPStatus:
		return "http_status"
	case ErrTypeUploadTooLarge:
		return "upload_too_large"
	case ErrTypeUnsupportedAudio:
		return "unsupported_audio"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrUnreachable      = &ClientError{Type: ErrTypeUnreachable, Message: "backend is not reachable"}
	ErrTimeout          = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrUploadTooLarge   = &ClientError{Type: ErrTypeUploadTooLarge, Message: "audio clip exceeds upload limit"}
	ErrUnsupportedAudio = &ClientError{Type: ErrTypeUnsupportedAudio, Message: "unsupported audio format"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultTimeout        = 30 * time.Second
	DefaultRequestsPerSec = 2.0
	DefaultMaxUploadBytes = 10 * 1024 * 1024

	// maxErrorBody bounds how much of a failed response is read.
	maxErrorBody = 1 << 20
)

// allowedAudio maps detected extensions to the upload extension the backend
// accepts (.wav, .mp3, .m4a, .flac).
var allowedAudio = map[string]string{
	".wav":  ".wav",
	".mp3":  ".mp3",
	".m4a":  ".m4a",
	".mp4":  ".m4a",
	".flac": ".flac",
}

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://localhost:8000)
	BaseURL string

	// Timeout per request (default: 30s)
	Timeout time.Duration

	// RequestsPerSecond throttles submissions (default: 2, burst 1)
	RequestsPerSecond float64

	// MaxUploadBytes rejects larger clips before sending (default: 10 MB)
	MaxUploadBytes int64

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           DefaultBaseURL,
		Timeout:           DefaultTimeout,
		RequestsPerSecond: DefaultRequestsPerSec,
		MaxUploadBytes:    DefaultMaxUploadBytes,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the order-intent backend.
//
// The Client is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = DefaultRequestsPerSec
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// ORDER PROCESSING
// =============================================================================

// ProcessText submits a typed utterance.
func (c *Client) ProcessText(ctx context.Context, text string) (*Response, error) {
	body, err := json.Marshal(ProcessTextRequest{Text: text})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}
	return c.submit(ctx, "/process-text", "application/json", body)
}

// ProcessAudio uploads a recorded clip. The container format is sniffed from
// the bytes; only formats the backend accepts are sent.
func (c *Client) ProcessAudio(ctx context.Context, data []byte) (*Response, error) {
	if int64(len(data)) > c.config.MaxUploadBytes {
		return nil, &ClientError{
			Type:    ErrTypeUploadTooLarge,
			Message: fmt.Sprintf("audio clip is %d bytes, limit is %d", len(data), c.config.MaxUploadBytes),
		}
	}

	mtype, ext, err := DetectAudio(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio_file"; filename="recording%s"`, ext))
	header.Set("Content-Type", mtype)
	part, err := form.CreatePart(header)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to build upload", Cause: err}
	}
	if _, err := part.Write(data); err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to build upload", Cause: err}
	}
	if err := form.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to build upload", Cause: err}
	}

	return c.submit(ctx, "/process-audio", form.FormDataContentType(), buf.Bytes())
}

// DetectAudio returns the MIME type and upload extension of an audio clip.
func DetectAudio(data []byte) (mimeType, ext string, err error) {
	if len(data) == 0 {
		return "", "", &ClientError{Type: ErrTypeUnsupportedAudio, Message: "audio clip is empty"}
	}
	mt := mimetype.Detect(data)
	uploadExt, ok := allowedAudio[mt.Extension()]
	if !ok {
		return "", "", &ClientError{
			Type:    ErrTypeUnsupportedAudio,
			Message: "unsupported audio format " + mt.String(),
		}
	}
	return mt.String(), uploadExt, nil
}

// submit posts body to path and decodes the envelope. Error envelopes are
// returned as responses, even on non-2xx status codes.
func (c *Client) submit(ctx context.Context, path, contentType string, body []byte) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classify(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var envelope Response
		if err := json.Unmarshal(raw, &envelope); err == nil && envelope.IsError() {
			return &envelope, nil
		}
		return nil, &ClientError{
			Type:       ErrTypeHTTPStatus,
			Message:    "backend request failed: " + resp.Status,
			StatusCode: resp.StatusCode,
		}
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return &result, nil
}

// =============================================================================
// HEALTH & STATS
// =============================================================================

// Health queries GET /health. A 503 with an error envelope is reported as a
// ClientError carrying the backend's message.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var result HealthResponse
	if err := c.getJSON(ctx, "/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats queries GET /stats.
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	var result StatsResponse
	if err := c.getJSON(ctx, "/stats", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := "unexpected status from backend: " + resp.Status
		var envelope Response
		if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
			msg = envelope.Error
		}
		return &ClientError{Type: ErrTypeHTTPStatus, Message: msg, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// classify turns a transport error into a ClientError.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return &ClientError{Type: ErrTypeUnreachable, Message: ErrUnreachable.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: "backend request failed", Cause: err}
}
