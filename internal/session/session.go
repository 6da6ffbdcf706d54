// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/tibo-tui/internal/audio"
	"github.com/jeranaias/tibo-tui/internal/backend"
	"github.com/jeranaias/tibo-tui/internal/config"
	"github.com/jeranaias/tibo-tui/internal/draft"
	"github.com/jeranaias/tibo-tui/internal/intent"
	"github.com/jeranaias/tibo-tui/internal/lifecycle"
	"github.com/jeranaias/tibo-tui/internal/logging"
	"github.com/jeranaias/tibo-tui/internal/model"
)

// MsgAudioRecorded is the user turn logged for a voice submission.
const MsgAudioRecorded = "🎙️ Audio grabado"

var (
	// ErrBusy is returned when a submission is already in flight.
	ErrBusy = errors.New("session: a request is already in progress")

	// ErrEmptyInput is returned for blank text or an empty clip.
	ErrEmptyInput = errors.New("session: empty input")

	// ErrAlreadyRecording is returned by StartRecording during a capture.
	ErrAlreadyRecording = errors.New("session: already recording")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the order-intent service. *backend.Client implements it.
type Backend interface {
	ProcessText(ctx context.Context, text string) (*backend.Response, error)
	ProcessAudio(ctx context.Context, data []byte) (*backend.Response, error)
	Health(ctx context.Context) (*backend.HealthResponse, error)
	Stats(ctx context.Context) (*backend.StatsResponse, error)
}

// Request is an accepted submission.
type Request struct {
	ID        string
	Source    intent.Source
	Text      string
	Audio     []byte
	StartedAt time.Time
}

// Outcome is the result of one backend round trip.
type Outcome struct {
	Request  *Request
	Response *backend.Response
	Err      error
	Elapsed  time.Duration
}

// =============================================================================
// SESSION
// =============================================================================

// Session owns one conversation.
//
// All methods are safe to call from multiple goroutines, but the intended
// pattern is a single writer with Fetch and StopRecording run off-loop.
type Session struct {
	mu sync.Mutex

	id       string
	client   Backend
	norm     *intent.Normalizer
	conv     *model.Conversation
	machine  *lifecycle.Machine
	capturer audio.Capturer
	logger   *logging.Logger

	requestTimeout time.Duration
	delay          time.Duration
	clock          func() time.Time

	inflight  *Request
	voice     audio.Capability
	recording *audio.Recording
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithCapturer sets the voice capturer. The default is audio.Unsupported.
func WithCapturer(c audio.Capturer) Option {
	return func(s *Session) { s.capturer = c }
}

// WithExecutionDelay sets the pause between Confirm and Complete.
func WithExecutionDelay(d time.Duration) Option {
	return func(s *Session) { s.delay = d }
}

// WithRequestTimeout bounds each backend call. Zero leaves it to the client.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Session) { s.requestTimeout = d }
}

// WithClock sets the clock used to date new sale drafts.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.clock = now }
}

// New creates a Session talking to client.
func New(client Backend, opts ...Option) *Session {
	s := &Session{
		id:       "sess_" + uuid.NewString(),
		client:   client,
		capturer: audio.Unsupported{Reason: "voice input not configured"},
		delay:    lifecycle.DefaultExecutionDelay,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("session_id", s.id)
	s.conv = model.NewConversation()
	s.norm = intent.NewNormalizer(intent.WithClock(s.clock), intent.WithLogger(s.logger))
	s.machine = lifecycle.New(s.conv,
		lifecycle.WithExecutionDelay(s.delay),
		lifecycle.WithLogger(s.logger),
	)
	return s
}

// NewFromConfig builds the backend client and capturer described by cfg.
func NewFromConfig(cfg *config.Config, logger *logging.Logger) *Session {
	client := backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL:           cfg.Backend.URL,
		Timeout:           cfg.Backend.Timeout(),
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		MaxUploadBytes:    cfg.Backend.MaxUploadBytes(),
	})
	capturer := audio.New(audio.Options{
		Enabled:    cfg.Audio.Enabled,
		Recorder:   cfg.Audio.Recorder,
		File:       cfg.Audio.File,
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		Device:     cfg.Audio.Device,
	})
	return New(client,
		WithLogger(logger),
		WithCapturer(capturer),
		WithExecutionDelay(cfg.Execution.Delay()),
		WithRequestTimeout(cfg.Backend.Timeout()),
	)
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Conversation returns the log. It is safe to read concurrently.
func (s *Session) Conversation() *model.Conversation {
	return s.conv
}

// =============================================================================
// SUBMISSION
// =============================================================================

// BeginText accepts typed input and logs the user turn.
func (s *Session) BeginText(text string) (*Request, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight != nil {
		return nil, ErrBusy
	}

	s.conv.AppendUser(text)
	return s.begin(&Request{Source: intent.SourceText, Text: text}), nil
}

// BeginAudio accepts a recorded clip and logs the user turn.
func (s *Session) BeginAudio(clip audio.Clip) (*Request, error) {
	if clip.Size() == 0 {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight != nil {
		return nil, ErrBusy
	}

	s.conv.AppendUser(MsgAudioRecorded)
	return s.begin(&Request{Source: intent.SourceAudio, Audio: clip.Data}), nil
}

func (s *Session) begin(req *Request) *Request {
	req.ID = uuid.NewString()
	req.StartedAt = time.Now()
	s.inflight = req

	ctx := s.logger.WithRequestID(context.Background(), req.ID)
	ctx = s.logger.WithField(ctx, "source", req.Source.String())
	s.logger.Info(ctx, "request submitted")
	return req
}

// Fetch performs the backend call for req. It touches no session state and
// may run on any goroutine.
func (s *Session) Fetch(ctx context.Context, req *Request) Outcome {
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	var (
		resp *backend.Response
		err  error
	)
	switch req.Source {
	case intent.SourceAudio:
		resp, err = s.client.ProcessAudio(ctx, req.Audio)
	default:
		resp, err = s.client.ProcessText(ctx, req.Text)
	}
	return Outcome{Request: req, Response: resp, Err: err, Elapsed: time.Since(req.StartedAt)}
}

// Apply resolves an outcome into an assistant message and proposes its action.
// Outcomes are logged in the order they are applied.
func (s *Session) Apply(out Outcome) model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := intent.SourceText
	ctx := context.Background()
	if out.Request != nil {
		src = out.Request.Source
		ctx = s.logger.WithRequestID(ctx, out.Request.ID)
		if s.inflight != nil && s.inflight.ID == out.Request.ID {
			s.inflight = nil
		}
	}

	in := s.norm.Resolve(ctx, out.Response, out.Err, src)
	action := intent.ActionFor(in)
	msg := s.conv.AppendAssistant(in, action)
	s.machine.Propose(action)

	ctx = s.logger.WithFields(ctx, map[string]any{
		"intent":     string(in.Kind()),
		"elapsed_ms": out.Elapsed.Milliseconds(),
	})
	s.logger.Info(ctx, "request resolved")
	return msg
}

// SubmitText runs BeginText, Fetch and Apply in sequence.
func (s *Session) SubmitText(ctx context.Context, text string) (model.Message, error) {
	req, err := s.BeginText(text)
	if err != nil {
		return model.Message{}, err
	}
	return s.Apply(s.Fetch(ctx, req)), nil
}

// SubmitAudio runs BeginAudio, Fetch and Apply in sequence.
func (s *Session) SubmitAudio(ctx context.Context, clip audio.Clip) (model.Message, error) {
	req, err := s.BeginAudio(clip)
	if err != nil {
		return model.Message{}, err
	}
	return s.Apply(s.Fetch(ctx, req)), nil
}

// Busy reports whether a submission is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight != nil
}

// =============================================================================
// VOICE
// =============================================================================

// ProbeVoice checks the capturer once and remembers the result.
func (s *Session) ProbeVoice(ctx context.Context) audio.Capability {
	capability := s.capturer.Probe(ctx)

	s.mu.Lock()
	s.voice = capability
	s.mu.Unlock()

	if !capability.Supported {
		s.logger.Warn(s.logger.WithField(ctx, "reason", capability.Reason), "voice input disabled")
	}
	return capability
}

// StartRecording begins a capture. Voice must have probed as supported.
func (s *Session) StartRecording(ctx context.Context) (*audio.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.voice.Supported {
		return nil, audio.ErrUnsupported
	}
	if s.recording != nil {
		return nil, ErrAlreadyRecording
	}
	if s.inflight != nil {
		return nil, ErrBusy
	}

	rec, err := s.capturer.Start(ctx)
	if err != nil {
		return nil, err
	}
	s.recording = rec
	return rec, nil
}

// StopRecording ends the capture and returns the clip. It blocks while the
// recorder flushes, so event loops call it off-loop.
func (s *Session) StopRecording(rec *audio.Recording) (audio.Clip, error) {
	s.mu.Lock()
	if s.recording == rec {
		s.recording = nil
	}
	s.mu.Unlock()

	clip, err := s.capturer.Stop(rec)
	if err != nil {
		s.logger.Error(context.Background(), "recording failed", err)
	}
	return clip, err
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Select opens the sale card actionID for editing.
func (s *Session) Select(actionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Select(actionID)
}

// Edit applies fn to the open draft. See lifecycle.Machine.Edit.
func (s *Session) Edit(fn func(*draft.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Edit(fn)
}

// Confirm starts executing the open draft. The caller must call Complete
// with the execution ID after Execution.Delay.
func (s *Session) Confirm() (*lifecycle.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Confirm()
}

// Complete finishes an execution.
func (s *Session) Complete(executionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Complete(executionID)
}

// Cancel abandons the open draft.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Cancel()
}

// Draft returns a snapshot of the open draft.
func (s *Session) Draft() (draft.SaleDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Store().Current()
}

// State returns the lifecycle state.
func (s *Session) State() lifecycle.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// =============================================================================
// BACKEND STATUS
// =============================================================================

// Health queries the backend health endpoint.
func (s *Session) Health(ctx context.Context) (*backend.HealthResponse, error) {
	return s.client.Health(ctx)
}

// Stats queries the backend counters.
func (s *Session) Stats(ctx context.Context) (*backend.StatsResponse, error) {
	return s.client.Stats(ctx)
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a read-only view for renderers.
type Snapshot struct {
	SessionID    string
	Messages     iter.Seq[model.Message]
	MessageCount int
	State        lifecycle.State
	Pending      *intent.Action
	// Draft is nil unless a sale is open.
	Draft        *draft.SaleDraft
	DisplayTotal string
	Busy         bool
	Executing    bool
	Recording    bool
	Voice        audio.Capability
}

// Editing reports whether the edit surface should be shown.
func (s Snapshot) Editing() bool {
	return s.State == lifecycle.Editing && s.Draft != nil
}

// Snapshot returns the current projection.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:    s.id,
		Messages:     s.conv.All(),
		MessageCount: s.conv.Len(),
		State:        s.machine.State(),
		Pending:      s.machine.Pending(),
		DisplayTotal: s.machine.Store().DisplayTotal(),
		Busy:         s.inflight != nil,
		Executing:    s.machine.State() == lifecycle.Executing,
		Recording:    s.recording != nil,
		Voice:        s.voice,
	}
	if d, ok := s.machine.Store().Current(); ok {
		snap.Draft = &d
	}
	return snap
}
