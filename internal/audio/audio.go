// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

var (
	// ErrUnsupported is returned by Start when capture is unavailable.
	ErrUnsupported = errors.New("audio: capture not supported")

	// ErrNotRecording is returned by Stop for a nil or finished handle.
	ErrNotRecording = errors.New("audio: no recording in progress")

	// ErrEmptyClip is returned when a recording produced no data.
	ErrEmptyClip = errors.New("audio: recording is empty")
)

// Recorder names accepted by New.
const (
	RecorderAuto    = "auto"
	RecorderArecord = "arecord"
	RecorderRec     = "rec"
	RecorderFile    = "file"
	RecorderNone    = "none"
)

// Capability is the result of a probe.
type Capability struct {
	Supported bool
	Recorder  string
	Reason    string
}

// Clip is a finished recording.
type Clip struct {
	Data     []byte
	Duration time.Duration
}

// Size returns the clip length in bytes.
func (c Clip) Size() int {
	return len(c.Data)
}

// Recording is an opaque in-progress capture handle.
type Recording struct {
	started time.Time
	path    string
	stop    func() error
	done    bool
}

// Started returns when the capture began.
func (r *Recording) Started() time.Time {
	return r.started
}

// Elapsed returns how long the capture has been running.
func (r *Recording) Elapsed() time.Duration {
	return time.Since(r.started)
}

// Capturer records audio clips.
type Capturer interface {
	// Probe reports whether capture can work on this machine.
	Probe(ctx context.Context) Capability
	// Start begins a capture.
	Start(ctx context.Context) (*Recording, error)
	// Stop ends a capture and returns the encoded clip.
	Stop(rec *Recording) (Clip, error)
}

// Options selects and configures a Capturer.
type Options struct {
	Enabled    bool
	Recorder   string
	File       string
	SampleRate int
	Channels   int
	Device     string
}

// New returns the Capturer described by opts. "auto" prefers arecord, then
// rec; when neither is installed the result is Unsupported.
func New(opts Options) Capturer {
	if !opts.Enabled {
		return Unsupported{Reason: "voice input disabled in config"}
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = 16000
	}
	if opts.Channels == 0 {
		opts.Channels = 1
	}

	switch strings.ToLower(opts.Recorder) {
	case RecorderNone:
		return Unsupported{Reason: "voice input disabled in config"}
	case RecorderFile:
		return &FileCapturer{Path: opts.File}
	case RecorderArecord:
		return NewArecord(opts)
	case RecorderRec:
		return NewRec(opts)
	default:
		for _, c := range []*CommandCapturer{NewArecord(opts), NewRec(opts)} {
			if c.installed() {
				return c
			}
		}
		return Unsupported{Reason: "no recorder found (install alsa-utils or sox)"}
	}
}

// =============================================================================
// UNSUPPORTED
// =============================================================================

// Unsupported is a Capturer that cannot record.
type Unsupported struct {
	Reason string
}

func (u Unsupported) Probe(context.Context) Capability {
	return Capability{Supported: false, Recorder: RecorderNone, Reason: u.Reason}
}

func (Unsupported) Start(context.Context) (*Recording, error) {
	return nil, ErrUnsupported
}

func (Unsupported) Stop(*Recording) (Clip, error) {
	return Clip{}, ErrNotRecording
}

// =============================================================================
// FILE
// =============================================================================

// FileCapturer replays a prerecorded file as every clip.
type FileCapturer struct {
	Path string
}

func (f *FileCapturer) Probe(context.Context) Capability {
	info, err := os.Stat(f.Path)
	if err != nil {
		return Capability{Recorder: RecorderFile, Reason: fmt.Sprintf("audio file unavailable: %v", err)}
	}
	if info.IsDir() || info.Size() == 0 {
		return Capability{Recorder: RecorderFile, Reason: "audio file is empty or a directory"}
	}
	return Capability{Supported: true, Recorder: RecorderFile}
}

func (f *FileCapturer) Start(context.Context) (*Recording, error) {
	if f.Path == "" {
		return nil, ErrUnsupported
	}
	return &Recording{started: time.Now(), path: f.Path}, nil
}

func (f *FileCapturer) Stop(rec *Recording) (Clip, error) {
	if rec == nil || rec.done {
		return Clip{}, ErrNotRecording
	}
	rec.done = true

	data, err := os.ReadFile(rec.path)
	if err != nil {
		return Clip{}, fmt.Errorf("read audio file: %w", err)
	}
	if len(data) == 0 {
		return Clip{}, ErrEmptyClip
	}
	return Clip{Data: data, Duration: rec.Elapsed()}, nil
}
