// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// stopGrace is how long a recorder gets to flush after the interrupt.
const stopGrace = 3 * time.Second

// CommandCapturer records by running an external program that writes a WAV
// file until interrupted.
type CommandCapturer struct {
	// Name is reported by Probe.
	Name string
	// Program is the executable looked up in PATH.
	Program string
	// Args builds the argument list for an output path.
	Args func(outPath string) []string
}

// NewArecord records with ALSA's arecord.
func NewArecord(opts Options) *CommandCapturer {
	return &CommandCapturer{
		Name:    RecorderArecord,
		Program: "arecord",
		Args: func(out string) []string {
			args := []string{"-q", "-f", "S16_LE", "-r", strconv.Itoa(opts.SampleRate), "-c", strconv.Itoa(opts.Channels), "-t", "wav"}
			if opts.Device != "" {
				args = append(args, "-D", opts.Device)
			}
			return append(args, out)
		},
	}
}

// NewRec records with sox's rec.
func NewRec(opts Options) *CommandCapturer {
	return &CommandCapturer{
		Name:    RecorderRec,
		Program: "rec",
		Args: func(out string) []string {
			return []string{"-q", "-r", strconv.Itoa(opts.SampleRate), "-c", strconv.Itoa(opts.Channels), "-b", "16", out}
		},
	}
}

func (c *CommandCapturer) installed() bool {
	_, err := exec.LookPath(c.Program)
	return err == nil
}

func (c *CommandCapturer) Probe(context.Context) Capability {
	if !c.installed() {
		return Capability{Recorder: c.Name, Reason: c.Program + " not found in PATH"}
	}
	return Capability{Supported: true, Recorder: c.Name}
}

// Start launches the recorder writing to a temp file. The process outlives
// ctx; only Stop ends it.
func (c *CommandCapturer) Start(context.Context) (*Recording, error) {
	if !c.installed() {
		return nil, ErrUnsupported
	}

	f, err := os.CreateTemp("", "tibo-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	f.Close()

	cmd := exec.Command(c.Program, c.Args(path)...)
	if err := cmd.Start(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("start %s: %w", c.Program, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	stop := func() error {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			// No SIGINT on Windows.
			_ = cmd.Process.Kill()
		}
		select {
		case err := <-done:
			return err
		case <-time.After(stopGrace):
			_ = cmd.Process.Kill()
			return <-done
		}
	}

	return &Recording{started: time.Now(), path: path, stop: stop}, nil
}

// Stop interrupts the recorder and reads back the file. A non-zero exit
// caused by the interrupt is not an error as long as audio was written.
func (c *CommandCapturer) Stop(rec *Recording) (Clip, error) {
	if rec == nil || rec.done || rec.stop == nil {
		return Clip{}, ErrNotRecording
	}
	rec.done = true
	defer os.Remove(rec.path)

	waitErr := rec.stop()
	elapsed := rec.Elapsed()

	data, err := os.ReadFile(rec.path)
	if err != nil {
		return Clip{}, fmt.Errorf("read recording: %w", err)
	}
	if len(data) == 0 {
		if waitErr != nil {
			var exitErr *exec.ExitError
			if !errors.As(waitErr, &exitErr) {
				return Clip{}, fmt.Errorf("%s: %w", c.Program, waitErr)
			}
		}
		return Clip{}, ErrEmptyClip
	}
	return Clip{Data: data, Duration: elapsed}, nil
}
