// tibo - Voice and text ordering client for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/jeranaias/tibo-tui/internal/cli"
	"github.com/jeranaias/tibo-tui/internal/config"
	"github.com/jeranaias/tibo-tui/internal/logging"
	"github.com/jeranaias/tibo-tui/internal/session"
	"github.com/jeranaias/tibo-tui/internal/ui/chat"
	"github.com/jeranaias/tibo-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cmd, args := cli.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", cli.WarningStyle.Render("[WARN]"), err)
		cfg = config.Default()
	}
	if args.BackendURL != "" {
		cfg.Backend.URL = args.BackendURL
	}
	config.SetGlobal(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd == cli.CmdTUI {
		if cli.CanRunTUI() && !args.NoTUI {
			os.Exit(runTUI(cfg, args))
		}
		cmd = cli.CmdChat
	}

	logger := newLogger(cfg, args, os.Stderr)
	env := cli.Env{Config: cfg, Logger: logger, Stdout: os.Stdout, Stderr: os.Stderr}
	if err := cli.Run(ctx, cmd, args, env); err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}

// runTUI starts the full-screen interface and returns the exit code.
// Logs go to a file so they do not tear the screen.
func runTUI(cfg *config.Config, args cli.Args) int {
	out, closeLog := openLogFile(cfg)
	defer closeLog()

	logger := newLogger(cfg, args, out)
	sess := session.NewFromConfig(cfg, logger)

	exportDir := cfg.Export.Dir
	if exportDir == "" {
		if dir, err := config.DefaultExportDir(); err == nil {
			exportDir = dir
		}
	}

	err := chat.Run(sess, styles.NewThemeFor(cfg.UI.Theme), chat.Options{
		ExportDir:  exportDir,
		BackendURL: cfg.Backend.URL,
		Compact:    cfg.UI.CompactMode,
		Logger:     logger,
	})
	if err != nil {
		logger.Error(context.Background(), "tui exited with error", err)
		cli.DisplayError(os.Stderr, err, false)
		return cli.ExitGeneralError
	}
	return cli.ExitSuccess
}

func newLogger(cfg *config.Config, args cli.Args, out io.Writer) *logging.Logger {
	level := logging.ParseLevel(cfg.Logging.Level)
	switch {
	case args.Verbose:
		level = zerolog.DebugLevel
	case args.Quiet && out == os.Stderr:
		level = zerolog.ErrorLevel
	}

	// Console output is colored; files get JSON lines.
	format := cfg.Logging.Format
	if out != os.Stderr {
		format = logging.FormatJSON
	}

	return logging.New(logging.Options{
		ServiceName: "tibo",
		Level:       level,
		Format:      format,
		Output:      out,
	})
}

// openLogFile opens the configured log file for appending, falling back to
// io.Discard when it cannot be created.
func openLogFile(cfg *config.Config) (io.Writer, func()) {
	path := cfg.Logging.File
	if path == "" {
		p, err := config.DefaultLogPath()
		if err != nil {
			return io.Discard, func() {}
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return io.Discard, func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return io.Discard, func() {}
	}
	return f, func() { _ = f.Close() }
}
