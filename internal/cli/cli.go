// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/jeranaias/tibo-tui/internal/config"
	"github.com/jeranaias/tibo-tui/internal/logging"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdHealth
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// String returns the command name used in JSON output.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdHealth:
		return "health"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool   // Output in JSON format
	BackendURL string // Overrides backend.url for this run
	NoTUI      bool   // Force the line-mode REPL

	// Command-specific
	Query      string
	AudioFile  string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Name is the unrecognized command for CmdUnknown.
	Name string

	// Raw args (remaining after the command name)
	Raw []string
}

// Env carries what every command needs.
type Env struct {
	Config *config.Config
	Logger *logging.Logger
	Stdout io.Writer
	Stderr io.Writer
}

func (e Env) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func (e Env) stderr() io.Writer {
	if e.Stderr == nil {
		return os.Stderr
	}
	return e.Stderr
}

const usageText = `tibo - voice and text ordering from the terminal

Dictate or type an order, review the proposed sale, edit it and confirm.

Usage:
  tibo                          Start the full-screen UI (default)
  tibo ask "3 tomates a 100"    Send one order and print the proposal
    --audio FILE                Send a WAV/MP3/M4A/FLAC file instead of text
  tibo chat                     Line-mode chat (select, edit, confirm)
  tibo health                   Backend health and request statistics
  tibo config [show|get|set|path|keys]
  tibo version                  Build information
  tibo help                     This help

Global flags:
  --url URL                     Backend base URL for this run
  --json                        Machine-readable output (ask, health, config, version)
  --no-tui                      Use the line-mode chat even on a terminal
  -q, --quiet                   Less output
  -v, --verbose                 Debug logging

Environment:
  TIBO_HOME                     Config directory (default ~/.tibo)
  TIBO_BACKEND_URL, TIBO_TIMEOUT, TIBO_LOG_LEVEL, TIBO_RECORDER, TIBO_AUDIO_FILE
  A .env file in the working directory is loaded first.

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "tibo version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments and returns the command and args.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	name := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch name {
	case "tui":
		return CmdTUI, parsed

	case "ask", "pedido":
		parseAskArgs(&parsed, remaining)
		return CmdAsk, parsed

	case "chat", "repl":
		return CmdChat, parsed

	case "health", "status", "s":
		return CmdHealth, parsed

	case "config":
		parseConfigArgs(&parsed, remaining)
		return CmdConfig, parsed

	case "version", "--version", "-V":
		return CmdVersion, parsed

	case "help", "--help", "-h":
		return CmdHelp, parsed

	default:
		parsed.Name = name
		return CmdUnknown, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Flags after the command name are global too, so "tibo ask --json x" works.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var args Args
	var remaining []string

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "-q" || arg == "--quiet":
			args.Quiet = true
		case arg == "-v" || arg == "--verbose":
			args.Verbose = true
		case arg == "--json":
			args.JSON = true
		case arg == "--no-tui":
			args.NoTUI = true
		case arg == "--url":
			if i+1 < len(argv) {
				i++
				args.BackendURL = argv[i]
			}
		case strings.HasPrefix(arg, "--url="):
			args.BackendURL = strings.TrimPrefix(arg, "--url=")
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, args
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.AudioFile = p.Flag("audio")
	args.Query = JoinPositionalArgs(p, 0)
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = p.Subcommand()
	args.ConfigKey = p.Positional(1)
	args.ConfigVal = JoinPositionalArgs(p, 2)
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes a line-mode command. CmdTUI is handled by the caller, which
// owns the terminal setup.
func Run(ctx context.Context, cmd Command, args Args, env Env) error {
	if env.Config == nil {
		env.Config = config.Global()
	}
	if args.BackendURL != "" {
		cfg := env.Config.Clone()
		cfg.Backend.URL = args.BackendURL
		env.Config = cfg
	}

	switch cmd {
	case CmdAsk:
		return HandleAsk(ctx, args, env)
	case CmdChat:
		return HandleChat(ctx, args, env)
	case CmdHealth:
		return HandleHealth(ctx, args, env)
	case CmdConfig:
		return HandleConfig(args, env)
	case CmdVersion:
		return HandleVersion(args, env)
	case CmdHelp:
		PrintUsage(env.stdout())
		return nil
	case CmdUnknown:
		return unknownCommand(args.Name)
	default:
		return NewCommandError(cmd.String(), "run", "not a line-mode command", nil)
	}
}

func unknownCommand(name string) error {
	if s := SuggestCommand(name); s != "" {
		return NewValidationErrorWithExample("command", name, "unknown command", "tibo "+s)
	}
	return NewValidationError("command", name, "unknown command; see tibo help")
}

// HandleVersion handles the "version" command with JSON output support.
func HandleVersion(args Args, env Env) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}).Print(env.stdout())
	}
	PrintVersion(env.stdout())
	return nil
}
