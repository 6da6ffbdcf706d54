// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the line-mode commands of tibo.
//
// The full-screen UI lives in ui/chat; this package covers everything that
// runs without it: one-shot orders, the chat REPL, backend health and the
// configuration editor.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed arguments with global and command-specific flags
//   - ArgParser: Flag and positional parsing shared by subcommands
//   - Env: Configuration, logger and output streams handed to each command
//   - CommandError: Structured failure mapped to an exit code by GetExitCode
//
// # Usage
//
//	cmd, args := cli.Parse()
//	env := cli.Env{Config: cfg, Logger: logger, Stdout: os.Stdout, Stderr: os.Stderr}
//	if err := cli.Run(ctx, cmd, args, env); err != nil {
//	    cli.DisplayError(env.Stderr, err, args.JSON)
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands Overview
//
//   - ask: Send one order and print the proposal
//   - chat: Interactive REPL with select, edit, confirm and cancel
//   - health: Backend /health and /stats
//   - config: Show, get and set configuration keys
//   - version: Build information
//
// ask, health, config and version accept --json.
package cli
