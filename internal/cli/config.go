// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/tibo-tui/internal/config"
)

const configUsage = "tibo config set backend.url http://localhost:8000"

// HandleConfig handles the "config" command.
func HandleConfig(args Args, env Env) error {
	switch strings.ToLower(args.Subcommand) {
	case "", "show":
		return handleConfigShow(env.Config, args.JSON, env.stdout())
	case "get":
		return handleConfigGet(env.Config, args.ConfigKey, args.JSON, env.stdout())
	case "set":
		return handleConfigSet(args.ConfigKey, args.ConfigVal, env.stdout())
	case "path":
		return handleConfigPath(args.JSON, env.stdout())
	case "keys":
		for _, k := range config.GetAllKeys() {
			fmt.Fprintln(env.stdout(), k)
		}
		return nil
	default:
		return NewValidationErrorWithExample("config subcommand", args.Subcommand,
			"expected show, get, set, path or keys", configUsage)
	}
}

// configValues flattens cfg into dot-notation keys.
func configValues(cfg *config.Config) map[string]any {
	values := make(map[string]any)
	for _, key := range config.GetAllKeys() {
		if v, err := cfg.Get(key); err == nil {
			values[key] = v
		}
	}
	return values
}

func handleConfigShow(cfg *config.Config, jsonMode bool, w io.Writer) error {
	path, _ := config.ConfigPathTOML()
	if jsonMode {
		return NewJSONResponse("config", ConfigData{Path: path, Values: configValues(cfg)}).Print(w)
	}

	fmt.Fprintln(w, TitleStyle.Render("tibo configuration"))
	fmt.Fprintln(w, DimStyle.Render(path))
	fmt.Fprintln(w)

	section := ""
	for _, key := range config.GetAllKeys() {
		head, _, _ := strings.Cut(key, ".")
		if head != section {
			if section != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, ValueStyle.Bold(true).Render("["+head+"]"))
			section = head
		}
		v, _ := cfg.Get(key)
		fmt.Fprintf(w, "  %s%v\n", RenderLabel(strings.TrimPrefix(key, head+".")), v)
	}
	return nil
}

func handleConfigGet(cfg *config.Config, key string, jsonMode bool, w io.Writer) error {
	if key == "" {
		return ErrMissingArgument("key", "tibo config get backend.url")
	}
	v, err := cfg.Get(key)
	if err != nil {
		return NewNotFoundError("config key", key)
	}
	if jsonMode {
		return NewJSONResponse("config", ConfigData{Values: map[string]any{key: v}}).Print(w)
	}
	fmt.Fprintln(w, v)
	return nil
}

func handleConfigSet(key, value string, w io.Writer) error {
	if key == "" {
		return ErrMissingArgument("key", configUsage)
	}
	if value == "" {
		return ErrMissingArgument("value", configUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("config", "load", "current config is invalid; fix or remove it first", err)
	}

	key = strings.ToLower(key)
	if err := cfg.Set(key, value); err != nil {
		return NewValidationErrorWithExample("key", key, err.Error(), configUsage)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if err := config.EnsureConfigDir(); err != nil {
		return NewCommandError("config", "set", "could not create config directory", err)
	}
	if err := config.Save(cfg); err != nil {
		return NewCommandError("config", "set", "could not save", err)
	}

	fmt.Fprintf(w, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

func handleConfigPath(jsonMode bool, w io.Writer) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return NewCommandError("config", "path", "could not resolve config directory", err)
	}
	if jsonMode {
		return NewJSONResponse("config", ConfigData{Path: path, Values: map[string]any{}}).Print(w)
	}
	fmt.Fprintln(w, path)
	return nil
}
