// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tibo.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: main configuration structure
//   - BackendConfig: order-intent backend URL, timeout, throttle, upload limit
//   - AudioConfig: recorder selection and capture format
//   - ExecutionConfig: simulated commit delay after confirming a sale
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (TIBO_*), including those loaded from .env
//   - ~/.tibo/config.toml
//   - ~/.tibo/config.json
//   - Built-in defaults
//
// TIBO_HOME relocates ~/.tibo.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := backend.NewClientWithConfig(&backend.ClientConfig{
//	    BaseURL: cfg.Backend.URL,
//	    Timeout: cfg.Backend.Timeout(),
//	})
package config
