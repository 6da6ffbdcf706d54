// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jeranaias/tibo-tui/internal/backend"
)

// HandleHealth queries the backend's /health and /stats endpoints.
func HandleHealth(ctx context.Context, args Args, env Env) error {
	cfg := env.Config
	client := backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL:           cfg.Backend.URL,
		Timeout:           cfg.Backend.Timeout(),
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		MaxUploadBytes:    cfg.Backend.MaxUploadBytes(),
	})

	ctx, cancel := context.WithTimeout(ctx, cfg.Backend.Timeout())
	defer cancel()

	data := HealthData{BackendURL: cfg.Backend.URL}

	start := time.Now()
	health, err := client.Health(ctx)
	data.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		env.Logger.Warn(env.Logger.WithField(ctx, "error", err.Error()), "health check failed")
		if args.JSON {
			resp := NewJSONErrorResponse("health", err)
			resp.Data = data
			_ = resp.Print(env.stdout())
			return reportedError{err}
		}
		return NewCommandError("health", "check", "backend at "+cfg.Backend.URL+" did not answer", err)
	}

	data.Healthy = health.Healthy()
	data.Status = health.Status
	data.Version = health.Version

	// Stats are optional; older backends lack the endpoint.
	if stats, err := client.Stats(ctx); err == nil {
		data.Stats = &HealthStats{
			RequestsTotal:   stats.RequestsTotal,
			RequestsSuccess: stats.RequestsSuccess,
			RequestsError:   stats.RequestsError,
			SuccessRate:     stats.SuccessRate,
			UptimeSeconds:   stats.UptimeSeconds,
		}
	}

	if args.JSON {
		return NewJSONResponse("health", data).Print(env.stdout())
	}
	printHealth(env, data)

	if !data.Healthy {
		return NewCommandError("health", "check", "backend reported status "+data.Status, nil)
	}
	return nil
}

func printHealth(env Env, data HealthData) {
	w := env.stdout()
	fmt.Fprintln(w, TitleStyle.Render("Backend"))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("URL"), data.BackendURL)
	fmt.Fprintf(w, "%s%s %s\n", RenderLabel("Estado"), RenderStatus(data.Status), data.Status)
	if data.Version != "" {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Versión"), data.Version)
	}
	fmt.Fprintf(w, "%s%dms\n", RenderLabel("Latencia"), data.LatencyMs)

	if s := data.Stats; s != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Pedidos"))
		fmt.Fprintf(w, "%s%d\n", RenderLabel("Total"), s.RequestsTotal)
		fmt.Fprintf(w, "%s%d\n", RenderLabel("Exitosos"), s.RequestsSuccess)
		fmt.Fprintf(w, "%s%d\n", RenderLabel("Con error"), s.RequestsError)
		fmt.Fprintf(w, "%s%.1f%%\n", RenderLabel("Tasa de éxito"), s.SuccessRate)
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Activo hace"), formatDuration(time.Duration(s.UptimeSeconds)*time.Second))
	}
}
