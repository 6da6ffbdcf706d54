// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/tibo-tui/internal/audio"
	"github.com/jeranaias/tibo-tui/internal/draft"
	"github.com/jeranaias/tibo-tui/internal/intent"
	"github.com/jeranaias/tibo-tui/internal/session"
)

const askUsage = `tibo ask "3 tomates a 100 para Ana"  or  tibo ask --audio pedido.wav`

// HandleAsk sends one order and prints the proposal. Nothing is confirmed;
// use chat or the full-screen UI to edit and confirm.
func HandleAsk(ctx context.Context, args Args, env Env) error {
	if args.Query == "" && args.AudioFile == "" {
		return ErrMissingArgument("order", askUsage)
	}

	sess := session.NewFromConfig(env.Config, env.Logger)
	ctx = env.Logger.WithField(ctx, "command", "ask")

	var (
		req *session.Request
		err error
	)
	if args.AudioFile != "" {
		data, readErr := os.ReadFile(args.AudioFile)
		switch {
		case errors.Is(readErr, os.ErrNotExist):
			return NewNotFoundError("audio file", args.AudioFile)
		case readErr != nil:
			return NewCommandError("ask", "read audio", args.AudioFile, readErr)
		}
		req, err = sess.BeginAudio(audio.Clip{Data: data})
	} else {
		req, err = sess.BeginText(args.Query)
	}
	if err != nil {
		return NewValidationErrorWithExample("order", args.Query, err.Error(), askUsage)
	}

	start := time.Now()
	out := sess.Fetch(ctx, req)
	reply := sess.Apply(out)
	elapsed := time.Since(start)

	env.Logger.Debug(env.Logger.WithField(ctx, "elapsed_ms", elapsed.Milliseconds()), "ask finished")

	// Transport failures keep their cause for the exit code.
	var failure error
	switch reply.IntentKind {
	case intent.KindFailed:
		if out.Err != nil {
			failure = NewCommandError("ask", "submit", reply.Content, out.Err)
		} else {
			failure = &OrderError{Message: reply.Content}
		}
	case intent.KindUnresolved:
		failure = &OrderError{Message: reply.Content}
	}

	if args.JSON {
		data := AskData{
			Source:     req.Source.String(),
			Kind:       string(reply.IntentKind),
			Reply:      reply.Content,
			DurationMs: elapsed.Milliseconds(),
		}
		if reply.HasAction() {
			data.Action = reply.Action
			if reply.Action.Sale != nil {
				data.Total = draft.FormatMoney(reply.Action.Sale.Total())
			}
		}
		if failure != nil {
			resp := NewJSONErrorResponse("ask", failure)
			resp.Data = data
			_ = resp.Print(env.stdout())
			return reportedError{failure}
		}
		return NewJSONResponse("ask", data).Print(env.stdout())
	}

	if failure != nil {
		return failure
	}

	w := env.stdout()
	fmt.Fprintln(w, reply.Content)
	if reply.HasAction() {
		fmt.Fprint(w, renderMarkdown(actionMarkdown(reply.Action)))
	}
	if !args.Quiet {
		fmt.Fprintln(w, DimStyle.Render(fmt.Sprintf("(%s · usá `tibo chat` para editar y confirmar)", formatDuration(elapsed))))
	}
	return nil
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
