// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tibo-tui/internal/audio"
	"github.com/jeranaias/tibo-tui/internal/backend"
	"github.com/jeranaias/tibo-tui/internal/config"
	"github.com/jeranaias/tibo-tui/internal/intent"
	"github.com/jeranaias/tibo-tui/internal/lifecycle"
	"github.com/jeranaias/tibo-tui/internal/logging"
	"github.com/jeranaias/tibo-tui/internal/session"
)

const saleAna = `{
	"status": "success",
	"transcript": "tres tomates a cien para Ana",
	"order": {"tipo": "venta", "cliente": "Ana", "items": [
		{"producto": "Tomates", "cantidad": 3, "precio_unitario": 100}
	]},
	"ticket_id": "T-1"
}`

// =============================================================================
// HELPERS
// =============================================================================

// newBackend serves body for orders plus fixed health and stats replies.
func newBackend(t *testing.T, body string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/process-text", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/process-audio", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"healthy","version":"1.0.0","timestamp":"2025-03-14T10:00:00Z"}`)
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"requests_total":10,"requests_success":9,"requests_error":1,"success_rate":90,"uptime_seconds":3600}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEnv(t *testing.T, url string) (Env, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Backend.URL = url
	cfg.Audio.Enabled = false
	cfg.Execution.DelayMs = 0
	var out bytes.Buffer
	return Env{Config: cfg, Logger: logging.Nop(), Stdout: &out, Stderr: &out}, &out
}

// scriptReader feeds fixed lines to the REPL.
type scriptReader struct {
	lines []string
}

func (s *scriptReader) ReadInput(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func newTestREPL(t *testing.T, body string, lines ...string) (*repl, *bytes.Buffer) {
	t.Helper()
	srv := newBackend(t, body)
	client := backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL:           srv.URL,
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
	})
	sess := session.New(client, session.WithLogger(logging.Nop()), session.WithExecutionDelay(0))

	var out bytes.Buffer
	r := newREPL(sess, &scriptReader{lines: lines}, &out)
	r.render = func(s string) string { return s }
	r.sleep = func(time.Duration) {}
	r.exportDir = t.TempDir()
	return r, &out
}

// run executes lines and fails on the first error.
func run(t *testing.T, r *repl, lines ...string) {
	t.Helper()
	for _, line := range lines {
		_, err := r.execute(context.Background(), line)
		require.NoError(t, err, line)
	}
}

// =============================================================================
// PARSING
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name  string
		argv  []string
		cmd   Command
		check func(t *testing.T, a Args)
	}{
		{name: "no args starts tui", argv: nil, cmd: CmdTUI},
		{
			name: "ask joins words",
			argv: []string{"ask", "3", "tomates", "a", "100"},
			cmd:  CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "3 tomates a 100", a.Query)
			},
		},
		{
			name: "ask with audio",
			argv: []string{"ask", "--audio", "pedido.wav"},
			cmd:  CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "pedido.wav", a.AudioFile)
				assert.Empty(t, a.Query)
			},
		},
		{
			name: "global flags after command",
			argv: []string{"health", "--json", "--url", "http://b:9000"},
			cmd:  CmdHealth,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.JSON)
				assert.Equal(t, "http://b:9000", a.BackendURL)
			},
		},
		{
			name: "config set",
			argv: []string{"config", "set", "backend.url", "http://x:1"},
			cmd:  CmdConfig,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "set", a.Subcommand)
				assert.Equal(t, "backend.url", a.ConfigKey)
				assert.Equal(t, "http://x:1", a.ConfigVal)
			},
		},
		{name: "status alias", argv: []string{"status"}, cmd: CmdHealth},
		{name: "no-tui", argv: []string{"--no-tui"}, cmd: CmdTUI, check: func(t *testing.T, a Args) { assert.True(t, a.NoTUI) }},
		{
			name: "unknown",
			argv: []string{"chta"},
			cmd:  CmdUnknown,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "chta", a.Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			assert.Equal(t, tt.cmd, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"set", "ui.theme", "dark", "--json", "--format=md", "-o", "out"})
	assert.Equal(t, "set", p.Subcommand())
	assert.Equal(t, "ui.theme", p.Positional(1))
	assert.Equal(t, "dark", p.Positional(2))
	assert.Equal(t, "", p.Positional(9))
	assert.True(t, p.BoolFlag("json"))
	assert.Equal(t, "md", p.Flag("format"))
	assert.Equal(t, "out", p.Flag("-o"))
	assert.True(t, p.HasFlag("--format"))
	assert.Equal(t, "fallback", p.FlagOrDefault("missing", "fallback"))
	assert.Equal(t, 3, p.PositionalCount())
}

func TestParseIntWithValidation(t *testing.T) {
	n, err := ParseIntWithValidation("2", "item")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, bad := range []string{"", "x", "0", "-1"} {
		_, err := ParseIntWithValidation(bad, "item")
		assert.Error(t, err, bad)
	}
}

func TestSuggestCommand(t *testing.T) {
	tests := map[string]string{
		"chta":   "chat",
		"helth":  "health",
		"confg":  "config",
		"x":      "",
		"chat":   "",
		"zzzzzz": "",
	}
	for input, want := range tests {
		assert.Equal(t, want, SuggestCommand(input), input)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("x", "y", "z"), ExitUsageError},
		{"not found", NewNotFoundError("file", "a.wav"), ExitNotFoundError},
		{"config", fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}), ExitConfigError},
		{"timeout", NewCommandError("ask", "submit", "x", backend.ErrTimeout), ExitTimeoutError},
		{"deadline", context.DeadlineExceeded, ExitTimeoutError},
		{"transport", NewCommandError("ask", "submit", "x", &backend.ClientError{Type: backend.ErrTypeConnection, Message: "refused"}), ExitNetworkError},
		{"order", &OrderError{Message: "Error: x"}, ExitOrderError},
		{"reported order", reportedError{&OrderError{Message: "x"}}, ExitOrderError},
		{"voice", audio.ErrUnsupported, ExitUsageError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayErrorJSON(&buf, NewNotFoundError("audio file", "x.wav"))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "not_found_error", out["error_type"])
	assert.Equal(t, float64(ExitNotFoundError), out["exit_code"])
}

func TestDisplayError_SkipsReported(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, reportedError{errors.New("x")}, false)
	assert.Empty(t, buf.String())

	DisplayError(&buf, errors.New("boom"), false)
	assert.Contains(t, buf.String(), "boom")
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestHandleAsk_Text(t *testing.T) {
	srv := newBackend(t, saleAna)
	env, out := testEnv(t, srv.URL)

	err := HandleAsk(context.Background(), Args{Query: "tres tomates a cien para Ana", Quiet: true}, env)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Detecté 1 producto para Ana")
	assert.Contains(t, out.String(), "| 1 | Tomates | 3 | $100.00 | $300.00 |")
	assert.Contains(t, out.String(), "**Total: $300.00**")
}

func TestHandleAsk_JSON(t *testing.T) {
	srv := newBackend(t, saleAna)
	env, out := testEnv(t, srv.URL)

	require.NoError(t, HandleAsk(context.Background(), Args{Query: "tres tomates", JSON: true}, env))

	var resp struct {
		Success bool    `json:"success"`
		Data    AskData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "sale", resp.Data.Kind)
	assert.Equal(t, "text", resp.Data.Source)
	assert.Equal(t, "$300.00", resp.Data.Total)
}

func TestHandleAsk_BackendError(t *testing.T) {
	srv := newBackend(t, `{"status":"error","error":"no se pudo procesar"}`)
	env, _ := testEnv(t, srv.URL)

	err := HandleAsk(context.Background(), Args{Query: "hola"}, env)
	var orderErr *OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, "Error: no se pudo procesar", orderErr.Message)
	assert.Equal(t, ExitOrderError, GetExitCode(err))
}

func TestHandleAsk_Transport(t *testing.T) {
	env, _ := testEnv(t, "http://127.0.0.1:1")
	err := HandleAsk(context.Background(), Args{Query: "hola"}, env)
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, GetExitCode(err))
}

func TestHandleAsk_Usage(t *testing.T) {
	env, _ := testEnv(t, "http://127.0.0.1:1")

	err := HandleAsk(context.Background(), Args{}, env)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleAsk(context.Background(), Args{AudioFile: filepath.Join(t.TempDir(), "nope.wav")}, env)
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestHandleHealth(t *testing.T) {
	srv := newBackend(t, saleAna)
	env, out := testEnv(t, srv.URL)

	require.NoError(t, HandleHealth(context.Background(), Args{}, env))
	assert.Contains(t, out.String(), "healthy")
	assert.Contains(t, out.String(), "1.0.0")
	assert.Contains(t, out.String(), "90.0%")

	out.Reset()
	require.NoError(t, HandleHealth(context.Background(), Args{JSON: true}, env))
	var resp struct {
		Data HealthData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Data.Healthy)
	require.NotNil(t, resp.Data.Stats)
	assert.Equal(t, int64(10), resp.Data.Stats.RequestsTotal)
}

func TestHandleConfig_SetGet(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TIBO_HOME", home)

	env, out := testEnv(t, "http://localhost:8000")
	require.NoError(t, HandleConfig(Args{Subcommand: "set", ConfigKey: "ui.theme", ConfigVal: "light"}, env))
	assert.Contains(t, out.String(), "ui.theme = light")
	assert.FileExists(t, filepath.Join(home, "config.toml"))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.UI.Theme)

	out.Reset()
	env.Config = cfg
	require.NoError(t, HandleConfig(Args{Subcommand: "get", ConfigKey: "ui.theme"}, env))
	assert.Equal(t, "light\n", out.String())

	err = HandleConfig(Args{Subcommand: "set", ConfigKey: "ui.theme", ConfigVal: "neon"}, env)
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	err = HandleConfig(Args{Subcommand: "get", ConfigKey: "nope.key"}, env)
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestRun_Unknown(t *testing.T) {
	env, _ := testEnv(t, "http://localhost:8000")
	err := Run(context.Background(), CmdUnknown, Args{Name: "helth"}, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tibo health")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// REPL
// =============================================================================

func TestREPL_EditAndConfirm(t *testing.T) {
	r, out := newTestREPL(t, saleAna)

	run(t, r, "tres tomates a cien para Ana")
	assert.Contains(t, out.String(), "Detecté 1 producto para Ana")
	assert.Contains(t, out.String(), "/editar 1")

	run(t, r, "/tarjetas")
	assert.Contains(t, out.String(), "Venta · Ana · 1 producto(s) · $300.00")

	run(t, r, "/editar 1", "/cantidad 1 5")
	assert.Contains(t, out.String(), "**Total: $500.00**")

	run(t, r, "/agregar", "/producto 2 Papas fritas", "/precio 2 20")
	d, ok := r.sess.Draft()
	require.True(t, ok)
	require.Len(t, d.LineItems, 2)
	assert.Equal(t, "Papas fritas", d.LineItems[1].ProductName)
	assert.Contains(t, out.String(), "**Total: $520.00**")

	run(t, r, "/quitar 2", "/cliente Ana María", "/envases 10")
	d, _ = r.sess.Draft()
	assert.Len(t, d.LineItems, 1)
	assert.Equal(t, "Ana María", d.ClientName)
	assert.Contains(t, out.String(), "**Total: $510.00**")

	run(t, r, "/confirmar")
	assert.Contains(t, out.String(), "Generando venta por $510.00")
	assert.Contains(t, out.String(), lifecycle.MsgSaleCompleted)
	assert.Equal(t, lifecycle.Idle, r.sess.State())
}

func TestREPL_Cancel(t *testing.T) {
	r, out := newTestREPL(t, saleAna)

	_, err := r.execute(context.Background(), "/cancelar")
	assert.ErrorIs(t, err, errNoOpenSale)

	run(t, r, "tres tomates", "/editar 1", "/cancelar")
	assert.Contains(t, out.String(), lifecycle.MsgSaleCancelled)
	_, ok := r.sess.Draft()
	assert.False(t, ok)
}

func TestREPL_EditErrors(t *testing.T) {
	r, _ := newTestREPL(t, saleAna)
	ctx := context.Background()

	_, err := r.execute(ctx, "/cantidad 1 3")
	assert.ErrorIs(t, err, errNoOpenSale)

	_, err = r.execute(ctx, "/editar 3")
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))

	run(t, r, "tres tomates", "/editar 1")

	_, err = r.execute(ctx, "/quitar 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "al menos un producto")

	_, err = r.execute(ctx, "/precio 4 10")
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))

	_, err = r.execute(ctx, "/precio 1")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestREPL_RestockNotEditable(t *testing.T) {
	r, out := newTestREPL(t, `{"status": "success", "order": {"tipo": "ingreso", "proveedor": "Don Pepe",
		"items": [{"producto": "Harina", "cantidad": 10, "unidad": "kg", "precio_unitario": 800}]}}`)

	run(t, r, "ingresaron 10 kg de harina")
	assert.Contains(t, out.String(), intent.MsgRestockProposed)
	assert.Contains(t, out.String(), "**Proveedor:** Don Pepe")
	assert.NotContains(t, out.String(), "/editar 1")

	_, err := r.execute(context.Background(), "/editar 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no se pueden editar")
}

func TestREPL_UnknownCommand(t *testing.T) {
	r, _ := newTestREPL(t, saleAna)
	_, err := r.execute(context.Background(), "/confirmr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/confirmar")
}

func TestREPL_Quit(t *testing.T) {
	r, _ := newTestREPL(t, saleAna)
	for _, line := range []string{"/salir", "exit", "salir"} {
		quit, err := r.execute(context.Background(), line)
		require.NoError(t, err)
		assert.True(t, quit, line)
	}
}

func TestREPL_Export(t *testing.T) {
	r, out := newTestREPL(t, saleAna)
	run(t, r, "tres tomates", "/exportar json")

	entries, err := os.ReadDir(r.exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".json"))
	assert.Contains(t, out.String(), "Conversación exportada")

	_, err = r.execute(context.Background(), "/exportar pdf")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestREPL_VoiceUnsupported(t *testing.T) {
	r, _ := newTestREPL(t, saleAna)
	_, err := r.execute(context.Background(), "/voz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entrada de voz no disponible")
}

func TestREPL_LoopEndsOnEOF(t *testing.T) {
	r, out := newTestREPL(t, saleAna, "tres tomates", "/nada")
	require.NoError(t, r.loop(context.Background()))
	assert.Contains(t, out.String(), "[Error]")
	assert.Contains(t, out.String(), "1 ventas propuestas")
}

func TestCardLine(t *testing.T) {
	restock := &intent.Action{Kind: intent.KindRestock, Restock: &intent.RestockProposal{ProductName: "Harina", QuantityLabel: "10 kg"}}
	assert.Equal(t, "Ingreso · Harina · 10 kg (solo lectura)", cardLine(restock))
}
