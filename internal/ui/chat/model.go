// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tibo-tui/internal/audio"
	"github.com/jeranaias/tibo-tui/internal/backend"
	"github.com/jeranaias/tibo-tui/internal/export"
	"github.com/jeranaias/tibo-tui/internal/logging"
	"github.com/jeranaias/tibo-tui/internal/session"
	"github.com/jeranaias/tibo-tui/internal/ui/styles"
)

// DefaultHealthInterval is how often the status line polls the backend.
const DefaultHealthInterval = 30 * time.Second

// =============================================================================
// FOCUS
// =============================================================================

// focusArea is the part of the screen receiving keys.
type focusArea int

const (
	focusInput focusArea = iota
	focusCards
	focusEditor
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat model.
type Options struct {
	// ExportDir receives Ctrl+E transcripts. Default: current directory.
	ExportDir string

	// HealthInterval between status polls. Zero uses DefaultHealthInterval;
	// negative disables polling.
	HealthInterval time.Duration

	// BackendURL is shown in the header.
	BackendURL string

	// Compact drops provenance lines from cards.
	Compact bool

	Logger *logging.Logger
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// backendStatus is the last health poll result.
type backendStatus struct {
	checked bool
	online  bool
	version string
	stats   *backend.StatsResponse
	err     error
}

// Model is the Bubble Tea model for the ordering screen.
type Model struct {
	sess   *session.Session
	theme  *styles.Theme
	opts   Options
	logger *logging.Logger
	ctx    context.Context

	// Dimensions
	width  int
	height int
	ready  bool

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap
	editor   editor

	// Focus and selection
	focus     focusArea
	cardIndex int

	// In-flight work
	inflight  *session.Request
	recording *audio.Recording
	stopping  bool

	// Status
	status      string
	statusIsErr bool
	backend     backendStatus
}

// New creates the chat model over sess.
func New(sess *session.Session, theme *styles.Theme, opts Options) Model {
	if theme == nil {
		theme = styles.NewTheme()
	}
	if opts.HealthInterval == 0 {
		opts.HealthInterval = DefaultHealthInterval
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Escribí un pedido, p. ej. \"3 tomates a 100 para Ana\""
	ti.CharLimit = 1000
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Spinner

	return Model{
		sess:      sess,
		theme:     theme,
		opts:      opts,
		logger:    opts.Logger.With("component", "tui"),
		ctx:       context.Background(),
		viewport:  vp,
		input:     ti,
		spinner:   sp,
		help:      help.New(),
		keys:      DefaultKeyMap(),
		editor:    newEditor(),
		focus:     focusInput,
		cardIndex: -1,
	}
}

// Run starts the full-screen program and blocks until the user quits.
func Run(sess *session.Session, theme *styles.Theme, opts Options) error {
	p := tea.NewProgram(New(sess, theme, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init probes voice and the backend once.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.probeVoice(),
		m.checkHealth(),
	)
}

// View renders the current frame.
func (m Model) View() string {
	if !m.ready {
		return "Iniciando..."
	}
	return m.render()
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) probeVoice() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return voiceProbedMsg{capability: sess.ProbeVoice(ctx)}
	}
}

func (m Model) checkHealth() tea.Cmd {
	if m.opts.HealthInterval < 0 {
		return nil
	}
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		msg := healthMsg{at: time.Now()}
		msg.health, msg.err = sess.Health(ctx)
		if msg.err == nil {
			// Stats are optional; older backends lack the endpoint.
			msg.stats, _ = sess.Stats(ctx)
		}
		return msg
	}
}

func (m Model) scheduleHealth() tea.Cmd {
	if m.opts.HealthInterval < 0 {
		return nil
	}
	return tea.Tick(m.opts.HealthInterval, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}

func (m Model) fetch(req *session.Request) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return responseMsg{outcome: sess.Fetch(ctx, req)}
	}
}

func (m Model) stopRecording(rec *audio.Recording) tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		clip, err := sess.StopRecording(rec)
		return recordingStoppedMsg{clip: clip, err: err}
	}
}

func scheduleCompletion(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return executeDoneMsg{executionID: id}
	})
}

func (m Model) exportTranscript() tea.Cmd {
	conv := m.sess.Conversation()
	opts := export.DefaultOptions()
	opts.OutputDir = m.opts.ExportDir
	return func() tea.Msg {
		path, err := export.Export(conv, export.FormatMarkdown, opts)
		return exportedMsg{path: path, err: err}
	}
}
