// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tibo-tui/internal/audio"
	"github.com/jeranaias/tibo-tui/internal/draft"
	"github.com/jeranaias/tibo-tui/internal/lifecycle"
	"github.com/jeranaias/tibo-tui/internal/session"
)

// Status line texts.
const (
	statusBusy         = "Esperá la respuesta anterior."
	statusNotEditable  = "Los ingresos de mercadería todavía no se pueden editar."
	statusLastItem     = "Una venta necesita al menos un producto."
	statusPickItem     = "Elegí un producto para quitar."
	statusRecording    = "Grabando... Ctrl+R para enviar."
	statusNoCards      = "Todavía no hay tarjetas."
	statusVoiceMissing = "Entrada de voz no disponible"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case responseMsg:
		return m.handleResponse(msg)

	case executeDoneMsg:
		if m.sess.Complete(msg.executionID) {
			m.setStatus(lifecycle.MsgSaleCompleted, false)
		}
		m.refresh()
		return m, nil

	case recordingStoppedMsg:
		return m.handleRecordingStopped(msg)

	case voiceProbedMsg:
		if !msg.capability.Supported {
			m.setStatus(fmt.Sprintf("%s: %s", statusVoiceMissing, msg.capability.Reason), false)
		}
		m.refresh()
		return m, nil

	case healthMsg:
		m.backend = backendStatus{checked: true, err: msg.err, stats: msg.stats}
		if msg.err == nil && msg.health != nil {
			m.backend.online = msg.health.Healthy()
			m.backend.version = msg.health.Version
		}
		return m, m.scheduleHealth()

	case healthTickMsg:
		return m, m.checkHealth()

	case exportedMsg:
		if msg.err != nil {
			m.setStatus("No se pudo exportar: "+msg.err.Error(), true)
		} else {
			m.setStatus("Conversación exportada a "+msg.path, false)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.working() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// working reports whether the spinner should animate.
func (m Model) working() bool {
	return m.inflight != nil || m.recording != nil || m.sess.State() == lifecycle.Executing
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusIsErr = isErr
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.viewport.Width = msg.Width
	m.input.Width = max(msg.Width-6, 10)
	m.editor.input.Width = max(msg.Width-24, 10)
	m.help.Width = msg.Width
	m.ready = true
	m.refresh()
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.recording != nil {
			_, _ = m.sess.StopRecording(m.recording)
			m.recording = nil
		}
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		m.refresh()
		return m, nil
	}

	switch m.focus {
	case focusEditor:
		return m.handleEditorKey(msg)
	case focusCards:
		return m.handleCardKey(msg)
	default:
		return m.handleInputKey(msg)
	}
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		req, err := m.sess.BeginText(m.input.Value())
		switch {
		case errors.Is(err, session.ErrEmptyInput):
			return m, nil
		case errors.Is(err, session.ErrBusy):
			m.setStatus(statusBusy, true)
			return m, nil
		case err != nil:
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.input.Reset()
		return m.submitted(req)

	case key.Matches(msg, m.keys.Record):
		return m.toggleRecording()

	case key.Matches(msg, m.keys.FocusCards):
		cards := m.cardIDs()
		if len(cards) == 0 {
			m.setStatus(statusNoCards, false)
			return m, nil
		}
		m.focus = focusCards
		m.cardIndex = len(cards) - 1
		m.input.Blur()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Export):
		return m, m.exportTranscript()

	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitted(req *session.Request) (tea.Model, tea.Cmd) {
	m.inflight = req
	m.setStatus("", false)
	m.refresh()
	return m, tea.Batch(m.fetch(req), m.spinner.Tick)
}

func (m Model) handleCardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cards := m.cardIDs()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cardIndex > 0 {
			m.cardIndex--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cardIndex < len(cards)-1 {
			m.cardIndex++
		}

	case key.Matches(msg, m.keys.Open):
		if m.cardIndex < 0 || m.cardIndex >= len(cards) {
			return m, nil
		}
		err := m.sess.Select(cards[m.cardIndex])
		switch {
		case errors.Is(err, lifecycle.ErrNotEditable):
			m.setStatus(statusNotEditable, false)
		case err != nil:
			m.setStatus(err.Error(), true)
		default:
			if d, ok := m.sess.Draft(); ok {
				m.editor.open(d)
				m.focus = focusEditor
				m.setStatus("", false)
			}
		}

	case key.Matches(msg, m.keys.Back):
		m.focus = focusInput
		m.input.Focus()
	}

	m.refresh()
	return m, nil
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.CancelSale):
		m.sess.Cancel()
		m.leaveEditor()
		m.setStatus(lifecycle.MsgSaleCancelled, false)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		exec, err := m.sess.Confirm()
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		if exec == nil {
			return m, nil
		}
		m.leaveEditor()
		m.setStatus(fmt.Sprintf("Generando venta por %s...", draft.FormatMoney(exec.Total)), false)
		m.refresh()
		return m, tea.Batch(scheduleCompletion(exec.ID, exec.Delay), m.spinner.Tick)

	case key.Matches(msg, m.keys.AddItem):
		err := m.sess.Edit(func(s *draft.Store) error { return s.AddLineItem() })
		if err != nil {
			m.setStatus(err.Error(), true)
		} else if d, ok := m.sess.Draft(); ok {
			m.editor.sync(d)
			m.editor.focusItem(len(d.LineItems)-1, d)
		}

	case key.Matches(msg, m.keys.RemoveItem):
		item := m.editor.focusedItem()
		if item < 0 {
			m.setStatus(statusPickItem, false)
			break
		}
		err := m.sess.Edit(func(s *draft.Store) error { return s.RemoveLineItem(item) })
		switch {
		case errors.Is(err, draft.ErrLastLineItem):
			m.setStatus(statusLastItem, true)
		case err != nil:
			m.setStatus(err.Error(), true)
		default:
			if d, ok := m.sess.Draft(); ok {
				m.editor.sync(d)
			}
		}

	case key.Matches(msg, m.keys.NextField):
		if d, ok := m.sess.Draft(); ok {
			m.editor.move(1, d)
		}

	case key.Matches(msg, m.keys.PrevField):
		if d, ok := m.sess.Draft(); ok {
			m.editor.move(-1, d)
		}

	default:
		changed, cmd := m.editor.update(msg)
		if changed {
			if f, ok := m.editor.focused(); ok {
				value := m.editor.input.Value()
				if err := m.sess.Edit(func(s *draft.Store) error { return f.apply(s, value) }); err != nil {
					m.setStatus(err.Error(), true)
				}
			}
		}
		m.refresh()
		return m, cmd
	}

	m.refresh()
	return m, nil
}

func (m *Model) leaveEditor() {
	m.editor.close()
	m.focus = focusInput
	m.input.Focus()
}

// =============================================================================
// BACKEND RESULTS
// =============================================================================

func (m Model) handleResponse(msg responseMsg) (tea.Model, tea.Cmd) {
	reply := m.sess.Apply(msg.outcome)
	if m.inflight != nil && msg.outcome.Request != nil && m.inflight.ID == msg.outcome.Request.ID {
		m.inflight = nil
	}
	if reply.HasAction() && m.focus != focusEditor {
		m.cardIndex = len(m.cardIDs()) - 1
	}
	m.refresh()
	return m, nil
}

// =============================================================================
// VOICE
// =============================================================================

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	if m.recording != nil {
		if m.stopping {
			return m, nil
		}
		m.stopping = true
		return m, m.stopRecording(m.recording)
	}

	rec, err := m.sess.StartRecording(context.Background())
	switch {
	case errors.Is(err, audio.ErrUnsupported):
		reason := m.sess.Snapshot().Voice.Reason
		m.setStatus(fmt.Sprintf("%s: %s", statusVoiceMissing, reason), true)
		return m, nil
	case errors.Is(err, session.ErrBusy):
		m.setStatus(statusBusy, true)
		return m, nil
	case err != nil:
		m.setStatus("No se pudo grabar: "+err.Error(), true)
		return m, nil
	}

	m.recording = rec
	m.setStatus(statusRecording, false)
	m.refresh()
	return m, m.spinner.Tick
}

func (m Model) handleRecordingStopped(msg recordingStoppedMsg) (tea.Model, tea.Cmd) {
	m.recording = nil
	m.stopping = false

	if msg.err != nil {
		m.setStatus("No se pudo grabar: "+msg.err.Error(), true)
		m.refresh()
		return m, nil
	}

	req, err := m.sess.BeginAudio(msg.clip)
	if err != nil {
		m.setStatus(err.Error(), true)
		m.refresh()
		return m, nil
	}
	return m.submitted(req)
}
