// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"log"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/folio-tui/internal/voice"
	"github.com/jeranaias/folio-tui/internal/widget"
)

// Update handles one event.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if !m.ctrl.IsOpen() {
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.recordScroll()
		return m, cmd

	case replyMsg:
		m.revealGen++
		frame := m.ctrl.Receive(msg.reply, msg.err, m.now())
		return m, m.handleFrame(frame)

	case revealTickMsg:
		if msg.gen != m.revealGen {
			return m, nil
		}
		return m, m.handleFrame(m.ctrl.Tick(msg.at))

	case roleTickMsg:
		if msg.gen != m.roleGen {
			return m, nil
		}
		text, delay := m.ticker.Next()
		m.role = text
		return m, roleTick(delay, m.roleGen)

	case popupShowMsg:
		if !m.ctrl.IsOpen() {
			m.popup = true
		}
		return m, nil

	case popupHideMsg:
		m.popup = false
		return m, nil

	case voiceMsg:
		m.listening = false
		switch {
		case errors.Is(msg.err, voice.ErrNoSpeech):
			m.notice = "No speech recognized."
		case msg.err != nil:
			log.Printf("VOICE_FAILED | err=%v", msg.err)
			m.notice = "Dictation failed."
		default:
			m.notice = ""
			value := m.input.Value()
			if value != "" {
				value += " "
			}
			m.input.SetValue(value + msg.text)
			m.input.CursorEnd()
		}
		return m, nil

	case historyMsg:
		if m.ctrl.Replace(msg.msgs) {
			m.refresh(true)
		}
		return m, waitForHistory(m.changes)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.ctrl.TypingIndicator() || m.ctrl.Phase() == widget.PhaseRevealingImages {
			m.refresh(false)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.Shutdown()
		return m, tea.Quit
	}

	if !m.ctrl.IsOpen() {
		switch {
		case key.Matches(msg, m.keys.QuitIdle):
			m.Shutdown()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Open):
			if m.open() {
				return m, textinput.Blink
			}
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Close):
		m.close()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()

	case key.Matches(msg, m.keys.Mic):
		if m.voiceEnabled() && !m.listening && m.ctrl.InputEnabled() {
			m.listening = true
			m.notice = "Listening..."
			return m, listenCmd(m.ctx, m.voice)
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		if err := m.ctrl.Clear(); err != nil {
			m.notice = "Wait for the reply to finish."
			return m, nil
		}
		m.notice = ""
		m.refresh(true)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		m.recordScroll()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		m.recordScroll()
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		m.recordScroll()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		m.recordScroll()
		return m, nil
	}

	if !m.ctrl.InputEnabled() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m *Model) open() bool {
	if !m.ctrl.Open() {
		return false
	}
	m.popup = false
	m.input.Focus()
	m.refresh(true)
	return true
}

func (m *Model) close() {
	m.ctrl.Close()
	m.revealGen++
	m.input.Blur()
	m.listening = false
	m.refresh(false)
}

func (m *Model) submit() tea.Cmd {
	out := m.ctrl.Submit(m.input.Value())
	if out.Rejected != nil {
		return nil
	}
	// A validation bubble keeps the draft so it can be edited.
	if !out.Accepted() {
		m.refresh(true)
		return nil
	}
	m.input.SetValue("")
	m.notice = ""
	m.refresh(true)
	return sendCmd(m.ctx, m.sender, out.Request)
}

// handleFrame renders a reveal step and schedules the next one.
func (m *Model) handleFrame(f widget.Frame) tea.Cmd {
	m.refresh(f.Scroll)
	if f.Settled || f.Message == nil {
		if f.Settled {
			m.input.Focus()
		}
		return nil
	}
	return revealTick(f.Step.Delay, m.revealGen)
}

func (m *Model) recordScroll() {
	m.ctrl.Scroll(m.viewport.TotalLineCount(), m.viewport.YOffset, m.viewport.Height)
}
