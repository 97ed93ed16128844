// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/folio-tui/internal/guard"
	"github.com/jeranaias/folio-tui/internal/reveal"
	"github.com/jeranaias/folio-tui/internal/ui/components"
	"github.com/jeranaias/folio-tui/internal/util"
)

// Rows used by everything but the message list.
const (
	headerRows = 1
	inputRows  = 2
	footerRows = 1
)

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)

	m.viewport.Width = width
	vh := height - headerRows - inputRows - footerRows
	if vh < 3 {
		vh = 3
	}
	m.viewport.Height = vh

	// prompt, char counter and mic marker
	m.input.Width = width - 2 - 12
	if m.input.Width < 10 {
		m.input.Width = 10
	}
	m.ready = true
	m.refresh(true)
}

// refresh rebuilds the message list. scroll moves the view to the bottom.
func (m *Model) refresh(scroll bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages())
	if scroll {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderMessages() string {
	width := m.viewport.Width
	revealing, step, active := m.ctrl.Revealing()

	var blocks []string
	for _, msg := range m.ctrl.Messages() {
		if active && msg.ID == revealing.ID {
			blocks = append(blocks, m.bubbles.Partial(msg, step.Text, width))
			switch step.Phase {
			case reveal.PhasePlaceholder:
				blocks = append(blocks, m.bubbles.Placeholder(m.spinner.View(), width))
			case reveal.PhaseGallery, reveal.PhaseDone:
				if g := m.bubbles.Gallery(step.Images, step.Visible, width); g != "" {
					blocks = append(blocks, g)
				}
			}
			continue
		}

		blocks = append(blocks, m.bubbles.Message(msg, width))
		if imgs := msg.Images(); len(imgs) > 0 {
			visible := make([]bool, len(imgs))
			for i := range visible {
				visible[i] = true
			}
			blocks = append(blocks, m.bubbles.Gallery(imgs, visible, width))
		}
	}

	if m.ctrl.TypingIndicator() {
		blocks = append(blocks, m.bubbles.Typing(m.spinner.View(), width))
	}
	return strings.Join(blocks, "\n")
}

// View renders the whole screen.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if !m.ctrl.IsOpen() {
		return m.viewClosed()
	}
	return m.viewOpen()
}

func (m *Model) viewClosed() string {
	var parts []string
	used := 1 + footerRows
	if m.popup {
		p := components.Popup(m.theme, m.width)
		parts = append(parts, p)
		used += lipgloss.Height(p)
	}
	if m.ctrl.Features().Toggle {
		parts = append(parts, components.Launcher(m.theme, m.width))
	} else {
		parts = append(parts, m.theme.Help.Render("chat unavailable"))
	}

	filler := m.height - used
	if filler < 0 {
		filler = 0
	}
	help := m.theme.Help.Render(helpLine(m.keys.Open, m.keys.QuitIdle))
	return strings.Repeat("\n", filler) + strings.Join(parts, "\n") + "\n" + help
}

func (m *Model) viewOpen() string {
	features := m.ctrl.Features()

	header := components.Header(m.theme, m.role, m.width)

	body := m.viewport.View()
	if !features.Render {
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
			m.theme.Help.Render("message list unavailable"))
	}

	var input string
	if features.Input {
		input = m.renderInput()
	}

	footer := m.notice
	if footer == "" {
		bindings := []string{helpLine(m.keys.Submit, m.keys.Close, m.keys.Clear)}
		if m.voiceEnabled() {
			bindings = append(bindings, helpLine(m.keys.Mic))
		}
		footer = strings.Join(bindings, " · ")
	}
	footer = m.theme.Help.Render(util.TruncateWidth(footer, m.width))

	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, footer)
}

func (m *Model) renderInput() string {
	n := util.RuneLen(m.input.Value())
	counter := m.theme.CharCount.Render(fmt.Sprintf("%d/%d", n, guard.MaxChars))
	if n > guard.MaxChars {
		counter = m.theme.CharCountOver.Render(fmt.Sprintf("%d/%d", n, guard.MaxChars))
	}

	mic := ""
	if m.voiceEnabled() {
		mic = " 🎤"
		if m.listening {
			mic = m.theme.MicOn.Render(" ● REC")
		}
	}

	line := m.input.View() + " " + counter + mic
	if !m.ctrl.InputEnabled() {
		return m.theme.InputDisabled.Width(m.width).Render(line)
	}
	return m.theme.InputContainer.Width(m.width).Render(line)
}
