// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/folio-tui/internal/assistant"
	"github.com/jeranaias/folio-tui/internal/model"
	"github.com/jeranaias/folio-tui/internal/voice"
	"github.com/jeranaias/folio-tui/internal/widget"
)

// Popup timings, measured from start.
const (
	PopupShowAfter = 2 * time.Second
	PopupHideAfter = 6 * time.Second
)

// =============================================================================
// MESSAGES
// =============================================================================

// replyMsg carries the transport result for the outstanding send.
type replyMsg struct {
	reply *assistant.Reply
	err   error
}

// revealTickMsg advances the reveal of generation gen.
type revealTickMsg struct {
	gen int
	at  time.Time
}

// roleTickMsg advances the header ticker of generation gen.
type roleTickMsg struct{ gen int }

type popupShowMsg struct{}

type popupHideMsg struct{}

// voiceMsg carries a dictation result.
type voiceMsg struct {
	text string
	err  error
}

// historyMsg carries a conversation written by another instance.
type historyMsg struct {
	msgs []*model.Message
}

// =============================================================================
// COMMANDS
// =============================================================================

func sendCmd(ctx context.Context, sender assistant.Sender, req *widget.Request) tea.Cmd {
	return func() tea.Msg {
		reply, err := sender.Send(ctx, req.Query, req.SessionID, req.History)
		return replyMsg{reply: reply, err: err}
	}
}

func revealTick(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return revealTickMsg{gen: gen, at: t}
	})
}

func roleTick(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return roleTickMsg{gen: gen}
	})
}

func popupCmds() tea.Cmd {
	return tea.Batch(
		tea.Tick(PopupShowAfter, func(time.Time) tea.Msg { return popupShowMsg{} }),
		tea.Tick(PopupHideAfter, func(time.Time) tea.Msg { return popupHideMsg{} }),
	)
}

func listenCmd(ctx context.Context, p voice.Provider) tea.Cmd {
	return func() tea.Msg {
		text, err := p.Listen(ctx)
		return voiceMsg{text: text, err: err}
	}
}

func waitForHistory(ch <-chan []*model.Message) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msgs, ok := <-ch
		if !ok {
			return nil
		}
		return historyMsg{msgs: msgs}
	}
}
