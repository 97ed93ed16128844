// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - The default command: the full-screen chat widget.

package cli

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/folio-tui/internal/config"
	"github.com/jeranaias/folio-tui/internal/model"
	"github.com/jeranaias/folio-tui/internal/ui/chat"
	"github.com/jeranaias/folio-tui/internal/ui/styles"
	"github.com/jeranaias/folio-tui/internal/voice"
)

// HandleTUI runs the widget until the visitor quits. The screen belongs
// to bubbletea, so logs go to the log file.
func HandleTUI(args Args) error {
	if err := RequiresTTY("start the chat widget"); err != nil {
		return err
	}

	if err := config.EnsureConfigDir(); err != nil {
		return wrap("tui", "create config dir", err)
	}
	logPath, err := config.LogPath()
	if err != nil {
		return wrap("tui", "resolve log path", err)
	}
	logFile, err := tea.LogToFile(logPath, "folio")
	if err != nil {
		return wrap("tui", "open log file", err)
	}
	defer logFile.Close()

	a, err := newApp(args)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []*model.Message, 1)
	if err := a.history.Watch(ctx, func(msgs []*model.Message) {
		offerLatest(changes, msgs)
	}); err != nil {
		log.Printf("HISTORY_WATCH_FAILED | err=%v", err)
	}

	m := chat.New(chat.Options{
		Controller:     a.controller(),
		Sender:         a.client,
		Voice:          voice.Resolve(a.cfg.Voice.Command),
		Theme:          styles.NewTheme(a.cfg.UI.Theme),
		ImageBase:      a.cfg.ImageBase(),
		Roles:          a.cfg.UI.Roles,
		WelcomePopup:   a.cfg.UI.WelcomePopup && !args.Open,
		StartOpen:      args.Open,
		HistoryChanges: changes,
	})
	defer m.Shutdown()

	log.Printf("TUI_START | version=%s endpoint=%s storage=%s", Version, a.cfg.Assistant.Endpoint, a.cfg.Storage.Backend)

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running folio: %w", err)
	}
	return nil
}

// offerLatest replaces whatever is pending on ch with msgs.
func offerLatest(ch chan []*model.Message, msgs []*model.Message) {
	for {
		select {
		case ch <- msgs:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
