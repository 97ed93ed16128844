// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/folio-tui/internal/assistant"
	"github.com/jeranaias/folio-tui/internal/model"
	"github.com/jeranaias/folio-tui/internal/reveal"
	"github.com/jeranaias/folio-tui/internal/ui/components"
	"github.com/jeranaias/folio-tui/internal/ui/styles"
	"github.com/jeranaias/folio-tui/internal/voice"
	"github.com/jeranaias/folio-tui/internal/widget"
)

// Options configures a Model.
type Options struct {
	Controller   *widget.Controller
	Sender       assistant.Sender
	Voice        voice.Provider
	Theme        *styles.Theme
	ImageBase    string
	Roles        []string
	WelcomePopup bool
	StartOpen    bool

	// HistoryChanges delivers conversations written by other instances.
	HistoryChanges <-chan []*model.Message
}

// Model is the bubbletea model of the widget.
type Model struct {
	ctrl    *widget.Controller
	sender  assistant.Sender
	voice   voice.Provider
	theme   *styles.Theme
	bubbles components.Bubbles
	keys    KeyMap

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	ticker  *reveal.RoleTicker
	role    string
	roleGen int

	revealGen int

	popupEnabled bool
	popup        bool
	startOpen    bool

	listening bool
	notice    string

	changes <-chan []*model.Message

	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time

	width  int
	height int
	ready  bool
}

// New creates the widget model.
func New(opts Options) *Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme("auto")
	}
	if opts.Voice == nil {
		opts.Voice = voice.Unsupported{}
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about projects, skills, education..."

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(context.Background())

	return &Model{
		ctrl:         opts.Controller,
		sender:       opts.Sender,
		voice:        opts.Voice,
		theme:        opts.Theme,
		bubbles:      components.Bubbles{Theme: opts.Theme, ImageBase: opts.ImageBase},
		keys:         DefaultKeyMap(),
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		ticker:       reveal.NewRoleTicker(opts.Roles),
		popupEnabled: opts.WelcomePopup,
		startOpen:    opts.StartOpen,
		changes:      opts.HistoryChanges,
		ctx:          ctx,
		cancel:       cancel,
		now:          time.Now,
	}
}

// Init starts the spinner, the role ticker, the popup timers and the
// history watch.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		roleTick(m.ticker.Start(), m.roleGen),
		waitForHistory(m.changes),
	}
	if m.startOpen {
		m.open()
		cmds = append(cmds, textinput.Blink)
	} else if m.popupEnabled && m.ctrl.Features().Popup {
		cmds = append(cmds, popupCmds())
	}
	return tea.Batch(cmds...)
}

// Controller returns the driven controller.
func (m *Model) Controller() *widget.Controller { return m.ctrl }

// Shutdown cancels outstanding work. It is safe to call more than once.
func (m *Model) Shutdown() {
	m.cancel()
	m.ctrl.Abort()
}

func (m *Model) voiceEnabled() bool {
	return m.ctrl.Features().Voice && m.voice.Supported()
}
