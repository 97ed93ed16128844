// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the widget.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Header
	Header     lipgloss.Style
	HeaderName lipgloss.Style
	HeaderRole lipgloss.Style
	Cursor     lipgloss.Style

	// Launcher and popup
	Launcher lipgloss.Style
	Popup    lipgloss.Style

	// Window
	Window lipgloss.Style

	// Bubbles
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	ErrorBubble     lipgloss.Style
	Timestamp       lipgloss.Style
	Signature       lipgloss.Style
	Typing          lipgloss.Style

	// Gallery
	ImageCard       lipgloss.Style
	ImageCardHidden lipgloss.Style
	ImageCaption    lipgloss.Style
	Placeholder     lipgloss.Style

	// Input
	InputContainer lipgloss.Style
	InputDisabled  lipgloss.Style
	CharCount      lipgloss.Style
	CharCountOver  lipgloss.Style
	MicOn          lipgloss.Style

	// Footer
	Help lipgloss.Style

	Bold lipgloss.Style
	Link lipgloss.Style
	Code lipgloss.Style
}

// NewTheme builds a theme. mode is "dark", "light" or "auto"; auto asks
// the terminal.
func NewTheme(mode string) *Theme {
	t := &Theme{ColorProfile: termenv.ColorProfile()}

	switch strings.ToLower(mode) {
	case "dark":
		t.IsDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		t.IsDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		t.IsDark = termenv.HasDarkBackground()
	}

	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(Indigo).
		Foreground(TextInverse).
		Padding(0, 1)
	t.HeaderName = lipgloss.NewStyle().Bold(true).Foreground(TextInverse)
	t.HeaderRole = lipgloss.NewStyle().Foreground(TextInverse).Italic(true)
	t.Cursor = lipgloss.NewStyle().Foreground(TextInverse).Blink(true)

	t.Launcher = lipgloss.NewStyle().
		Background(Indigo).
		Foreground(TextInverse).
		Bold(true).
		Padding(0, 2)

	t.Popup = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Foreground(TextPrimary).
		Padding(0, 1)

	t.Window = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1)

	t.ErrorBubble = lipgloss.NewStyle().
		Foreground(ErrorBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1)

	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.Signature = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.Typing = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)

	t.ImageCard = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Teal).
		Padding(0, 1)
	t.ImageCardHidden = t.ImageCard.
		BorderForeground(OverlayDim).
		Faint(true)
	t.ImageCaption = lipgloss.NewStyle().Foreground(TextSecondary)
	t.Placeholder = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputDisabled = t.InputContainer.Faint(true)
	t.CharCount = lipgloss.NewStyle().Foreground(TextMuted)
	t.CharCountOver = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.MicOn = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	t.Help = lipgloss.NewStyle().Foreground(TextMuted)

	t.Bold = lipgloss.NewStyle().Bold(true)
	t.Link = lipgloss.NewStyle().Foreground(LinkColor).Underline(true)
	t.Code = lipgloss.NewStyle().Background(SurfaceDim).Foreground(Teal)
}

// SetSize updates the theme dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth is the widest a bubble may be for the current window.
func (t *Theme) BubbleWidth() int {
	w := t.Width * 4 / 5
	if w < 20 {
		w = 20
	}
	if w > 90 {
		w = 90
	}
	return w
}

// SupportsHyperlinks reports whether OSC 8 links are worth emitting.
func (t *Theme) SupportsHyperlinks() bool {
	return t.ColorProfile != termenv.Ascii
}
