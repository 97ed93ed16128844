// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for line-mode output.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/folio-tui/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// TitleStyle is used for command titles
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Indigo)

	// LabelStyle is used for left-column labels
	LabelStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Width(28)

	// ValueStyle is used for plain values
	ValueStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)

	// SuccessStyle marks completed operations
	SuccessStyle = lipgloss.NewStyle().Foreground(styles.Teal).Bold(true)

	// ErrorStyle marks failures
	ErrorStyle = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)

	// WarningStyle marks cautions
	WarningStyle = lipgloss.NewStyle().Foreground(styles.Amber)

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().Foreground(styles.TextMuted)

	// UserStyle prefixes the visitor's lines in transcripts
	UserStyle = lipgloss.NewStyle().Foreground(styles.Violet).Bold(true)

	// AssistantStyle prefixes the assistant's lines in transcripts
	AssistantStyle = lipgloss.NewStyle().Foreground(styles.Indigo).Bold(true)
)

// RenderConditional renders text with style if colors are enabled,
// otherwise returns the text unmodified.
func RenderConditional(style lipgloss.Style, text string) string {
	if !ColorsEnabled() {
		return text
	}
	return style.Render(text)
}

// RenderSeparator renders a horizontal rule no wider than the terminal.
func RenderSeparator() string {
	w := GetTerminalWidth() - 4
	if w > 70 {
		w = 70
	}
	return RenderConditional(DimStyle, strings.Repeat("─", w))
}

// RenderKV renders one "label value" row.
func RenderKV(label, value string) string {
	if !ColorsEnabled() {
		return label + ": " + value
	}
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}
