// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/folio-tui/internal/ui/styles"
)

// Title is the name shown in the window header.
const Title = "Adil Saeed"

// PopupText is shown in the welcome popup next to the launcher.
const PopupText = "Hi there! Ask my assistant about my projects and skills."

// Header renders the window header: the name and the role ticker text.
func Header(theme *styles.Theme, role string, width int) string {
	left := theme.HeaderName.Render(Title)
	right := theme.HeaderRole.Render(role) + theme.Cursor.Render("|")
	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + lipgloss.NewStyle().Width(gap).Render("") + right
	return theme.Header.Width(width).Render(line)
}

// Launcher renders the closed-state chat button.
func Launcher(theme *styles.Theme, width int) string {
	button := theme.Launcher.Render("💬 Chat")
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, button)
}

// Popup renders the welcome popup above the launcher.
func Popup(theme *styles.Theme, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, theme.Popup.Render(PopupText))
}
