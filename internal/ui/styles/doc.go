// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the folio palette and the lipgloss styles built on it.
//
// Colors are lipgloss.AdaptiveColor values so they follow the terminal
// background. A Theme collects the styles for one color mode; NewTheme
// detects the terminal via termenv unless a mode is forced.
package styles
