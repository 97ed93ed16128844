// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the bubbletea surface of the chat widget.
//
// The Model owns no chat state of its own: it forwards events to a
// widget.Controller and renders what the controller reports. Every timer
// (reveal steps, role ticker, welcome popup) is a tea.Tick carrying a
// generation number; a tick whose generation is stale is dropped, which is
// how a closed window stops its animations.
//
// File layout:
//   - keys.go: key bindings
//   - messages.go: tea.Msg types and the commands that produce them
//   - model.go: Model construction and Init
//   - update.go: event handling
//   - view.go: layout and rendering
package chat
