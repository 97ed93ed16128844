// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components renders the pieces of the chat widget: message
// bubbles, the image gallery, the header and launcher, and the markdown
// subset replies are written in. Components are pure functions of their
// input and a styles.Theme.
package components
