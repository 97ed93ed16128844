// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat widget.
//
// # Key Types
//
//   - Message: one chat bubble with text, sender, timestamp and metadata
//   - Metadata: sources, query classification, images and the message kind
//   - Image: a portfolio image attached to an assistant reply
//   - Store: the insertion-ordered message list with unique IDs
//
// # Usage
//
//	store := model.NewStore()
//	store.Append(model.NewUserMessage("What are your skills?"))
//	history := store.Recent(10)
package model
