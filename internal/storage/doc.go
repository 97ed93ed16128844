// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the chat history in a key-value slot.
//
// # Key Types
//
//   - Slot: one named value in a backend (Get, Set, Remove)
//   - FileSlot: a JSON file per key, written atomically, watchable via fsnotify
//   - SQLiteSlot: a kv table in a pure-Go SQLite database
//   - MemorySlot: in-process map, used by tests and --ephemeral runs
//   - History: restores and saves the capped message list
//
// # Usage
//
//	slot, err := storage.Open(storage.BackendFile, dir)
//	hist := storage.NewHistory(slot)
//	msgs := hist.Restore()
//	hist.Save(msgs)
//
// # Storage Location
//
// By default the history lives in ~/.folio/slots/portfolioChatHistory.json.
package storage
