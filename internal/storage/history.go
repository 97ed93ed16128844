// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/jeranaias/folio-tui/internal/model"
)

// HistoryKey is the slot key holding the chat history.
const HistoryKey = "portfolioChatHistory"

// ErrNotAList is reported (in logs) when the stored history is valid JSON
// but not an array.
var ErrNotAList = errors.New("stored history is not a list")

// =============================================================================
// HISTORY
// =============================================================================

// History restores and saves the message list in a slot. Failures are
// logged and never returned to the widget.
type History struct {
	slot  Slot
	key   string
	limit int

	// written holds our most recent writes so Watch can ignore them. Watch
	// callbacks read it from another goroutine.
	mu      sync.Mutex
	written [ownWrites]string
	next    int
}

// ownWrites is how many of our recent writes Watch recognizes. A watch
// callback may read the file just before a newer Save lands.
const ownWrites = 4

// NewHistory creates a history over slot with the default key and cap.
func NewHistory(slot Slot) *History {
	return &History{slot: slot, key: HistoryKey, limit: model.HistoryLimit}
}

// WithKey returns the history with a different slot key.
func (h *History) WithKey(key string) *History {
	h.key = key
	return h
}

// WithLimit returns the history with a different retention cap.
func (h *History) WithLimit(limit int) *History {
	h.limit = limit
	return h
}

// Restore loads the persisted list, keeping at most the most recent limit
// entries. When nothing is stored, or the stored value is corrupt, it
// removes the value and returns a single welcome message (which it also
// persists).
func (h *History) Restore() []*model.Message {
	raw, ok, err := h.slot.Get(h.key)
	if err != nil {
		log.Printf("HISTORY_LOAD_FAILED | key=%s err=%v", h.key, err)
	}
	if ok && err == nil {
		msgs, decodeErr := Decode(raw)
		if decodeErr == nil {
			return h.tail(msgs)
		}
		log.Printf("HISTORY_CORRUPT | key=%s err=%v", h.key, decodeErr)
		if err := h.slot.Remove(h.key); err != nil {
			log.Printf("HISTORY_REMOVE_FAILED | key=%s err=%v", h.key, err)
		}
	}

	welcome := []*model.Message{model.NewWelcomeMessage()}
	h.Save(welcome)
	return welcome
}

// Save persists the most recent limit entries of msgs.
func (h *History) Save(msgs []*model.Message) {
	data, err := json.Marshal(h.tail(msgs))
	if err != nil {
		log.Printf("HISTORY_SAVE_FAILED | key=%s err=%v", h.key, err)
		return
	}
	if err := h.slot.Set(h.key, string(data)); err != nil {
		log.Printf("HISTORY_SAVE_FAILED | key=%s err=%v", h.key, err)
		return
	}
	h.setLast(string(data))
}

// Clear replaces the stored history with a fresh welcome message and
// returns it. Unlike Save, a failure is returned because clearing is an
// explicit user action.
func (h *History) Clear() ([]*model.Message, error) {
	if err := h.slot.Remove(h.key); err != nil {
		return nil, err
	}
	welcome := []*model.Message{model.NewWelcomeMessage()}
	data, err := json.Marshal(welcome)
	if err != nil {
		return nil, err
	}
	if err := h.slot.Set(h.key, string(data)); err != nil {
		return nil, err
	}
	h.setLast(string(data))
	return welcome, nil
}

// Watch reports history written by another process. It is a no-op for
// slots that cannot be watched.
func (h *History) Watch(ctx context.Context, onChange func([]*model.Message)) error {
	w, ok := h.slot.(Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, h.key, func(value string) {
		if value == "" || h.isOwnWrite(value) {
			return
		}
		msgs, err := Decode(value)
		if err != nil {
			log.Printf("HISTORY_WATCH_IGNORED | key=%s err=%v", h.key, err)
			return
		}
		onChange(h.tail(msgs))
	})
}

func (h *History) setLast(value string) {
	h.mu.Lock()
	h.written[h.next] = value
	h.next = (h.next + 1) % ownWrites
	h.mu.Unlock()
}

func (h *History) isOwnWrite(value string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range h.written {
		if w == value {
			return true
		}
	}
	return false
}

func (h *History) tail(msgs []*model.Message) []*model.Message {
	if h.limit > 0 && len(msgs) > h.limit {
		return msgs[len(msgs)-h.limit:]
	}
	return msgs
}

// Decode parses a stored history value. Anything other than a JSON array of
// message records is an error. Null entries are dropped.
func Decode(raw string) ([]*model.Message, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if json.Valid(trimmed) {
			return nil, ErrNotAList
		}
		return nil, errors.New("stored history is not valid JSON")
	}

	var msgs []*model.Message
	if err := json.Unmarshal(trimmed, &msgs); err != nil {
		return nil, err
	}

	out := msgs[:0]
	for _, m := range msgs {
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}
