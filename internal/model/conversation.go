// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// HistoryLimit is the number of most recent messages kept when persisting.
const HistoryLimit = 50

// =============================================================================
// STORE TYPE
// =============================================================================

// Store is the insertion-ordered list of messages exchanged in a session.
// Every message in a store has a unique ID. Store is not safe for concurrent
// use; the widget touches it from a single event loop.
type Store struct {
	messages []*Message
	ids      map[string]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{ids: make(map[string]struct{})}
}

// NewStoreFrom creates a store holding msgs in order. Nil entries are skipped
// and duplicate IDs are reassigned.
func NewStoreFrom(msgs []*Message) *Store {
	s := NewStore()
	for _, m := range msgs {
		if m == nil {
			continue
		}
		s.Append(m)
	}
	return s
}

// Append adds msg to the end of the list. A missing or colliding ID is
// replaced with a fresh one.
func (s *Store) Append(msg *Message) *Message {
	if msg.ID == "" {
		msg.ID = NewID()
	}
	for {
		if _, dup := s.ids[msg.ID]; !dup {
			break
		}
		msg.ID = NewID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	s.ids[msg.ID] = struct{}{}
	s.messages = append(s.messages, msg)
	return msg
}

// Len returns the number of messages.
func (s *Store) Len() int {
	return len(s.messages)
}

// All returns a copy of the message list.
func (s *Store) All() []*Message {
	out := make([]*Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Recent returns a copy of the last n messages in chronological order.
func (s *Store) Recent(n int) []*Message {
	if n <= 0 {
		return nil
	}
	start := len(s.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]*Message, len(s.messages)-start)
	copy(out, s.messages[start:])
	return out
}

// Last returns the newest message or nil.
func (s *Store) Last() *Message {
	if len(s.messages) == 0 {
		return nil
	}
	return s.messages[len(s.messages)-1]
}

// Trim drops the oldest messages so at most n remain.
func (s *Store) Trim(n int) {
	if n < 0 || len(s.messages) <= n {
		return
	}
	drop := len(s.messages) - n
	for _, m := range s.messages[:drop] {
		delete(s.ids, m.ID)
	}
	s.messages = append([]*Message(nil), s.messages[drop:]...)
}

// Reset removes every message.
func (s *Store) Reset() {
	s.messages = nil
	s.ids = make(map[string]struct{})
}

// CountBy returns how many user and assistant messages the store holds.
func (s *Store) CountBy() (user, assistant int) {
	for _, m := range s.messages {
		if m.IsUser {
			user++
		} else {
			assistant++
		}
	}
	return user, assistant
}
