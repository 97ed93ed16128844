// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// =============================================================================
// SLOT INTERFACE
// =============================================================================

// Slot is a string key-value store. Get reports ok=false for a missing key.
type Slot interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// Watcher is implemented by slots that can report changes made by other
// processes. onChange receives the new raw value.
type Watcher interface {
	Watch(ctx context.Context, key string, onChange func(value string)) error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open returns the slot for backend rooted at path. For the file backend
// path is a directory, for sqlite a database file; memory ignores it.
func Open(backend, path string) (Slot, error) {
	switch strings.ToLower(backend) {
	case "", BackendFile:
		return NewFileSlot(path)
	case BackendSQLite:
		return OpenSQLiteSlot(path)
	case BackendMemory:
		return NewMemorySlot(), nil
	default:
		return nil, &SlotError{Op: "open", Message: fmt.Sprintf("unknown backend %q", backend)}
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrInvalidKey is returned for empty or path-like keys.
// Use errors.Is(err, ErrInvalidKey) to check for this error.
var ErrInvalidKey = &SlotError{Message: "invalid slot key"}

// SlotError describes a failed slot operation.
type SlotError struct {
	Op      string
	Key     string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *SlotError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Key != "" {
		b.WriteString(e.Key)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *SlotError) Unwrap() error {
	return e.Err
}

// Is matches slot errors by message.
func (e *SlotError) Is(target error) bool {
	t, ok := target.(*SlotError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return &SlotError{Key: key, Message: ErrInvalidKey.Message}
	}
	return nil
}

// =============================================================================
// MEMORY SLOT
// =============================================================================

// MemorySlot keeps values in process memory.
type MemorySlot struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySlot creates an empty memory slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string]string)}
}

// Get implements Slot.
func (m *MemorySlot) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements Slot.
func (m *MemorySlot) Set(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Remove implements Slot.
func (m *MemorySlot) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
