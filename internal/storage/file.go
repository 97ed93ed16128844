// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/folio-tui/internal/util"
)

// watchDebounce collapses the burst of events an atomic rename produces.
const watchDebounce = 75 * time.Millisecond

// =============================================================================
// FILE SLOT
// =============================================================================

// FileSlot stores each key as <dir>/<key>.json.
type FileSlot struct {
	Dir string
}

// NewFileSlot creates a file slot rooted at dir, creating it if needed.
func NewFileSlot(dir string) (*FileSlot, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, &SlotError{Op: "open", Message: "could not determine home directory", Err: err}
		}
		dir = filepath.Join(home, ".folio", "slots")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, &SlotError{Op: "open", Message: "could not create slot directory", Err: err}
	}
	return &FileSlot{Dir: dir}, nil
}

func (f *FileSlot) path(key string) string {
	return filepath.Join(f.Dir, key+".json")
}

// Get implements Slot.
func (f *FileSlot) Get(key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, &SlotError{Op: "get", Key: key, Message: "read failed", Err: err}
	}
	return string(data), true, nil
}

// Set implements Slot.
func (f *FileSlot) Set(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := util.AtomicWriteFile(f.path(key), []byte(value), 0600); err != nil {
		return &SlotError{Op: "set", Key: key, Message: "write failed", Err: err}
	}
	return nil
}

// Remove implements Slot. Removing a missing key is not an error.
func (f *FileSlot) Remove(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &SlotError{Op: "remove", Key: key, Message: "remove failed", Err: err}
	}
	return nil
}

// =============================================================================
// WATCH
// =============================================================================

// Watch calls onChange whenever another writer replaces or removes key.
// A removed key is reported as an empty value. Watch returns once the
// watcher is running; it stops when ctx is done.
func (f *FileSlot) Watch(ctx context.Context, key string, onChange func(value string)) error {
	if err := validKey(key); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return &SlotError{Op: "watch", Key: key, Message: "could not create watcher", Err: err}
	}
	// The directory, not the file: atomic writes replace the inode.
	if err := w.Add(f.Dir); err != nil {
		w.Close()
		return &SlotError{Op: "watch", Key: key, Message: "could not watch directory", Err: err}
	}

	target := filepath.Clean(f.path(key))

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	fire := func() {
		value, _, err := f.Get(key)
		if err != nil {
			log.Printf("SLOT_WATCH_READ_FAILED | key=%s err=%v", key, err)
			return
		}
		onChange(value)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("SLOT_WATCH_PANIC | key=%s panic=%v", key, r)
			}
		}()
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				mu.Unlock()
				return

			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
					continue
				}
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, fire)
				mu.Unlock()

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("SLOT_WATCH_ERROR | key=%s err=%v", key, err)
			}
		}
	}()

	return nil
}
