// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/folio-tui/internal/model"
)

// =============================================================================
// HELPERS
// =============================================================================

type brokenSlot struct{ *MemorySlot }

func (b *brokenSlot) Set(key, value string) error {
	return &SlotError{Op: "set", Key: key, Message: "disk full"}
}

func makeMessages(n int) []*model.Message {
	msgs := make([]*model.Message, n)
	for i := range msgs {
		if i%2 == 0 {
			msgs[i] = model.NewUserMessage("question")
		} else {
			msgs[i] = model.NewAssistantMessage("answer", nil)
		}
	}
	return msgs
}

func storedLen(t *testing.T, slot Slot) int {
	t.Helper()
	raw, ok, err := slot.Get(HistoryKey)
	if err != nil || !ok {
		t.Fatalf("history not stored: ok=%v err=%v", ok, err)
	}
	var list []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		t.Fatalf("stored value is not a list: %v", err)
	}
	return len(list)
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestHistory_RestoreEmptyYieldsWelcome(t *testing.T) {
	slot := NewMemorySlot()
	msgs := NewHistory(slot).Restore()

	if len(msgs) != 1 || msgs[0].Kind() != model.KindWelcome {
		t.Fatalf("Restore() = %v, want only the welcome message", msgs)
	}
	if storedLen(t, slot) != 1 {
		t.Error("welcome message should be persisted")
	}
}

func TestHistory_RestoreNonListYieldsWelcome(t *testing.T) {
	values := []string{`{"id":"msg_1"}`, `null`, `"hello"`, `42`, `not json`, `[{"id":`, `[1, 2]`}
	for _, v := range values {
		slot := NewMemorySlot()
		slot.Set(HistoryKey, v)

		msgs := NewHistory(slot).Restore()
		if len(msgs) != 1 {
			t.Errorf("stored %q: got %d messages, want 1", v, len(msgs))
			continue
		}
		if msgs[0].Text != model.WelcomeText || msgs[0].IsUser {
			t.Errorf("stored %q: first message is not the welcome message", v)
		}
		raw, _, _ := slot.Get(HistoryKey)
		if raw == v {
			t.Errorf("stored %q: corrupt value should be replaced", v)
		}
	}
}

func TestHistory_RestoreKeepsMostRecent(t *testing.T) {
	slot := NewMemorySlot()
	all := makeMessages(80)
	data, _ := json.Marshal(all)
	slot.Set(HistoryKey, string(data))

	msgs := NewHistory(slot).Restore()
	if len(msgs) != model.HistoryLimit {
		t.Fatalf("got %d messages, want %d", len(msgs), model.HistoryLimit)
	}
	if msgs[0].ID != all[30].ID || msgs[len(msgs)-1].ID != all[79].ID {
		t.Error("restored messages should be the most recent suffix")
	}
}

func TestHistory_RestoreEmptyList(t *testing.T) {
	slot := NewMemorySlot()
	slot.Set(HistoryKey, `[]`)
	if msgs := NewHistory(slot).Restore(); len(msgs) != 0 {
		t.Errorf("empty list should restore as empty, got %d", len(msgs))
	}
}

func TestHistory_SaveNeverExceedsLimit(t *testing.T) {
	slot := NewMemorySlot()
	h := NewHistory(slot)

	for _, n := range []int{0, 1, 49, 50, 51, 120} {
		msgs := makeMessages(n)
		h.Save(msgs)
		got := storedLen(t, slot)
		if got > model.HistoryLimit {
			t.Errorf("Save(%d): stored %d > %d", n, got, model.HistoryLimit)
		}
		want := n
		if want > model.HistoryLimit {
			want = model.HistoryLimit
		}
		if got != want {
			t.Errorf("Save(%d): stored %d, want %d", n, got, want)
		}
	}
}

func TestHistory_SaveIsSuffix(t *testing.T) {
	slot := NewMemorySlot()
	msgs := makeMessages(60)
	NewHistory(slot).Save(msgs)

	raw, _, _ := slot.Get(HistoryKey)
	stored, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range stored {
		if m.ID != msgs[10+i].ID {
			t.Fatalf("stored[%d] = %s, want %s", i, m.ID, msgs[10+i].ID)
		}
	}
}

func TestHistory_SaveFailureIsSwallowed(t *testing.T) {
	h := NewHistory(&brokenSlot{NewMemorySlot()})
	h.Save(makeMessages(3)) // must not panic

	msgs := h.Restore()
	if len(msgs) != 1 {
		t.Errorf("Restore with a broken slot should still give the welcome message, got %d", len(msgs))
	}
}

func TestHistory_Clear(t *testing.T) {
	slot := NewMemorySlot()
	h := NewHistory(slot)
	h.Save(makeMessages(10))

	msgs, err := h.Clear()
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Kind() != model.KindWelcome {
		t.Errorf("Clear should leave only the welcome message")
	}
	if storedLen(t, slot) != 1 {
		t.Error("Clear should persist the welcome state")
	}
}

func TestHistory_WithLimit(t *testing.T) {
	slot := NewMemorySlot()
	NewHistory(slot).WithLimit(5).WithKey("other").Save(makeMessages(9))

	raw, ok, _ := slot.Get("other")
	if !ok {
		t.Fatal("custom key not written")
	}
	msgs, _ := Decode(raw)
	if len(msgs) != 5 {
		t.Errorf("got %d, want 5", len(msgs))
	}
}

// =============================================================================
// SLOT TESTS
// =============================================================================

func testSlot(t *testing.T, slot Slot) {
	t.Helper()

	if _, ok, err := slot.Get("missing"); ok || err != nil {
		t.Errorf("Get(missing) = ok %v, err %v", ok, err)
	}
	if err := slot.Set("k", "v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := slot.Set("k", "v2"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if v, ok, err := slot.Get("k"); !ok || err != nil || v != "v2" {
		t.Errorf("Get(k) = %q, %v, %v", v, ok, err)
	}
	if err := slot.Remove("k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok, _ := slot.Get("k"); ok {
		t.Error("key still present after Remove")
	}
	if err := slot.Remove("k"); err != nil {
		t.Errorf("removing a missing key should succeed, got %v", err)
	}
	if err := slot.Set("../escape", "x"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Set(../escape) err = %v, want ErrInvalidKey", err)
	}
}

func TestMemorySlot(t *testing.T) {
	testSlot(t, NewMemorySlot())
}

func TestFileSlot(t *testing.T) {
	slot, err := NewFileSlot(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testSlot(t, slot)
}

func TestSQLiteSlot(t *testing.T) {
	slot, err := OpenSQLiteSlot(filepath.Join(t.TempDir(), "folio.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer slot.Close()
	testSlot(t, slot)
}

func TestOpen(t *testing.T) {
	if _, err := Open("cassandra", ""); err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Errorf("unknown backend err = %v", err)
	}
	slot, err := Open(BackendMemory, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := slot.(*MemorySlot); !ok {
		t.Errorf("Open(memory) returned %T", slot)
	}
}

func TestFileSlot_WatchSeesOtherWriter(t *testing.T) {
	dir := t.TempDir()
	reader, _ := NewFileSlot(dir)
	writer, _ := NewFileSlot(dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []*model.Message, 4)
	h := NewHistory(reader)
	if err := h.Watch(ctx, func(msgs []*model.Message) { got <- msgs }); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	NewHistory(writer).Save(makeMessages(3))

	select {
	case msgs := <-got:
		if len(msgs) != 3 {
			t.Errorf("watch delivered %d messages, want 3", len(msgs))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change delivered")
	}
}

func TestHistory_SaveWhileWatching(t *testing.T) {
	dir := t.TempDir()
	slot, _ := NewFileSlot(dir)
	other, _ := NewFileSlot(dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []*model.Message, 64)
	h := NewHistory(slot)
	if err := h.Watch(ctx, func(msgs []*model.Message) { got <- msgs }); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	msgs := makeMessages(1)
	for i := 0; i < 40; i++ {
		msgs = append(msgs, model.NewUserMessage("question"))
		h.Save(msgs)
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)

	select {
	case echoed := <-got:
		t.Fatalf("own write delivered back (%d messages)", len(echoed))
	default:
	}

	NewHistory(other).Save(makeMessages(2))
	select {
	case msgs := <-got:
		if len(msgs) != 2 {
			t.Errorf("watch delivered %d messages, want 2", len(msgs))
		}
	case <-time.After(3 * time.Second):
		t.Fatal("write from another process not delivered")
	}
}
