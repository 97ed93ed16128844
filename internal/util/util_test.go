// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	data := []byte(`[{"id":"msg_1"}]`)

	if err := AtomicWriteFile(path, data, 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("Content mismatch: got %q, want %q", content, data)
	}
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots", "nested", "value.json")

	if err := AtomicWriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

func TestAtomicWriteFile_OverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "value.json")

	for _, v := range []string{"first", "second"} {
		if err := AtomicWriteFile(path, []byte(v), 0644); err != nil {
			t.Fatalf("AtomicWriteFile(%q) failed: %v", v, err)
		}
	}

	content, _ := os.ReadFile(path)
	if string(content) != "second" {
		t.Errorf("got %q, want %q", content, "second")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

// =============================================================================
// TEXT TESTS
// =============================================================================

func TestRuneLen(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"hello", 5},
		{"سلام", 4},
		{"日本", 2},
	}
	for _, tt := range tests {
		if got := RuneLen(tt.in); got != tt.want {
			t.Errorf("RuneLen(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 0, ""},
		{"hello", 2, "he"},
		{"日本語テキスト", 7, "日本..."},
	}
	for _, tt := range tests {
		if got := TruncateWidth(tt.in, tt.width); got != tt.want {
			t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	lines := Wrap("the quick brown fox jumps", 10)
	want := []string{"the quick", "brown fox", "jumps"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("Wrap = %q, want %q", lines, want)
	}

	lines = Wrap("a\n\nb", 10)
	if len(lines) != 3 || lines[1] != "" {
		t.Errorf("Wrap should keep blank lines, got %q", lines)
	}

	lines = Wrap("abcdefghij", 4)
	if strings.Join(lines, "|") != "abcd|efgh|ij" {
		t.Errorf("Wrap should split long words, got %q", lines)
	}
}

func TestClockTime(t *testing.T) {
	tests := []struct {
		hour, minute int
		want         string
	}{
		{0, 5, "12:05 AM"},
		{9, 30, "9:30 AM"},
		{12, 0, "12:00 PM"},
		{23, 59, "11:59 PM"},
	}
	for _, tt := range tests {
		ts := time.Date(2025, 1, 2, tt.hour, tt.minute, 0, 0, time.Local)
		if got := ClockTime(ts); got != tt.want {
			t.Errorf("ClockTime(%02d:%02d) = %q, want %q", tt.hour, tt.minute, got, tt.want)
		}
	}
}

func TestRandomBase36(t *testing.T) {
	s := RandomBase36(9)
	if len(s) != 9 {
		t.Fatalf("len = %d, want 9", len(s))
	}
	for _, r := range s {
		if !strings.ContainsRune(base36, r) {
			t.Errorf("unexpected character %q in %q", r, s)
		}
	}
	if RandomBase36(9) == RandomBase36(9) {
		t.Log("two random suffixes collided; possible but very unlikely")
	}
}
