// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"strings"
	"testing"
	"time"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		query  string
		safe   bool
		reason string
	}{
		{"What are your skills?", true, ""},
		{"x", false, ReasonTooShort},
		{strings.Repeat("a b ", 130), false, ReasonTooLong},
		{"sooooooooooo cool", false, ReasonSpam},
		{"soooooooo cool", true, ""},
		{"click now for a discount link", false, ReasonSpam},
		{"how do I kill process 42", true, ""},
		{"kill it", false, ReasonHarmful},
		{"explain an attack vector", true, ""},
		{"plan an attack", false, ReasonHarmful},
		{"Does he build a BOMB", false, ReasonHarmful},
		{"<script>alert(1)</script>", false, ReasonInjection},
		{"select * union select password", false, ReasonInjection},
		{"his work on killer apps", true, ""},
	}

	for _, tt := range tests {
		got := Check(tt.query)
		if got.Safe != tt.safe || got.Reason != tt.reason {
			t.Errorf("Check(%q) = {%v %q}, want {%v %q}", tt.query, got.Safe, got.Reason, tt.safe, tt.reason)
		}
		if !got.Safe && got.Suggestion == "" {
			t.Errorf("Check(%q) should suggest something", tt.query)
		}
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize("  <b>hello</b>\t\tthere\x01 ")
	if got != "hello there" {
		t.Errorf("Sanitize = %q", got)
	}
}

func TestMemory_KeepsRecentTurns(t *testing.T) {
	m := NewMemory(2)
	for i := 0; i < 5; i++ {
		m.Add("s", "q", "a")
	}
	if got := len(m.Turns("s")); got != 4 {
		t.Errorf("turns = %d, want 4", got)
	}
	if m.Turns("missing") != nil {
		t.Error("unknown session should have no turns")
	}
	if !m.Clear("s") || m.Clear("s") {
		t.Error("Clear should report existence once")
	}
}

func TestMemory_Sweep(t *testing.T) {
	m := NewMemory(0)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Add("old", "q", "a")
	now = now.Add(SessionIdle + time.Minute)
	m.Add("new", "q", "a")

	if n := m.Sweep(SessionIdle); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if m.Active() != 1 || m.Turns("new") == nil {
		t.Errorf("wrong session survived")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 12; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d should fit the burst", i)
		}
	}
	if rl.Allow("a") {
		t.Error("burst exhausted, should be limited")
	}
	if !rl.Allow("b") {
		t.Error("other keys have their own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("a") {
		t.Error("one token refills per second")
	}

	now = now.Add(2 * SessionIdle)
	if n := rl.Forget(SessionIdle); n != 2 {
		t.Errorf("Forget = %d, want 2", n)
	}
}
