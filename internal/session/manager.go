// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/jeranaias/folio-tui/internal/util"
)

// =============================================================================
// SESSION TOKEN
// =============================================================================

// Token identifies one run of the widget to the backend. It is never
// persisted.
type Token string

var tokenPattern = regexp.MustCompile(`^session_\d+_[a-zA-Z0-9]+$`)

// NewToken returns a token of the form session_<unix-ms>_<9 base36 chars>.
func NewToken() Token {
	return newTokenAt(time.Now())
}

func newTokenAt(t time.Time) Token {
	return Token("session_" + strconv.FormatInt(t.UnixMilli(), 10) + "_" + util.RandomBase36(9))
}

// String returns the token text.
func (t Token) String() string {
	return string(t)
}

// Valid reports whether s has the token shape the backend accepts.
func Valid(s string) bool {
	return len(s) >= 10 && tokenPattern.MatchString(s)
}

// CreatedAt returns the creation time encoded in the token.
func (t Token) CreatedAt() (time.Time, bool) {
	if !Valid(string(t)) {
		return time.Time{}, false
	}
	s := string(t)[len("session_"):]
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			ms, err := strconv.ParseInt(s[:i], 10, 64)
			if err != nil {
				return time.Time{}, false
			}
			return time.UnixMilli(ms), true
		}
	}
	return time.Time{}, false
}

// =============================================================================
// UI STATE
// =============================================================================

// DefaultScrollThreshold is how far from the bottom, in rows, the view may
// be before the user counts as scrolled away. Two rows is about what 30px
// is in a browser.
const DefaultScrollThreshold = 2

// ErrBusy is returned by BeginSend while a send is outstanding.
var ErrBusy = errors.New("a reply is already in progress")

// State is the set of flags the widget consults before acting. It is owned
// by a single event loop and is not safe for concurrent use.
type State struct {
	Open          bool
	Typing        bool // awaiting or streaming a reply
	Generating    bool // streaming; clearing it cancels the reveal
	UserScrolling bool
	InputEnabled  bool

	ScrollThreshold int
}

// NewState creates a closed widget with input enabled.
func NewState(threshold int) *State {
	if threshold <= 0 {
		threshold = DefaultScrollThreshold
	}
	return &State{InputEnabled: true, ScrollThreshold: threshold}
}

// CanSend reports whether a new send would pass the gate.
func (s State) CanSend() bool {
	return !s.Typing && !s.Generating
}

// BeginSend claims the single send slot and disables input.
func (s *State) BeginSend() error {
	if !s.CanSend() {
		return ErrBusy
	}
	s.Typing = true
	s.Generating = true
	s.InputEnabled = false
	return nil
}

// EndSend releases the send slot and re-enables input. It is safe to call
// more than once.
func (s *State) EndSend() {
	s.Typing = false
	s.Generating = false
	s.InputEnabled = true
}

// CancelGeneration stops any in-progress reveal at its next step.
func (s *State) CancelGeneration() {
	s.Generating = false
}

// UpdateScroll recomputes UserScrolling from the scroll position and
// returns the new value. Heights and offset are in rows.
func (s *State) UpdateScroll(contentHeight, offset, viewHeight int) bool {
	distance := contentHeight - offset - viewHeight
	s.UserScrolling = distance > s.ScrollThreshold
	return s.UserScrolling
}

// ShouldScroll reports whether an auto-scroll should move the view to the
// bottom. Forced scrolls always do.
func (s *State) ShouldScroll(force bool) bool {
	return force || !s.UserScrolling
}
