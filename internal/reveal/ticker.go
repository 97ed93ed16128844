// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import "time"

// DefaultRoles are cycled through by the header ticker.
var DefaultRoles = []string{
	"Junior Machine Learning Engineer",
	"Deep Learning Specialist",
	"Computer Vision Engineer",
	"Applied LLM Engineer",
	"Assistant RAG Developer",
}

// Ticker timings.
const (
	TickerStartDelay  = 1500 * time.Millisecond
	TickerTypeDelay   = 120 * time.Millisecond
	TickerHoldDelay   = 2500 * time.Millisecond
	TickerDeleteDelay = 30 * time.Millisecond
	TickerNextDelay   = 1000 * time.Millisecond
)

// RoleTicker types a role out, holds it, deletes it and moves on to the
// next, forever.
type RoleTicker struct {
	roles    []string
	index    int
	chars    int
	deleting bool
}

// NewRoleTicker creates a ticker over roles. An empty list uses
// DefaultRoles.
func NewRoleTicker(roles []string) *RoleTicker {
	if len(roles) == 0 {
		roles = DefaultRoles
	}
	return &RoleTicker{roles: roles}
}

// Start returns the delay before the first Next.
func (r *RoleTicker) Start() time.Duration {
	return TickerStartDelay
}

// Text returns what is currently displayed.
func (r *RoleTicker) Text() string {
	role := []rune(r.roles[r.index])
	n := r.chars
	if n > len(role) {
		n = len(role)
	}
	if n < 0 {
		n = 0
	}
	return string(role[:n])
}

// Next advances by one character and returns the displayed text and the
// delay before the following call.
func (r *RoleTicker) Next() (string, time.Duration) {
	role := []rune(r.roles[r.index])

	if r.deleting {
		r.chars--
		if r.chars <= 0 {
			r.chars = 0
			r.deleting = false
			r.index = (r.index + 1) % len(r.roles)
			return "", TickerNextDelay
		}
		return string(role[:r.chars]), TickerDeleteDelay
	}

	r.chars++
	if r.chars >= len(role) {
		r.chars = len(role)
		r.deleting = true
		return string(role), TickerHoldDelay
	}
	return string(role[:r.chars]), TickerTypeDelay
}
