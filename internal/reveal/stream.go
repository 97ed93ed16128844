// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal paces the on-screen display of an already received reply.
//
// A Stream never sleeps. The caller asks for the next step, renders it, and
// waits Step.Delay before asking again. Both the bubbletea surface (via
// tea.Tick) and the line-mode runner (via a Sleeper) drive the same Stream.
package reveal

import (
	"time"

	"github.com/jeranaias/folio-tui/internal/model"
)

// =============================================================================
// PACING
// =============================================================================

// Pacing holds the reveal timings.
type Pacing struct {
	CharDelay      time.Duration // between characters
	ImageDelay     time.Duration // placeholder time when the server gives none
	FadeDelay      time.Duration // gallery shown to image visible
	ScrollThrottle time.Duration // minimum gap between non-forced scrolls
}

// DefaultPacing returns the standard timings.
func DefaultPacing() Pacing {
	return Pacing{
		CharDelay:      8 * time.Millisecond,
		ImageDelay:     2500 * time.Millisecond,
		FadeDelay:      100 * time.Millisecond,
		ScrollThrottle: 100 * time.Millisecond,
	}
}

// Instant returns a pacing with no delays, for non-interactive output.
func Instant() Pacing {
	return Pacing{}
}

// =============================================================================
// STEP
// =============================================================================

// Phase is where a stream is in its reveal.
type Phase int

const (
	PhaseText Phase = iota
	PhasePlaceholder
	PhaseGallery
	PhaseDone
)

// String returns the phase name used in logs.
func (p Phase) String() string {
	switch p {
	case PhaseText:
		return "text"
	case PhasePlaceholder:
		return "placeholder"
	case PhaseGallery:
		return "gallery"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// PlaceholderText is shown while images are being "generated".
const PlaceholderText = "Generating image..."

// Step is a snapshot of the reveal after one advance.
type Step struct {
	Text     string // revealed prefix of the reply text
	Phase    Phase
	Images   []model.Image
	Visible  []bool        // per image, faded in yet
	Scroll   bool          // request a non-forced scroll to bottom
	Delay    time.Duration // wait before the next call to Next
	Done     bool
	Canceled bool
}

// =============================================================================
// STREAM
// =============================================================================

// Stream reveals one reply: characters first, then an optional image
// placeholder and gallery.
type Stream struct {
	pacing Pacing

	text  []rune
	shown int

	images     []model.Image
	visible    []bool
	imageDelay time.Duration
	galleryAt  time.Time

	phase      Phase
	canceled   bool
	lastScroll time.Time
}

// NewStream creates a stream for text and images. showAfterMs is the
// server-requested placeholder delay; zero means pacing.ImageDelay.
func NewStream(text string, images []model.Image, showAfterMs int, pacing Pacing) *Stream {
	delay := pacing.ImageDelay
	if showAfterMs > 0 {
		delay = time.Duration(showAfterMs) * time.Millisecond
	}
	return &Stream{
		pacing:     pacing,
		text:       []rune(text),
		images:     images,
		visible:    make([]bool, len(images)),
		imageDelay: delay,
	}
}

// ForMessage creates a stream for an assistant message.
func ForMessage(msg *model.Message, pacing Pacing) *Stream {
	after := 0
	if msg.Metadata != nil {
		after = msg.Metadata.ShowImagesAfter
	}
	return NewStream(msg.Text, msg.Images(), after, pacing)
}

// Phase returns the current phase.
func (s *Stream) Phase() Phase {
	return s.phase
}

// Done reports whether the stream has finished or been abandoned.
func (s *Stream) Done() bool {
	return s.phase == PhaseDone
}

// Canceled reports whether the stream was abandoned before finishing.
func (s *Stream) Canceled() bool {
	return s.canceled
}

// Next advances the reveal by one step. generating is the global "still
// generating" flag; once false the stream stops where it is without error.
func (s *Stream) Next(now time.Time, generating bool) Step {
	if s.phase == PhaseDone {
		return s.snapshot(Step{Done: true, Canceled: s.canceled})
	}
	if !generating {
		s.phase = PhaseDone
		s.canceled = true
		return s.snapshot(Step{Done: true, Canceled: true})
	}

	switch s.phase {
	case PhaseText:
		if s.shown < len(s.text) {
			s.shown++
			return s.snapshot(Step{Scroll: s.throttledScroll(now), Delay: s.pacing.CharDelay})
		}
		if len(s.images) == 0 {
			s.phase = PhaseDone
			return s.snapshot(Step{Scroll: true, Done: true})
		}
		s.phase = PhasePlaceholder
		s.lastScroll = now
		return s.snapshot(Step{Scroll: true, Delay: s.imageDelay})

	case PhasePlaceholder:
		s.phase = PhaseGallery
		s.galleryAt = now
		s.lastScroll = now
		return s.snapshot(Step{Scroll: true, Delay: s.pacing.FadeDelay})

	case PhaseGallery:
		for i := range s.visible {
			if !now.Before(s.galleryAt.Add(s.pacing.FadeDelay)) {
				s.visible[i] = true
			}
		}
		if s.allVisible() {
			s.phase = PhaseDone
			return s.snapshot(Step{Scroll: true, Done: true})
		}
		return s.snapshot(Step{Delay: s.galleryAt.Add(s.pacing.FadeDelay).Sub(now)})
	}

	return s.snapshot(Step{Done: true})
}

// Finish reveals everything at once, used when output is not a terminal.
func (s *Stream) Finish() Step {
	s.shown = len(s.text)
	if len(s.images) > 0 && s.galleryAt.IsZero() {
		s.galleryAt = time.Now()
	}
	for i := range s.visible {
		s.visible[i] = true
	}
	s.phase = PhaseDone
	return s.snapshot(Step{Scroll: true, Done: true})
}

// Current returns the present snapshot without advancing.
func (s *Stream) Current() Step {
	return s.snapshot(Step{Done: s.phase == PhaseDone, Canceled: s.canceled})
}

func (s *Stream) snapshot(st Step) Step {
	st.Text = string(s.text[:s.shown])
	st.Phase = s.phase
	if s.phase == PhaseGallery || (s.phase == PhaseDone && s.galleryShown()) {
		st.Images = s.images
		st.Visible = append([]bool(nil), s.visible...)
	}
	return st
}

func (s *Stream) galleryShown() bool {
	return !s.galleryAt.IsZero()
}

func (s *Stream) allVisible() bool {
	for _, v := range s.visible {
		if !v {
			return false
		}
	}
	return true
}

func (s *Stream) throttledScroll(now time.Time) bool {
	if now.Sub(s.lastScroll) >= s.pacing.ScrollThrottle {
		s.lastScroll = now
		return true
	}
	return false
}
