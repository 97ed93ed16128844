// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sink.go - Prints a widget reveal as a stream of lines.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/folio-tui/internal/model"
	"github.com/jeranaias/folio-tui/internal/ui/components"
	"github.com/jeranaias/folio-tui/internal/widget"
)

// lineSink writes the typing indicator and the revealed reply text as it
// grows. Gallery images are listed once the reply settles.
type lineSink struct {
	w       io.Writer
	bubbles components.Bubbles
	tty     bool
	shown   string
	started bool
}

func newLineSink(w io.Writer, bubbles components.Bubbles, tty bool) *lineSink {
	return &lineSink{w: w, bubbles: bubbles, tty: tty}
}

func (s *lineSink) Typing(on bool) {
	if !s.tty {
		return
	}
	if on {
		fmt.Fprint(s.w, RenderConditional(DimStyle, widget.TypingText))
		return
	}
	fmt.Fprint(s.w, "\r\033[K")
}

// Bubble prints whole messages. The visitor's own line is already on
// screen, so only assistant bubbles are written.
func (s *lineSink) Bubble(msg *model.Message) {
	if msg == nil || msg.IsUser {
		return
	}
	fmt.Fprintln(s.w, assistantPrefix(msg)+components.PlainText(msg.Text))
}

func (s *lineSink) Frame(f widget.Frame) {
	if f.Message == nil {
		return
	}
	if !s.started {
		fmt.Fprint(s.w, assistantPrefix(f.Message))
		s.started = true
	}

	text := f.Step.Text
	if strings.HasPrefix(text, s.shown) {
		fmt.Fprint(s.w, text[len(s.shown):])
	} else {
		fmt.Fprint(s.w, "\n"+text)
	}
	s.shown = text

	if !f.Settled {
		return
	}
	fmt.Fprintln(s.w)
	if f.Canceled {
		fmt.Fprintln(s.w, RenderConditional(DimStyle, "  (stopped)"))
	} else {
		printSources(s.w, f.Message)
		printImages(s.w, f.Message, s.bubbles)
	}
	s.shown = ""
	s.started = false
}

func assistantPrefix(msg *model.Message) string {
	if msg.IsError() {
		return RenderConditional(ErrorStyle, "assistant> ")
	}
	return RenderConditional(AssistantStyle, "assistant> ")
}
