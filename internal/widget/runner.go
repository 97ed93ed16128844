// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"context"
	"time"

	"github.com/jeranaias/folio-tui/internal/assistant"
	"github.com/jeranaias/folio-tui/internal/model"
)

// =============================================================================
// CLOCK
// =============================================================================

// Clock is the time source for a Runner.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock uses the wall clock.
type RealClock struct{}

// Now returns time.Now.
func (RealClock) Now() time.Time { return time.Now() }

// Sleep waits for d or until ctx is done.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// =============================================================================
// SINK
// =============================================================================

// Sink receives what a Runner would put on screen.
type Sink interface {
	// Typing shows or hides the typing indicator.
	Typing(on bool)
	// Bubble is called for messages that appear whole: the user's own
	// message and validation bubbles.
	Bubble(msg *model.Message)
	// Frame is called for every reveal step of a reply.
	Frame(f Frame)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Typing(bool)           {}
func (NopSink) Bubble(*model.Message) {}
func (NopSink) Frame(Frame)           {}

// =============================================================================
// RUNNER
// =============================================================================

// Runner drives a Controller synchronously: one question in, one settled
// reply out.
type Runner struct {
	ctrl   *Controller
	sender assistant.Sender
	clock  Clock
	sink   Sink
}

// NewRunner creates a runner on the wall clock with no sink.
func NewRunner(ctrl *Controller, sender assistant.Sender) *Runner {
	return &Runner{ctrl: ctrl, sender: sender, clock: RealClock{}, sink: NopSink{}}
}

// WithClock sets the time source.
func (r *Runner) WithClock(c Clock) *Runner {
	r.clock = c
	return r
}

// WithSink sets the output sink.
func (r *Runner) WithSink(s Sink) *Runner {
	r.sink = s
	return r
}

// Controller returns the driven controller.
func (r *Runner) Controller() *Controller { return r.ctrl }

// Ask submits text and blocks until the reply has fully revealed. It
// returns the message that ended the exchange: the validation bubble, the
// reply, or the error bubble. A gate rejection returns its error and no
// message. Canceling ctx stops the reveal; the reply is already stored.
func (r *Runner) Ask(ctx context.Context, text string) (*model.Message, error) {
	out := r.ctrl.Submit(text)
	if out.Rejected != nil {
		return nil, out.Rejected
	}
	if out.Bubble != nil {
		r.sink.Bubble(out.Bubble)
		return out.Bubble, nil
	}

	r.sink.Bubble(out.User)
	r.sink.Typing(true)

	reply, err := r.sender.Send(ctx, out.Request.Query, out.Request.SessionID, out.Request.History)
	r.sink.Typing(false)

	frame := r.ctrl.Receive(reply, err, r.clock.Now())
	msg := frame.Message
	for {
		r.sink.Frame(frame)
		if frame.Settled {
			return msg, nil
		}
		if err := r.clock.Sleep(ctx, frame.Step.Delay); err != nil {
			r.ctrl.Abort()
			return msg, err
		}
		frame = r.ctrl.Tick(r.clock.Now())
	}
}
