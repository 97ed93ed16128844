// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package widget is the chat widget's state machine.
//
// A Controller owns the message store, the UI flags, the persisted history
// and the reveal of the current reply. It never performs I/O on its own
// schedule: the surface feeds it events (Submit, Receive, Tick, Open, Close,
// Scroll) and acts on what each returns. A reply moves through
//
//	idle -> validating -> sending -> awaiting-reply -> streaming-text
//	     -> revealing-images -> settled
//
// Validation failures go straight from validating to settled, and transport
// failures from awaiting-reply to settled, each leaving an error bubble.
package widget

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jeranaias/folio-tui/internal/assistant"
	"github.com/jeranaias/folio-tui/internal/guard"
	"github.com/jeranaias/folio-tui/internal/model"
	"github.com/jeranaias/folio-tui/internal/reveal"
	"github.com/jeranaias/folio-tui/internal/session"
	"github.com/jeranaias/folio-tui/internal/storage"
)

// =============================================================================
// PHASES
// =============================================================================

// Phase is where the controller is in handling a reply.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseValidating
	PhaseSending
	PhaseAwaitingReply
	PhaseStreamingText
	PhaseRevealingImages
	PhaseSettled
)

// String returns the phase name used in logs.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseSending:
		return "sending"
	case PhaseAwaitingReply:
		return "awaiting-reply"
	case PhaseStreamingText:
		return "streaming-text"
	case PhaseRevealingImages:
		return "revealing-images"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Busy reports whether the phase holds the send slot.
func (p Phase) Busy() bool {
	return p >= PhaseSending && p < PhaseSettled
}

// TypingText accompanies the typing indicator.
const TypingText = "Thinking..."

// Submit rejections. None of these change any state.
var (
	ErrEmptyInput       = errors.New("nothing to send")
	ErrInputUnavailable = errors.New("input anchor missing")
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Controller.
type Options struct {
	History       *storage.History // nil keeps the conversation in memory only
	Policy        *guard.Policy
	Pacing        reveal.Pacing
	Anchors       Anchors
	HistoryWindow int
	ScrollMargin  int
	Token         session.Token
}

// =============================================================================
// RESULTS
// =============================================================================

// Request is what the surface must deliver to the assistant for an
// accepted submit.
type Request struct {
	Query     string
	SessionID string
	History   []*model.Message
}

// Outcome describes what a Submit did.
type Outcome struct {
	Rejected    error          // gate rejection; nothing changed
	Validation  guard.Result   // set when validation ran
	Bubble      *model.Message // the validation error bubble, if any
	User        *model.Message // the appended user message, if accepted
	Request     *Request       // non-nil when a send must be made
	ForceScroll bool
}

// Accepted reports whether the submit started a send.
func (o Outcome) Accepted() bool {
	return o.Request != nil
}

// Frame is the result of advancing the reveal.
type Frame struct {
	Step     reveal.Step
	Message  *model.Message // the message being revealed
	Scroll   bool           // move the view to the bottom now
	Settled  bool           // the reply finished and input is back
	Canceled bool
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is the widget state machine.
type Controller struct {
	store    *model.Store
	history  *storage.History
	state    *session.State
	policy   *guard.Policy
	pacing   reveal.Pacing
	features Features
	token    session.Token
	window   int

	phase     Phase
	typing    bool // typing indicator visible
	stream    *reveal.Stream
	streaming *model.Message
	lastStep  reveal.Step
}

// New creates a controller, restoring the persisted conversation.
func New(opts Options) *Controller {
	if opts.Policy == nil {
		opts.Policy = guard.DefaultPolicy()
	}
	if opts.Anchors == nil {
		opts.Anchors = AllPresent()
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = assistant.DefaultHistoryWindow
	}
	if opts.Token == "" {
		opts.Token = session.NewToken()
	}

	var msgs []*model.Message
	if opts.History != nil {
		msgs = opts.History.Restore()
	} else {
		msgs = []*model.Message{model.NewWelcomeMessage()}
	}

	c := &Controller{
		store:    model.NewStoreFrom(msgs),
		history:  opts.History,
		state:    session.NewState(opts.ScrollMargin),
		policy:   opts.Policy,
		pacing:   opts.Pacing,
		features: opts.Anchors.Resolve(),
		token:    opts.Token,
		window:   opts.HistoryWindow,
	}

	log.Printf("WIDGET_READY | session=%s messages=%d", c.token, c.store.Len())
	return c
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Messages returns the conversation in order.
func (c *Controller) Messages() []*model.Message { return c.store.All() }

// Len returns the number of messages.
func (c *Controller) Len() int { return c.store.Len() }

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// State returns the UI flags. Callers must not mutate them directly.
func (c *Controller) State() session.State { return *c.state }

// Features returns the features enabled by the anchors.
func (c *Controller) Features() Features { return c.features }

// Token returns the session token.
func (c *Controller) Token() session.Token { return c.token }

// TypingIndicator reports whether the "Thinking..." bubble is shown.
func (c *Controller) TypingIndicator() bool { return c.typing }

// InputEnabled reports whether the input accepts text.
func (c *Controller) InputEnabled() bool { return c.state.InputEnabled && c.features.Input }

// Revealing returns the message under reveal and its current snapshot.
func (c *Controller) Revealing() (*model.Message, reveal.Step, bool) {
	if c.stream == nil || c.streaming == nil {
		return nil, reveal.Step{}, false
	}
	return c.streaming, c.lastStep, true
}

// =============================================================================
// WINDOW
// =============================================================================

// Open shows the window. It returns false when the toggle anchors are
// missing. Opening always forces a scroll to the bottom.
func (c *Controller) Open() bool {
	if !c.features.Toggle {
		return false
	}
	c.state.Open = true
	c.state.UserScrolling = false
	log.Printf("WIDGET_OPEN | session=%s", c.token)
	return true
}

// Close hides the window and the typing indicator and cancels any reveal in
// progress. The reply being revealed stays in the store in full.
func (c *Controller) Close() bool {
	if !c.features.Toggle {
		return false
	}
	c.state.Open = false
	c.typing = false
	if c.phase.Busy() {
		c.state.CancelGeneration()
		if c.stream != nil {
			c.settle("closed")
		}
	}
	log.Printf("WIDGET_CLOSE | session=%s phase=%s", c.token, c.phase)
	return true
}

// IsOpen reports whether the window is shown.
func (c *Controller) IsOpen() bool { return c.state.Open }

// Scroll records the message list position and reports whether the user is
// now scrolled away from the bottom.
func (c *Controller) Scroll(contentHeight, offset, viewHeight int) bool {
	return c.state.UpdateScroll(contentHeight, offset, viewHeight)
}

// =============================================================================
// SEND FLOW
// =============================================================================

// Submit handles a question typed by the visitor.
func (c *Controller) Submit(raw string) Outcome {
	text := strings.TrimSpace(raw)
	switch {
	case !c.features.Input:
		return Outcome{Rejected: ErrInputUnavailable}
	case text == "":
		return Outcome{Rejected: ErrEmptyInput}
	case !c.state.CanSend():
		return Outcome{Rejected: session.ErrBusy}
	}

	c.phase = PhaseValidating
	result := c.policy.Validate(text)
	if !result.Valid {
		log.Printf("CHAT_VALIDATION_REJECTED | session=%s rule=%s", c.token, result.Rule)
		bubble := c.append(model.NewAssistantMessage(result.Reason, &model.Metadata{Type: model.KindValidationError}))
		c.phase = PhaseSettled
		return Outcome{Validation: result, Bubble: bubble}
	}

	if err := c.state.BeginSend(); err != nil {
		c.phase = PhaseIdle
		return Outcome{Rejected: err}
	}

	c.phase = PhaseSending
	user := c.append(model.NewUserMessage(text))
	c.state.UserScrolling = false

	req := &Request{
		Query:     text,
		SessionID: c.token.String(),
		History:   c.store.Recent(c.window),
	}

	c.phase = PhaseAwaitingReply
	c.typing = true
	log.Printf("CHAT_SUBMIT | session=%s len=%d", c.token, len(text))

	return Outcome{Validation: result, User: user, Request: req, ForceScroll: true}
}

// Receive handles the transport result for the outstanding send. It
// appends the reply (or an error bubble), persists it, and starts the
// reveal. The returned frame is the reveal's first step.
func (c *Controller) Receive(reply *assistant.Reply, err error, now time.Time) Frame {
	if c.phase != PhaseAwaitingReply {
		log.Printf("CHAT_REPLY_IGNORED | session=%s phase=%s", c.token, c.phase)
		return Frame{}
	}
	c.typing = false

	var msg *model.Message
	if err != nil {
		log.Printf("CHAT_SEND_FAILED | session=%s http=%t err=%v", c.token, errors.Is(err, assistant.ErrHTTP), err)
		msg = model.NewAssistantMessage(assistant.UserMessage(err), &model.Metadata{Type: model.KindError, Error: true})
	} else {
		log.Printf("CHAT_REPLY | session=%s len=%d images=%d query_type=%s", c.token, len(reply.Answer), len(reply.Images), reply.QueryType)
		msg = model.NewAssistantMessage(reply.Answer, reply.Metadata())
	}

	// Stored before the reveal so a canceled reveal never loses the text.
	c.append(msg)
	c.streaming = msg
	c.stream = reveal.ForMessage(msg, c.pacing)
	c.phase = PhaseStreamingText

	return c.Tick(now)
}

// Tick advances the reveal one step.
func (c *Controller) Tick(now time.Time) Frame {
	if c.stream == nil {
		return Frame{Settled: c.phase == PhaseSettled}
	}

	step := c.stream.Next(now, c.state.Generating)
	c.lastStep = step

	switch step.Phase {
	case reveal.PhasePlaceholder, reveal.PhaseGallery:
		c.phase = PhaseRevealingImages
	}

	f := Frame{
		Step:     step,
		Message:  c.streaming,
		Scroll:   step.Scroll && c.state.ShouldScroll(false),
		Canceled: step.Canceled,
	}
	if step.Done {
		reason := "done"
		if step.Canceled {
			reason = "canceled"
		}
		c.settle(reason)
		f.Settled = true
	}
	return f
}

// settle is the cleanup that runs on every path out of a send: flags reset
// and input re-enabled.
func (c *Controller) settle(reason string) {
	c.typing = false
	c.state.EndSend()
	c.stream = nil
	c.streaming = nil
	c.phase = PhaseSettled
	log.Printf("CHAT_SETTLED | session=%s reason=%s messages=%d", c.token, reason, c.store.Len())
}

// Abort settles an outstanding send without a reply, used when the surface
// shuts down mid-request.
func (c *Controller) Abort() {
	if c.phase.Busy() {
		c.state.CancelGeneration()
		c.settle("aborted")
	}
}

// =============================================================================
// HISTORY
// =============================================================================

// Replace swaps in a conversation written by another instance. It is
// ignored while a send is outstanding.
func (c *Controller) Replace(msgs []*model.Message) bool {
	if c.phase.Busy() {
		return false
	}
	c.store = model.NewStoreFrom(msgs)
	log.Printf("HISTORY_REPLACED | session=%s messages=%d", c.token, c.store.Len())
	return true
}

// Clear resets the conversation to the welcome message.
func (c *Controller) Clear() error {
	if c.phase.Busy() {
		return session.ErrBusy
	}
	var msgs []*model.Message
	if c.history != nil {
		var err error
		if msgs, err = c.history.Clear(); err != nil {
			return err
		}
	} else {
		msgs = []*model.Message{model.NewWelcomeMessage()}
	}
	c.store = model.NewStoreFrom(msgs)
	c.phase = PhaseIdle
	return nil
}

func (c *Controller) append(msg *model.Message) *model.Message {
	c.store.Append(msg)
	if c.history != nil {
		c.history.Save(c.store.All())
	}
	return msg
}
