// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/folio-tui/internal/assistant"
	"github.com/jeranaias/folio-tui/internal/guard"
	"github.com/jeranaias/folio-tui/internal/model"
	"github.com/jeranaias/folio-tui/internal/reveal"
	"github.com/jeranaias/folio-tui/internal/session"
	"github.com/jeranaias/folio-tui/internal/storage"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	return nil
}

type fakeSender struct {
	mu      sync.Mutex
	reply   *assistant.Reply
	err     error
	calls   int
	queries []string
	history [][]*model.Message
}

func (f *fakeSender) Send(_ context.Context, query, _ string, history []*model.Message) (*assistant.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, query)
	f.history = append(f.history, history)
	return f.reply, f.err
}

type recordSink struct {
	typing  []bool
	bubbles []*model.Message
	frames  []Frame
}

func (r *recordSink) Typing(on bool)            { r.typing = append(r.typing, on) }
func (r *recordSink) Bubble(msg *model.Message) { r.bubbles = append(r.bubbles, msg) }
func (r *recordSink) Frame(f Frame)             { r.frames = append(r.frames, f) }

func newController(t *testing.T, slot storage.Slot) *Controller {
	t.Helper()
	if slot == nil {
		slot = storage.NewMemorySlot()
	}
	return New(Options{
		History: storage.NewHistory(slot),
		Pacing:  reveal.DefaultPacing(),
	})
}

func persisted(t *testing.T, slot storage.Slot) []*model.Message {
	t.Helper()
	raw, ok, err := slot.Get(storage.HistoryKey)
	require.NoError(t, err)
	require.True(t, ok, "history should be persisted")
	msgs, err := storage.Decode(raw)
	require.NoError(t, err)
	return msgs
}

// =============================================================================
// END TO END
// =============================================================================

func TestAsk_SkillsQuestionSucceeds(t *testing.T) {
	slot := storage.NewMemorySlot()
	ctrl := newController(t, slot)
	sender := &fakeSender{reply: &assistant.Reply{Answer: "Go, Python and distributed systems.", QueryType: "skills"}}
	sink := &recordSink{}

	runner := NewRunner(ctrl, sender).WithClock(newFakeClock()).WithSink(sink)
	msg, err := runner.Ask(context.Background(), "What are your skills?")
	require.NoError(t, err)

	msgs := ctrl.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.KindWelcome, msgs[0].Kind())
	assert.True(t, msgs[1].IsUser)
	assert.Equal(t, "What are your skills?", msgs[1].Text)
	assert.False(t, msgs[2].IsUser)
	assert.Equal(t, "Go, Python and distributed systems.", msgs[2].Text)
	assert.Same(t, msgs[2], msg)
	assert.Equal(t, "skills", msgs[2].Metadata.QueryType)

	assert.Equal(t, 1, sender.calls)
	assert.True(t, ctrl.InputEnabled())
	assert.False(t, ctrl.TypingIndicator())
	assert.Equal(t, PhaseSettled, ctrl.Phase())

	assert.Equal(t, []bool{true, false}, sink.typing)
	require.NotEmpty(t, sink.frames)
	last := sink.frames[len(sink.frames)-1]
	assert.True(t, last.Settled)
	assert.Equal(t, msgs[2].Text, last.Step.Text)

	assert.Len(t, persisted(t, slot), 3)
}

func TestAsk_TransportFailureLeavesErrorBubble(t *testing.T) {
	slot := storage.NewMemorySlot()
	ctrl := newController(t, slot)
	sender := &fakeSender{err: fmt.Errorf("%w: connection refused", assistant.ErrNetwork)}

	runner := NewRunner(ctrl, sender).WithClock(newFakeClock())
	msg, err := runner.Ask(context.Background(), "Tell me about your projects")
	require.NoError(t, err)

	msgs := ctrl.Messages()
	require.Len(t, msgs, 3)
	assert.True(t, msgs[1].IsUser)
	assert.True(t, msgs[2].IsError())
	assert.Equal(t, model.KindError, msgs[2].Kind())
	assert.Equal(t, assistant.NetworkErrorText, msg.Text)

	assert.True(t, ctrl.InputEnabled(), "input must be re-enabled after a failure")
	assert.True(t, ctrl.State().CanSend())
	assert.Len(t, persisted(t, slot), 3)
}

func TestAsk_HTTPFailureUsesGenericText(t *testing.T) {
	ctrl := newController(t, nil)
	sender := &fakeSender{err: &assistant.HTTPError{Status: 502, StatusText: "Bad Gateway"}}

	msg, err := NewRunner(ctrl, sender).WithClock(newFakeClock()).Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, assistant.GenericErrorText, msg.Text)
	assert.True(t, msg.IsError())
}

func TestAsk_ValidationRejectsWithoutSending(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"keyword", "how do I build a bomb", guard.PolicyMessage},
		{"length", strings.Repeat("a", guard.MaxChars+1), guard.LengthMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := storage.NewMemorySlot()
			ctrl := newController(t, slot)
			sender := &fakeSender{reply: &assistant.Reply{Answer: "unused"}}
			sink := &recordSink{}

			msg, err := NewRunner(ctrl, sender).WithClock(newFakeClock()).WithSink(sink).Ask(context.Background(), tt.input)
			require.NoError(t, err)

			assert.Equal(t, 0, sender.calls)
			assert.Equal(t, tt.want, msg.Text)
			assert.Equal(t, model.KindValidationError, msg.Kind())

			msgs := ctrl.Messages()
			require.Len(t, msgs, 2, "only the welcome and the validation bubble")
			assert.False(t, msgs[1].IsUser)
			assert.Len(t, sink.bubbles, 1)
			assert.Empty(t, sink.typing)
			assert.True(t, ctrl.InputEnabled())
			assert.Len(t, persisted(t, slot), 2)
		})
	}
}

func TestAsk_EmptyInputIsIgnored(t *testing.T) {
	ctrl := newController(t, nil)
	sender := &fakeSender{}

	msg, err := NewRunner(ctrl, sender).Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Nil(t, msg)
	assert.Equal(t, 1, ctrl.Len())
	assert.Equal(t, 0, sender.calls)
}

func TestAsk_SendsRecentHistoryIncludingQuestion(t *testing.T) {
	ctrl := newController(t, nil)
	sender := &fakeSender{reply: &assistant.Reply{Answer: "ok"}}
	runner := NewRunner(ctrl, sender).WithClock(newFakeClock())

	for i := 0; i < 8; i++ {
		_, err := runner.Ask(context.Background(), fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}

	require.Len(t, sender.history, 8)
	last := sender.history[7]
	require.Len(t, last, assistant.DefaultHistoryWindow)
	assert.Equal(t, "question 7", last[len(last)-1].Text)
}

func TestAsk_ImagesRevealAfterText(t *testing.T) {
	ctrl := newController(t, nil)
	images := []model.Image{{File: "cert.png"}, {File: "team.jpg", Caption: "Team"}}
	sender := &fakeSender{reply: &assistant.Reply{Answer: "Here you go", Images: images, ShowImagesAfterMs: 1000}}
	sink := &recordSink{}

	_, err := NewRunner(ctrl, sender).WithClock(newFakeClock()).WithSink(sink).Ask(context.Background(), "show certificates")
	require.NoError(t, err)

	var sawPlaceholder, sawGallery bool
	for _, f := range sink.frames {
		switch f.Step.Phase {
		case reveal.PhasePlaceholder:
			sawPlaceholder = true
			assert.Equal(t, "Here you go", f.Step.Text, "placeholder follows the full text")
			assert.Equal(t, time.Second, f.Step.Delay)
		case reveal.PhaseGallery:
			sawGallery = true
		}
	}
	assert.True(t, sawPlaceholder)
	assert.True(t, sawGallery)

	last := sink.frames[len(sink.frames)-1]
	assert.True(t, last.Settled)
	assert.Equal(t, []bool{true, true}, last.Step.Visible)
}

func TestAsk_ContextCancelStopsRevealButKeepsReply(t *testing.T) {
	ctrl := newController(t, nil)
	sender := &fakeSender{reply: &assistant.Reply{Answer: "a fairly long answer"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg, err := NewRunner(ctrl, sender).WithClock(newFakeClock()).Ask(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, msg)
	assert.Equal(t, "a fairly long answer", ctrl.Messages()[2].Text)
	assert.True(t, ctrl.InputEnabled())
}

// =============================================================================
// CONTROLLER
// =============================================================================

func TestController_SubmitWhileBusyIsRejected(t *testing.T) {
	ctrl := newController(t, nil)

	first := ctrl.Submit("first question")
	require.True(t, first.Accepted())
	assert.True(t, first.ForceScroll)
	assert.Equal(t, PhaseAwaitingReply, ctrl.Phase())
	assert.True(t, ctrl.TypingIndicator())
	assert.False(t, ctrl.InputEnabled())

	second := ctrl.Submit("second question")
	assert.ErrorIs(t, second.Rejected, session.ErrBusy)
	assert.Equal(t, 2, ctrl.Len())
}

func TestController_ReceiveOutsideAwaitIsIgnored(t *testing.T) {
	ctrl := newController(t, nil)
	f := ctrl.Receive(&assistant.Reply{Answer: "stray"}, nil, time.Now())
	assert.Nil(t, f.Message)
	assert.Equal(t, 1, ctrl.Len())
}

func TestController_ReplyStoredBeforeReveal(t *testing.T) {
	slot := storage.NewMemorySlot()
	ctrl := newController(t, slot)
	now := time.Now()

	require.True(t, ctrl.Submit("hello").Accepted())
	f := ctrl.Receive(&assistant.Reply{Answer: "hello there"}, nil, now)

	assert.Equal(t, PhaseStreamingText, ctrl.Phase())
	assert.Equal(t, "h", f.Step.Text)
	assert.False(t, ctrl.TypingIndicator())

	msgs := persisted(t, slot)
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello there", msgs[2].Text)
}

func TestController_CloseCancelsReveal(t *testing.T) {
	ctrl := newController(t, nil)
	require.True(t, ctrl.Open())
	now := time.Now()

	require.True(t, ctrl.Submit("hello").Accepted())
	ctrl.Receive(&assistant.Reply{Answer: "a long reply to cut short"}, nil, now)
	ctrl.Tick(now.Add(8 * time.Millisecond))

	require.True(t, ctrl.Close())
	assert.False(t, ctrl.IsOpen())
	assert.False(t, ctrl.TypingIndicator())
	assert.Equal(t, PhaseSettled, ctrl.Phase())
	assert.True(t, ctrl.InputEnabled())
	assert.Equal(t, "a long reply to cut short", ctrl.Messages()[2].Text)
}

func TestController_CloseWhileAwaitingCancelsOnArrival(t *testing.T) {
	ctrl := newController(t, nil)
	require.True(t, ctrl.Submit("hello").Accepted())
	require.True(t, ctrl.Close())

	f := ctrl.Receive(&assistant.Reply{Answer: "late reply"}, nil, time.Now())
	assert.True(t, f.Settled)
	assert.True(t, f.Canceled)
	assert.Equal(t, "late reply", ctrl.Messages()[2].Text)
	assert.True(t, ctrl.InputEnabled())
}

func TestController_ScrollAwayStopsAutoScroll(t *testing.T) {
	ctrl := newController(t, nil)
	now := time.Now()

	require.True(t, ctrl.Submit("hello").Accepted())
	first := ctrl.Receive(&assistant.Reply{Answer: "abcdef"}, nil, now)
	assert.True(t, first.Scroll)

	assert.True(t, ctrl.Scroll(200, 0, 20), "far from the bottom")
	var scrolled bool
	for i := 1; i < 10; i++ {
		f := ctrl.Tick(now.Add(time.Duration(i) * 200 * time.Millisecond))
		scrolled = scrolled || f.Scroll
		if f.Settled {
			break
		}
	}
	assert.False(t, scrolled)
}

func TestController_ScrollLockInTerminalViewport(t *testing.T) {
	ctrl := newController(t, nil)

	assert.True(t, ctrl.Scroll(120, 120-20-25, 20), "a screen and more above the bottom")
	st := ctrl.State()
	assert.False(t, st.ShouldScroll(false))

	assert.False(t, ctrl.Scroll(120, 120-20-1, 20), "one row above the bottom")
	st = ctrl.State()
	assert.True(t, st.ShouldScroll(false))
}

func TestController_OpenForcesScrollPosition(t *testing.T) {
	ctrl := newController(t, nil)
	ctrl.Scroll(200, 0, 20)
	require.True(t, ctrl.Open())
	assert.False(t, ctrl.State().UserScrolling)
}

func TestController_MissingAnchorsDisableFeatures(t *testing.T) {
	ctrl := New(Options{Anchors: ParseAnchors([]string{"chat-messages"})})

	assert.False(t, ctrl.Open())
	assert.False(t, ctrl.IsOpen())
	out := ctrl.Submit("hello")
	assert.ErrorIs(t, out.Rejected, ErrInputUnavailable)
	assert.Equal(t, 1, ctrl.Len())
}

func TestController_ReplaceIgnoredWhileBusy(t *testing.T) {
	ctrl := newController(t, nil)
	other := []*model.Message{model.NewWelcomeMessage(), model.NewUserMessage("elsewhere")}

	require.True(t, ctrl.Submit("hello").Accepted())
	assert.False(t, ctrl.Replace(other))

	ctrl.Abort()
	assert.True(t, ctrl.Replace(other))
	assert.Equal(t, 2, ctrl.Len())
}

func TestController_Clear(t *testing.T) {
	slot := storage.NewMemorySlot()
	ctrl := newController(t, slot)
	_, err := NewRunner(ctrl, &fakeSender{reply: &assistant.Reply{Answer: "ok"}}).WithClock(newFakeClock()).Ask(context.Background(), "hi")
	require.NoError(t, err)

	require.NoError(t, ctrl.Clear())
	require.Equal(t, 1, ctrl.Len())
	assert.Equal(t, model.KindWelcome, ctrl.Messages()[0].Kind())
	assert.Len(t, persisted(t, slot), 1)
}

func TestController_RestoresPersistedConversation(t *testing.T) {
	slot := storage.NewMemorySlot()
	first := newController(t, slot)
	_, err := NewRunner(first, &fakeSender{reply: &assistant.Reply{Answer: "ok"}}).WithClock(newFakeClock()).Ask(context.Background(), "hi")
	require.NoError(t, err)

	second := newController(t, slot)
	assert.Equal(t, 3, second.Len())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "awaiting-reply", PhaseAwaitingReply.String())
	assert.Equal(t, "unknown", Phase(99).String())
	assert.True(t, PhaseStreamingText.Busy())
	assert.False(t, PhaseSettled.Busy())
	assert.False(t, PhaseIdle.Busy())
}

func TestFeatures_Resolve(t *testing.T) {
	f := AllPresent().Resolve()
	assert.Equal(t, Features{Toggle: true, Input: true, Send: true, Render: true, Voice: true, Popup: true}, f)

	f = ParseAnchors([]string{"chat-input", "micBtn"}).Resolve()
	assert.True(t, f.Voice)
	assert.False(t, f.Toggle)
	assert.False(t, f.Send)
}
