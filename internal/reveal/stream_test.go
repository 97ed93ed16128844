// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/folio-tui/internal/model"
)

// run drives s to completion with a fake clock and returns every step.
func run(s *Stream, start time.Time) []Step {
	now := start
	var steps []Step
	for i := 0; i < 10000; i++ {
		st := s.Next(now, true)
		steps = append(steps, st)
		if st.Done {
			break
		}
		now = now.Add(st.Delay)
	}
	return steps
}

func TestStream_RevealsOneCharacterPerStep(t *testing.T) {
	s := NewStream("héllo", nil, 0, DefaultPacing())
	steps := run(s, time.Unix(0, 0))

	require.Len(t, steps, 6) // five characters plus the closing step
	want := []string{"h", "hé", "hél", "héll", "héllo", "héllo"}
	for i, st := range steps {
		assert.Equal(t, want[i], st.Text, "step %d", i)
	}
	for _, st := range steps[:5] {
		assert.Equal(t, 8*time.Millisecond, st.Delay)
	}
	last := steps[len(steps)-1]
	assert.True(t, last.Done)
	assert.True(t, last.Scroll)
	assert.False(t, last.Canceled)
}

func TestStream_ScrollThrottle(t *testing.T) {
	s := NewStream(string(make([]rune, 40)), nil, 0, DefaultPacing())
	steps := run(s, time.Unix(100, 0))

	scrolls := 0
	for _, st := range steps[:40] {
		if st.Scroll {
			scrolls++
		}
	}
	// 40 chars at 8ms span 312ms, so at most one scroll per 100ms window.
	assert.Equal(t, 4, scrolls)
}

func TestStream_CancelStopsEarly(t *testing.T) {
	s := NewStream("abcdef", []model.Image{{File: "a.png"}}, 0, DefaultPacing())
	now := time.Unix(0, 0)

	s.Next(now, true)
	s.Next(now, true)
	st := s.Next(now, false)

	assert.True(t, st.Done)
	assert.True(t, st.Canceled)
	assert.Equal(t, "ab", st.Text, "already revealed text is kept")
	assert.Nil(t, st.Images, "no gallery after cancellation")

	again := s.Next(now, true)
	assert.True(t, again.Done, "a canceled stream stays done")
	assert.Equal(t, "ab", again.Text)
}

func TestStream_ImagesDefaultDelay(t *testing.T) {
	imgs := []model.Image{{File: "a.png"}, {File: "b.png", Caption: "B"}}
	s := NewStream("hi", imgs, 0, DefaultPacing())
	steps := run(s, time.Unix(0, 0))

	var placeholder, gallery *Step
	for i := range steps {
		switch steps[i].Phase {
		case PhasePlaceholder:
			placeholder = &steps[i]
		case PhaseGallery:
			if gallery == nil {
				gallery = &steps[i]
			}
		}
	}
	require.NotNil(t, placeholder)
	assert.Equal(t, 2500*time.Millisecond, placeholder.Delay)
	assert.Nil(t, placeholder.Images)

	require.NotNil(t, gallery)
	assert.Len(t, gallery.Images, 2)
	assert.Equal(t, []bool{false, false}, gallery.Visible)
	assert.Equal(t, 100*time.Millisecond, gallery.Delay)

	last := steps[len(steps)-1]
	assert.True(t, last.Done)
	assert.Equal(t, []bool{true, true}, last.Visible)
}

func TestStream_ServerImageDelay(t *testing.T) {
	s := NewStream("", []model.Image{{File: "a.png"}}, 1200, DefaultPacing())
	st := s.Next(time.Unix(0, 0), true)

	assert.Equal(t, PhasePlaceholder, st.Phase)
	assert.Equal(t, 1200*time.Millisecond, st.Delay)
}

func TestStream_ForMessage(t *testing.T) {
	msg := model.NewAssistantMessage("x", &model.Metadata{Images: []model.Image{{File: "c.png"}}, ShowImagesAfter: 300})
	s := ForMessage(msg, DefaultPacing())
	s.Next(time.Unix(0, 0), true)
	st := s.Next(time.Unix(0, 0), true)
	assert.Equal(t, 300*time.Millisecond, st.Delay)
}

func TestStream_Finish(t *testing.T) {
	s := NewStream("done", []model.Image{{File: "a.png"}}, 0, DefaultPacing())
	st := s.Finish()

	assert.Equal(t, "done", st.Text)
	assert.True(t, st.Done)
	assert.Equal(t, []bool{true}, st.Visible)
}

func TestRoleTicker_Cycle(t *testing.T) {
	r := NewRoleTicker([]string{"ab", "c"})

	type frame struct {
		text  string
		delay time.Duration
	}
	want := []frame{
		{"a", TickerTypeDelay},
		{"ab", TickerHoldDelay},
		{"a", TickerDeleteDelay},
		{"", TickerNextDelay},
		{"c", TickerHoldDelay},
		{"", TickerNextDelay},
		{"a", TickerTypeDelay},
	}
	for i, w := range want {
		text, delay := r.Next()
		assert.Equal(t, w.text, text, "frame %d", i)
		assert.Equal(t, w.delay, delay, "frame %d", i)
	}
	assert.Equal(t, TickerStartDelay, r.Start())
}
