// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Output helpers shared by line-mode commands.

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/folio-tui/internal/assistant"
	"github.com/jeranaias/folio-tui/internal/model"
	"github.com/jeranaias/folio-tui/internal/ui/components"
)

// stdout and stdin are swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
)

// outputJSON writes data to stdout as indented JSON.
func outputJSON(data interface{}) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// promptConfirm asks a yes/no question on stdin. Anything but y or yes is no.
func promptConfirm(prompt string) bool {
	fmt.Fprint(stdout, prompt+" [y/N]: ")
	reader := bufio.NewReader(stdin)
	input, _ := reader.ReadString('\n')
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var (
	markdownRenderer     *glamour.TermRenderer
	markdownRendererOnce sync.Once
)

// renderMarkdown renders a reply for the terminal. Piped output and
// renderer failures get the plain text with links spelled out.
func renderMarkdown(text string) string {
	if !IsStdoutTTY() || !ColorsEnabled() {
		return components.PlainText(text) + "\n"
	}

	markdownRendererOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(GetTerminalWidth()-4),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
	if markdownRenderer == nil {
		return components.PlainText(text) + "\n"
	}

	rendered, err := markdownRenderer.Render(components.CleanArtifacts(text))
	if err != nil {
		return components.PlainText(text) + "\n"
	}
	return rendered
}

// =============================================================================
// REPLY VIEW
// =============================================================================

// replyJSON is the --json shape of one message.
type replyJSON struct {
	ID        string   `json:"id"`
	Role      string   `json:"role"`
	Text      string   `json:"text"`
	Type      string   `json:"type,omitempty"`
	QueryType string   `json:"query_type,omitempty"`
	Sources   []string `json:"sources,omitempty"`
	Images    []string `json:"images,omitempty"`
	Error     bool     `json:"error,omitempty"`
	Timestamp string   `json:"timestamp"`
}

func toReplyJSON(msg *model.Message, bubbles components.Bubbles) replyJSON {
	out := replyJSON{
		ID:        msg.ID,
		Role:      msg.Role().String(),
		Text:      msg.Text,
		Type:      string(msg.Kind()),
		Error:     msg.IsError(),
		Timestamp: msg.Timestamp.Format(time.RFC3339),
	}
	if msg.Metadata != nil {
		out.Sources = msg.Metadata.Sources
		out.QueryType = msg.Metadata.QueryType
	}
	for _, img := range msg.Images() {
		out.Images = append(out.Images, bubbles.ImageURL(img))
	}
	return out
}

// printImages lists a reply's gallery as captioned URLs.
func printImages(w io.Writer, msg *model.Message, bubbles components.Bubbles) {
	for _, img := range msg.Images() {
		line := "  🖼  " + img.CaptionText() + "  " + bubbles.ImageURL(img)
		fmt.Fprintln(w, RenderConditional(DimStyle, line))
	}
}

// printSources prints the sources line under a reply.
func printSources(w io.Writer, msg *model.Message) {
	if msg.Metadata == nil || len(msg.Metadata.Sources) == 0 {
		return
	}
	fmt.Fprintln(w, RenderConditional(DimStyle, "  Sources: "+strings.Join(msg.Metadata.Sources, ", ")))
}

// =============================================================================
// RUNNER SUPPORT
// =============================================================================

// instantClock never waits, so a reveal settles in one pass.
type instantClock struct{}

func (instantClock) Now() time.Time { return time.Now() }

func (instantClock) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// recordingSender remembers the last transport error, which the controller
// otherwise turns into an error bubble.
type recordingSender struct {
	assistant.Sender
	err error
}

func (s *recordingSender) Send(ctx context.Context, query, sessionID string, history []*model.Message) (*assistant.Reply, error) {
	reply, err := s.Sender.Send(ctx, query, sessionID, history)
	s.err = err
	return reply, err
}
