// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - The "chat" command: the widget as a line-mode REPL.
//
// Conversation state, validation and persistence are the same controller
// the TUI drives, so a chat started here continues in the widget.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/folio-tui/internal/config"
	"github.com/jeranaias/folio-tui/internal/export"
	"github.com/jeranaias/folio-tui/internal/model"
	"github.com/jeranaias/folio-tui/internal/session"
	"github.com/jeranaias/folio-tui/internal/ui/components"
	"github.com/jeranaias/folio-tui/internal/widget"
)

// =============================================================================
// INPUT
// =============================================================================

// ChatCLI provides input history and line editing for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads the prompt history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeSlash)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads one line, adding it to the prompt history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the prompt history and restores the terminal.
func (c *ChatCLI) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

var slashCommands = []string{"/help", "/clear", "/history", "/export", "/quit", "/exit"}

func completeSlash(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for _, c := range slashCommands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// SESSION
// =============================================================================

// chatSession is one REPL run.
type chatSession struct {
	runner  *widget.Runner
	bubbles components.Bubbles
	out     io.Writer
}

func newChatSession(a *app, args Args, out io.Writer) *chatSession {
	bubbles := components.Bubbles{ImageBase: a.cfg.ImageBase()}
	runner := widget.NewRunner(a.controller(), a.client).
		WithSink(newLineSink(out, bubbles, IsStdoutTTY()))
	if args.Instant || !IsStdoutTTY() {
		runner.WithClock(instantClock{})
	}
	return &chatSession{runner: runner, bubbles: bubbles, out: out}
}

// HandleChat runs the interactive line-mode chat.
func HandleChat(args Args) error {
	setupLogging(args)
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	a, err := newApp(args)
	if err != nil {
		return err
	}
	defer a.Close()

	s := newChatSession(a, args, stdout)
	input := NewChatCLI()
	defer input.Close()

	s.printTranscript(s.runner.Controller().Messages())
	fmt.Fprintln(s.out, RenderConditional(DimStyle, "Type /help for commands, Ctrl+C to leave."))

	for {
		line, err := input.ReadInput(RenderConditional(UserStyle, "you> "))
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				return wrap("chat", "read input", err)
			}
			fmt.Fprintln(s.out)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !s.handleSlash(line) {
				return nil
			}
			continue
		}
		s.send(line)
	}
}

// send runs one exchange. Ctrl+C during the reveal stops it and returns
// to the prompt.
func (s *chatSession) send(text string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err := s.runner.Ask(ctx, text)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, session.ErrBusy):
		fmt.Fprintln(s.out, RenderConditional(WarningStyle, "Still answering the last question."))
	default:
		fmt.Fprintf(s.out, "%s %v\n", RenderConditional(ErrorStyle, "Error:"), err)
	}
}

// handleSlash runs a slash command and reports whether the REPL continues.
func (s *chatSession) handleSlash(line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case "/quit", "/exit", "/q":
		return false
	case "/help", "/?":
		fmt.Fprintln(s.out, "  /history   show the conversation so far")
		fmt.Fprintln(s.out, "  /export    save the conversation as Markdown")
		fmt.Fprintln(s.out, "  /clear     start over")
		fmt.Fprintln(s.out, "  /quit      leave")
	case "/clear":
		if err := s.runner.Controller().Clear(); err != nil {
			fmt.Fprintf(s.out, "%s %v\n", RenderConditional(ErrorStyle, "Error:"), err)
			break
		}
		fmt.Fprintln(s.out, RenderConditional(SuccessStyle, "Conversation cleared."))
		s.printTranscript(s.runner.Controller().Messages())
	case "/history":
		s.printTranscript(s.runner.Controller().Messages())
	case "/export":
		opts := export.DefaultOptions()
		opts.ImageBase = s.bubbles.ImageBase
		path, err := export.ToFile(s.runner.Controller().Messages(), export.NewMarkdownExporter(opts), opts)
		if err != nil {
			fmt.Fprintf(s.out, "%s %v\n", RenderConditional(ErrorStyle, "Error:"), err)
			break
		}
		fmt.Fprintf(s.out, "%s %s\n", RenderConditional(SuccessStyle, "Exported"), path)
	default:
		fmt.Fprintf(s.out, "%s unknown command %s (try /help)\n", RenderConditional(WarningStyle, "Warning:"), line)
	}
	return true
}

// printTranscript writes msgs as "you>" and "assistant>" lines.
func (s *chatSession) printTranscript(msgs []*model.Message) {
	writeTranscript(s.out, msgs, s.bubbles)
}

func writeTranscript(w io.Writer, msgs []*model.Message, bubbles components.Bubbles) {
	for _, msg := range msgs {
		if msg.IsUser {
			fmt.Fprintln(w, RenderConditional(UserStyle, "you> ")+msg.Text)
			continue
		}
		fmt.Fprintln(w, assistantPrefix(msg)+components.PlainText(msg.Text))
		printImages(w, msg, bubbles)
	}
}
