// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - The "ask" command: one question, one reply.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jeranaias/folio-tui/internal/model"
	"github.com/jeranaias/folio-tui/internal/ui/components"
	"github.com/jeranaias/folio-tui/internal/widget"
)

// ErrQueryRejected is returned when the question fails local validation.
var ErrQueryRejected = errors.New("question rejected")

const askUsage = `folio ask "question"`

// HandleAsk sends a single question and prints the reply. With no question
// on the command line it is read from piped stdin.
func HandleAsk(args Args) error {
	setupLogging(args)

	query := strings.TrimSpace(args.Query)
	if query == "" && !IsTTY() {
		data, err := io.ReadAll(io.LimitReader(stdin, 64*1024))
		if err != nil {
			return wrap("ask", "read stdin", err)
		}
		query = strings.TrimSpace(string(data))
	}
	if query == "" {
		return ErrMissingArgument("question", askUsage)
	}

	a, err := newApp(args)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return ask(ctx, a, args, query, stdout)
}

// ask runs one exchange and writes the reply to w.
func ask(ctx context.Context, a *app, args Args, query string, w io.Writer) error {
	bubbles := components.Bubbles{ImageBase: a.cfg.ImageBase()}
	sender := &recordingSender{Sender: a.client}
	runner := widget.NewRunner(a.controller(), sender)

	streaming := !args.JSON && IsStdoutTTY() && !args.Instant
	if streaming {
		runner.WithSink(newLineSink(w, bubbles, true))
	} else {
		runner.WithClock(instantClock{})
	}

	msg, err := runner.Ask(ctx, query)
	if msg == nil {
		if errors.Is(err, widget.ErrEmptyInput) {
			return ErrMissingArgument("question", askUsage)
		}
		return wrap("ask", "submit", err)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}

	rejected := msg.Kind() == model.KindValidationError
	switch {
	case args.JSON:
		if err := outputJSON(toReplyJSON(msg, bubbles)); err != nil {
			return err
		}
	case !streaming && sender.err == nil && !rejected:
		fmt.Fprint(w, renderMarkdown(msg.Text))
		printSources(w, msg)
		printImages(w, msg, bubbles)
	}

	if sender.err != nil {
		return wrap("ask", "send", sender.err)
	}
	if rejected {
		return fmt.Errorf("%w: %s", ErrQueryRejected, msg.Text)
	}
	return nil
}
