// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - The "history" command.

package cli

import (
	"fmt"

	"github.com/jeranaias/folio-tui/internal/export"
	"github.com/jeranaias/folio-tui/internal/ui/components"
)

const historyUsage = "folio history [show|clear [--yes]|export [md|json] [DIR]]"

// HandleHistory shows or clears the persisted conversation.
func HandleHistory(args Args) error {
	setupLogging(args)

	a, err := newApp(args)
	if err != nil {
		return err
	}
	defer a.Close()

	switch args.Subcommand {
	case "", "show", "list":
		return showHistory(a, args)
	case "clear", "reset":
		return clearHistory(a, args)
	case "export":
		return exportHistory(a, args)
	default:
		return &UsageError{Message: "unknown history subcommand: " + args.Subcommand, Usage: historyUsage}
	}
}

func showHistory(a *app, args Args) error {
	msgs := a.history.Restore()
	bubbles := components.Bubbles{ImageBase: a.cfg.ImageBase()}

	if args.JSON {
		out := make([]replyJSON, 0, len(msgs))
		for _, msg := range msgs {
			out = append(out, toReplyJSON(msg, bubbles))
		}
		return outputJSON(out)
	}

	fmt.Fprintln(stdout, RenderConditional(TitleStyle, fmt.Sprintf("Conversation (%d messages)", len(msgs))))
	fmt.Fprintln(stdout, RenderSeparator())
	writeTranscript(stdout, msgs, bubbles)
	return nil
}

func clearHistory(a *app, args Args) error {
	if !confirmed(args) && IsTTY() && !promptConfirm("Clear the saved conversation?") {
		fmt.Fprintln(stdout, RenderConditional(DimStyle, "Cancelled."))
		return nil
	}
	msgs, err := a.history.Clear()
	if err != nil {
		return wrap("history", "clear", err)
	}
	if args.JSON {
		return outputJSON(map[string]interface{}{"cleared": true, "messages": len(msgs)})
	}
	fmt.Fprintln(stdout, RenderConditional(SuccessStyle, "Conversation cleared."))
	return nil
}

// exportHistory writes the conversation to a Markdown or JSON file.
func exportHistory(a *app, args Args) error {
	opts := export.DefaultOptions()
	opts.ImageBase = a.cfg.ImageBase()
	if args.ConfigVal != "" {
		opts.OutputDir = args.ConfigVal
	}

	exp, err := export.ForFormat(args.ConfigKey, opts)
	if err != nil {
		return &UsageError{Message: err.Error(), Usage: historyUsage}
	}
	path, err := export.ToFile(a.history.Restore(), exp, opts)
	if err != nil {
		return wrap("history", "export", err)
	}

	if args.JSON {
		return outputJSON(map[string]string{"path": path, "mime_type": exp.MimeType()})
	}
	fmt.Fprintf(stdout, "%s %s\n", RenderConditional(SuccessStyle, "Exported"), path)
	return nil
}

// confirmed reports whether --yes or -y was given.
func confirmed(args Args) bool {
	for _, a := range args.Raw {
		if a == "--yes" || a == "-y" {
			return true
		}
	}
	return false
}
