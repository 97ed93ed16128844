// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/folio-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export renders msgs as a Markdown transcript with YAML front matter.
func (e *MarkdownExporter) Export(msgs []*model.Message) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, ErrEmpty
	}

	var sb strings.Builder
	user, assistant := model.NewStoreFrom(msgs).CountBy()

	sb.WriteString("---\n")
	sb.WriteString("title: Portfolio assistant conversation\n")
	sb.WriteString(fmt.Sprintf("messages: %d\n", len(msgs)))
	sb.WriteString(fmt.Sprintf("questions: %d\n", user))
	sb.WriteString(fmt.Sprintf("replies: %d\n", assistant))
	if first := msgs[0].Timestamp; !first.IsZero() {
		sb.WriteString(fmt.Sprintf("started: %s\n", first.Format(time.RFC3339)))
	}
	sb.WriteString(fmt.Sprintf("exported: %s\n", e.options.clock().Format(time.RFC3339)))
	sb.WriteString("generator: folio\n")
	sb.WriteString("---\n\n")

	sb.WriteString("# Portfolio assistant conversation\n\n")

	for i, msg := range msgs {
		label := roleLabel(msg)
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n", label, msg.Clock()))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", label))
		}

		sb.WriteString(strings.TrimSpace(msg.Text))
		sb.WriteString("\n\n")

		for _, img := range msg.Images() {
			sb.WriteString(fmt.Sprintf("![%s](%s)\n", escapeMarkdown(img.AltText()), imageURL(e.options.ImageBase, img)))
			if c := img.CaptionText(); c != "" {
				sb.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown(c)))
			}
			sb.WriteString("\n")
		}

		if msg.Metadata != nil && len(msg.Metadata.Sources) > 0 {
			sb.WriteString(fmt.Sprintf("> Sources: %s\n\n", strings.Join(msg.Metadata.Sources, ", ")))
		}

		if i < len(msgs)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// MimeType returns the Markdown MIME type.
func (e *MarkdownExporter) MimeType() string { return "text/markdown" }

func roleLabel(msg *model.Message) string {
	switch {
	case msg.IsUser:
		return "Visitor"
	case msg.Kind() == model.KindWelcome:
		return "Assistant (welcome)"
	case msg.IsError():
		return "Assistant (error)"
	default:
		return "Assistant"
	}
}

// escapeMarkdown escapes the characters that would break alt text and
// captions.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer(
		"[", "\\[",
		"]", "\\]",
		"*", "\\*",
		"_", "\\_",
	)
	return r.Replace(s)
}
