// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"html"
	"regexp"
	"strings"

	"github.com/muesli/termenv"

	"github.com/jeranaias/folio-tui/internal/ui/styles"
)

// ProfileLinks maps the bracketed link words replies use to their targets.
var ProfileLinks = map[string]string{
	"GitHub":   "https://github.com/AdilSaeed0347",
	"LinkedIn": "https://www.linkedin.com/in/adil-saeed-9b7b51363/",
	"Facebook": "https://www.facebook.com/adil.saeed.9406",
	"Email":    "mailto:adilsaeed047@gmail.com",
}

// SignaturePrefix starts the sign-off line some replies end with.
const SignaturePrefix = "I'm Adil Saeed's AI Assistant"

var (
	artifactTarget = regexp.MustCompile(`target="_blank"[^>]*>`)
	artifactRel    = regexp.MustCompile(`rel="[^"]*"`)
	artifactClass  = regexp.MustCompile(`class="[^"]*">`)

	boldPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)
	linkPattern = regexp.MustCompile(`\[(GitHub|LinkedIn|Facebook|Email)\]`)
)

// CleanArtifacts removes stray anchor attributes that models sometimes
// leak into answers.
func CleanArtifacts(text string) string {
	text = artifactTarget.ReplaceAllString(text, `">`)
	text = artifactRel.ReplaceAllString(text, "")
	text = artifactClass.ReplaceAllString(text, "")
	return html.UnescapeString(text)
}

// Markdown renders the small markdown subset replies use: bold, the
// profile link words, fenced code and the signature line.
type Markdown struct {
	Theme      *styles.Theme
	Width      int
	Hyperlinks bool
}

// NewMarkdown creates a renderer for theme, using OSC 8 hyperlinks when
// the terminal can show them.
func NewMarkdown(theme *styles.Theme, width int) Markdown {
	return Markdown{Theme: theme, Width: width, Hyperlinks: theme.SupportsHyperlinks()}
}

// Render returns text styled for the terminal.
func (m Markdown) Render(text string) string {
	text = CleanArtifacts(text)

	var out []string
	for _, seg := range SplitFences(text) {
		if seg.Code {
			cb := NewCodeBlock(seg.Language, seg.Text)
			cb.MaxWidth = m.Width
			out = append(out, cb.Render())
			continue
		}
		lines := strings.Split(seg.Text, "\n")
		for i, line := range lines {
			lines[i] = m.line(line)
		}
		out = append(out, strings.Join(lines, "\n"))
	}
	return strings.Join(out, "\n")
}

func (m Markdown) line(line string) string {
	if IsSignature(line) {
		return m.Theme.Signature.Render(strings.TrimSpace(line))
	}
	line = boldPattern.ReplaceAllStringFunc(line, func(s string) string {
		inner := boldPattern.FindStringSubmatch(s)[1]
		return m.Theme.Bold.Render(inner)
	})
	line = linkPattern.ReplaceAllStringFunc(line, func(s string) string {
		name := linkPattern.FindStringSubmatch(s)[1]
		return m.link(name, ProfileLinks[name])
	})
	return renderInlineCode(line, m.Theme)
}

func (m Markdown) link(name, target string) string {
	styled := m.Theme.Link.Render(name)
	if m.Hyperlinks {
		return termenv.Hyperlink(target, styled)
	}
	return styled + " <" + strings.TrimPrefix(target, "mailto:") + ">"
}

// IsSignature reports whether line is the assistant's sign-off.
func IsSignature(line string) bool {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimLeft(trimmed, "💬 ")
	return strings.HasPrefix(trimmed, SignaturePrefix)
}

// PlainText strips markup for transcripts and logs.
func PlainText(text string) string {
	text = CleanArtifacts(text)
	text = boldPattern.ReplaceAllString(text, "$1")
	return linkPattern.ReplaceAllStringFunc(text, func(s string) string {
		name := linkPattern.FindStringSubmatch(s)[1]
		return name + " <" + strings.TrimPrefix(ProfileLinks[name], "mailto:") + ">"
	})
}

// renderInlineCode styles `code` spans. An unmatched backtick is left as is.
func renderInlineCode(text string, theme *styles.Theme) string {
	if strings.Count(text, "`") < 2 {
		return text
	}
	var b strings.Builder
	parts := strings.Split(text, "`")
	for i, p := range parts {
		switch {
		case i%2 == 1 && i < len(parts)-1:
			b.WriteString(theme.Code.Render(p))
		case i%2 == 1:
			b.WriteString("`" + p)
		default:
			b.WriteString(p)
		}
	}
	return b.String()
}
