// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/folio-tui/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock is a fenced snippet from a reply, e.g. a project's install
// command.
type CodeBlock struct {
	Language string
	Code     string
	MaxWidth int
}

// NewCodeBlock creates a code block with the default width.
func NewCodeBlock(language, code string) CodeBlock {
	return CodeBlock{Language: language, Code: code, MaxWidth: 80}
}

// Render highlights the code and frames it with line numbers.
func (c CodeBlock) Render() string {
	code := strings.TrimSpace(c.Code)
	lines := strings.Split(highlightCode(code, c.Language), "\n")

	num := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(3).
		Align(lipgloss.Right).
		MarginRight(1)

	rendered := make([]string, len(lines))
	for i, line := range lines {
		rendered[i] = num.Render(strconv.Itoa(i+1)) + line
	}
	body := strings.Join(rendered, "\n")

	if c.Language != "" {
		badge := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Background(styles.OverlayDim).
			Padding(0, 1).
			Render(c.Language)
		body = badge + "\n" + body
	}

	width := c.MaxWidth - 4
	if width < 20 {
		width = 20
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 1).
		MaxWidth(width).
		Render(body)
}

// =============================================================================
// FENCE SPLITTING
// =============================================================================

// Segment is a run of reply text, either prose or a fenced code block.
type Segment struct {
	Text     string
	Code     bool
	Language string
}

// SplitFences splits text on ``` fences. An unclosed fence runs to the end,
// which is what a partially revealed reply looks like.
func SplitFences(text string) []Segment {
	var (
		segs  []Segment
		prose []string
		code  []string
		lang  string
		open  bool
	)
	flushProse := func() {
		if len(prose) > 0 {
			segs = append(segs, Segment{Text: strings.Join(prose, "\n")})
			prose = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if open {
				segs = append(segs, Segment{Text: strings.Join(code, "\n"), Code: true, Language: lang})
				code, lang, open = nil, "", false
			} else {
				flushProse()
				lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
				open = true
			}
			continue
		}
		if open {
			code = append(code, line)
		} else {
			prose = append(prose, line)
		}
	}

	flushProse()
	if open {
		segs = append(segs, Segment{Text: strings.Join(code, "\n"), Code: true, Language: lang})
	}
	return segs
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// highlightCode returns code with terminal color escapes, or code unchanged
// when no lexer or formatter is usable.
func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
