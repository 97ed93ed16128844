// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/folio-tui/internal/model"
	"github.com/jeranaias/folio-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestCleanArtifacts(t *testing.T) {
	in := `See <a href="x" target="_blank" rel="noopener">GitHub</a> &amp; more`
	got := CleanArtifacts(in)
	if strings.Contains(got, "target=") || strings.Contains(got, "rel=") {
		t.Errorf("artifacts left in %q", got)
	}
	if !strings.Contains(got, "& more") {
		t.Errorf("entities should be unescaped, got %q", got)
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("**Skills**: Go. Find me on [GitHub] or [Email].")
	want := "Skills: Go. Find me on GitHub <https://github.com/AdilSaeed0347> or Email <adilsaeed047@gmail.com>."
	if got != want {
		t.Errorf("PlainText =\n%q\nwant\n%q", got, want)
	}
}

func TestIsSignature(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"I'm Adil Saeed's AI Assistant.", true},
		{"  💬 I'm Adil Saeed's AI Assistant. 📚 Adil_Data", true},
		{"He is not I'm Adil Saeed's AI Assistant", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSignature(tt.line); got != tt.want {
			t.Errorf("IsSignature(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestMarkdown_RenderWithoutHyperlinks(t *testing.T) {
	md := Markdown{Theme: testTheme(), Width: 60}
	got := md.Render("Built with **Go**. See [LinkedIn].")
	if strings.Contains(got, "**") {
		t.Errorf("bold markers should be consumed: %q", got)
	}
	if !strings.Contains(got, "linkedin.com/in/adil-saeed-9b7b51363/") {
		t.Errorf("link target should be shown inline: %q", got)
	}
	if strings.Contains(got, "[LinkedIn]") {
		t.Errorf("link word should be replaced: %q", got)
	}
}

func TestMarkdown_UnknownBracketsUntouched(t *testing.T) {
	md := Markdown{Theme: testTheme(), Width: 60}
	if got := md.Render("[Twitter]"); !strings.Contains(got, "[Twitter]") {
		t.Errorf("unknown link word should be left alone: %q", got)
	}
}

func TestSplitFences(t *testing.T) {
	segs := SplitFences("intro\n```go\nfmt.Println(1)\n```\noutro")
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3: %+v", len(segs), segs)
	}
	if segs[0].Code || segs[0].Text != "intro" {
		t.Errorf("segment 0 = %+v", segs[0])
	}
	if !segs[1].Code || segs[1].Language != "go" || segs[1].Text != "fmt.Println(1)" {
		t.Errorf("segment 1 = %+v", segs[1])
	}
	if segs[2].Code || segs[2].Text != "outro" {
		t.Errorf("segment 2 = %+v", segs[2])
	}
}

func TestSplitFences_Unclosed(t *testing.T) {
	segs := SplitFences("run:\n```bash\npip install")
	if len(segs) != 2 || !segs[1].Code || segs[1].Text != "pip install" {
		t.Errorf("unclosed fence = %+v", segs)
	}
}

func TestRenderInlineCode(t *testing.T) {
	th := testTheme()
	if got := renderInlineCode("use `go test` now", th); strings.Contains(got, "`") {
		t.Errorf("matched backticks should be consumed: %q", got)
	}
	if got := renderInlineCode("a ` b", th); got != "a ` b" {
		t.Errorf("single backtick should be kept: %q", got)
	}
}

func TestCodeBlock_Render(t *testing.T) {
	out := NewCodeBlock("python", "print('hi')").Render()
	if !strings.Contains(out, "python") {
		t.Error("language badge missing")
	}
	if !strings.Contains(out, "1") {
		t.Error("line number missing")
	}
}

// =============================================================================
// BUBBLES
// =============================================================================

func TestBubbles_MessageFitsWidth(t *testing.T) {
	b := Bubbles{Theme: testTheme()}
	msg := model.NewAssistantMessage(strings.Repeat("portfolio ", 30), nil)

	out := b.Message(msg, 50)
	for _, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 50 {
			t.Errorf("line width %d exceeds 50: %q", w, line)
		}
	}
	if !strings.Contains(out, msg.Clock()) {
		t.Error("timestamp missing")
	}
}

func TestBubbles_PartialShowsPrefixOnly(t *testing.T) {
	b := Bubbles{Theme: testTheme()}
	msg := model.NewAssistantMessage("Hello visitor", nil)
	out := b.Partial(msg, "Hel", 60)
	if strings.Contains(out, "visitor") {
		t.Errorf("partial render leaked unrevealed text: %q", out)
	}
}

func TestBubbles_GalleryDefaults(t *testing.T) {
	b := Bubbles{Theme: testTheme(), ImageBase: "http://127.0.0.1:8000/"}
	out := b.Gallery([]model.Image{{File: "cert.png"}, {File: "team.jpg", Caption: "Team photo"}}, []bool{true, false}, 70)

	for _, want := range []string{
		model.DefaultImageCaption,
		model.DefaultImageAlt,
		"Team photo",
		"http://127.0.0.1:8000/rag/documents/images/cert.png",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("gallery missing %q", want)
		}
	}
	var linkLines int
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "rag/documents/images/") {
			linkLines++
		}
	}
	if linkLines != 2 {
		t.Errorf("each image URL should sit on one line, got %d URL lines:\n%s", linkLines, out)
	}
	if b.Gallery(nil, nil, 70) != "" {
		t.Error("empty gallery should render nothing")
	}
}

func TestHeader_ContainsTitleAndRole(t *testing.T) {
	out := Header(testTheme(), "Computer Vision", 60)
	if !strings.Contains(out, Title) || !strings.Contains(out, "Computer Vision") {
		t.Errorf("header = %q", out)
	}
}
