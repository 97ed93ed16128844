// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/folio-tui/internal/model"
	"github.com/jeranaias/folio-tui/internal/reveal"
	"github.com/jeranaias/folio-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLES
// =============================================================================

// Bubbles renders chat messages for one theme.
type Bubbles struct {
	Theme     *styles.Theme
	ImageBase string // prefix for image URLs, e.g. http://127.0.0.1:8000
}

// Message renders msg in full.
func (b Bubbles) Message(msg *model.Message, width int) string {
	return b.Partial(msg, msg.Text, width)
}

// Partial renders msg showing only text, used while a reply is revealed.
func (b Bubbles) Partial(msg *model.Message, text string, width int) string {
	maxInner := bubbleMax(width) - 4

	var content string
	var style lipgloss.Style
	switch {
	case msg.IsUser:
		content = text
		style = b.Theme.UserBubble
	case msg.IsError():
		content = text
		style = b.Theme.ErrorBubble
	default:
		content = NewMarkdown(b.Theme, maxInner).Render(text)
		style = b.Theme.AssistantBubble
	}
	if content == "" {
		content = " "
	}

	inner := lipgloss.Width(content)
	if inner > maxInner {
		inner = maxInner
	}
	block := style.Width(inner + 2).Render(content)
	stamp := b.Theme.Timestamp.Render(msg.Clock())

	align := lipgloss.Left
	if msg.IsUser {
		align = lipgloss.Right
	}
	col := lipgloss.JoinVertical(align, block, stamp)
	return lipgloss.PlaceHorizontal(width, align, col)
}

// Typing renders the typing indicator with a spinner frame.
func (b Bubbles) Typing(frame string, width int) string {
	line := b.Theme.AssistantBubble.Render(b.Theme.Typing.Render(strings.TrimSpace(frame + " Thinking...")))
	return lipgloss.PlaceHorizontal(width, lipgloss.Left, line)
}

// =============================================================================
// GALLERY
// =============================================================================

// Placeholder renders the "Generating image..." row shown before a gallery.
func (b Bubbles) Placeholder(frame string, width int) string {
	line := b.Theme.Placeholder.Render(strings.TrimSpace(frame + " " + reveal.PlaceholderText))
	return lipgloss.PlaceHorizontal(width, lipgloss.Left, line)
}

// Gallery renders image cards. Cards not yet visible are drawn faint. Each
// card's URL sits below it, unwrapped, so it stays clickable and copyable.
func (b Bubbles) Gallery(images []model.Image, visible []bool, width int) string {
	if len(images) == 0 {
		return ""
	}
	cardWidth := bubbleMax(width) - 4
	cards := make([]string, 0, len(images))
	for i, img := range images {
		style := b.Theme.ImageCardHidden
		if i < len(visible) && visible[i] {
			style = b.Theme.ImageCard
		}
		cards = append(cards, style.Width(cardWidth).Render(b.card(img)), b.link(img))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (b Bubbles) card(img model.Image) string {
	return strings.Join([]string{
		b.Theme.Bold.Render("▣ " + img.CaptionText()),
		b.Theme.ImageCaption.Render(img.AltText()),
	}, "\n")
}

func (b Bubbles) link(img model.Image) string {
	url := b.ImageURL(img)
	link := url
	if b.Theme.SupportsHyperlinks() {
		link = termenv.Hyperlink(url, url)
	}
	return "  " + b.Theme.Link.Render(link)
}

// ImageURL returns where the image can be opened.
func (b Bubbles) ImageURL(img model.Image) string {
	return strings.TrimRight(b.ImageBase, "/") + img.Path()
}

func bubbleMax(width int) int {
	w := width * 4 / 5
	if w < 24 {
		w = 24
	}
	if w > 90 {
		w = 90
	}
	return w
}
