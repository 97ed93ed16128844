// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package widget

import (
	"log"
	"sort"
	"strings"
)

// Anchor names a region of the surface that a feature needs.
type Anchor string

const (
	AnchorButton   Anchor = "chatbot-button"
	AnchorWindow   Anchor = "chat-window"
	AnchorInput    Anchor = "chat-input"
	AnchorSend     Anchor = "send-btn"
	AnchorMessages Anchor = "chat-messages"
	AnchorMic      Anchor = "micBtn"
	AnchorPopup    Anchor = "chatbot-welcome"
)

// AllAnchors lists every anchor the widget knows about.
var AllAnchors = []Anchor{AnchorButton, AnchorWindow, AnchorInput, AnchorSend, AnchorMessages, AnchorMic, AnchorPopup}

// Anchors is the set of anchors present on the surface.
type Anchors map[Anchor]bool

// AllPresent returns a set with every anchor.
func AllPresent() Anchors {
	a := make(Anchors, len(AllAnchors))
	for _, name := range AllAnchors {
		a[name] = true
	}
	return a
}

// ParseAnchors builds a set from names, ignoring unknown ones. An empty list
// means every anchor is present.
func ParseAnchors(names []string) Anchors {
	if len(names) == 0 {
		return AllPresent()
	}
	a := make(Anchors)
	for _, n := range names {
		n = strings.TrimSpace(n)
		for _, known := range AllAnchors {
			if string(known) == n {
				a[known] = true
			}
		}
	}
	return a
}

// Features are the widget capabilities enabled by the present anchors.
type Features struct {
	Toggle bool // open and close the window
	Input  bool // type and submit questions
	Send   bool // explicit send control, Enter works without it
	Render bool // show the message list
	Voice  bool // microphone control
	Popup  bool // welcome popup
}

// Resolve computes the features and logs every missing anchor. Missing
// anchors are never shown to the user.
func (a Anchors) Resolve() Features {
	f := Features{
		Toggle: a[AnchorButton] && a[AnchorWindow],
		Input:  a[AnchorInput],
		Send:   a[AnchorSend] && a[AnchorInput],
		Render: a[AnchorMessages],
		Voice:  a[AnchorMic] && a[AnchorInput],
		Popup:  a[AnchorPopup],
	}

	var missing []string
	for _, name := range AllAnchors {
		if !a[name] {
			missing = append(missing, string(name))
		}
	}
	sort.Strings(missing)
	for _, name := range missing {
		log.Printf("ANCHOR_MISSING | anchor=%s", name)
	}
	return f
}
