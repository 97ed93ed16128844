// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme_ForcedModes(t *testing.T) {
	if !NewTheme("dark").IsDark {
		t.Error("dark theme should report IsDark")
	}
	if NewTheme("LIGHT").IsDark {
		t.Error("light theme should not report IsDark")
	}
}

func TestTheme_BubbleWidth(t *testing.T) {
	th := NewTheme("dark")
	tests := []struct {
		width int
		want  int
	}{
		{10, 20},
		{80, 64},
		{200, 90},
	}
	for _, tt := range tests {
		th.SetSize(tt.width, 24)
		if got := th.BubbleWidth(); got != tt.want {
			t.Errorf("BubbleWidth at %d = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestRenderHelpers_IncludeMarkers(t *testing.T) {
	if !strings.Contains(RenderError("boom"), MarkError) {
		t.Error("RenderError should include the error marker")
	}
	if !strings.Contains(RenderSuccess("ok"), MarkOK) {
		t.Error("RenderSuccess should include the ok marker")
	}
	if !strings.Contains(RenderInfo("fyi"), "fyi") {
		t.Error("RenderInfo should include the message")
	}
}
