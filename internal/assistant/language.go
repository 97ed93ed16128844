// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

// Language hints sent with each request.
const (
	LanguageEnglish = "en"
	LanguageUrdu    = "ur"
)

// DetectLanguage returns "ur" when text contains any rune from the Arabic
// block (U+0600 to U+06FF), which covers Urdu script, and "en" otherwise.
func DetectLanguage(text string) string {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return LanguageUrdu
		}
	}
	return LanguageEnglish
}
