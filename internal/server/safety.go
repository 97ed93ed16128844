// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ============================================================================
// SAFETY CHECKS
// ============================================================================

// Reasons returned to clients when a query is refused.
const (
	ReasonTooShort  = "Please ask a specific question about Adil's portfolio."
	ReasonTooLong   = "Please keep your question under 500 characters."
	ReasonSpam      = "Please ask a genuine question about Adil's portfolio."
	ReasonHarmful   = "I can only assist with professional questions about Adil's portfolio."
	ReasonInjection = "Invalid input detected. Please ask a normal question."
)

// MaxQueryLength is the longest query the backend accepts, in runes.
const MaxQueryLength = 500

// repeatLimit is the run length of one character treated as spam.
const repeatLimit = 9

// SafetyResult is the outcome of Check.
type SafetyResult struct {
	Safe       bool
	Reason     string
	Suggestion string
}

var (
	harmfulPatterns = compileAll(
		`\bmurder\b`, `\bviolence\b`, `\bharm\b`, `\bdestroy\b`,
		`\bsex\b`, `\bporn\b`, `\bnude\b`, `\bexplicit\b`, `\badult\b`,
		`\bhate\b`, `\bracis[mt]\b`, `\bterroris[mt]\b`, `\bbomb\b`, `\bweapon\b`,
		`\bsuicide\b`, `\bself-harm\b`, `\bdrug\b`, `\billegal\b`,
	)

	// Words that are harmless when followed by a technical noun.
	killWord   = regexp.MustCompile(`\bkill\b(\s*process)?`)
	attackWord = regexp.MustCompile(`\battack\b(\s*vector)?`)

	promoPattern = regexp.MustCompile(`(?i)\b(free|buy|sell|click|visit|urgent|now)\b.*\b(link|website|discount)\b`)

	injectionPatterns = compileAll(
		`<script|javascript:|eval\(`,
		`union\s+select|drop\s+table`,
		`insert\s+into|delete\s+from`,
	)

	htmlTag      = regexp.MustCompile(`<[^>]+>`)
	whitespace   = regexp.MustCompile(`\s+`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// Check runs the length, spam, harmful content and injection checks on a
// query, in that order.
func Check(query string) SafetyResult {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < 2 {
		return SafetyResult{Reason: ReasonTooShort, Suggestion: "Try asking about his projects, skills, or contact information."}
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return SafetyResult{Reason: ReasonTooLong, Suggestion: "Try breaking your question into smaller parts."}
	}

	lower := strings.ToLower(trimmed)
	if isSpam(lower) {
		return SafetyResult{Reason: ReasonSpam, Suggestion: "Ask about his projects, skills, education, or contact details."}
	}
	if isHarmful(lower) {
		return SafetyResult{Reason: ReasonHarmful, Suggestion: "Ask about his projects, technical skills, education, or contact information."}
	}
	for _, re := range injectionPatterns {
		if re.MatchString(query) {
			return SafetyResult{Reason: ReasonInjection, Suggestion: "Ask about Adil's work, skills, or how to contact him."}
		}
	}
	return SafetyResult{Safe: true}
}

func isSpam(text string) bool {
	return hasRepeatedRun(text, repeatLimit) || promoPattern.MatchString(text)
}

// hasRepeatedRun reports whether any rune occurs n or more times in a row.
func hasRepeatedRun(text string, n int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

func isHarmful(text string) bool {
	for _, re := range harmfulPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return unqualified(killWord, text) || unqualified(attackWord, text)
}

// unqualified reports whether re matches anywhere without its optional
// trailing group.
func unqualified(re *regexp.Regexp, text string) bool {
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if m[2] < 0 {
			return true
		}
	}
	return false
}

// Sanitize strips tags and control characters and collapses whitespace.
func Sanitize(text string) string {
	text = htmlTag.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")
	text = controlChars.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
