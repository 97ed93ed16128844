// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package guard validates visitor input before it is sent to the assistant.
//
// The check is a plain keyword denylist plus a length cap. Words from the
// "skill" family are removed before looking for "kill" so that questions
// about skills are never rejected.
package guard

import (
	"regexp"
	"strings"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/folio-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxChars is the longest accepted question, in characters.
	MaxChars = 500

	// PolicyMessage is shown when a denylisted keyword is found.
	PolicyMessage = "I can only assist with professional questions about Adil's portfolio and work."

	// LengthMessage is shown when the question is too long.
	LengthMessage = "Please keep your question under 500 characters."
)

// DefaultKeywords is the denylist used by DefaultPolicy.
var DefaultKeywords = []string{"kill", "murder", "weapon", "bomb", "terrorism", "hate", "fuck", "sex"}

var skillFamily = regexp.MustCompile(`skills?|skils?`)

// =============================================================================
// RESULT
// =============================================================================

// Rule names the check that rejected an input.
type Rule string

const (
	RuleNone    Rule = ""
	RuleKeyword Rule = "keyword"
	RuleLength  Rule = "length"
)

// Result is the outcome of a validation.
type Result struct {
	Valid  bool
	Reason string // user-facing, empty when Valid
	Rule   Rule
	Match  string // the keyword that matched, for logs
}

// =============================================================================
// POLICY
// =============================================================================

// Policy is a denylist and length limit.
type Policy struct {
	Keywords []string

	// SkillSensitive keywords are matched only after skill-family words have
	// been removed from the input.
	SkillSensitive map[string]bool

	MaxChars      int
	PolicyMessage string
	LengthMessage string
}

// DefaultPolicy returns the policy used by the chat widget.
func DefaultPolicy() *Policy {
	return &Policy{
		Keywords:       append([]string(nil), DefaultKeywords...),
		SkillSensitive: map[string]bool{"kill": true},
		MaxChars:       MaxChars,
		PolicyMessage:  PolicyMessage,
		LengthMessage:  LengthMessage,
	}
}

var defaultPolicy = DefaultPolicy()

// Validate checks text against the default policy.
func Validate(text string) Result {
	return defaultPolicy.Validate(text)
}

// Validate checks text against the policy. Keywords are checked before the
// length so an oversized message with a banned word reports the policy
// message.
func (p *Policy) Validate(text string) Result {
	lower := Normalize(text)

	cleaned := lower
	if strings.Contains(lower, "skil") {
		cleaned = skillFamily.ReplaceAllString(lower, "")
	}

	for _, kw := range p.Keywords {
		haystack := lower
		if p.SkillSensitive[kw] {
			haystack = cleaned
		}
		if strings.Contains(haystack, kw) {
			return Result{Reason: p.PolicyMessage, Rule: RuleKeyword, Match: kw}
		}
	}

	if p.MaxChars > 0 && util.RuneLen(text) > p.MaxChars {
		return Result{Reason: p.LengthMessage, Rule: RuleLength}
	}

	return Result{Valid: true}
}

// Normalize folds compatibility characters (full-width letters, ligatures)
// to their plain forms and lowercases the result.
func Normalize(text string) string {
	folded, _, err := transform.String(norm.NFKC, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}
