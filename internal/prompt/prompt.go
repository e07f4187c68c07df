// Package prompt builds and normalizes the text that drives script
// generation. The canonical form is what cache keys are derived from, so
// every transformation here must stay deterministic.
package prompt

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize reduces free-form text to a canonical shape: NFC unicode
// normalization, lower-casing, and whitespace runs collapsed to single
// spaces. Two prompts that differ only in casing or spacing normalize to the
// same string.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Canonical renders a request's prompt identity as a single normalized
// string. Context keys are sorted so map iteration order never leaks into
// the result.
func Canonical(goal, tone string, extra map[string]string) string {
	var b strings.Builder
	b.WriteString("goal=")
	b.WriteString(Normalize(goal))
	b.WriteString(";tone=")
	b.WriteString(Normalize(tone))

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(";")
		b.WriteString(Normalize(k))
		b.WriteString("=")
		b.WriteString(Normalize(extra[k]))
	}
	return b.String()
}

// Build assembles the user-facing instruction a script generator receives.
// Deterministic for the same inputs, like Canonical, but kept readable since
// it is sent to a language model rather than hashed.
func Build(goal, tone string, extra map[string]string) string {
	var b strings.Builder
	b.WriteString("Write one short, natural spoken line (at most two sentences) for this goal: ")
	b.WriteString(strings.TrimSpace(goal))
	b.WriteString(".")
	if tone != "" {
		b.WriteString(" The tone should be ")
		b.WriteString(strings.TrimSpace(tone))
		b.WriteString(".")
	}

	if len(extra) > 0 {
		keys := make([]string, 0, len(extra))
		for k := range extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" Additional context:")
		for _, k := range keys {
			b.WriteString(" ")
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(extra[k])
			b.WriteString(".")
		}
	}
	return b.String()
}
