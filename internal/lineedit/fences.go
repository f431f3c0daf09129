// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd003-line-edits R4 (fence stripping).
package lineedit

import "strings"

// StripFences removes Markdown code-fence delimiters that a generation
// model may wrap output in. An opening fence (``` with optional language
// tag) and a matching or dangling closing fence are dropped; everything
// between is returned verbatim apart from outer whitespace. Text without
// fences passes through trimmed.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return strings.Trim(trimmed, "\n")
	}

	lines := strings.Split(trimmed, "\n")

	// Drop the opening fence line (``` or ```python).
	lines = lines[1:]

	// Drop a closing fence, which is the last non-empty line when present.
	for i := len(lines) - 1; i >= 0; i-- {
		t := strings.TrimSpace(lines[i])
		if t == "" {
			continue
		}
		if strings.HasPrefix(t, "```") {
			lines = append(lines[:i], lines[i+1:]...)
		}
		break
	}

	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
