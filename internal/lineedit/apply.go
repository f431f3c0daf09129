// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lineedit applies explicit line-range edits to a text buffer and
// parses the JSON edit lists a model may emit instead of raw replacement
// text.
// Implements: prd003-line-edits R1, R2;
//
//	docs/ARCHITECTURE § Line-Edit Applicator.
package lineedit

import (
	"sort"
	"strings"

	"github.com/petar-djukic/nb-coder/pkg/types"
)

// Apply replaces the line ranges named by edits with their replacement
// text. Edits are processed in descending StartLine order so that edits
// targeting earlier lines are unaffected by length changes introduced by
// higher-numbered edits applied before them. Violating that order corrupts
// the result when multiple edits are supplied.
//
// Implements: prd003-line-edits R2.1-R2.4.
func Apply(original string, edits []types.LineEdit) string {
	if len(edits) == 0 {
		return original
	}

	text := strings.ReplaceAll(original, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	sorted := make([]types.LineEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartLine > sorted[j].StartLine
	})

	for _, e := range sorted {
		startIdx := clamp(e.StartLine-1, 0, len(lines))
		endIdx := clamp(e.EndLine, 0, len(lines))
		if endIdx < startIdx {
			endIdx = startIdx
		}

		replacement := strings.Split(strings.ReplaceAll(e.Replacement, "\r\n", "\n"), "\n")

		next := make([]string, 0, startIdx+len(replacement)+len(lines)-endIdx)
		next = append(next, lines[:startIdx]...)
		next = append(next, replacement...)
		next = append(next, lines[endIdx:]...)
		lines = next
	}

	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
