// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd002-line-diff R3 (unified rendering);
//
//	docs/ARCHITECTURE § Line-Diff Engine.
package diff

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/nb-coder/pkg/types"
)

// NoChangesMarker replaces the body when the two inputs are identical.
// Callers treat an all-unchanged diff as a no-op edit.
const NoChangesMarker = "# No changes"

// BuildUnified renders a display diff between oldText and newText. The
// format is a three-line header/hunk followed by two-space, "+ ", or "- "
// prefixed body lines. It is an internal display convention, not a patch
// format consumable by patch tools.
//
// Implements: prd002-line-diff R3.1-R3.4.
func BuildUnified(oldText, newText, filePath string, oldStart int) string {
	oldLines := SplitLines(oldText)
	newLines := SplitLines(newText)

	if oldStart < 1 {
		oldStart = 1
	}

	oldEnd := oldStart + len(oldLines) - 1
	newEnd := oldStart + len(newLines) - 1

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("--- a/%s:%d-%d\n", filePath, oldStart, oldEnd))
	buf.WriteString(fmt.Sprintf("+++ b/%s:%d-%d\n", filePath, oldStart, newEnd))
	buf.WriteString(fmt.Sprintf("@@ -%d,%d +%d,%d @@\n", oldStart, len(oldLines), oldStart, len(newLines)))

	ops := Compute(oldLines, newLines)

	changed := false
	for _, op := range ops {
		if op.Kind != types.DiffEqual {
			changed = true
			break
		}
	}
	if !changed {
		buf.WriteString(NoChangesMarker)
		return buf.String()
	}

	for i, op := range ops {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(op.Kind.Prefix())
		buf.WriteByte(' ')
		buf.WriteString(op.Text)
	}

	return buf.String()
}

// SplitLines normalizes \r\n to \n and splits into lines. Empty input
// yields no lines rather than a single empty line.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
