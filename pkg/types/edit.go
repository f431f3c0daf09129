// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd001-edit-service R5.1, R5.2 (TextSelection, LineEdit);
//
//	prd003-line-edits R1 (edit instruction model).
package types

import "fmt"

// TextSelection identifies the region of a cell an edit applies to.
// SelStart/SelEnd are byte offsets into the full cell text; StartLine and
// EndLine are 1-based inclusive. Within holds exactly
// fullText[SelStart:SelEnd].
type TextSelection struct {
	SelStart  int    // Byte offset of the selection start
	SelEnd    int    // Byte offset one past the selection end
	StartLine int    // First selected line (1-based, inclusive)
	EndLine   int    // Last selected line (1-based, inclusive)
	Within    string // The selected text itself
}

// LineCount returns the number of lines covered by the selection.
func (s TextSelection) LineCount() int {
	return s.EndLine - s.StartLine + 1
}

// LineEdit is a declarative patch instruction: replace lines
// [StartLine, EndLine] (1-based, inclusive) with Replacement. A list of
// LineEdits is applied in descending StartLine order so lower-numbered
// edits are unaffected by length changes from edits applied before them.
type LineEdit struct {
	StartLine   int    `json:"startLine"`
	EndLine     int    `json:"endLine"`
	Replacement string `json:"replacement"`
}

// Valid reports whether the edit satisfies StartLine >= 1 and
// EndLine >= StartLine.
func (e LineEdit) Valid() bool {
	return e.StartLine >= 1 && e.EndLine >= e.StartLine
}

func (e LineEdit) String() string {
	return fmt.Sprintf("lines %d-%d (%d replacement bytes)", e.StartLine, e.EndLine, len(e.Replacement))
}
