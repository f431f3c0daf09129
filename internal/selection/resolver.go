// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package selection derives the line range a free-form user instruction
// refers to.
// Implements: prd004-selection R1, R2;
//
//	docs/ARCHITECTURE § Selection Resolver.
package selection

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/petar-djukic/nb-coder/pkg/types"
)

// lineRefRegex matches explicit line references: "line 4", "lines 3-5",
// "Lines 2 - 7". Case-insensitive.
var lineRefRegex = regexp.MustCompile(`(?i)\blines?\s+(\d+)(?:\s*-\s*(\d+))?`)

// Resolver computes a TextSelection from an instruction. A nil logger is
// replaced with a no-op logger.
type Resolver struct {
	log *zap.Logger
}

// New returns a Resolver that reports swallowed parse failures through log.
func New(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{log: log}
}

// FromMessage resolves the selection the user message refers to within
// fullCode. With no explicit line reference the whole document is selected.
// A malformed instruction never fails the edit: any internal panic is
// recovered, logged, and the whole-document default returned.
//
// Implements: prd004-selection R1.1-R1.5, R2.1-R2.3.
func (r *Resolver) FromMessage(fullCode, userMessage string) (sel types.TextSelection) {
	sel = WholeDocument(fullCode)

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("selection parse failed, using whole document",
				zap.Any("cause", rec),
				zap.String("message", userMessage))
			sel = WholeDocument(fullCode)
		}
	}()

	m := lineRefRegex.FindStringSubmatch(userMessage)
	if m == nil {
		return sel
	}

	first, err := strconv.Atoi(m[1])
	if err != nil {
		return sel
	}
	s := first
	if s < 1 {
		s = 1
	}

	e := s
	if m[2] != "" {
		if second, err := strconv.Atoi(m[2]); err == nil && second > s {
			e = second
		}
	}

	starts := lineStarts(fullCode)
	total := len(starts)
	if s > total {
		s = total
	}
	if e > total {
		e = total
	}

	selStart := starts[s-1]
	selEnd := len(fullCode)
	if e < total {
		// End of line e is the byte before line e+1's newline.
		selEnd = starts[e] - 1
	}

	return types.TextSelection{
		SelStart:  selStart,
		SelEnd:    selEnd,
		StartLine: s,
		EndLine:   e,
		Within:    fullCode[selStart:selEnd],
	}
}

// FromLines builds the selection covering lines [startLine, endLine]
// (1-based, inclusive), clamped to the document. endLine below startLine
// selects the single line startLine.
func FromLines(fullCode string, startLine, endLine int) types.TextSelection {
	if startLine < 1 {
		startLine = 1
	}
	if endLine < startLine {
		endLine = startLine
	}

	starts := lineStarts(fullCode)
	total := len(starts)
	if startLine > total {
		startLine = total
	}
	if endLine > total {
		endLine = total
	}

	selStart := starts[startLine-1]
	selEnd := len(fullCode)
	if endLine < total {
		selEnd = starts[endLine] - 1
	}

	return types.TextSelection{
		SelStart:  selStart,
		SelEnd:    selEnd,
		StartLine: startLine,
		EndLine:   endLine,
		Within:    fullCode[selStart:selEnd],
	}
}

// WholeDocument is the default selection covering all of fullCode.
func WholeDocument(fullCode string) types.TextSelection {
	return types.TextSelection{
		SelStart:  0,
		SelEnd:    len(fullCode),
		StartLine: 1,
		EndLine:   strings.Count(fullCode, "\n") + 1,
		Within:    fullCode,
	}
}

// lineStarts indexes the byte offset of each line start: offset 0, then
// the offset following every newline.
func lineStarts(s string) []int {
	starts := []int{0}
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
