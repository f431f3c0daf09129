// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd002-line-diff R1 (diff op model).
package types

// DiffOpKind classifies a single line of a diff alignment.
type DiffOpKind int

const (
	DiffEqual  DiffOpKind = iota // Line present in both sequences
	DiffInsert                   // Line present only in the new sequence
	DiffDelete                   // Line present only in the old sequence
)

// Prefix returns the single-character marker used when rendering the op.
func (k DiffOpKind) Prefix() string {
	switch k {
	case DiffInsert:
		return "+"
	case DiffDelete:
		return "-"
	default:
		return " "
	}
}

// DiffOp is one line of a Myers alignment between an old and a new line
// sequence. Concatenating the DiffDelete and DiffEqual lines of a full diff
// reconstructs the old sequence; DiffInsert and DiffEqual lines reconstruct
// the new one.
type DiffOp struct {
	Kind DiffOpKind // Equal, insert, or delete
	Text string     // The line content, without trailing newline
}
