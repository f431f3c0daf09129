// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd008-notebook-store R1 (store contract).
package types

// NotebookStore owns the authoritative cell text of notebook documents.
// The edit pipeline only ever holds a transient, request-scoped copy of a
// cell and mutates the store through the single ReplaceCellSource call at
// the end of a successful edit.
type NotebookStore interface {
	// CellSource returns the source text of the cell at index in the
	// notebook at path.
	CellSource(path string, index int) (string, error)
	// ReplaceCellSource overwrites the source text of the cell at index.
	// It is safe to call once per successful edit; failures propagate as a
	// write-stage failure.
	ReplaceCellSource(path string, index int, source string) error
}
