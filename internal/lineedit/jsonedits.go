// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd003-line-edits R3 (JSON edit parsing);
//
//	docs/ARCHITECTURE § Line-Edit Applicator.
package lineedit

import (
	"encoding/json"
	"strings"

	"github.com/petar-djukic/nb-coder/pkg/types"
)

// ParseJSON extracts line edits from model output. It accepts either a
// JSON array of {startLine,endLine,replacement} objects or a single such
// object, tolerating surrounding prose by falling back to the first
// bracketed substring. Malformed entries are filtered out. Returns nil
// when no valid edit remains; it never returns an error.
//
// Implements: prd003-line-edits R3.1-R3.5.
func ParseJSON(text string) []types.LineEdit {
	s := strings.TrimSpace(StripFences(text))
	if s == "" {
		return nil
	}

	if edits := tryUnmarshal(s); edits != nil {
		return edits
	}

	// Tolerate prose around the payload: take the first [...] substring.
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		if edits := tryUnmarshal(s[start : end+1]); edits != nil {
			return edits
		}
	}

	return nil
}

// tryUnmarshal attempts to decode s as an edit array, then as a single
// edit object, and filters out entries violating the LineEdit invariants.
func tryUnmarshal(s string) []types.LineEdit {
	var list []types.LineEdit
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		var single types.LineEdit
		if err := json.Unmarshal([]byte(s), &single); err != nil {
			return nil
		}
		list = []types.LineEdit{single}
	}

	valid := list[:0]
	for _, e := range list {
		if e.Valid() {
			valid = append(valid, e)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	return valid
}
