// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package lineedit

import (
	"testing"

	"github.com/petar-djukic/nb-coder/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []types.LineEdit
	}{
		{
			name: "array of edits",
			text: `[{"startLine":2,"endLine":2,"replacement":"y = 5"}]`,
			want: []types.LineEdit{{StartLine: 2, EndLine: 2, Replacement: "y = 5"}},
		},
		{
			name: "single object",
			text: `{"startLine":1,"endLine":3,"replacement":"pass"}`,
			want: []types.LineEdit{{StartLine: 1, EndLine: 3, Replacement: "pass"}},
		},
		{
			name: "surrounding prose tolerated",
			text: "Here are the edits you asked for:\n[{\"startLine\":4,\"endLine\":4,\"replacement\":\"done = True\"}]\nLet me know!",
			want: []types.LineEdit{{StartLine: 4, EndLine: 4, Replacement: "done = True"}},
		},
		{
			name: "fenced json",
			text: "```json\n[{\"startLine\":1,\"endLine\":1,\"replacement\":\"import os\"}]\n```",
			want: []types.LineEdit{{StartLine: 1, EndLine: 1, Replacement: "import os"}},
		},
		{
			name: "invalid entries filtered",
			text: `[{"startLine":0,"endLine":2,"replacement":"bad"},{"startLine":3,"endLine":3,"replacement":"ok"}]`,
			want: []types.LineEdit{{StartLine: 3, EndLine: 3, Replacement: "ok"}},
		},
		{name: "plain code is not edits", text: "y = 5", want: nil},
		{name: "empty input", text: "", want: nil},
		{name: "empty array", text: "[]", want: nil},
		{name: "all entries invalid", text: `[{"startLine":5,"endLine":2,"replacement":"x"}]`, want: nil},
		{name: "malformed json", text: `[{"startLine":2,`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseJSON(tt.text))
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", "y = 5", "y = 5"},
		{"plain fence pair", "```\ny = 5\n```", "y = 5"},
		{"language tag", "```python\ny = 5\nz = 6\n```", "y = 5\nz = 6"},
		{"dangling open fence", "```python\ny = 5", "y = 5"},
		{"outer whitespace trimmed", "\n\n```\ny = 5\n```\n\n", "y = 5"},
		{"interior backticks kept", "```\nprint(\"```\")\n```", "print(\"```\")"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestParseJSON_RoundTripsThroughApply(t *testing.T) {
	edits := ParseJSON(`[{"startLine":2,"endLine":2,"replacement":"y = 5"}]`)
	require.NotNil(t, edits)

	assert.Equal(t, "x = 1\ny = 5", Apply("x = 1\ny = 2", edits))
}
