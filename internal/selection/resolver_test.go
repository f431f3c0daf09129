// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package selection

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tenLines() string {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = fmt.Sprintf("line%d", i+1)
	}
	return strings.Join(lines, "\n")
}

func TestFromMessage_DefaultWholeDocument(t *testing.T) {
	code := "x = 1\ny = 2\nz = 3"
	sel := New(nil).FromMessage(code, "please fix this")

	assert.Equal(t, 1, sel.StartLine)
	assert.Equal(t, 3, sel.EndLine)
	assert.Equal(t, 0, sel.SelStart)
	assert.Equal(t, len(code), sel.SelEnd)
	assert.Equal(t, code, sel.Within)
}

func TestFromMessage_ExplicitRange(t *testing.T) {
	code := tenLines()
	sel := New(nil).FromMessage(code, "fix lines 3-5")

	assert.Equal(t, 3, sel.StartLine)
	assert.Equal(t, 5, sel.EndLine)

	lines := strings.Split(code, "\n")
	assert.Equal(t, strings.Join(lines[2:5], "\n"), sel.Within)
	assert.Equal(t, sel.Within, code[sel.SelStart:sel.SelEnd])
}

func TestFromMessage_SingleLine(t *testing.T) {
	code := "x = 1\ny = 2\n"
	sel := New(nil).FromMessage(code, "fix line 2 to set y to 5")

	assert.Equal(t, 2, sel.StartLine)
	assert.Equal(t, 2, sel.EndLine)
	assert.Equal(t, "y = 2", sel.Within)
}

func TestFromMessage_Clamping(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantStart int
		wantEnd   int
	}{
		{"range past end clamps", "change lines 8-99", 3, 3},
		{"start past end clamps to last line", "change line 42", 3, 3},
		{"reversed range collapses to start", "change lines 3-1", 3, 3},
		{"case insensitive", "Fix LINE 2 please", 2, 2},
	}

	code := "a\nb\nc"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := New(nil).FromMessage(code, tt.message)
			assert.Equal(t, tt.wantStart, sel.StartLine)
			assert.Equal(t, tt.wantEnd, sel.EndLine)
		})
	}
}

func TestFromMessage_LastLineWithoutTrailingNewline(t *testing.T) {
	code := "a\nb\nc"
	sel := New(nil).FromMessage(code, "fix line 3")

	require.Equal(t, 3, sel.StartLine)
	assert.Equal(t, len(code), sel.SelEnd, "end of last line falls back to full length")
	assert.Equal(t, "c", sel.Within)
}

func TestFromMessage_EmptyCode(t *testing.T) {
	sel := New(nil).FromMessage("", "fix line 1")

	assert.Equal(t, 1, sel.StartLine)
	assert.Equal(t, 1, sel.EndLine)
	assert.Equal(t, "", sel.Within)
}

func TestFromLines(t *testing.T) {
	code := tenLines()

	t.Run("explicit range", func(t *testing.T) {
		sel := FromLines(code, 3, 5)
		assert.Equal(t, 3, sel.StartLine)
		assert.Equal(t, 5, sel.EndLine)
		assert.Equal(t, "line3\nline4\nline5", sel.Within)
	})

	t.Run("zero end selects one line", func(t *testing.T) {
		sel := FromLines(code, 4, 0)
		assert.Equal(t, 4, sel.StartLine)
		assert.Equal(t, 4, sel.EndLine)
		assert.Equal(t, "line4", sel.Within)
	})

	t.Run("clamped past end", func(t *testing.T) {
		sel := FromLines("a\nb", 5, 9)
		assert.Equal(t, 2, sel.StartLine)
		assert.Equal(t, 2, sel.EndLine)
		assert.Equal(t, "b", sel.Within)
	})
}

func TestWholeDocument(t *testing.T) {
	sel := WholeDocument("x = 1\ny = 2\n")

	assert.Equal(t, 1, sel.StartLine)
	assert.Equal(t, 3, sel.EndLine, "trailing newline counts an empty final line")
	assert.Equal(t, 12, sel.SelEnd)
}
