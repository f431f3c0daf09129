// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/nb-coder/internal/lint"
	"github.com/petar-djukic/nb-coder/pkg/types"
)

// fakeStore implements types.NotebookStore with a single scripted cell.
type fakeStore struct {
	source   string
	readErr  error
	writeErr error
	writes   []string
}

func (s *fakeStore) CellSource(path string, index int) (string, error) {
	if s.readErr != nil {
		return "", s.readErr
	}
	return s.source, nil
}

func (s *fakeStore) ReplaceCellSource(path string, index int, source string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes = append(s.writes, source)
	return nil
}

// fakeGenerator streams scripted chunks, or fails the stream.
type fakeGenerator struct {
	chunks     []string
	err        error
	lastSystem string
	lastUser   string
}

func (g *fakeGenerator) StreamGenerate(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, <-chan *types.StreamResponse) {
	g.lastSystem = systemPrompt
	g.lastUser = userPrompt

	tokenCh := make(chan string, len(g.chunks)+1)
	resultCh := make(chan *types.StreamResponse, 1)

	if g.err != nil {
		close(tokenCh)
		resultCh <- &types.StreamResponse{Err: g.err}
		return tokenCh, resultCh
	}

	var full strings.Builder
	for _, chunk := range g.chunks {
		full.WriteString(chunk)
		tokenCh <- chunk
	}
	close(tokenCh)

	resultCh <- &types.StreamResponse{
		FullText: full.String(),
		Usage:    types.TokenUsage{InputTokens: 20, OutputTokens: 5},
	}
	return tokenCh, resultCh
}

// fakeFixer records the code it is asked to validate.
type fakeFixer struct {
	result *types.AutoFixResult
	err    error
	calls  []string
}

func (f *fakeFixer) AutoFix(ctx context.Context, code string, opts lint.FixOptions) (*types.AutoFixResult, error) {
	f.calls = append(f.calls, code)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// recordingSink captures every message the orchestrator emits.
type recordingSink struct {
	codeUpdates []types.CodeMessage
	advisories  []string
	finals      []string
}

func (s *recordingSink) UpdateCode(msg types.CodeMessage) { s.codeUpdates = append(s.codeUpdates, msg) }
func (s *recordingSink) Advisory(text string)             { s.advisories = append(s.advisories, text) }
func (s *recordingSink) Final(text string)                { s.finals = append(s.finals, text) }

func (s *recordingSink) advisoryContaining(substr string) bool {
	for _, a := range s.advisories {
		if strings.Contains(a, substr) {
			return true
		}
	}
	return false
}

// noSkipPolicy disables the small-edit shortcut so every edit reaches the
// fixer.
func noSkipPolicy() lint.Policy {
	p := lint.DefaultPolicy()
	p.SmallEditMaxLines = 0
	return p
}

func TestEdit_EndToEnd(t *testing.T) {
	store := &fakeStore{source: "x = 1\ny = 2\n"}
	gen := &fakeGenerator{chunks: []string{"y ", "= ", "5"}}
	fixer := &fakeFixer{result: &types.AutoFixResult{
		FixedCode:     "x = 1\ny = 5\n",
		RuffSucceeded: true,
	}}
	sink := &recordingSink{}

	o := New(store, gen, fixer, sink, noSkipPolicy(), nil)
	result, err := o.Edit(context.Background(), EditRequest{
		FilePath:    "analysis.ipynb",
		CellIndex:   0,
		Instruction: "fix line 2 to set y to 5",
	})
	require.NoError(t, err)

	// Selection resolved to line 2.
	assert.Equal(t, 2, result.Selection.StartLine)
	assert.Equal(t, 2, result.Selection.EndLine)
	assert.Equal(t, "y = 2", result.Selection.Within)

	// Reconciled document and exactly one store write.
	assert.Equal(t, "y = 5", result.Replacement)
	assert.Equal(t, "x = 1\ny = 5\n", result.FinalCode)
	require.Len(t, store.writes, 1)
	assert.Equal(t, "x = 1\ny = 5\n", store.writes[0])

	// Lint ran once on the candidate and passed cleanly.
	require.Len(t, fixer.calls, 1)
	assert.Equal(t, "x = 1\ny = 5\n", fixer.calls[0])
	require.NotNil(t, result.LintResult)
	assert.Empty(t, result.LintResult.Issues)

	// The diff shows one -/+ pair on line 2.
	assert.Contains(t, result.Diff, "- y = 2")
	assert.Contains(t, result.Diff, "+ y = 5")
	assert.Equal(t, 1, strings.Count(result.Diff, "\n- "))
	assert.Equal(t, 1, strings.Count(result.Diff, "\n+ "))

	assert.True(t, result.Saved)
	assert.Equal(t, StateSummarizing, result.State)

	// The final message carries the fenced diff block.
	require.Len(t, sink.finals, 1)
	assert.Contains(t, sink.finals[0], "```diff")
	assert.Contains(t, sink.finals[0], "Edit saved")
}

func TestEdit_StreamingMessageLifecycle(t *testing.T) {
	store := &fakeStore{source: "x = 1\ny = 2\n"}
	gen := &fakeGenerator{chunks: []string{"y ", "= ", "5"}}
	sink := &recordingSink{}

	o := New(store, gen, nil, sink, lint.DefaultPolicy(), nil)
	_, err := o.Edit(context.Background(), EditRequest{
		FilePath:    "analysis.ipynb",
		Instruction: "fix line 2 to set y to 5",
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(sink.codeUpdates), 2)

	// Chunks produce in-place streaming updates under one ID.
	first := sink.codeUpdates[0]
	assert.True(t, first.IsStreaming)
	assert.Equal(t, "y ", first.Code)
	for _, upd := range sink.codeUpdates {
		assert.Equal(t, first.ID, upd.ID)
	}

	// Exactly the last update marks streaming complete, carrying the final
	// validated code, and it precedes the store write (enforced here by
	// the write having happened with the same content).
	last := sink.codeUpdates[len(sink.codeUpdates)-1]
	assert.False(t, last.IsStreaming)
	assert.Equal(t, "x = 1\ny = 5\n", last.Code)
	for _, upd := range sink.codeUpdates[:len(sink.codeUpdates)-1] {
		assert.True(t, upd.IsStreaming)
	}
}

func TestEdit_PromptStatesLineCountContract(t *testing.T) {
	store := &fakeStore{source: "x = 1\ny = 2\n"}
	gen := &fakeGenerator{chunks: []string{"y = 5"}}
	sink := &recordingSink{}

	o := New(store, gen, nil, sink, lint.DefaultPolicy(), nil)
	_, err := o.Edit(context.Background(), EditRequest{
		FilePath:        "analysis.ipynb",
		Instruction:     "fix line 2 to set y to 5",
		ExecutionOutput: "NameError: name 'y' is not defined",
	})
	require.NoError(t, err)

	assert.Contains(t, gen.lastUser, "exactly 1 lines")
	assert.Contains(t, gen.lastUser, "y = 2")
	assert.Contains(t, gen.lastUser, "fix line 2 to set y to 5")
	assert.Contains(t, gen.lastUser, "NameError: name 'y' is not defined")
	assert.Contains(t, gen.lastSystem, "Never add imports")
}

func TestEdit_AbortedOnStreamFailure(t *testing.T) {
	store := &fakeStore{source: "x = 1\ny = 2\n"}
	gen := &fakeGenerator{err: errors.New("connection reset")}
	sink := &recordingSink{}

	o := New(store, gen, nil, sink, lint.DefaultPolicy(), nil)
	result, err := o.Edit(context.Background(), EditRequest{
		FilePath:    "analysis.ipynb",
		Instruction: "fix line 2",
	})
	require.NoError(t, err)

	assert.Equal(t, StateAborted, result.State)
	assert.ErrorContains(t, result.Err, "connection reset")
	assert.Empty(t, store.writes)
	assert.Empty(t, sink.finals)
	assert.True(t, sink.advisoryContaining("aborted"))
}

func TestEdit_JSONEditsAppliedToSubRange(t *testing.T) {
	store := &fakeStore{source: "x = 1\ny = 2\n"}
	gen := &fakeGenerator{chunks: []string{
		`[{"startLine": 1, "endLine": 1, "replacement": "y = 5"}]`,
	}}
	sink := &recordingSink{}

	o := New(store, gen, nil, sink, lint.DefaultPolicy(), nil)
	result, err := o.Edit(context.Background(), EditRequest{
		FilePath:    "analysis.ipynb",
		Instruction: "fix line 2 to set y to 5",
	})
	require.NoError(t, err)

	// The edit's line numbers are relative to the selection, not the cell.
	assert.Equal(t, "y = 5", result.Replacement)
	require.Len(t, store.writes, 1)
	assert.Equal(t, "x = 1\ny = 5\n", store.writes[0])
}

func TestEdit_InstallCellSkipsLint(t *testing.T) {
	store := &fakeStore{source: "%pip install pandas\n"}
	gen := &fakeGenerator{chunks: []string{"%pip install pandas numpy"}}
	fixer := &fakeFixer{result: &types.AutoFixResult{RuffSucceeded: true}}
	sink := &recordingSink{}

	o := New(store, gen, fixer, sink, noSkipPolicy(), nil)
	result, err := o.Edit(context.Background(), EditRequest{
		FilePath:    "analysis.ipynb",
		Instruction: "also install numpy",
	})
	require.NoError(t, err)

	assert.Equal(t, "install cell", result.LintSkipped)
	assert.Empty(t, fixer.calls)
	assert.True(t, sink.advisoryContaining("lint skipped"))
	require.Len(t, store.writes, 1)
	assert.Equal(t, "%pip install pandas numpy", store.writes[0])
}

func TestEdit_SmallEditSkipsLint(t *testing.T) {
	store := &fakeStore{source: "x = 1\ny = 2\n"}
	gen := &fakeGenerator{chunks: []string{"y = 5"}}
	fixer := &fakeFixer{result: &types.AutoFixResult{RuffSucceeded: true}}
	sink := &recordingSink{}

	// Default policy: both sides are one line, delta is one character.
	o := New(store, gen, fixer, sink, lint.DefaultPolicy(), nil)
	result, err := o.Edit(context.Background(), EditRequest{
		FilePath:    "analysis.ipynb",
		Instruction: "fix line 2 to set y to 5",
	})
	require.NoError(t, err)

	assert.Equal(t, "small edit", result.LintSkipped)
	assert.Empty(t, fixer.calls)
	require.Len(t, store.writes, 1)
}

func TestEdit_LargeReplacementIsLinted(t *testing.T) {
	store := &fakeStore{source: "x = 1\ny = 2\n"}
	body := "def f():\n    a = 1\n    b = 2\n    return a + b"
	gen := &fakeGenerator{chunks: []string{body}}
	fixer := &fakeFixer{result: &types.AutoFixResult{RuffSucceeded: true}}
	sink := &recordingSink{}

	o := New(store, gen, fixer, sink, lint.DefaultPolicy(), nil)
	result, err := o.Edit(context.Background(), EditRequest{
		FilePath:    "analysis.ipynb",
		Instruction: "fix line 2 with a helper",
	})
	require.NoError(t, err)

	assert.Empty(t, result.LintSkipped)
	require.Len(t, fixer.calls, 1)
}

func TestEdit_WriteFailureStillShowsDiff(t *testing.T) {
	store := &fakeStore{source: "x = 1\ny = 2\n", writeErr: errors.New("disk full")}
	gen := &fakeGenerator{chunks: []string{"y = 5"}}
	sink := &recordingSink{}

	o := New(store, gen, nil, sink, lint.DefaultPolicy(), nil)
	result, err := o.Edit(context.Background(), EditRequest{
		FilePath:    "analysis.ipynb",
		Instruction: "fix line 2 to set y to 5",
	})
	require.NoError(t, err)

	assert.False(t, result.Saved)
	assert.Equal(t, StateSummarizing, result.State)
	require.Len(t, sink.finals, 1)
	assert.Contains(t, sink.finals[0], "Save failed")
	assert.Contains(t, sink.finals[0], "disk full")
	assert.Contains(t, sink.finals[0], "- y = 2")
	assert.Contains(t, sink.finals[0], "+ y = 5")
}

func TestEdit_LintIssuesAreAdvisoryNotBlocking(t *testing.T) {
	store := &fakeStore{source: "x = 1\ny = 2\n"}
	gen := &fakeGenerator{chunks: []string{"y = unknown_name"}}
	fixer := &fakeFixer{result: &types.AutoFixResult{
		FixedCode:     "x = 1\ny = unknown_name\n",
		Issues:        []string{"error F821 (line 2): undefined name 'unknown_name'"},
		RuffSucceeded: true,
	}}
	sink := &recordingSink{}

	o := New(store, gen, fixer, sink, noSkipPolicy(), nil)
	result, err := o.Edit(context.Background(), EditRequest{
		FilePath:    "analysis.ipynb",
		Instruction: "fix line 2",
	})
	require.NoError(t, err)

	// Best-available code is still written.
	assert.True(t, result.Saved)
	require.Len(t, store.writes, 1)
	assert.True(t, sink.advisoryContaining("Validation incomplete"))
	assert.True(t, sink.advisoryContaining("F821"))
}

func TestEdit_DegradedValidationIsSurfaced(t *testing.T) {
	store := &fakeStore{source: "x = 1\ny = 2\n"}
	gen := &fakeGenerator{chunks: []string{"y = 5\nz = 6\nw = 7"}}
	fixer := &fakeFixer{result: &types.AutoFixResult{
		FixedCode:     "x = 1\ny = 5\nz = 6\nw = 7\n",
		Warnings:      []string{"linter unavailable; validation degraded"},
		RuffSucceeded: false,
	}}
	sink := &recordingSink{}

	o := New(store, gen, fixer, sink, noSkipPolicy(), nil)
	result, err := o.Edit(context.Background(), EditRequest{
		FilePath:    "analysis.ipynb",
		Instruction: "fix line 2",
	})
	require.NoError(t, err)

	assert.True(t, result.Saved)
	assert.True(t, sink.advisoryContaining("less trustworthy"))
}

func TestEdit_ExplicitSelectionOverridesResolver(t *testing.T) {
	store := &fakeStore{source: "a = 1\nb = 2\nc = 3\n"}
	gen := &fakeGenerator{chunks: []string{"b = 20"}}
	sink := &recordingSink{}

	sel := &types.TextSelection{SelStart: 6, SelEnd: 11, StartLine: 2, EndLine: 2, Within: "b = 2"}

	o := New(store, gen, nil, sink, lint.DefaultPolicy(), nil)
	result, err := o.Edit(context.Background(), EditRequest{
		FilePath:    "analysis.ipynb",
		Instruction: "double b",
		Selection:   sel,
	})
	require.NoError(t, err)

	assert.Equal(t, *sel, result.Selection)
	require.Len(t, store.writes, 1)
	assert.Equal(t, "a = 1\nb = 20\nc = 3\n", store.writes[0])
}

func TestEdit_CellReadFailure(t *testing.T) {
	store := &fakeStore{readErr: errors.New("no such cell")}
	o := New(store, &fakeGenerator{}, nil, &recordingSink{}, lint.DefaultPolicy(), nil)

	_, err := o.Edit(context.Background(), EditRequest{FilePath: "analysis.ipynb"})
	assert.ErrorContains(t, err, "no such cell")
}

func TestIsInstallCell(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"pip magic", "%pip install pandas\n", true},
		{"conda magic", "%conda install scipy\n", true},
		{"bare pip", "pip install requests\n", true},
		{"bare conda", "conda install -y numpy\n", true},
		{"indented install", "  pip install requests\n", true},
		{"install on later line", "import sys\n%pip install pandas\n", true},
		{"plain code", "import pandas as pd\n", false},
		{"pip in a string", "cmd = 'run pip install later'\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isInstallCell(tt.code))
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "PLANNING", StatePlanning.String())
	assert.Equal(t, "ABORTED", StateAborted.String())
	assert.Equal(t, "State(42)", State(42).String())
}
