// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package editor implements the edit orchestrator, the state machine that
// drives a single notebook cell edit: resolve the target selection, stream
// a model-generated replacement, reconcile it into the full cell text,
// validate it, write it back, and summarize the change as a diff.
// Implements: prd001-edit-service R1-R6;
//
//	docs/ARCHITECTURE § Edit Orchestrator.
package editor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/petar-djukic/nb-coder/internal/diff"
	"github.com/petar-djukic/nb-coder/internal/lineedit"
	"github.com/petar-djukic/nb-coder/internal/lint"
	"github.com/petar-djukic/nb-coder/internal/llm"
	"github.com/petar-djukic/nb-coder/internal/selection"
	"github.com/petar-djukic/nb-coder/pkg/types"
)

// State identifies a stage of the edit state machine. The flow is linear;
// StateAborted is terminal and reachable only from StateStreaming.
type State int

const (
	StatePlanning State = iota
	StateStreaming
	StateReconciling
	StateValidating
	StateWriting
	StateSummarizing
	StateAborted
)

var stateNames = map[State]string{
	StatePlanning:    "PLANNING",
	StateStreaming:   "STREAMING",
	StateReconciling: "RECONCILING",
	StateValidating:  "VALIDATING",
	StateWriting:     "WRITING",
	StateSummarizing: "SUMMARIZING",
	StateAborted:     "ABORTED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Generator abstracts streaming LLM generation so the orchestrator is
// testable.
type Generator interface {
	StreamGenerate(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, <-chan *types.StreamResponse)
}

// Fixer abstracts the lint/auto-fix engine.
type Fixer interface {
	AutoFix(ctx context.Context, code string, opts lint.FixOptions) (*types.AutoFixResult, error)
}

// EditRequest describes one cell edit. The selection is taken from
// Selection when set, else from StartLine/EndLine when positive, else
// resolved from the instruction text.
type EditRequest struct {
	FilePath        string               // Notebook path, used for store access and diff headers
	CellIndex       int                  // Target cell
	Instruction     string               // The user's natural-language request
	Selection       *types.TextSelection // Explicit byte-offset selection
	StartLine       int                  // Explicit line range (1-based; 0 = unset)
	EndLine         int                  // Explicit line range end (inclusive)
	ExecutionOutput string               // Optional runtime/error output for prompt grounding
	Language        string               // Highlighting hint, defaults to python
	ScopeID         string               // Session scope, forwarded to the lint engine
}

// EditResult reports the outcome of one edit.
type EditResult struct {
	State       State                 // Terminal state: SUMMARIZING or ABORTED
	Saved       bool                  // True iff the store write succeeded
	Selection   types.TextSelection   // The resolved selection
	Replacement string                // The literal model-produced replacement, pre-lint
	FinalCode   string                // The validated full cell text
	LinesBefore int                   // Cell line count before the edit
	LinesAfter  int                   // Cell line count after the edit
	Diff        string                // Unified diff of selection vs. Replacement
	LintResult  *types.AutoFixResult  // Nil when linting was skipped
	LintSkipped string                // Skip reason ("install cell", "small edit"), empty when linted
	Usage       types.TokenUsage      // Token usage of the generation call
	Err         error                 // The generation failure when State is ABORTED
}

// Orchestrator wires the collaborators of a notebook edit.
type Orchestrator struct {
	store    types.NotebookStore
	gen      Generator
	fixer    Fixer
	sink     types.MessageSink
	resolver *selection.Resolver
	policy   lint.Policy
	log      *zap.Logger
}

// New creates an orchestrator. A nil logger defaults to a no-op; a nil
// fixer disables validation entirely (every edit behaves as lint-skipped).
func New(store types.NotebookStore, gen Generator, fixer Fixer, sink types.MessageSink, policy lint.Policy, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		store:    store,
		gen:      gen,
		fixer:    fixer,
		sink:     sink,
		resolver: selection.New(log),
		policy:   policy,
		log:      log,
	}
}

// Edit runs the full state machine for one request. Stage failures are
// converted into sink messages and reported through the result; the error
// return is reserved for failures before the machine starts (the cell
// could not be read at all).
//
// Implements: prd001-edit-service R1.1-R1.4, R2-R6.
func (o *Orchestrator) Edit(ctx context.Context, req EditRequest) (*EditResult, error) {
	fullCode, err := o.store.CellSource(req.FilePath, req.CellIndex)
	if err != nil {
		return nil, fmt.Errorf("reading cell %d of %s: %w", req.CellIndex, req.FilePath, err)
	}

	if req.Language == "" {
		req.Language = "python"
	}

	result := &EditResult{LinesBefore: len(diff.SplitLines(fullCode))}

	// PLANNING: resolve the target selection and announce intent.
	sel := o.plan(req, fullCode)
	result.Selection = sel

	// STREAMING: one generation call; chunks update a live code message.
	msgID := fmt.Sprintf("edit:%s:%d", req.FilePath, req.CellIndex)
	resp := o.stream(ctx, req, sel, msgID)
	if resp == nil || resp.Err != nil {
		result.State = StateAborted
		if resp != nil {
			result.Err = resp.Err
			result.Usage = resp.Usage
		} else {
			result.Err = fmt.Errorf("no response from generation service")
		}
		o.sink.Advisory(fmt.Sprintf("Edit aborted: %v. Nothing was written.", result.Err))
		o.log.Warn("generation failed", zap.Error(result.Err))
		return result, nil
	}
	result.Usage = resp.Usage

	// RECONCILING: fold the response back into the full cell text.
	replacement, candidate := o.reconcile(fullCode, sel, resp.FullText)
	result.Replacement = replacement

	// VALIDATING: install-cell skip, small-edit skip, or the full engine.
	finalCode := o.validate(ctx, req, sel, replacement, candidate, result)
	result.FinalCode = finalCode
	result.LinesAfter = len(diff.SplitLines(finalCode))

	// WRITING: mark the streaming message complete before persisting so
	// the display renders final, validated code.
	o.sink.UpdateCode(types.CodeMessage{
		ID:          msgID,
		Code:        finalCode,
		Language:    req.Language,
		Title:       editTitle(req),
		IsStreaming: false,
	})

	writeErr := o.store.ReplaceCellSource(req.FilePath, req.CellIndex, finalCode)
	result.Saved = writeErr == nil
	if writeErr != nil {
		o.log.Warn("store write failed", zap.String("file", req.FilePath), zap.Int("cell", req.CellIndex), zap.Error(writeErr))
	}

	// SUMMARIZING: diff the original selection against the literal model
	// replacement. The store received the post-lint text; the diff stays
	// attributable to the model's output.
	result.Diff = diff.BuildUnified(sel.Within, replacement, req.FilePath, sel.StartLine)
	result.State = StateSummarizing
	o.sink.Final(o.summary(result, writeErr))

	return result, nil
}

// plan resolves the selection (explicit or from the instruction) and emits
// the plan message.
//
// Implements: prd001-edit-service R2.1-R2.2.
func (o *Orchestrator) plan(req EditRequest, fullCode string) types.TextSelection {
	var sel types.TextSelection
	switch {
	case req.Selection != nil:
		sel = *req.Selection
	case req.StartLine > 0:
		sel = selection.FromLines(fullCode, req.StartLine, req.EndLine)
	default:
		sel = o.resolver.FromMessage(fullCode, req.Instruction)
	}

	o.sink.Advisory(fmt.Sprintf("Editing lines %d-%d of cell %d in %s.",
		sel.StartLine, sel.EndLine, req.CellIndex, req.FilePath))
	return sel
}

// stream issues the generation call and forwards fence-stripped chunks to
// the sink as one in-place streaming message. Returns the final response,
// or a response carrying Err on transport failure.
//
// Implements: prd001-edit-service R3.1-R3.4.
func (o *Orchestrator) stream(ctx context.Context, req EditRequest, sel types.TextSelection, msgID string) *types.StreamResponse {
	data := llm.EditPromptData{
		Language:        req.Language,
		LineCount:       sel.LineCount(),
		Snippet:         sel.Within,
		Instruction:     req.Instruction,
		ExecutionOutput: req.ExecutionOutput,
	}

	systemPrompt, err := llm.BuildEditSystemPrompt(data)
	if err != nil {
		return &types.StreamResponse{Err: err}
	}
	userPrompt, err := llm.BuildEditPrompt(data)
	if err != nil {
		return &types.StreamResponse{Err: err}
	}

	tokenCh, resultCh := o.gen.StreamGenerate(ctx, systemPrompt, userPrompt)

	var accum strings.Builder
	for token := range tokenCh {
		accum.WriteString(token)
		o.sink.UpdateCode(types.CodeMessage{
			ID:          msgID,
			Code:        lineedit.StripFences(accum.String()),
			Language:    req.Language,
			Title:       editTitle(req),
			IsStreaming: true,
		})
	}

	return <-resultCh
}

// reconcile strips fences from the full response, applies JSON line-edits
// to the selected sub-range when the response parses as such, and splices
// the replacement into the document at the original byte offsets.
//
// Implements: prd001-edit-service R4.1-R4.3.
func (o *Orchestrator) reconcile(fullCode string, sel types.TextSelection, response string) (replacement, candidate string) {
	stripped := lineedit.StripFences(response)

	if edits := lineedit.ParseJSON(stripped); len(edits) > 0 {
		replacement = lineedit.Apply(sel.Within, edits)
		o.log.Debug("applied structured line edits", zap.Int("count", len(edits)))
	} else {
		// Malformed or plain output: the raw text is the replacement.
		replacement = stripped
	}

	candidate = fullCode[:sel.SelStart] + replacement + fullCode[sel.SelEnd:]
	return replacement, candidate
}

// summary renders the final chat-visible artifact: save status, line
// counts, and the fenced diff block.
//
// Implements: prd001-edit-service R6.1-R6.3.
func (o *Orchestrator) summary(result *EditResult, writeErr error) string {
	var b strings.Builder

	if writeErr != nil {
		fmt.Fprintf(&b, "Save failed: %v. The edit below was not persisted.\n", writeErr)
	} else {
		b.WriteString("Edit saved.\n")
	}
	fmt.Fprintf(&b, "Lines: %d before, %d after.\n\n", result.LinesBefore, result.LinesAfter)
	b.WriteString("```diff\n")
	b.WriteString(result.Diff)
	b.WriteString("\n```")

	return b.String()
}

func editTitle(req EditRequest) string {
	return fmt.Sprintf("Cell %d — %s", req.CellIndex, req.FilePath)
}
