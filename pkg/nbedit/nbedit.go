// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package nbedit defines the public interface for nb-coder, a library that
// edits notebook cells in place from natural-language instructions.
// Implements: prd001-edit-service R1, R7;
//
//	docs/ARCHITECTURE § Edit Service Interface.
package nbedit

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/petar-djukic/nb-coder/pkg/types"
)

// Error types for the nbedit API.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLLMFailure    = errors.New("LLM call failed")
)

// Config configures a Service instance.
type Config struct {
	WorkDir        string            // Workspace root containing the notebooks (required)
	Model          string            // Bedrock model ID (required)
	Region         string            // AWS region (required)
	Profile        string            // AWS credential profile (optional)
	ConversationID string            // Scopes sessions and caches (default "default")
	RuffPath       string            // ruff executable (default "ruff" on PATH)
	PolicyPath     string            // Optional lint policy YAML
	MaxTokens      int               // Maximum tokens per LLM response (default 4096)
	Checkpoint     bool              // Commit the notebook after each saved edit
	Sink           types.MessageSink // Receives all user-visible output (required)
	Logger         *zap.Logger       // Optional; defaults to a no-op logger
}

// EditRequest describes one cell edit.
type EditRequest struct {
	File            string // Notebook path relative to WorkDir (required)
	Cell            int    // Target cell index
	Instruction     string // Natural-language request (required)
	StartLine       int    // Explicit line range (1-based; 0 resolves from Instruction)
	EndLine         int    // Explicit range end (inclusive)
	ExecutionOutput string // Optional runtime/error output for grounding
}

// Result holds the outcome of a Service.Edit invocation.
type Result struct {
	Saved       bool             // True iff the notebook write succeeded
	Aborted     bool             // True when generation failed before any write
	StartLine   int              // Resolved selection start
	EndLine     int              // Resolved selection end
	LinesBefore int              // Cell line count before the edit
	LinesAfter  int              // Cell line count after the edit
	Diff        string           // Unified diff of the selection vs. the model output
	Issues      []string         // Remaining lint errors, if any
	Warnings    []string         // Lint warnings and degraded-validation notices
	TokensUsed  types.TokenUsage // Tokens consumed by the generation call
	Err         error            // The generation failure when Aborted
}

// Service edits notebook cells in a workspace.
type Service interface {
	// Edit runs the full pipeline for one cell: resolve the selection,
	// stream a replacement, validate it, write it back, and summarize.
	Edit(ctx context.Context, req EditRequest) (*Result, error)

	// Undo reverts the most recent nb-coder checkpoint commit. It fails
	// when HEAD is not an nb-coder checkpoint.
	Undo() error
}
