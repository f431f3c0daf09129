// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd006-lint-engine R1 (diagnostic model), R5 (Linter interface);
//
//	prd001-edit-service R5.3 (AutoFixResult).
package types

import (
	"context"
	"fmt"
)

// DiagnosticKind separates blocking errors from advisory warnings.
type DiagnosticKind string

const (
	DiagError   DiagnosticKind = "error"
	DiagWarning DiagnosticKind = "warning"
)

// LintDiagnostic is a single finding from the static linter. Errors block
// "clean" status; warnings are advisory.
type LintDiagnostic struct {
	Kind      DiagnosticKind // error or warning
	Code      string         // Rule code (e.g. E999, F821, F401)
	Message   string         // Human-readable description
	StartLine int            // First affected line (1-based)
	EndLine   int            // Last affected line (1-based)
}

func (d LintDiagnostic) String() string {
	return fmt.Sprintf("%s %s (line %d): %s", d.Kind, d.Code, d.StartLine, d.Message)
}

// LintOptions controls a single linter invocation.
type LintOptions struct {
	EnableFixes bool   // Apply safe auto-fixes
	Filename    string // Virtual filename for diagnostics (e.g. cell.py)
	FormatCode  bool   // Run the formatter as well (slower)
}

// LintResult is the raw outcome of one linter pass.
type LintResult struct {
	IsValid       bool             // No error-level diagnostics remain
	Diagnostics   []LintDiagnostic // All findings
	FormattedCode string           // Formatter output, if requested
	FixedCode     string           // Auto-fixed code, if fixes were enabled
}

// Linter runs a fast static lint pass over a code snippet. Implementations
// wrap an external tool (ruff) or a test fake.
type Linter interface {
	Lint(ctx context.Context, code string, opts LintOptions) (*LintResult, error)
}

// AutoFixResult is the outcome of the full lint/auto-fix pipeline, including
// any LLM escalation. RuffSucceeded false means the static linter itself was
// unavailable and only a degraded LLM-only validation ran; callers must
// surface that distinction to the user.
type AutoFixResult struct {
	FixedCode     string   // Best available code (fixed, formatted, or original)
	Issues        []string // Error-level findings still present
	Warnings      []string // Advisory findings
	WasFixed      bool     // FixedCode differs from the normalized input
	RuffSucceeded bool     // The static linter ran to completion
}

// Clean reports whether no blocking issues remain.
func (r *AutoFixResult) Clean() bool {
	return len(r.Issues) == 0
}
