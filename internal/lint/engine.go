// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd006-lint-engine R4 (staged auto-fix), R5 (LLM escalation);
//
//	docs/ARCHITECTURE § Lint/Auto-Fix Engine.
package lint

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/petar-djukic/nb-coder/internal/lineedit"
	"github.com/petar-djukic/nb-coder/internal/lintcache"
	"github.com/petar-djukic/nb-coder/pkg/types"
)

// Repairer sends a tightly-scoped repair prompt to the model and returns
// the repaired code. Implemented by the LLM client.
type Repairer interface {
	RepairCode(ctx context.Context, code string, issues []string) (string, error)
}

// FixOptions scopes one AutoFix invocation.
type FixOptions struct {
	Filename  string // Virtual filename for diagnostics
	SessionID string // Logical session, for logging and model memory
}

// Engine runs the staged validation pipeline: ruff with safe auto-fixes,
// diagnostic classification, and a bounded LLM repair escalation. The
// result cache is consulted first so byte-identical code within the TTL
// never pays a second lint pass.
type Engine struct {
	linter   types.Linter
	repairer Repairer
	cache    *lintcache.Cache
	policy   Policy
	log      *zap.Logger

	// syntaxCheck confirms reported syntax errors; overridable in tests.
	syntaxCheck func(context.Context, string) (bool, error)
}

// NewEngine wires an Engine. linter is required; repairer and cache may be
// nil (no escalation, no caching).
func NewEngine(linter types.Linter, repairer Repairer, cache *lintcache.Cache, policy Policy, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		linter:      linter,
		repairer:    repairer,
		cache:       cache,
		policy:      policy,
		log:         log,
		syntaxCheck: HasSyntaxError,
	}
}

// AutoFix validates and repairs a code snippet. Failures of the underlying
// tools are folded into the result rather than returned: a completely
// unavailable linter yields the degraded LLM-only path with
// RuffSucceeded=false, never an error the caller must branch on.
//
// Implements: prd006-lint-engine R4.1-R4.6, R5.1-R5.5.
func (e *Engine) AutoFix(ctx context.Context, code string, opts FixOptions) (*types.AutoFixResult, error) {
	normalized := lineedit.StripFences(code)
	if strings.TrimSpace(normalized) == "" {
		return &types.AutoFixResult{FixedCode: normalized, RuffSucceeded: true}, nil
	}

	if e.cache != nil {
		if cached := e.cache.Get(normalized); cached != nil {
			e.log.Debug("lint result served from cache",
				zap.String("session", opts.SessionID))
			return cached, nil
		}
	}

	lintRes, err := e.linter.Lint(ctx, normalized, types.LintOptions{
		EnableFixes: true,
		Filename:    opts.Filename,
		FormatCode:  false,
	})
	if err != nil {
		e.log.Warn("static linter unavailable, degrading to LLM-only validation",
			zap.Error(err), zap.String("session", opts.SessionID))
		return e.emergencyRepair(ctx, normalized), nil
	}

	issues, warnings := classify(lintRes.Diagnostics)

	fixed := lintRes.FixedCode
	if fixed == "" {
		fixed = lintRes.FormattedCode
	}
	if fixed == "" {
		fixed = normalized
	}

	result := &types.AutoFixResult{
		FixedCode:     fixed,
		Issues:        issues,
		Warnings:      warnings,
		WasFixed:      fixed != normalized,
		RuffSucceeded: true,
	}

	if e.repairer != nil && e.ShouldEscalate(ctx, normalized, lintRes) {
		e.escalate(ctx, normalized, result, opts)
	}

	if e.cache != nil {
		e.cache.Put(normalized, result)
	}
	return result, nil
}

// ShouldEscalate applies the bounded-escalation gate: the lint result must
// be invalid, the snippet small, and the remaining issues must include a
// syntax error or an undefined name. Anything else (unused imports, style
// findings) is not worth a model round-trip.
//
// Implements: prd006-lint-engine R5.1, R5.2.
func (e *Engine) ShouldEscalate(ctx context.Context, code string, lintRes *types.LintResult) bool {
	if lintRes.IsValid {
		return false
	}
	if lineCount(code) > e.policy.EscalationMaxLines {
		return false
	}

	claimsSyntax := false
	claimsUndefined := false
	for _, d := range lintRes.Diagnostics {
		if d.Kind != types.DiagError {
			continue
		}
		switch {
		case d.Code == "E999" || d.Code == "E902" || strings.Contains(d.Message, "SyntaxError"):
			claimsSyntax = true
		case d.Code == "F821" || strings.Contains(strings.ToLower(d.Message), "undefined name"):
			claimsUndefined = true
		}
	}

	if claimsUndefined {
		return true
	}
	if !claimsSyntax {
		return false
	}

	// Confirm the syntax error is genuine before paying for a model call.
	broken, err := e.syntaxCheck(ctx, code)
	if err != nil {
		return true // Checker unavailable; trust the linter.
	}
	if !broken {
		e.log.Debug("linter reported syntax error not confirmed by parser, skipping escalation")
	}
	return broken
}

// escalate runs the constrained LLM repair pass and re-lints its output
// with fixes disabled. A failed re-lint keeps the repaired text but the
// pre-escalation diagnostics.
func (e *Engine) escalate(ctx context.Context, normalized string, result *types.AutoFixResult, opts FixOptions) {
	repaired, err := e.repairer.RepairCode(ctx, result.FixedCode, result.Issues)
	if err != nil {
		e.log.Warn("llm repair pass failed", zap.Error(err), zap.String("session", opts.SessionID))
		result.Warnings = append(result.Warnings, "automatic repair failed: "+err.Error())
		return
	}
	repaired = lineedit.StripFences(repaired)
	if strings.TrimSpace(repaired) == "" {
		result.Warnings = append(result.Warnings, "automatic repair produced empty output; keeping lint-fixed code")
		return
	}

	relint, err := e.linter.Lint(ctx, repaired, types.LintOptions{
		EnableFixes: false,
		Filename:    opts.Filename,
		FormatCode:  false,
	})
	if err != nil {
		// Keep the repaired text with the pre-escalation diagnostics.
		result.FixedCode = repaired
		result.WasFixed = repaired != normalized
		result.Warnings = append(result.Warnings, "re-lint after repair failed; diagnostics may be stale")
		return
	}

	issues, warnings := classify(relint.Diagnostics)
	result.FixedCode = repaired
	result.WasFixed = repaired != normalized
	result.Issues = issues
	result.Warnings = warnings
}

// emergencyRepair is the LLM-only fallback when the linter cannot run at
// all. Its result always carries RuffSucceeded=false and a degraded-
// validation warning so callers can surface the lower trust level.
//
// Implements: prd006-lint-engine R5.5.
func (e *Engine) emergencyRepair(ctx context.Context, normalized string) *types.AutoFixResult {
	result := &types.AutoFixResult{
		FixedCode:     normalized,
		Issues:        []string{"static linter unavailable"},
		Warnings:      []string{"validation degraded: code checked by LLM only, not by the linter"},
		RuffSucceeded: false,
	}

	if broken, err := e.syntaxCheck(ctx, normalized); err == nil && broken {
		result.Issues = append(result.Issues, "syntax error detected by parser")
	}

	if e.repairer == nil {
		return result
	}

	repaired, err := e.repairer.RepairCode(ctx, normalized, []string{
		"the static linter is unavailable; fix any syntax errors, missing imports, and obvious defects without refactoring",
	})
	if err != nil {
		result.Warnings = append(result.Warnings, "emergency repair failed: "+err.Error())
		return result
	}
	repaired = lineedit.StripFences(repaired)
	if strings.TrimSpace(repaired) != "" {
		result.FixedCode = repaired
		result.WasFixed = repaired != normalized
		result.Issues = []string{}
	}
	return result
}

// classify splits diagnostics into blocking issues and advisory warnings.
func classify(diags []types.LintDiagnostic) (issues, warnings []string) {
	for _, d := range diags {
		if d.Kind == types.DiagError {
			issues = append(issues, d.String())
		} else {
			warnings = append(warnings, d.String())
		}
	}
	return issues, warnings
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}
