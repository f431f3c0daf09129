// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lint validates and repairs Python code snippets: a fast ruff
// pass with safe auto-fixes, then a bounded LLM escalation for the
// defect classes a human would consider blocking.
// Implements: prd006-lint-engine R1, R2;
//
//	docs/ARCHITECTURE § Lint/Auto-Fix Engine.
package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/petar-djukic/nb-coder/pkg/types"
)

const defaultRuffTimeout = 15 * time.Second

// blockingCodes are the rule codes treated as error-level; everything else
// ruff reports is advisory.
var blockingCodes = map[string]bool{
	"E999": true, // Syntax error
	"E902": true, // I/O or tokenization failure
	"F821": true, // Undefined name
	"F822": true, // Undefined name in __all__
	"F823": true, // Local variable referenced before assignment
}

// RuffLinter implements types.Linter by shelling out to ruff.
type RuffLinter struct {
	Executable string        // Defaults to "ruff" on PATH
	Timeout    time.Duration // Per-invocation timeout (default 15s)
}

var _ types.Linter = (*RuffLinter)(nil)

// ruffFinding mirrors one element of ruff's JSON output. Code is null for
// bare syntax errors in recent ruff versions.
type ruffFinding struct {
	Code     *string `json:"code"`
	Message  string  `json:"message"`
	Location struct {
		Row int `json:"row"`
	} `json:"location"`
	EndLocation struct {
		Row int `json:"row"`
	} `json:"end_location"`
}

// Lint writes the snippet to a temp file and runs ruff check (optionally
// with --fix), then ruff format when requested. A non-zero exit with JSON
// findings on stdout is a normal outcome; only a failure to run ruff at
// all is an error.
//
// Implements: prd006-lint-engine R1.1-R1.6.
func (r *RuffLinter) Lint(ctx context.Context, code string, opts types.LintOptions) (*types.LintResult, error) {
	exe := r.Executable
	if exe == "" {
		exe = "ruff"
	}
	timeout := r.Timeout
	if timeout == 0 {
		timeout = defaultRuffTimeout
	}

	dir, err := os.MkdirTemp("", "nb-coder-lint-*")
	if err != nil {
		return nil, fmt.Errorf("creating lint workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	name := opts.Filename
	if name == "" {
		name = "cell.py"
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return nil, fmt.Errorf("writing lint input: %w", err)
	}

	args := []string{"check", "--output-format=json", "--quiet", "--isolated"}
	if opts.EnableFixes {
		args = append(args, "--fix")
	}
	args = append(args, path)

	stdout, runErr := runTool(ctx, timeout, exe, args...)
	findings, parseErr := parseFindings(stdout)
	if runErr != nil && parseErr != nil {
		// ruff did not produce findings and exited abnormally: the linter
		// itself is unavailable.
		return nil, fmt.Errorf("ruff unavailable: %w", runErr)
	}

	result := &types.LintResult{IsValid: true}
	for _, f := range findings {
		diag := toDiagnostic(f)
		result.Diagnostics = append(result.Diagnostics, diag)
		if diag.Kind == types.DiagError {
			result.IsValid = false
		}
	}

	if opts.EnableFixes {
		fixed, err := os.ReadFile(path)
		if err == nil {
			result.FixedCode = string(fixed)
		}
	}

	if opts.FormatCode {
		if _, err := runTool(ctx, timeout, exe, "format", "--isolated", path); err == nil {
			if formatted, err := os.ReadFile(path); err == nil {
				result.FormattedCode = string(formatted)
			}
		}
	}

	return result, nil
}

// toDiagnostic classifies one ruff finding. Null-code findings are syntax
// errors and map to E999.
func toDiagnostic(f ruffFinding) types.LintDiagnostic {
	code := "E999"
	if f.Code != nil && *f.Code != "" {
		code = *f.Code
	}

	kind := types.DiagWarning
	if blockingCodes[code] || strings.Contains(f.Message, "SyntaxError") {
		kind = types.DiagError
	}

	endLine := f.EndLocation.Row
	if endLine == 0 {
		endLine = f.Location.Row
	}

	return types.LintDiagnostic{
		Kind:      kind,
		Code:      code,
		Message:   f.Message,
		StartLine: f.Location.Row,
		EndLine:   endLine,
	}
}

// parseFindings decodes ruff's JSON finding array. Empty output decodes to
// no findings.
func parseFindings(out string) ([]ruffFinding, error) {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return nil, nil
	}
	var findings []ruffFinding
	if err := json.Unmarshal([]byte(trimmed), &findings); err != nil {
		return nil, fmt.Errorf("parsing ruff output: %w", err)
	}
	return findings, nil
}

// runTool executes an external command with a timeout and captures stdout.
func runTool(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%s: %w (%s)", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
