// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd001-edit-service R5 (validation branch).
package editor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/petar-djukic/nb-coder/internal/diff"
	"github.com/petar-djukic/nb-coder/internal/lint"
	"github.com/petar-djukic/nb-coder/pkg/types"
)

// installPrefixes mark package-install cells. Mutating install commands is
// unsafe, so such cells are never linted.
var installPrefixes = []string{"%pip", "%conda", "pip install", "conda install"}

// validate classifies the candidate document and returns the text to
// persist: the candidate itself when linting is skipped or fails, or the
// engine's best available output otherwise. Advisory messages describe
// what happened; validation problems never block the write.
//
// Implements: prd001-edit-service R5.1-R5.6.
func (o *Orchestrator) validate(ctx context.Context, req EditRequest, sel types.TextSelection, replacement, candidate string, result *EditResult) string {
	switch {
	case isInstallCell(candidate):
		result.LintSkipped = "install cell"
		o.sink.Advisory("Package-install cell detected; lint skipped.")
		return candidate

	case o.isSmallEdit(sel.Within, replacement):
		result.LintSkipped = "small edit"
		o.sink.Advisory("Small edit; lint skipped.")
		return candidate

	case o.fixer == nil:
		result.LintSkipped = "no linter configured"
		return candidate
	}

	lintRes, err := o.fixer.AutoFix(ctx, candidate, lint.FixOptions{
		Filename:  filepath.Base(req.FilePath),
		SessionID: req.ScopeID,
	})
	if err != nil {
		// The engine degrades internally; an error here means even the
		// degraded path was unusable. Write the candidate as-is.
		o.sink.Advisory(fmt.Sprintf("Validation unavailable (%v); writing unvalidated code.", err))
		return candidate
	}
	result.LintResult = lintRes

	if !lintRes.RuffSucceeded {
		o.sink.Advisory("Linter unavailable; validation was model-only and is less trustworthy.")
	}
	if lintRes.WasFixed {
		o.sink.Advisory("Auto-fixes applied during validation.")
	}
	if len(lintRes.Issues) > 0 {
		o.sink.Advisory("Validation incomplete; remaining issues:\n- " + strings.Join(lintRes.Issues, "\n- "))
	} else if lintRes.RuffSucceeded {
		o.sink.Advisory("Validation passed.")
	}

	if lintRes.FixedCode != "" {
		return lintRes.FixedCode
	}
	return candidate
}

// isInstallCell reports whether any line of the cell starts a package
// install command.
func isInstallCell(code string) bool {
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, prefix := range installPrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				return true
			}
		}
	}
	return false
}

// isSmallEdit reports whether both the original selection and the
// replacement are within the policy's line bound and the character-level
// edit distance between them is within the delta bound. Such edits skip
// linting as a latency optimization.
func (o *Orchestrator) isSmallEdit(original, replacement string) bool {
	maxLines := o.policy.SmallEditMaxLines
	if maxLines <= 0 {
		return false
	}
	if len(diff.SplitLines(original)) > maxLines || len(diff.SplitLines(replacement)) > maxLines {
		return false
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, replacement, false)
	return dmp.DiffLevenshtein(diffs) <= o.policy.SmallEditMaxDelta
}
