// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd009-git-checkpoint R2.
package git

import (
	"fmt"
	"strings"
)

const maxSubjectLength = 72

// BuildMessage creates a checkpoint commit message from the edited
// notebook, cell index, and the instruction that drove the edit.
// Format: "nb-coder: <instruction>" subject (72-char cap), a body naming
// the notebook and cell, and the checkpoint trailer.
//
// Implements: prd009-git-checkpoint R2.1-R2.3.
func BuildMessage(notebookPath string, cellIndex int, instruction string) string {
	subject := buildSubject(instruction)
	body := fmt.Sprintf("Notebook: %s (cell %d)", notebookPath, cellIndex)

	return subject + "\n\n" + body + "\n\n" + checkpointTrailer
}

// buildSubject creates the first line of the commit message.
func buildSubject(instruction string) string {
	summary := strings.Join(strings.Fields(instruction), " ")
	summary = strings.TrimRight(summary, ".")
	if summary == "" {
		summary = "edit notebook cell"
	}
	if len(summary) > 0 {
		summary = strings.ToLower(summary[:1]) + summary[1:]
	}

	subject := "nb-coder: " + summary
	if len(subject) > maxSubjectLength {
		subject = subject[:maxSubjectLength-3] + "..."
	}

	return subject
}
