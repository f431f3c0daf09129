// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package llm wraps the AWS Bedrock ConverseStream API for LLM access and
// builds the edit and repair prompts from embedded templates.
// Implements: prd005-llm-client R1, R2, R3, R4, R5, R6;
//
//	docs/ARCHITECTURE § LLM Client.
package llm

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// EditPromptData holds the values injected into the edit prompt templates.
type EditPromptData struct {
	Language        string // e.g. python
	LineCount       int    // Exact line count of the original selection
	Snippet         string // The selected code
	Instruction     string // The user's natural-language request
	ExecutionOutput string // Optional runtime/error output for grounding
}

// RepairPromptData holds the values injected into the repair prompt.
type RepairPromptData struct {
	Code   string
	Issues []string
}

// BuildEditSystemPrompt renders the system prompt for an edit request.
//
// Implements: prd005-llm-client R3.1-R3.3.
func BuildEditSystemPrompt(data EditPromptData) (string, error) {
	return render("templates/edit_system.tmpl", data)
}

// BuildEditPrompt renders the user prompt for an edit request: it states
// the exact line count of the original selection and demands the same
// count back, forbids prose and fences, and forbids new imports or
// installs except where execution output implies a missing name.
//
// Implements: prd005-llm-client R3.4-R3.6.
func BuildEditPrompt(data EditPromptData) (string, error) {
	return render("templates/edit.tmpl", data)
}

// BuildRepairPrompt renders the constrained repair prompt for the lint
// escalation pass.
func BuildRepairPrompt(data RepairPromptData) (string, error) {
	return render("templates/repair.tmpl", data)
}

func render(name string, data any) (string, error) {
	tmpl, err := template.ParseFS(templateFS, name)
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	return buf.String(), nil
}
