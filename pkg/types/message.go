// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd001-edit-service R5.4 (sink message shapes);
//
//	prd005-llm-client R5 (usage and stream result types).
package types

// CodeMessage is the streaming code message shape: the orchestrator emits it
// repeatedly under the same ID while tokens arrive, then once more with
// IsStreaming=false when the final validated code is known.
type CodeMessage struct {
	ID          string // Stable identifier; updates replace prior content
	Code        string // Accumulated, fence-stripped code so far
	Language    string // Highlighting hint (e.g. python)
	Title       string // Short human-readable label
	IsStreaming bool   // False exactly once, on the final update
}

// MessageSink receives the orchestrator's user-visible output. The UI
// collaborator (chat surface, terminal) implements it; the orchestrator
// never renders anything itself.
type MessageSink interface {
	// UpdateCode creates or replaces the streaming code message with the
	// given ID.
	UpdateCode(msg CodeMessage)
	// Advisory emits a discrete informational message (validation notices,
	// fix notices, skip notices).
	Advisory(text string)
	// Final emits the terminal chat-visible artifact for the edit,
	// containing the fenced diff block.
	Final(text string)
}

// TokenUsage tracks token consumption for a single LLM call.
type TokenUsage struct {
	InputTokens  int // Tokens in the prompt
	OutputTokens int // Tokens in the response
}

// Total returns the sum of input and output tokens.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// StreamResponse holds the result of a streaming LLM call.
type StreamResponse struct {
	FullText  string     // Accumulated response text
	Reasoning string     // Accumulated reasoning deltas (advisory only)
	Usage     TokenUsage // Token counts from API metadata
	Retries   int        // Retries performed due to rate limits
	Err       error      // Non-nil when the stream failed
}
