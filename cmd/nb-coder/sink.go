// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd011-cli R4 (terminal message sink).
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/petar-djukic/nb-coder/pkg/types"
)

// terminalSink renders orchestrator messages for a terminal. Streaming
// updates collapse into a single progress note; the final code and diff
// are styled with lipgloss.
type terminalSink struct {
	out     io.Writer
	started bool

	title    lipgloss.Style
	code     lipgloss.Style
	advisory lipgloss.Style
	added    lipgloss.Style
	removed  lipgloss.Style
	header   lipgloss.Style
}

func newTerminalSink(out io.Writer) *terminalSink {
	return &terminalSink{
		out:      out,
		title:    lipgloss.NewStyle().Bold(true),
		code:     lipgloss.NewStyle().PaddingLeft(2),
		advisory: lipgloss.NewStyle().Faint(true),
		added:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		removed:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

func (s *terminalSink) UpdateCode(msg types.CodeMessage) {
	if msg.IsStreaming {
		if !s.started {
			fmt.Fprintln(s.out, s.advisory.Render("Generating..."))
			s.started = true
		}
		return
	}

	fmt.Fprintln(s.out, s.title.Render(msg.Title))
	fmt.Fprintln(s.out, s.code.Render(msg.Code))
}

func (s *terminalSink) Advisory(text string) {
	fmt.Fprintln(s.out, s.advisory.Render("• "+text))
}

// Final styles the summary, coloring diff body lines inside the fenced
// block.
func (s *terminalSink) Final(text string) {
	inDiff := false
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "```diff"):
			inDiff = true
		case inDiff && line == "```":
			inDiff = false
		case inDiff && strings.HasPrefix(line, "+"):
			fmt.Fprintln(s.out, s.added.Render(line))
		case inDiff && strings.HasPrefix(line, "-"):
			fmt.Fprintln(s.out, s.removed.Render(line))
		case inDiff && strings.HasPrefix(line, "@@"):
			fmt.Fprintln(s.out, s.header.Render(line))
		default:
			fmt.Fprintln(s.out, line)
		}
	}
}
