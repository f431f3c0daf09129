// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd011-cli R2 (edit), R3 (undo).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	gitpkg "github.com/petar-djukic/nb-coder/internal/git"
	"github.com/petar-djukic/nb-coder/pkg/nbedit"
)

// newEditCmd creates the "edit" command.
func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a notebook cell from a natural language instruction",
		Long:  "Edit resolves the line range the instruction refers to, streams a model-generated replacement, lints it, and writes it back into the notebook.",
		RunE:  runEdit,
	}

	cmd.Flags().StringP("file", "f", "", "Notebook path relative to the workspace (required)")
	cmd.Flags().IntP("cell", "c", 0, "Cell index")
	cmd.Flags().StringP("prompt", "p", "", "Edit instruction (required)")
	cmd.Flags().String("lines", "", "Explicit line range, e.g. 4 or 3-5")
	cmd.Flags().String("exec-output", "", "Execution output for prompt grounding")
	cmd.Flags().Bool("checkpoint", false, "Commit the notebook after a saved edit")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("prompt")

	return cmd
}

// runEdit executes the edit.
func runEdit(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	cell, _ := cmd.Flags().GetInt("cell")
	prompt, _ := cmd.Flags().GetString("prompt")
	lines, _ := cmd.Flags().GetString("lines")
	execOutput, _ := cmd.Flags().GetString("exec-output")
	checkpoint, _ := cmd.Flags().GetBool("checkpoint")

	startLine, endLine, err := parseLineRange(lines)
	if err != nil {
		return err
	}

	log, err := buildLogger()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	sink := newTerminalSink(os.Stdout)

	svc, err := nbedit.New(nbedit.Config{
		WorkDir:        viper.GetString("workdir"),
		Model:          viper.GetString("model"),
		Region:         viper.GetString("region"),
		Profile:        viper.GetString("profile"),
		ConversationID: viper.GetString("conversation"),
		RuffPath:       viper.GetString("ruff"),
		PolicyPath:     viper.GetString("policy"),
		MaxTokens:      viper.GetInt("max-tokens"),
		Checkpoint:     checkpoint,
		Sink:           sink,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	result, err := svc.Edit(ctx, nbedit.EditRequest{
		File:            file,
		Cell:            cell,
		Instruction:     prompt,
		StartLine:       startLine,
		EndLine:         endLine,
		ExecutionOutput: execOutput,
	})
	if err != nil {
		return err
	}
	if result.Aborted {
		return fmt.Errorf("edit aborted: %w", result.Err)
	}
	if !result.Saved {
		return fmt.Errorf("edit was not saved")
	}
	return nil
}

// parseLineRange parses "4" or "3-5" into a 1-based inclusive range.
// An empty input yields (0, 0), meaning resolve from the instruction.
func parseLineRange(s string) (start, end int, err error) {
	if s == "" {
		return 0, 0, nil
	}

	parts := strings.SplitN(s, "-", 2)
	start, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || start < 1 {
		return 0, 0, fmt.Errorf("invalid line range %q", s)
	}

	end = start
	if len(parts) == 2 {
		end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || end < start {
			return 0, 0, fmt.Errorf("invalid line range %q", s)
		}
	}

	return start, end, nil
}

// newUndoCmd creates the "undo" command.
func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the last nb-coder checkpoint",
		Long:  "Undo performs a soft reset of the last commit if it is an nb-coder checkpoint.",
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir := viper.GetString("workdir")

			repo, err := gitpkg.Open(gitpkg.Config{WorkDir: workDir})
			if err != nil {
				return fmt.Errorf("opening repository: %w", err)
			}

			if err := repo.Undo(); err != nil {
				return fmt.Errorf("undo failed: %w", err)
			}

			fmt.Println("Reverted the last nb-coder checkpoint.")
			return nil
		},
	}
}
