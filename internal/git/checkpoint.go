// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd009-git-checkpoint R1, R3.
package git

import (
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	authorName  = "nb-coder"
	authorEmail = "noreply@nb-coder"
)

// Checkpoint stages only the edited notebook file and commits it with a
// generated message carrying the checkpoint trailer. The path must be
// relative to the repository root.
//
// Implements: prd009-git-checkpoint R1.2-R1.4.
func (r *Repo) Checkpoint(notebookPath string, cellIndex int, instruction string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	if _, err := wt.Add(notebookPath); err != nil {
		return fmt.Errorf("staging %s: %w", notebookPath, err)
	}

	msg := BuildMessage(notebookPath, cellIndex, instruction)

	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("committing checkpoint: %w", err)
	}

	return nil
}

// Undo reverts the last commit if it is an nb-coder checkpoint. Uses a
// soft reset to the parent so the edited notebook stays in the working
// tree.
//
// Implements: prd009-git-checkpoint R3.1-R3.4.
func (r *Repo) Undo() error {
	isCheckpoint, err := r.IsCheckpoint()
	if err != nil {
		return err
	}
	if !isCheckpoint {
		return ErrNotCheckpoint
	}

	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD: %w", err)
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return fmt.Errorf("getting commit: %w", err)
	}

	if commit.NumParents() == 0 {
		return fmt.Errorf("cannot undo: HEAD is the initial commit")
	}

	parent, err := commit.Parent(0)
	if err != nil {
		return fmt.Errorf("getting parent commit: %w", err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	err = wt.Reset(&gogit.ResetOptions{
		Commit: parent.Hash,
		Mode:   gogit.SoftReset,
	})
	if err != nil {
		return fmt.Errorf("resetting to parent: %w", err)
	}

	return nil
}
