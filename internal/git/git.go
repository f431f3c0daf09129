// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package git checkpoints notebook edits: after a successful edit the
// notebook file can be committed with an identifying trailer, and the
// last such checkpoint can be undone without losing the working tree.
// Implements: prd009-git-checkpoint R1, R2, R3.
package git

import (
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const checkpointTrailer = "Checkpointed-By: nb-coder <noreply@nb-coder>"

// ErrNotCheckpoint is returned when undo targets a commit that is not an
// nb-coder checkpoint.
var ErrNotCheckpoint = errors.New("not an nb-coder checkpoint")

// ErrNoGit is returned when the workspace is not a git repository.
var ErrNoGit = errors.New("not a git repository")

// Config configures checkpointing behavior.
type Config struct {
	WorkDir string // Repository working directory
}

// Repo wraps a go-git repository for the operations we need.
type Repo struct {
	repo *gogit.Repository
	cfg  Config
}

// Open opens an existing git repository at the configured work directory.
// Returns ErrNoGit if the directory is not a git repository.
//
// Implements: prd009-git-checkpoint R1.1.
func Open(cfg Config) (*Repo, error) {
	r, err := gogit.PlainOpen(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	return &Repo{repo: r, cfg: cfg}, nil
}

// IsDirty returns true if the working tree has uncommitted changes
// (either staged or unstaged). Checkpoints stage only the notebook file,
// so callers use this to warn about unrelated changes.
func (r *Repo) IsDirty() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("getting status: %w", err)
	}

	return !status.IsClean(), nil
}

// IsCheckpoint checks whether the HEAD commit is an nb-coder checkpoint
// by looking for the identifying trailer.
//
// Implements: prd009-git-checkpoint R3.1.
func (r *Repo) IsCheckpoint() (bool, error) {
	head, err := r.repo.Head()
	if err != nil {
		return false, fmt.Errorf("getting HEAD: %w", err)
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return false, fmt.Errorf("getting commit: %w", err)
	}

	return strings.Contains(commit.Message, checkpointTrailer), nil
}

// lastCommitMessage returns the message of the HEAD commit.
func (r *Repo) lastCommitMessage() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", err
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", err
	}
	return commit.Message, nil
}

// commitCount returns the total number of commits reachable from HEAD.
func (r *Repo) commitCount() (int, error) {
	iter, err := r.repo.Log(&gogit.LogOptions{})
	if err != nil {
		return 0, err
	}
	count := 0
	err = iter.ForEach(func(c *object.Commit) error {
		count++
		return nil
	})
	return count, err
}
