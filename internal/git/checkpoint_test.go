// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpoint_CommitsOnlyTheNotebook(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	// Edit the notebook and also leave an unrelated dirty file behind.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "analysis.ipynb"), []byte(`{"cells": [{}], "nbformat": 4}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("wip"), 0o644))

	require.NoError(t, repo.Checkpoint("analysis.ipynb", 0, "fix line 2 to set y to 5"))

	msg, err := repo.lastCommitMessage()
	require.NoError(t, err)
	assert.Contains(t, msg, "nb-coder: fix line 2 to set y to 5")
	assert.Contains(t, msg, checkpointTrailer)

	// The unrelated file is still uncommitted.
	dirty, err := repo.IsDirty()
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestCheckpoint_ThenUndo(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	edited := `{"cells": [{}], "nbformat": 4}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "analysis.ipynb"), []byte(edited), 0o644))
	require.NoError(t, repo.Checkpoint("analysis.ipynb", 0, "fix the loop"))

	before, err := repo.commitCount()
	require.NoError(t, err)

	require.NoError(t, repo.Undo())

	after, err := repo.commitCount()
	require.NoError(t, err)
	assert.Equal(t, before-1, after)

	// Soft reset keeps the edited content in the working tree.
	content, err := os.ReadFile(filepath.Join(dir, "analysis.ipynb"))
	require.NoError(t, err)
	assert.Equal(t, edited, string(content))
}

func TestUndo_RefusesForeignCommit(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	err = repo.Undo()
	assert.ErrorIs(t, err, ErrNotCheckpoint)
}

func TestUndo_RefusesInitialCommit(t *testing.T) {
	dir := t.TempDir()

	// A repo whose only commit carries the trailer.
	initRepoWithMessage(t, dir, "nb-coder: first\n\n"+checkpointTrailer)

	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	err = repo.Undo()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial commit")
}

func initRepoWithMessage(t *testing.T, dir, msg string) {
	t.Helper()

	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := r.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "analysis.ipynb"), []byte(`{"cells": []}`), 0o644))
	_, err = wt.Add("analysis.ipynb")
	require.NoError(t, err)

	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@test.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
}
