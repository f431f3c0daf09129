// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package notebook reads and writes Jupyter notebook files. The store
// exposes single-cell source access and replacement; everything else in
// the document is preserved byte-for-byte at the JSON value level.
// Implements: prd008-notebook-store R1-R4.
package notebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

var (
	// ErrCellNotFound indicates the cell index is out of range.
	ErrCellNotFound = errors.New("cell not found")
	// ErrMalformedNotebook indicates the file is not valid notebook JSON.
	ErrMalformedNotebook = errors.New("malformed notebook")
	// ErrLockTimeout is returned when the advisory file lock cannot be
	// acquired in time.
	ErrLockTimeout = errors.New("timeout acquiring notebook lock")
)

const (
	defaultLockTimeout = 5 * time.Second
	lockPollInterval   = 10 * time.Millisecond
)

// Store provides cell-level access to .ipynb files on disk. Writes are
// atomic and guarded by an OS-level advisory lock so a CLI invocation and
// a host application can safely touch the same file.
type Store struct {
	lockTimeout time.Duration
	log         *zap.Logger
}

// NewStore creates a notebook store. A nil logger defaults to a no-op.
func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{lockTimeout: defaultLockTimeout, log: log}
}

// CellSource returns the full source text of the cell at index.
//
// Implements: prd008-notebook-store R1.1-R1.3.
func (s *Store) CellSource(path string, index int) (string, error) {
	doc, err := readDocument(path)
	if err != nil {
		return "", err
	}

	cell, err := cellAt(doc, index)
	if err != nil {
		return "", fmt.Errorf("%w in %s", err, path)
	}

	return joinSource(cell["source"]), nil
}

// ReplaceCellSource replaces the source of the cell at index and writes
// the notebook back, preserving all unrelated fields. The write is atomic
// (temp file plus rename) and holds the advisory lock for the duration of
// the read-modify-write.
//
// Implements: prd008-notebook-store R2.1-R2.4, R3.1-R3.2.
func (s *Store) ReplaceCellSource(path string, index int, source string) error {
	lock, err := s.acquireLock(path)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	doc, err := readDocument(path)
	if err != nil {
		return err
	}

	cell, err := cellAt(doc, index)
	if err != nil {
		return fmt.Errorf("%w in %s", err, path)
	}
	cell["source"] = splitSource(source)

	data, err := json.MarshalIndent(doc, "", " ")
	if err != nil {
		return fmt.Errorf("encoding notebook %s: %w", path, err)
	}
	data = append(data, '\n')

	if err := atomicWrite(path, data); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	s.log.Debug("replaced cell source",
		zap.String("path", path),
		zap.Int("cell", index),
		zap.Int("bytes", len(source)))
	return nil
}

func (s *Store) acquireLock(path string) (*flock.Flock, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	fileLock := flock.New(path + ".lock")
	locked, err := fileLock.TryLockContext(ctx, lockPollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, path)
		}
		return nil, fmt.Errorf("acquiring lock for %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLockTimeout, path)
	}
	return fileLock, nil
}

// readDocument parses the notebook into a generic JSON document so unknown
// fields survive the round trip.
func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedNotebook, path, err)
	}
	return doc, nil
}

func cellAt(doc map[string]any, index int) (map[string]any, error) {
	cells, ok := doc["cells"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing cells array", ErrMalformedNotebook)
	}
	if index < 0 || index >= len(cells) {
		return nil, fmt.Errorf("%w: index %d of %d cells", ErrCellNotFound, index, len(cells))
	}
	cell, ok := cells[index].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: cell %d is not an object", ErrMalformedNotebook, index)
	}
	return cell, nil
}

// joinSource flattens a notebook source field. The format allows either a
// single string or an array of line strings.
func joinSource(source any) string {
	switch v := source.(type) {
	case string:
		return v
	case []any:
		var b strings.Builder
		for _, line := range v {
			if s, ok := line.(string); ok {
				b.WriteString(s)
			}
		}
		return b.String()
	default:
		return ""
	}
}

// splitSource converts source text back to the array-of-lines form, each
// line keeping its trailing newline, matching what Jupyter itself writes.
func splitSource(source string) []string {
	if source == "" {
		return []string{}
	}

	lines := strings.SplitAfter(source, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// atomicWrite writes data to a temp file in the same directory, then
// renames it to the target path. Preserves the original file permissions.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	f, err := os.CreateTemp(dir, ".nb-coder-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
