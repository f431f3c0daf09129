// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package session scopes edit activity to a workspace+conversation pair
// and persists per-scope edit transcripts. Transcripts are advisory:
// losing one never affects edit correctness.
// Implements: prd010-sessions R1-R3.
package session

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ScopeID derives a stable identifier for a workspace+conversation pair.
// The same inputs always produce the same ID, so generation calls and
// lint-cache entries correlate across turns of the same conversation.
//
// Implements: prd010-sessions R1.1-R1.2.
func ScopeID(workspace, conversationID string) string {
	h := sha256.New()
	h.Write([]byte(workspace))
	h.Write([]byte{0})
	h.Write([]byte(conversationID))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// EditRecord is one line of a session transcript.
type EditRecord struct {
	Time        time.Time `json:"time"`
	File        string    `json:"file"`
	CellIndex   int       `json:"cellIndex"`
	Instruction string    `json:"instruction"`
	StartLine   int       `json:"startLine"`
	EndLine     int       `json:"endLine"`
	LinesBefore int       `json:"linesBefore"`
	LinesAfter  int       `json:"linesAfter"`
	Saved       bool      `json:"saved"`
	Issues      []string  `json:"issues,omitempty"`
}

// Info describes a stored transcript.
type Info struct {
	ScopeID     string
	ModTime     time.Time
	RecordCount int
}

// Manager stores one JSONL transcript per scope ID.
type Manager struct {
	baseDir string
}

// NewManager creates a manager rooted at ~/.nb-coder/sessions.
func NewManager() (*Manager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	return NewManagerAt(filepath.Join(homeDir, ".nb-coder", "sessions"))
}

// NewManagerAt creates a manager rooted at an explicit directory.
func NewManagerAt(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sessions directory %s: %w", dir, err)
	}
	return &Manager{baseDir: dir}, nil
}

// Append adds records to the transcript for the given scope.
func (m *Manager) Append(scopeID string, records ...EditRecord) error {
	path := m.transcriptPath(scopeID)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening transcript %s: %w", path, err)
	}
	defer file.Close()

	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encoding transcript record: %w", err)
		}
		if _, err := file.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing transcript %s: %w", path, err)
		}
	}

	return nil
}

// Load reads the transcript for the given scope. A missing transcript
// returns an empty slice.
func (m *Manager) Load(scopeID string) ([]EditRecord, error) {
	path := m.transcriptPath(scopeID)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening transcript %s: %w", path, err)
	}
	defer file.Close()

	var records []EditRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record EditRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("parsing transcript record: %w", err)
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript %s: %w", path, err)
	}

	return records, nil
}

// List returns stored transcripts sorted by modification time, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}

	var sessions []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		scopeID := strings.TrimSuffix(entry.Name(), ".jsonl")
		records, err := m.Load(scopeID)
		count := 0
		if err == nil {
			count = len(records)
		}

		sessions = append(sessions, Info{
			ScopeID:     scopeID,
			ModTime:     info.ModTime(),
			RecordCount: count,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ModTime.After(sessions[j].ModTime)
	})

	return sessions, nil
}

// Prune deletes transcripts not modified within maxAge and returns how
// many were removed.
func (m *Manager) Prune(maxAge time.Duration) (int, error) {
	sessions, err := m.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, s := range sessions {
		if s.ModTime.After(cutoff) {
			continue
		}
		if err := os.Remove(m.transcriptPath(s.ScopeID)); err != nil {
			return removed, fmt.Errorf("pruning transcript %s: %w", s.ScopeID, err)
		}
		removed++
	}

	return removed, nil
}

func (m *Manager) transcriptPath(scopeID string) string {
	return filepath.Join(m.baseDir, scopeID+".jsonl")
}
