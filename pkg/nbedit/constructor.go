// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd001-edit-service R7 (construction and wiring).
package nbedit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/petar-djukic/nb-coder/internal/editor"
	gitpkg "github.com/petar-djukic/nb-coder/internal/git"
	"github.com/petar-djukic/nb-coder/internal/lint"
	"github.com/petar-djukic/nb-coder/internal/lintcache"
	"github.com/petar-djukic/nb-coder/internal/llm"
	"github.com/petar-djukic/nb-coder/internal/notebook"
	"github.com/petar-djukic/nb-coder/internal/session"
)

const (
	defaultMaxTokens  = 4096
	defaultLLMTimeout = 5 * time.Minute
)

// New validates the config, initializes the LLM client, and wires the edit
// pipeline into a ready-to-use Service.
func New(cfg Config) (Service, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	applyDefaults(&cfg)
	log := cfg.Logger

	policy := lint.DefaultPolicy()
	if cfg.PolicyPath != "" {
		loaded, err := lint.LoadPolicy(cfg.PolicyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: loading policy: %v", ErrInvalidConfig, err)
		}
		policy = loaded
	}

	client, err := llm.NewClient(context.Background(), llm.ClientConfig{
		ModelID:   cfg.Model,
		Region:    cfg.Region,
		Profile:   cfg.Profile,
		Timeout:   defaultLLMTimeout,
		MaxTokens: cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMFailure, err)
	}

	store := notebook.NewStore(log)
	cache := lintcache.New(policy.CacheTTL(), policy.CacheCapacity, log)
	engine := lint.NewEngine(&lint.RuffLinter{Executable: cfg.RuffPath}, client, cache, policy, log)
	orch := editor.New(store, client, engine, cfg.Sink, policy, log)

	// Transcripts are advisory; a manager that cannot be created is
	// dropped rather than failing construction.
	sessions, err := session.NewManager()
	if err != nil {
		log.Warn("session transcripts disabled", zap.Error(err))
		sessions = nil
	}

	return &service{
		cfg:      cfg,
		orch:     orch,
		sessions: sessions,
		scopeID:  session.ScopeID(cfg.WorkDir, cfg.ConversationID),
		log:      log,
	}, nil
}

// service adapts the internal orchestrator to the public Service interface.
type service struct {
	cfg      Config
	orch     *editor.Orchestrator
	sessions *session.Manager
	scopeID  string
	log      *zap.Logger
}

func (s *service) Edit(ctx context.Context, req EditRequest) (*Result, error) {
	if req.File == "" {
		return nil, fmt.Errorf("%w: File is required", ErrInvalidConfig)
	}
	if req.Instruction == "" {
		return nil, fmt.Errorf("%w: Instruction is required", ErrInvalidConfig)
	}

	er, err := s.orch.Edit(ctx, editor.EditRequest{
		FilePath:        filepath.Join(s.cfg.WorkDir, req.File),
		CellIndex:       req.Cell,
		Instruction:     req.Instruction,
		StartLine:       req.StartLine,
		EndLine:         req.EndLine,
		ExecutionOutput: req.ExecutionOutput,
		ScopeID:         s.scopeID,
	})
	if err != nil {
		return nil, err
	}

	result := convertResult(er)

	s.record(req, er)

	if er.Saved && s.cfg.Checkpoint {
		s.checkpoint(req, er)
	}

	return result, nil
}

func (s *service) Undo() error {
	repo, err := gitpkg.Open(gitpkg.Config{WorkDir: s.cfg.WorkDir})
	if err != nil {
		return err
	}
	return repo.Undo()
}

// record appends the edit to the session transcript, best effort.
func (s *service) record(req EditRequest, er *editor.EditResult) {
	if s.sessions == nil || er.State == editor.StateAborted {
		return
	}

	var issues []string
	if er.LintResult != nil {
		issues = er.LintResult.Issues
	}

	err := s.sessions.Append(s.scopeID, session.EditRecord{
		Time:        time.Now(),
		File:        req.File,
		CellIndex:   req.Cell,
		Instruction: req.Instruction,
		StartLine:   er.Selection.StartLine,
		EndLine:     er.Selection.EndLine,
		LinesBefore: er.LinesBefore,
		LinesAfter:  er.LinesAfter,
		Saved:       er.Saved,
		Issues:      issues,
	})
	if err != nil {
		s.log.Warn("transcript append failed", zap.Error(err))
	}
}

// checkpoint commits the edited notebook. Failures are advisory.
func (s *service) checkpoint(req EditRequest, er *editor.EditResult) {
	repo, err := gitpkg.Open(gitpkg.Config{WorkDir: s.cfg.WorkDir})
	if err != nil {
		s.cfg.Sink.Advisory(fmt.Sprintf("Checkpoint skipped: %v.", err))
		return
	}

	if dirty, err := repo.IsDirty(); err == nil && dirty {
		s.cfg.Sink.Advisory("Workspace has other uncommitted changes; the checkpoint includes only the notebook.")
	}

	if err := repo.Checkpoint(req.File, req.Cell, req.Instruction); err != nil {
		s.cfg.Sink.Advisory(fmt.Sprintf("Checkpoint failed: %v.", err))
		return
	}
	s.cfg.Sink.Advisory("Checkpoint committed. Use undo to revert it.")
}

func convertResult(er *editor.EditResult) *Result {
	result := &Result{
		Saved:       er.Saved,
		Aborted:     er.State == editor.StateAborted,
		StartLine:   er.Selection.StartLine,
		EndLine:     er.Selection.EndLine,
		LinesBefore: er.LinesBefore,
		LinesAfter:  er.LinesAfter,
		Diff:        er.Diff,
		TokensUsed:  er.Usage,
		Err:         er.Err,
	}
	if er.LintResult != nil {
		result.Issues = er.LintResult.Issues
		result.Warnings = er.LintResult.Warnings
	}
	return result
}

// validateConfig checks that required fields are present.
func validateConfig(cfg Config) error {
	if cfg.WorkDir == "" {
		return fmt.Errorf("WorkDir is required")
	}
	if info, err := os.Stat(cfg.WorkDir); err != nil || !info.IsDir() {
		return fmt.Errorf("WorkDir %q does not exist or is not a directory", cfg.WorkDir)
	}
	if cfg.Model == "" {
		return fmt.Errorf("Model is required")
	}
	if cfg.Region == "" {
		return fmt.Errorf("Region is required")
	}
	if cfg.Sink == nil {
		return fmt.Errorf("Sink is required")
	}
	return nil
}

// applyDefaults fills in zero-value fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.ConversationID == "" {
		cfg.ConversationID = "default"
	}
	if cfg.RuffPath == "" {
		cfg.RuffPath = "ruff"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}
