// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd006-lint-engine R6 (policy constants);
//
//	docs/ARCHITECTURE § Lint/Auto-Fix Engine.
package lint

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy holds the tuned thresholds of the validation pipeline. These are
// performance/quality trade-offs, not correctness invariants; deployments
// may retune them via a YAML policy file.
type Policy struct {
	// SmallEditMaxLines: edits where both the original and replacement
	// span at most this many lines may skip linting entirely.
	SmallEditMaxLines int `yaml:"small_edit_max_lines"`
	// SmallEditMaxDelta: character-level edit distance ceiling for the
	// small-edit lint skip.
	SmallEditMaxDelta int `yaml:"small_edit_max_delta"`
	// EscalationMaxLines: snippets longer than this never escalate to the
	// LLM repair pass.
	EscalationMaxLines int `yaml:"escalation_max_lines"`
	// CacheTTLSeconds bounds how long a lint result is reused.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
	// CacheCapacity bounds the lint cache entry count.
	CacheCapacity int `yaml:"cache_capacity"`
}

// CacheTTL returns the cache TTL as a duration.
func (p Policy) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSeconds) * time.Second
}

// DefaultPolicy returns the observed production defaults.
func DefaultPolicy() Policy {
	return Policy{
		SmallEditMaxLines:  2,
		SmallEditMaxDelta:  80,
		EscalationMaxLines: 400,
		CacheTTLSeconds:    15,
		CacheCapacity:      64,
	}
}

// LoadPolicy reads a YAML policy file over the defaults. A missing path
// returns the defaults unchanged.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("reading policy file: %w", err)
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return DefaultPolicy(), fmt.Errorf("parsing policy file %s: %w", path, err)
	}

	// Zero values from a sparse file fall back to defaults.
	d := DefaultPolicy()
	if p.SmallEditMaxLines <= 0 {
		p.SmallEditMaxLines = d.SmallEditMaxLines
	}
	if p.SmallEditMaxDelta <= 0 {
		p.SmallEditMaxDelta = d.SmallEditMaxDelta
	}
	if p.EscalationMaxLines <= 0 {
		p.EscalationMaxLines = d.EscalationMaxLines
	}
	if p.CacheTTLSeconds <= 0 {
		p.CacheTTLSeconds = d.CacheTTLSeconds
	}
	if p.CacheCapacity <= 0 {
		p.CacheCapacity = d.CacheCapacity
	}

	return p, nil
}
