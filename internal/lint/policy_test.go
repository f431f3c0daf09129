// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package lint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 2, p.SmallEditMaxLines)
	assert.Equal(t, 80, p.SmallEditMaxDelta)
	assert.Equal(t, 400, p.EscalationMaxLines)
	assert.Equal(t, 15*time.Second, p.CacheTTL())
	assert.Equal(t, 64, p.CacheCapacity)
}

func TestLoadPolicy_MissingFileReturnsDefaults(t *testing.T) {
	p, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), p)
}

func TestLoadPolicy_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("escalation_max_lines: 100\ncache_ttl_seconds: 30\n"), 0o644))

	p, err := LoadPolicy(path)

	require.NoError(t, err)
	assert.Equal(t, 100, p.EscalationMaxLines)
	assert.Equal(t, 30*time.Second, p.CacheTTL())
	assert.Equal(t, 2, p.SmallEditMaxLines, "unset fields keep defaults")
}

func TestLoadPolicy_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))

	p, err := LoadPolicy(path)

	assert.Error(t, err)
	assert.Equal(t, DefaultPolicy(), p, "malformed file falls back to defaults")
}
