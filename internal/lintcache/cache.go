// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lintcache avoids redundant lint passes for byte-identical code
// within a session. It is not a correctness mechanism: a miss always falls
// through to a real lint pass, so staleness can only cost redundant work.
// Implements: prd007-lint-cache R1, R2;
//
//	docs/ARCHITECTURE § Lint Result Cache.
package lintcache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/petar-djukic/nb-coder/pkg/types"
)

const (
	// DefaultTTL bounds how long an entry is served after insertion.
	DefaultTTL = 15 * time.Second
	// DefaultCapacity bounds the number of live entries.
	DefaultCapacity = 64
)

type entry struct {
	result     *types.AutoFixResult
	insertedAt time.Time
}

// Cache is a content-addressed, TTL-bounded result cache with
// oldest-insertion eviction. It is explicitly constructed and injected by
// whatever composes the edit service; there is no package-level instance.
// The single-threaded event model of the edit pipeline means check-and-set
// is never interleaved, so no lock is taken.
type Cache struct {
	ttl      time.Duration
	capacity int
	entries  map[string]entry
	order    []string // Keys in insertion order, oldest first
	log      *zap.Logger

	now func() time.Time // Test hook
}

// New creates a Cache. Non-positive ttl or capacity select the defaults.
func New(ttl time.Duration, capacity int, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]entry),
		log:      log,
		now:      time.Now,
	}
}

// Key returns the content address of a code string.
func Key(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for byte-identical code, or nil. Entries
// older than the TTL are treated as absent and dropped.
//
// Implements: prd007-lint-cache R1.2, R1.3.
func (c *Cache) Get(code string) *types.AutoFixResult {
	key := Key(code)
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		c.remove(key)
		return nil
	}
	return e.result
}

// Put stores a result under the code's content address, evicting the
// oldest insertion when the capacity ceiling is reached.
//
// Implements: prd007-lint-cache R1.1, R2.1.
func (c *Cache) Put(code string, result *types.AutoFixResult) {
	key := Key(code)

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.capacity {
			oldest := c.order[0]
			c.remove(oldest)
			c.log.Debug("lint cache evicted oldest entry", zap.String("key", oldest))
		}
		c.order = append(c.order, key)
	}

	c.entries[key] = entry{result: result, insertedAt: c.now()}
}

// Len reports the number of live entries (including not-yet-expired ones).
func (c *Cache) Len() int {
	return len(c.entries)
}

func (c *Cache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
