// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package diff computes minimal line-level edit scripts and renders them
// as unified-diff-like text blocks.
// Implements: prd002-line-diff R1, R2;
//
//	docs/ARCHITECTURE § Line-Diff Engine.
package diff

import "github.com/petar-djukic/nb-coder/pkg/types"

// Compute returns the shortest edit script between two line sequences using
// the Myers O(ND) algorithm. When several minimal scripts exist, insertions
// are preferred over deletions at each branch point (the standard Myers
// tie-break: k == -d, or v[k-1] < v[k+1]).
//
// Implements: prd002-line-diff R1.1-R1.4.
func Compute(oldLines, newLines []string) []types.DiffOp {
	n := len(oldLines)
	m := len(newLines)
	if n == 0 && m == 0 {
		return nil
	}

	max := n + m
	// v[max+k] holds the furthest x on diagonal k.
	v := make([]int, 2*max+1)
	var trace [][]int

	depth := -1
search:
	for d := 0; d <= max; d++ {
		snapshot := make([]int, len(v))
		copy(snapshot, v)
		trace = append(trace, snapshot)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[max+k-1] < v[max+k+1]) {
				// Insertion: step down from diagonal k+1.
				x = v[max+k+1]
			} else {
				// Deletion: step right from diagonal k-1.
				x = v[max+k-1] + 1
			}
			y := x - k

			// Extend greedily along the matching diagonal run.
			for x < n && y < m && oldLines[x] == newLines[y] {
				x++
				y++
			}
			v[max+k] = x

			if x >= n && y >= m {
				depth = d
				break search
			}
		}
	}

	return backtrack(oldLines, newLines, trace, depth, max)
}

// backtrack walks the recorded frontier snapshots from (n, m) back to
// (0, 0), emitting ops in reverse, then reverses them into original order.
func backtrack(oldLines, newLines []string, trace [][]int, depth, max int) []types.DiffOp {
	n := len(oldLines)
	m := len(newLines)

	var ops []types.DiffOp
	x, y := n, m

	for d := depth; d > 0; d-- {
		prev := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && prev[max+k-1] < prev[max+k+1]) {
			prevK = k + 1 // Came via an insertion
		} else {
			prevK = k - 1 // Came via a deletion
		}
		prevX := prev[max+prevK]
		prevY := prevX - prevK

		// Unwind the snake.
		for x > prevX && y > prevY {
			ops = append(ops, types.DiffOp{Kind: types.DiffEqual, Text: oldLines[x-1]})
			x--
			y--
		}

		if prevK == k+1 {
			ops = append(ops, types.DiffOp{Kind: types.DiffInsert, Text: newLines[y-1]})
		} else {
			ops = append(ops, types.DiffOp{Kind: types.DiffDelete, Text: oldLines[x-1]})
		}
		x, y = prevX, prevY
	}

	// Leading matching run before the first edit.
	for x > 0 {
		ops = append(ops, types.DiffOp{Kind: types.DiffEqual, Text: oldLines[x-1]})
		x--
		y--
	}

	// Reverse into original order.
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}
