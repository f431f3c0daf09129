// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd006-lint-engine R3 (syntax pre-check).
package lint

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// HasSyntaxError parses the snippet with the tree-sitter python grammar
// and reports whether the parse tree contains error nodes. Used to confirm
// a reported syntax error before escalating to the LLM repair pass, and to
// detect syntax errors on the degraded path when ruff is unavailable.
func HasSyntaxError(ctx context.Context, code string) (bool, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, []byte(code))
	if err != nil {
		return false, err
	}
	defer tree.Close()

	return tree.RootNode().HasError(), nil
}
