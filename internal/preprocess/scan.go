// Package preprocess is a minimal stand-in for the external tokenizer and
// grammar-driven parser spec.md §1 names as out-of-core collaborators: it
// recognizes only `#include "path"` directives, line by line, and hands
// back an otherwise-empty *ast.Script. Building a real AngelScript parser
// is an explicit non-goal (spec.md §1, SPEC_FULL.md §5); this package
// exists so internal/workspace has a real workspace.Parser to drive with
// when wired from main.go, instead of only from table-driven unit tests
// that build *ast.Script values by hand.
package preprocess

import (
	"strconv"
	"strings"

	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/diagnostics"
)

// ParseResult mirrors workspace.ParseResult without importing the
// workspace package, which instead accepts this package's Scan through
// its workspace.ParserFunc adapter.
type ParseResult struct {
	Tokens      []ast.Token
	Diagnostics []diagnostics.Diagnostic
	AST         *ast.Script
}

// Scan extracts every `#include "..."` directive from content and returns
// a *ast.Script containing only those, in source order. It never reports
// diagnostics of its own; unresolved includes are the workspace
// resolver's concern (spec.md §4.6).
func Scan(uri string, content string) ParseResult {
	var stmts []ast.Node
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#include") {
			continue
		}
		rest := strings.TrimSpace(trimmed[len("#include"):])
		path, ok := unquote(rest)
		if !ok {
			continue
		}
		lineNo := uint32(i)
		col := uint32(strings.Index(line, "#include"))
		rng := ast.Range{
			Start: ast.Position{Line: lineNo, Column: col},
			End:   ast.Position{Line: lineNo, Column: uint32(len(line))},
		}
		stmts = append(stmts, &ast.Include{
			PathToken: ast.Token{Text: rest, Range: rng},
			Path:      path,
		})
	}
	script := &ast.Script{Statements: stmts}
	return ParseResult{AST: script}
}

// unquote strips a single pair of leading/trailing double or angle quotes
// (AngelScript accepts both `"path"` and `<path>` include forms).
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	switch {
	case s[0] == '"' && s[len(s)-1] == '"':
		unq, err := strconv.Unquote(s)
		if err == nil {
			return unq, true
		}
		return s[1 : len(s)-1], true
	case s[0] == '<' && s[len(s)-1] == '>':
		return s[1 : len(s)-1], true
	default:
		return "", false
	}
}
