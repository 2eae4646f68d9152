package workspace

import (
	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/diagnostics"
)

// ParseResult is what the tokenizer/parser pipeline hands back for one
// file's content — spec.md §1 lists both as external collaborators this
// module consumes rather than implements.
type ParseResult struct {
	Tokens      []ast.Token
	Diagnostics []diagnostics.Diagnostic
	AST         *ast.Script
}

// Parser is the seam the resolver calls through to turn source text into
// an AST. Production wiring (main.go) supplies a Parser backed by
// preprocess.Scan, which extracts #include directives only; tests supply a Parser backed by hand-built struct literals, exactly as
// SPEC_FULL.md's test plan describes.
type Parser interface {
	Parse(uri string, content string) ParseResult
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(uri string, content string) ParseResult

func (f ParserFunc) Parse(uri string, content string) ParseResult { return f(uri, content) }
