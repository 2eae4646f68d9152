package workspace

import (
	"github.com/carn181/angelscript-lsp/internal/analyzer"
	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/diagnostics"
)

// PartialInspectRecord is the per-file state the resolver maintains,
// exactly the fields spec.md §4.6 names.
type PartialInspectRecord struct {
	URI                string
	IsOpen             bool
	ParserDiagnostics  []diagnostics.Diagnostic
	AnalyzerDiagnostics []diagnostics.Diagnostic
	Tokens             []ast.Token
	PreprocessedOutput string
	AST                *ast.Script
	AnalyzerResult      *analyzer.Result
	PendingTask        bool
	Includes           []string // resolved include paths, extracted from the AST plus implicit-mutual-inclusion
}

// PublishedDiagnostics returns the union of parser and analyzer
// diagnostics, downgraded to warnings if settings ask for it — spec.md
// §5 invariant 4: "published atomically... in one call".
func (r *PartialInspectRecord) PublishedDiagnostics(suppressAnalyzerErrors bool) []diagnostics.Diagnostic {
	analyzerDiags := r.AnalyzerDiagnostics
	if suppressAnalyzerErrors {
		analyzerDiags = diagnostics.Downgrade(analyzerDiags)
	}
	out := make([]diagnostics.Diagnostic, 0, len(r.ParserDiagnostics)+len(analyzerDiags))
	out = append(out, r.ParserDiagnostics...)
	out = append(out, analyzerDiags...)
	return out
}
