// Package analyzer implements the second semantic pass described in
// spec.md §4.3-§4.5: resolving types, names, and overloads over the body
// fragments the hoist phase deferred, emitting diagnostics and complement
// hints along the way.
package analyzer

import (
	"github.com/carn181/angelscript-lsp/internal/diagnostics"
	"github.com/carn181/angelscript-lsp/internal/hints"
	"github.com/carn181/angelscript-lsp/internal/hoist"
	"github.com/carn181/angelscript-lsp/internal/symbol"
)

// Result is the higher-level wrapper a per-file analysis run produces,
// combining the global scope (owned by symbol), complement hints (owned
// by hints), and diagnostics (owned by diagnostics). spec.md §3 lists
// complement-hint and scope-region lists as "global-only extras kept on
// the root" scope; they live here instead, one layer above symbol.Scope,
// so internal/symbol never has to import internal/hints — hints values
// reference symbol.ResolvedType and symbol.ScopePath, and a Scope-owned
// hint list would need the reverse import, a cycle. Reference entries
// alone (which need no hints types) stay on symbol.GlobalScope as spec'd.
type Result struct {
	Global      *symbol.GlobalScope
	Hints       *hints.List
	Diagnostics []diagnostics.Diagnostic
}

// Run drains hctx's analyze queue (populated by a prior hoist pass) and
// returns the combined result. The caller (internal/workspace) is
// responsible for having already run hoist over hctx and for linking the
// file's root scope under the global scope.
func Run(hctx *hoist.Context) *Result {
	actx := &Context{Hoist: hctx, Hints: hints.NewList()}
	Drain(actx)
	return &Result{
		Global:      hctx.Global,
		Hints:       actx.Hints,
		Diagnostics: hctx.Diags.Items(),
	}
}
