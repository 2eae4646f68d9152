// Package hints holds the per-file complement data the analyzer records
// as a side effect of analysis: seeds for completion, signature help,
// inlay hints, and go-to-definition that would otherwise require
// re-walking the AST on every editor request. Each hint is produced once,
// at the point during analysis where the relevant context (the scope in
// play, the expected type, the overload set) is already at hand.
package hints

import (
	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/symbol"
)

// Kind discriminates the five hint variants spec §5 names.
type Kind int

const (
	KindAutocompleteInstanceMember Kind = iota
	KindAutocompleteNamespaceAccess
	KindFunctionCall
	KindAutoTypeResolution
	KindScopeRegion
)

// Hint is a tagged union over the five complement-hint variants. Like
// symbol.Symbol, this is modeled as one struct multiplexed by Kind rather
// than five interfaces, since consumers (the completion and signature-help
// handlers) almost always need to type-switch on Kind immediately anyway.
type Hint struct {
	Kind  Kind
	Range ast.Range // the trigger span: from the '.' to the member identifier for member access, the qualifying identifier for namespace access, the whole call expression for a call, etc.

	// --- AutocompleteInstanceMember ---
	MemberTarget symbol.ResolvedType // type whose members should be offered

	// --- AutocompleteNamespaceAccess ---
	NamespacePath symbol.ScopePath // scope whose direct symbol-table entries should be offered

	// --- FunctionCall ---
	Candidates  []*symbol.Symbol // the overload set in scope at the call site, for signature help
	ActiveParam int              // which parameter index the cursor currently sits in

	// --- AutoTypeResolution ---
	InferredType symbol.ResolvedType // the type substituted for an `auto` declaration, for inlay hints

	// --- ScopeRegion ---
	RegionPath symbol.ScopePath // the scope a Range belongs to, for hover and "smallest enclosing scope" queries
}

// InstanceMember builds an AutocompleteInstanceMember hint.
func InstanceMember(r ast.Range, target symbol.ResolvedType) Hint {
	return Hint{Kind: KindAutocompleteInstanceMember, Range: r, MemberTarget: target}
}

// NamespaceAccess builds an AutocompleteNamespaceAccess hint.
func NamespaceAccess(r ast.Range, path symbol.ScopePath) Hint {
	return Hint{Kind: KindAutocompleteNamespaceAccess, Range: r, NamespacePath: path}
}

// Call builds a FunctionCall hint.
func Call(r ast.Range, candidates []*symbol.Symbol, activeParam int) Hint {
	return Hint{Kind: KindFunctionCall, Range: r, Candidates: candidates, ActiveParam: activeParam}
}

// AutoType builds an AutoTypeResolution hint.
func AutoType(r ast.Range, inferred symbol.ResolvedType) Hint {
	return Hint{Kind: KindAutoTypeResolution, Range: r, InferredType: inferred}
}

// ScopeRegionHint builds a ScopeRegion hint.
func ScopeRegionHint(r ast.Range, path symbol.ScopePath) Hint {
	return Hint{Kind: KindScopeRegion, Range: r, RegionPath: path}
}

// List is an ordered collection of hints with a narrow query surface: find
// whatever hint(s) cover a given position. Hints are appended in the order
// analysis discovers them, then queried by position, so a simple linear
// scan (rather than an interval tree) is adequate at single-file scale.
type List struct {
	items []Hint
}

// NewList returns an empty hint list.
func NewList() *List { return &List{} }

// Add appends h.
func (l *List) Add(h Hint) { l.items = append(l.items, h) }

// At returns every hint whose Range contains pos, in recording order.
func (l *List) At(pos ast.Position) []Hint {
	var out []Hint
	for _, h := range l.items {
		if h.Range.ContainsPosition(pos) {
			out = append(out, h)
		}
	}
	return out
}

// OfKind returns every hint of the given kind, in recording order.
func (l *List) OfKind(k Kind) []Hint {
	var out []Hint
	for _, h := range l.items {
		if h.Kind == k {
			out = append(out, h)
		}
	}
	return out
}

// Items returns every recorded hint.
func (l *List) Items() []Hint { return l.items }

// EnclosingScopeRegion returns the RegionPath of the innermost
// ScopeRegion hint covering pos, i.e. the match whose Range lies inside
// the others'; on equal ranges the later-recorded hint wins.
func (l *List) EnclosingScopeRegion(pos ast.Position) (symbol.ScopePath, bool) {
	regions := l.At(pos)
	var best symbol.ScopePath
	var bestRange ast.Range
	found := false
	for _, h := range regions {
		if h.Kind == KindScopeRegion && (!found || bestRange.Contains(h.Range)) {
			best = h.RegionPath
			bestRange = h.Range
			found = true
		}
	}
	return best, found
}
