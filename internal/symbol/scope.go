package symbol

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/carn181/angelscript-lsp/internal/ast"
)

// Holder is the slot a Scope's symbol table maps an identifier to. It is
// either a SingleHolder (one Type or Variable symbol) or a FunctionHolder
// (an ordered overload list) — spec §3's "overload holders as a first
// class symbol" design note, modeled here as exactly that variant instead
// of a side table keyed by signature.
type Holder interface {
	holder()
	// Symbols returns every Symbol this holder aggregates, in declaration
	// order.
	Symbols() []*Symbol
}

// SingleHolder wraps exactly one Type or Variable symbol.
type SingleHolder struct {
	Sym *Symbol
}

func (SingleHolder) holder()              {}
func (h SingleHolder) Symbols() []*Symbol { return []*Symbol{h.Sym} }

// FunctionHolder is the ordered list of overloads sharing one identifier
// within a scope. Order is declaration order, since it is presented
// verbatim to completion/signature-help (spec §3).
type FunctionHolder struct {
	Overloads []*Symbol
}

func (FunctionHolder) holder()              {}
func (h FunctionHolder) Symbols() []*Symbol { return h.Overloads }

// Add appends a new overload in place.
func (h *FunctionHolder) Add(sym *Symbol) {
	h.Overloads = append(h.Overloads, sym)
}

// Reference is a resolvable weak handle from a use site to the symbol it
// names, expressed as a scope path plus identifier rather than a raw
// pointer — spec §3's design note that cross-pass references must survive
// a reanalysis that rebuilds the scope tree from scratch. Re-resolving a
// Reference after an edit is a lookup, never a dereference.
type Reference struct {
	FromFile  string    // URI of the file containing the use site
	FromRange ast.Range // the use-site span, for goto-references results
	ToPath    ScopePath // scope the target identifier is declared in (ToPath[1] is the declaring file's URI)
	ToIdent   string    // identifier looked up within ToPath
}

// Scope is one lexical scope: a symbol table, an ordered list of child
// scopes, and the source range it covers (for "smallest enclosing scope"
// lookups during hover/completion). SymbolTable uses an ordered map so
// iteration for completion candidates replays declaration order, exactly
// as AngelScript's own declare-before-use-adjacent diagnostics expect.
type Scope struct {
	Path     ScopePath
	Parent   *Scope // direct pointer; safe because it never crosses an analysis pass boundary
	Range    ast.Range
	IsFile   bool // true for the per-file root scope directly under the global scope
	Children *orderedmap.OrderedMap[string, *Scope]
	Table    *orderedmap.OrderedMap[string, Holder]

	// OwnerFunction is set on a function's body scope to the Function
	// symbol it belongs to, letting a `return` statement find its
	// enclosing signature without reconstructing it from the scope path.
	OwnerFunction *Symbol

	// Includes is set on file-root scopes (IsFile) by the workspace
	// resolver to the transitive closure of included files' root scopes
	// (spec.md §4.6: "collect include scopes ... of dependencies").
	// Unscoped lookup and scope-qualifier resolution both fall through to
	// it once the file's own table and parent chain are exhausted.
	Includes []*Scope
}

// SetIncludes replaces s's include-scope list wholesale. Called by the
// workspace resolver after (re)computing a file's transitive include
// closure; s must be a file-root scope.
func (s *Scope) SetIncludes(includes []*Scope) {
	s.Includes = includes
}

// ChildScopeDeep is ChildScope extended to fall through to include scopes
// when s is a file root, used while walking a `::`-qualified scope path
// (spec.md §4.3 step 2, §4.5 namespace access) so a name qualified from an
// included file's namespace still resolves.
func (s *Scope) ChildScopeDeep(ident string) (*Scope, bool) {
	if child, ok := s.Children.Get(ident); ok {
		return child, true
	}
	if s.IsFile {
		for _, inc := range s.Includes {
			if child, ok := inc.Children.Get(ident); ok {
				return child, true
			}
		}
	}
	return nil, false
}

// NewScope constructs an empty scope. If parent is non-nil the new scope
// is registered under ident in the parent's child-scope table.
func NewScope(parent *Scope, ident string, r ast.Range) *Scope {
	var path ScopePath
	if parent != nil {
		path = parent.Path.Child(ident)
	} else {
		path = ScopePath{ident}
	}
	s := &Scope{
		Path:     path,
		Parent:   parent,
		Range:    r,
		Children: orderedmap.New[string, *Scope](),
		Table:    orderedmap.New[string, Holder](),
	}
	if parent != nil {
		parent.Children.Set(ident, s)
	}
	return s
}

// InsertScope returns the existing child scope registered under ident if
// one is already present, else creates and links a new one — spec §4.1's
// "insert-scope(identifier, linked-node?) — return existing child if
// present ... else create." Used by the hoist phase wherever a named
// scope is legitimately revisited (a function's overloads sharing one
// holder scope, a namespace reopened across statements or files): an
// overwrite here would silently drop the earlier occurrence's subtree
// from the scope, orphaning anything resolved through it by path.
func (s *Scope) InsertScope(ident string, r ast.Range) *Scope {
	if existing, ok := s.Children.Get(ident); ok {
		return existing
	}
	return NewScope(s, ident, r)
}

// InsertScopeAndCheck behaves like InsertScope but reports whether a
// scope already existed under ident, for the few call sites — a type's
// own member scope — where reuse itself is the signal the hoist phase
// needs to reason about a redeclaration.
func (s *Scope) InsertScopeAndCheck(ident string, r ast.Range) (child *Scope, existed bool) {
	if prev, ok := s.Children.Get(ident); ok {
		return prev, true
	}
	return NewScope(s, ident, r), false
}

// InsertSymbol places sym into the table under ident, replacing whatever
// was there. Function symbols are aggregated into a FunctionHolder;
// non-function symbols replace any existing holder outright.
func (s *Scope) InsertSymbol(ident string, sym *Symbol) {
	if sym.Kind == KindFunction {
		if existing, ok := s.Table.Get(ident); ok {
			if fh, isFn := existing.(*FunctionHolder); isFn {
				fh.Add(sym)
				return
			}
		}
		s.Table.Set(ident, &FunctionHolder{Overloads: []*Symbol{sym}})
		return
	}
	s.Table.Set(ident, SingleHolder{Sym: sym})
}

// InsertSymbolAndCheck inserts sym and reports whether doing so collided
// with an existing non-function symbol under the same identifier — the
// hoist phase's DuplicateDeclaration trigger (spec §4.2). Function
// overloads never collide with each other by this check; overload
// ambiguity is instead a resolution-time concern (spec §4.4).
func (s *Scope) InsertSymbolAndCheck(ident string, sym *Symbol) (collided bool) {
	if existing, ok := s.Table.Get(ident); ok {
		_, existingIsFn := existing.(*FunctionHolder)
		if sym.Kind != KindFunction || !existingIsFn {
			s.InsertSymbol(ident, sym)
			return true
		}
	}
	s.InsertSymbol(ident, sym)
	return false
}

// LookupSymbol looks up ident in this scope only, without walking parents.
func (s *Scope) LookupSymbol(ident string) (Holder, bool) {
	return s.Table.Get(ident)
}

// LookupSymbolWithParent walks from s up through enclosing scopes,
// returning the first holder found and the scope that owns it. This is
// the ordinary unqualified-name lookup rule (spec §4.4).
func (s *Scope) LookupSymbolWithParent(ident string) (Holder, *Scope, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if h, ok := cur.Table.Get(ident); ok {
			return h, cur, true
		}
		if cur.IsFile {
			for _, inc := range cur.Includes {
				if h, ok := inc.Table.Get(ident); ok {
					return h, inc, true
				}
			}
		}
	}
	return nil, nil, false
}

// FindSymbolWithParent is LookupSymbolWithParent's read-only counterpart
// used by completion/hover, returning ok=false without distinguishing why
// (not found vs. shadowed) since callers only need existence plus value.
func (s *Scope) FindSymbolWithParent(ident string) (*Scope, Holder, bool) {
	h, owner, ok := s.LookupSymbolWithParent(ident)
	return owner, h, ok
}

// ChildScope returns the direct child scope registered under ident, if any.
func (s *Scope) ChildScope(ident string) (*Scope, bool) {
	return s.Children.Get(ident)
}

// Root walks up through Parent pointers to the global root scope.
func (s *Scope) Root() *Scope {
	cur := s
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// IsPureNamespace reports whether s was introduced purely to host a
// `namespace` block — i.e. it has no symbol table entries of its own
// besides nested scopes. Namespaces reopened across files collapse into
// the same logical scope path even though each occurrence allocates its
// own Scope value (spec §4.2). Nothing outside this package's tests
// calls it.
func (s *Scope) IsPureNamespace() bool {
	return s.Table.Len() == 0
}

// ResolveScope walks path segment by segment from root, returning the
// scope it denotes or false if any segment is missing. Used to turn a
// stored ScopePath (e.g. from a Reference or a complement hint) back into
// a live *Scope after a reanalysis has rebuilt the tree from scratch.
func ResolveScope(root *Scope, path ScopePath) (*Scope, bool) {
	if len(path) == 0 || root.Path[0] != path[0] {
		return nil, false
	}
	cur := root
	for _, seg := range path[1:] {
		next, ok := cur.Children.Get(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// GlobalScope is the single root of a workspace's scope tree: one
// synthetic top-level scope whose children are the root scopes of every
// analyzed file; namespace scopes live under the file scope that declares
// them. It additionally owns
// the cross-file reference list used by goto-references and rename; hint
// lists (completion/signature/inlay seeds) live one layer up in
// analyzer.Result, not here, so this package never needs to import the
// hints package and risk a cycle (hints values reference ResolvedType and
// ScopePath, both defined in this package).
type GlobalScope struct {
	Root       *Scope
	References []Reference
	primitives map[string]*Symbol
}

// NewGlobalScope builds an empty global scope.
func NewGlobalScope() *GlobalScope {
	return &GlobalScope{Root: NewScope(nil, "", ast.Range{})}
}

// AddReference records a use-site -> declaration-site link.
func (g *GlobalScope) AddReference(r Reference) {
	g.References = append(g.References, r)
}

// ReferencesTo returns every recorded reference resolving to the given
// declaration path and identifier, in recording order — the backing
// query for goto-references and rename (spec §6's supplemented
// operations).
func (g *GlobalScope) ReferencesTo(path ScopePath, ident string) []Reference {
	var out []Reference
	for _, r := range g.References {
		if r.ToIdent == ident && r.ToPath.Equal(path) {
			out = append(out, r)
		}
	}
	return out
}

// FileScope returns (creating if absent) the per-file root scope for uri,
// directly under the global root.
func (g *GlobalScope) FileScope(uri string) *Scope {
	if child, ok := g.Root.Children.Get(uri); ok {
		return child
	}
	s := NewScope(g.Root, uri, ast.Range{})
	s.IsFile = true
	return s
}

// DropFile removes uri's file scope entirely, used before each reanalysis
// of uri so it starts clean, and when a file is removed from the
// workspace (spec §4.6's incremental-reanalysis contract).
func (g *GlobalScope) DropFile(uri string) {
	g.Root.Children.Delete(uri)
}
