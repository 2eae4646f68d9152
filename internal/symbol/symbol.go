package symbol

import "github.com/carn181/angelscript-lsp/internal/ast"

// Kind discriminates the three symbol variants spec §3 describes: Type,
// Variable, and Function. A FunctionHolder is not itself a symbol kind —
// it is the slot that aggregates one or more Function symbols sharing an
// identifier (see scope.go).
type Kind int

const (
	KindType Kind = iota
	KindVariable
	KindFunction
)

// TypeDiscriminator further classifies a Kind == KindType symbol.
type TypeDiscriminator int

const (
	Primitive TypeDiscriminator = iota
	Enum
	Class
	Interface
	Typedef
	TemplateParameter
)

// ScopePath is the ordered identifier sequence from the global root to a
// scope, the canonical stable identity spec §3 requires. The first
// segment is always the global root's empty identifier; for a scope
// inside a file, the second segment is that file's URI.
type ScopePath []string

// Equal reports structural equality, used by the scope-path-uniqueness
// testable property (spec §8).
func (p ScopePath) Equal(o ScopePath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

func (p ScopePath) String() string {
	s := ""
	for i, seg := range p {
		if i > 0 {
			s += "::"
		}
		s += seg
	}
	return s
}

// Child returns a new path with ident appended.
func (p ScopePath) Child(ident string) ScopePath {
	child := make(ScopePath, len(p), len(p)+1)
	copy(child, p)
	return append(child, ident)
}

// Parent returns the path one level up; the second bool is false if p is
// already the root.
func (p ScopePath) Parent() (ScopePath, bool) {
	if len(p) == 0 {
		return nil, false
	}
	return p[:len(p)-1], true
}

// Symbol is a tagged variant over Type, Variable, and Function, matching
// the teacher repo's style of a single struct multiplexed by a Kind field
// rather than three separate interfaces — the fields not relevant to the
// active Kind are simply left zero.
type Symbol struct {
	Kind      Kind
	Ident     ast.Token
	DeclScope ScopePath

	// --- Type fields ---
	MembersScope   *ScopePath // nil unless the type has a body scope
	TemplateParams []string
	Bases          []ResolvedType
	Discriminator  TypeDiscriminator

	// --- Variable fields ---
	VarType          ResolvedType
	IsInstanceMember bool
	Access           ast.AccessModifier

	// --- Function fields ---
	ReturnType         ResolvedType
	ParamTypes         []ResolvedType
	ParamNames         []string
	BodyScope          *ScopePath // nil for func-defs and interface signatures
	FuncTemplateParams []string
	Variadic           bool
	Node               *ast.FuncDecl // linked AST, nil for synthetic symbols (this, super, property accessors)
}

// NewType builds a Type symbol.
func NewType(ident ast.Token, declScope ScopePath, discriminator TypeDiscriminator) *Symbol {
	return &Symbol{Kind: KindType, Ident: ident, DeclScope: declScope, Discriminator: discriminator}
}

// NewVariable builds a Variable symbol.
func NewVariable(ident ast.Token, declScope ScopePath, t ResolvedType, instance bool, access ast.AccessModifier) *Symbol {
	return &Symbol{Kind: KindVariable, Ident: ident, DeclScope: declScope, VarType: t, IsInstanceMember: instance, Access: access}
}

// NewFunction builds a Function symbol.
func NewFunction(ident ast.Token, declScope ScopePath, ret ResolvedType, params []ResolvedType, names []string, instance bool, access ast.AccessModifier, node *ast.FuncDecl) *Symbol {
	return &Symbol{
		Kind: KindFunction, Ident: ident, DeclScope: declScope,
		ReturnType: ret, ParamTypes: params, ParamNames: names,
		IsInstanceMember: instance, Access: access, Node: node,
	}
}

// IsDestructor reports whether a Function symbol is a class destructor
// (identifier starts with "~"); destructors are excluded from overload
// aggregation and property-accessor synthesis (spec §4.2).
func (s *Symbol) IsDestructor() bool {
	return s.Kind == KindFunction && len(s.Ident.Text) > 0 && s.Ident.Text[0] == '~'
}

// AsResolvedType wraps a Type symbol as a bare ResolvedType (no
// modifiers, no template bindings) — the common case of "the type itself".
func (s *Symbol) AsResolvedType() ResolvedType {
	return ResolvedType{Sym: s}
}
