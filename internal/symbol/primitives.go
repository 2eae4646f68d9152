package symbol

import "github.com/carn181/angelscript-lsp/internal/ast"

// builtinPrimitives lists the fixed AngelScript primitive type names type
// resolution recognizes without any declaration — spec.md §4.3 step 3:
// "built-in primitive?".
var builtinPrimitives = map[string]bool{
	"void": true, "bool": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float": true, "double": true,
}

// IsBuiltinPrimitive reports whether ident names a built-in primitive.
func IsBuiltinPrimitive(ident string) bool {
	return builtinPrimitives[ident]
}

// Primitive returns (creating and caching on first use) the singleton
// Type symbol for a built-in primitive name. Primitives have no
// declaring scope of their own; DeclScope is the global root's path so
// Invariant 1 ("a symbol's declaring scope path always resolves to an
// existing scope") still holds.
func (g *GlobalScope) Primitive(ident string) *Symbol {
	if g.primitives == nil {
		g.primitives = map[string]*Symbol{}
	}
	if sym, ok := g.primitives[ident]; ok {
		return sym
	}
	sym := NewType(ast.Token{Text: ident}, g.Root.Path, Primitive)
	g.primitives[ident] = sym
	return sym
}
