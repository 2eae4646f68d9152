package hoist

import (
	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/diagnostics"
	"github.com/carn181/angelscript-lsp/internal/symbol"
)

// AnalyzeTypeRef implements spec.md §4.3's `analyze-type` algorithm. It is
// exported from this package (rather than internal/analyzer) because
// hoist itself must resolve types synchronously — function return and
// parameter types, func-def signatures, declared variable types — before the analyze phase
// ever runs; internal/analyzer reuses this same function for expression
// and variable-declaration type resolution.
func AnalyzeTypeRef(ctx *Context, scope *symbol.Scope, tref *ast.TypeRef) symbol.ResolvedType {
	if tref == nil {
		return symbol.Unresolved
	}

	cur := scope
	if tref.GlobalScope {
		cur = ctx.Global.Root
	}
	for _, seg := range tref.Scope {
		next, ok := cur.ChildScopeDeep(seg.Text)
		if !ok {
			ctx.Diags.Errorf(diagnostics.UnresolvedName, seg.Range, "scope %q not found", seg.Text)
			return symbol.Unresolved
		}
		cur = next
	}

	var typeSym *symbol.Symbol
	switch {
	case symbol.IsBuiltinPrimitive(tref.Ident.Text):
		typeSym = ctx.Global.Primitive(tref.Ident.Text)
	default:
		h, owner, ok := cur.LookupSymbolWithParent(tref.Ident.Text)
		if !ok {
			ctx.Diags.Errorf(diagnostics.UnresolvedName, tref.Ident.Range, "type %q not found", tref.Ident.Text)
			return symbol.Unresolved
		}
		single, isSingle := h.(symbol.SingleHolder)
		if !isSingle || single.Sym.Kind != symbol.KindType {
			ctx.Diags.Errorf(diagnostics.TypeMismatch, tref.Ident.Range, "%q is not a type", tref.Ident.Text)
			return symbol.Unresolved
		}
		typeSym = single.Sym
		ctx.Global.AddReference(symbol.Reference{
			FromRange: tref.Ident.Range,
			FromFile:  ctx.FileURI,
			ToPath:    owner.Path,
			ToIdent:   tref.Ident.Text,
		})
	}

	result := symbol.ResolvedType{Sym: typeSym, Const: tref.Const}

	if len(tref.Args) > 0 && len(typeSym.TemplateParams) > 0 {
		translator := symbol.TemplateTranslator{}
		for i, argRef := range tref.Args {
			if i >= len(typeSym.TemplateParams) {
				break
			}
			translator[typeSym.TemplateParams[i]] = AnalyzeTypeRef(ctx, scope, argRef)
		}
		result.Translator = translator
	}

	if tref.Array {
		arrayTypeName := ctx.Settings.BuiltinArrayType
		if arraySym, ok := lookupNamedType(ctx, scope, arrayTypeName); ok {
			result = symbol.ResolvedType{
				Sym:        arraySym,
				Translator: symbol.TemplateTranslator{"T": result},
				Const:      tref.Const,
			}
		} else {
			result = result.WithArray()
		}
	}
	if tref.Handle {
		result = result.WithHandle()
	}
	return result
}

func lookupNamedType(ctx *Context, scope *symbol.Scope, ident string) (*symbol.Symbol, bool) {
	h, _, ok := scope.LookupSymbolWithParent(ident)
	if !ok {
		return nil, false
	}
	single, isSingle := h.(symbol.SingleHolder)
	if !isSingle || single.Sym.Kind != symbol.KindType {
		return nil, false
	}
	return single.Sym, true
}

func analyzeTypeRef(ctx *Context, scope *symbol.Scope, tref *ast.TypeRef) symbol.ResolvedType {
	return AnalyzeTypeRef(ctx, scope, tref)
}
