package analyzer

import (
	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/diagnostics"
	"github.com/carn181/angelscript-lsp/internal/hints"
	"github.com/carn181/angelscript-lsp/internal/hoist"
	"github.com/carn181/angelscript-lsp/internal/symbol"
)

// Expr evaluates n structurally and returns its static resolved type,
// per spec.md §4.5: "expression evaluation returns an intermediate
// resolved type."
func Expr(ctx *Context, scope *symbol.Scope, n ast.Node) symbol.ResolvedType {
	if n == nil {
		return symbol.Unresolved
	}
	switch node := n.(type) {
	case *ast.Literal:
		return literalType(ctx, node)
	case *ast.Identifier:
		return analyzeIdentifier(ctx, scope, node)
	case *ast.ScopeAccess:
		return analyzeScopeAccess(ctx, scope, node)
	case *ast.MemberAccess:
		return analyzeMemberAccess(ctx, scope, node)
	case *ast.IndexExpr:
		return analyzeIndex(ctx, scope, node)
	case *ast.CallExpr:
		return analyzeCall(ctx, scope, node)
	case *ast.BinaryExpr:
		return analyzeBinary(ctx, scope, node)
	case *ast.UnaryExpr:
		return analyzeUnary(ctx, scope, node)
	case *ast.CastExpr:
		return analyzeCast(ctx, scope, node)
	default:
		return symbol.Unresolved
	}
}

func literalType(ctx *Context, node *ast.Literal) symbol.ResolvedType {
	var name string
	switch node.Kind {
	case ast.LiteralInt:
		name = "int"
	case ast.LiteralFloat:
		name = "float"
	case ast.LiteralBool:
		name = "bool"
	case ast.LiteralNull:
		return symbol.ResolvedType{Sym: nil, Handle: true}
	case ast.LiteralString:
		if len(ctx.Hoist.Settings.BuiltinStringTypes) > 0 {
			if h, ok := ctx.Hoist.Global.Root.LookupSymbol(ctx.Hoist.Settings.BuiltinStringTypes[0]); ok {
				if single, isSingle := h.(symbol.SingleHolder); isSingle {
					return single.Sym.AsResolvedType()
				}
			}
		}
		return symbol.Unresolved
	}
	return ctx.Hoist.Global.Primitive(name).AsResolvedType()
}

func analyzeIdentifier(ctx *Context, scope *symbol.Scope, node *ast.Identifier) symbol.ResolvedType {
	h, owner, ok := scope.LookupSymbolWithParent(node.Tok.Text)
	if !ok {
		ctx.Hoist.Diags.Errorf(diagnostics.UnresolvedName, node.Tok.Range, "unresolved name %q", node.Tok.Text)
		return symbol.Unresolved
	}
	recordReference(ctx, node.Tok, owner.Path, node.Tok.Text)
	switch v := h.(type) {
	case symbol.SingleHolder:
		if v.Sym.Kind == symbol.KindVariable {
			return v.Sym.VarType
		}
		return v.Sym.AsResolvedType()
	case *symbol.FunctionHolder:
		if len(v.Overloads) > 0 {
			return v.Overloads[0].AsResolvedType()
		}
	}
	return symbol.Unresolved
}

func analyzeScopeAccess(ctx *Context, scope *symbol.Scope, node *ast.ScopeAccess) symbol.ResolvedType {
	cur := scope
	if node.GlobalScope {
		cur = ctx.Hoist.Global.Root
	}
	for _, seg := range node.Segments {
		next, ok := cur.ChildScopeDeep(seg.Text)
		if !ok {
			ctx.Hoist.Diags.Errorf(diagnostics.UnresolvedName, seg.Range, "scope %q not found", seg.Text)
			return symbol.Unresolved
		}
		ctx.Hints.Add(hints.NamespaceAccess(seg.Range, next.Path))
		cur = next
	}
	h, ok := cur.LookupSymbol(node.Ident.Text)
	if !ok {
		ctx.Hoist.Diags.Errorf(diagnostics.UnresolvedName, node.Ident.Range, "unresolved name %q", node.Ident.Text)
		return symbol.Unresolved
	}
	recordReference(ctx, node.Ident, cur.Path, node.Ident.Text)
	ctx.Hints.Add(hints.NamespaceAccess(node.Ident.Range, cur.Path))
	switch v := h.(type) {
	case symbol.SingleHolder:
		if v.Sym.Kind == symbol.KindVariable {
			return v.Sym.VarType
		}
		return v.Sym.AsResolvedType()
	case *symbol.FunctionHolder:
		if len(v.Overloads) > 0 {
			return v.Overloads[0].AsResolvedType()
		}
	}
	return symbol.Unresolved
}

func analyzeMemberAccess(ctx *Context, scope *symbol.Scope, node *ast.MemberAccess) symbol.ResolvedType {
	targetType := Expr(ctx, scope, node.Target)
	if targetType.IsUnresolved() || targetType.Sym == nil || targetType.Sym.MembersScope == nil {
		ctx.Hints.Add(hints.InstanceMember(ast.Range{Start: node.DotPos, End: node.Ident.Range.Start}, targetType))
		if !targetType.IsUnresolved() {
			ctx.Hoist.Diags.Errorf(diagnostics.UnresolvedName, node.Ident.Range, "type %s has no members", typeName(targetType))
		}
		return symbol.Unresolved
	}
	ctx.Hints.Add(hints.InstanceMember(ast.Range{Start: node.DotPos, End: node.Ident.Range.Start}, targetType))

	memberScope, holder, found := findMember(ctx.Hoist.Global.Root, targetType.Sym, node.Ident.Text)
	if !found {
		ctx.Hoist.Diags.Errorf(diagnostics.UnresolvedName, node.Ident.Range, "no member %q on type %s", node.Ident.Text, typeName(targetType))
		return symbol.Unresolved
	}
	recordReference(ctx, node.Ident, memberScope, node.Ident.Text)
	switch v := holder.(type) {
	case symbol.SingleHolder:
		if v.Sym.Kind == symbol.KindVariable {
			return v.Sym.VarType
		}
		return v.Sym.AsResolvedType()
	case *symbol.FunctionHolder:
		if len(v.Overloads) > 0 {
			return v.Overloads[0].AsResolvedType()
		}
	}
	return symbol.Unresolved
}

// findMember looks up ident in t's members scope, then in each base's
// members scope in order, matching spec.md §4.5's "member access ...
// if missing, also look in bases of T".
func findMember(root *symbol.Scope, t *symbol.Symbol, ident string) (ownerPath symbol.ScopePath, holder symbol.Holder, ok bool) {
	if t == nil || t.MembersScope == nil {
		return nil, nil, false
	}
	membersScope, resolved := symbol.ResolveScope(root, *t.MembersScope)
	if resolved {
		if h, found := membersScope.Table.Get(ident); found {
			return membersScope.Path, h, true
		}
	}
	for _, base := range t.Bases {
		if base.Sym == nil {
			continue
		}
		if p, h, found := findMember(root, base.Sym, ident); found {
			return p, h, true
		}
	}
	return nil, nil, false
}

func analyzeIndex(ctx *Context, scope *symbol.Scope, node *ast.IndexExpr) symbol.ResolvedType {
	targetType := Expr(ctx, scope, node.Target)
	Expr(ctx, scope, node.Index)
	if targetType.IsUnresolved() {
		return symbol.Unresolved
	}
	if targetType.Array {
		elem := targetType
		elem.Array = false
		return elem
	}
	if idx, ok := findOperatorOverload(ctx.Hoist.Global.Root, targetType, "opIndex"); ok {
		return idx.ReturnType
	}
	ctx.Hoist.Diags.Errorf(diagnostics.TypeMismatch, node.NodeRange(), "type %s is not indexable", typeName(targetType))
	return symbol.Unresolved
}

func analyzeCast(ctx *Context, scope *symbol.Scope, node *ast.CastExpr) symbol.ResolvedType {
	Expr(ctx, scope, node.Target)
	return hoist.AnalyzeTypeRef(ctx.Hoist, scope, node.Type)
}

func recordReference(ctx *Context, tok ast.Token, toPath symbol.ScopePath, ident string) {
	ctx.Hoist.Global.AddReference(symbol.Reference{
		FromFile:  ctx.Hoist.FileURI,
		FromRange: tok.Range,
		ToPath:    toPath,
		ToIdent:   ident,
	})
}
