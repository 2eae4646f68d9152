package analyzer

import (
	"testing"

	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/config"
	"github.com/carn181/angelscript-lsp/internal/hints"
	"github.com/carn181/angelscript-lsp/internal/hoist"
	"github.com/carn181/angelscript-lsp/internal/symbol"
)

func tok(text string) ast.Token {
	return ast.Token{Text: text}
}

func newTestContext(uri string) (*Context, *symbol.GlobalScope, *symbol.Scope) {
	global := symbol.NewGlobalScope()
	fileScope := global.FileScope(uri)
	hctx := hoist.NewContext(global, uri, config.Default())
	return &Context{Hoist: hctx, Hints: hints.NewList()}, global, fileScope
}

func declareClass(ctx *Context, scope *symbol.Scope, name string, bases ...*symbol.Symbol) (*symbol.Symbol, *symbol.Scope) {
	sym := symbol.NewType(tok(name), scope.Path, symbol.Class)
	scope.InsertSymbolAndCheck(name, sym)
	memberScope := scope.InsertScope(name, ast.Range{})
	path := memberScope.Path
	sym.MembersScope = &path
	for _, b := range bases {
		sym.Bases = append(sym.Bases, b.AsResolvedType())
	}
	return sym, memberScope
}

func declareMethod(scope *symbol.Scope, name string, ret symbol.ResolvedType, params ...symbol.ResolvedType) *symbol.Symbol {
	fn := symbol.NewFunction(tok(name), scope.Path, ret, params, nil, true, ast.AccessPublic, nil)
	scope.InsertSymbol(name, fn)
	return fn
}

func TestExprLiteralTypes(t *testing.T) {
	ctx, _, fileScope := newTestContext("file:///a.as")

	intT := Expr(ctx, fileScope, &ast.Literal{Kind: ast.LiteralInt, Text: "1"})
	if intT.Sym == nil || intT.Sym.Ident.Text != "int" {
		t.Errorf("int literal should resolve to int, got %+v", intT)
	}

	floatT := Expr(ctx, fileScope, &ast.Literal{Kind: ast.LiteralFloat, Text: "1.0"})
	if floatT.Sym == nil || floatT.Sym.Ident.Text != "float" {
		t.Errorf("float literal should resolve to float, got %+v", floatT)
	}

	nullT := Expr(ctx, fileScope, &ast.Literal{Kind: ast.LiteralNull})
	if !nullT.Handle || nullT.Sym != nil {
		t.Errorf("null literal should be a handle with no symbol, got %+v", nullT)
	}
}

func TestAnalyzeIdentifierRecordsReferenceAndResolvesType(t *testing.T) {
	ctx, global, fileScope := newTestContext("file:///a.as")

	intSym := global.Primitive("int")
	varSym := symbol.NewVariable(tok("x"), fileScope.Path, intSym.AsResolvedType(), false, ast.AccessPublic)
	fileScope.InsertSymbol("x", varSym)

	got := Expr(ctx, fileScope, &ast.Identifier{Tok: tok("x")})
	if got.Sym != intSym {
		t.Fatalf("x should resolve to int, got %+v", got)
	}
	if len(global.References) != 1 || global.References[0].ToIdent != "x" {
		t.Fatalf("expected one reference to x, got %+v", global.References)
	}
}

func TestAnalyzeIdentifierUnresolvedEmitsDiagnostic(t *testing.T) {
	ctx, _, fileScope := newTestContext("file:///a.as")

	got := Expr(ctx, fileScope, &ast.Identifier{Tok: tok("missing")})
	if !got.IsUnresolved() {
		t.Errorf("unresolved identifier should yield Unresolved")
	}
	if ctx.Hoist.Diags.Len() != 1 {
		t.Fatalf("expected one unresolved-name diagnostic, got %d", ctx.Hoist.Diags.Len())
	}
}

func TestAnalyzeMemberAccessWalksBaseClasses(t *testing.T) {
	ctx, global, fileScope := newTestContext("file:///a.as")
	intSym := global.Primitive("int")

	baseSym, baseScope := declareClass(ctx, fileScope, "Base")
	baseScope.InsertSymbol("value", symbol.NewVariable(tok("value"), baseScope.Path, intSym.AsResolvedType(), true, ast.AccessPublic))

	derivedSym, derivedScope := declareClass(ctx, fileScope, "Derived", baseSym)
	_ = derivedScope

	thisTok := ast.Token{Text: "obj"}
	objVar := symbol.NewVariable(thisTok, fileScope.Path, derivedSym.AsResolvedType(), false, ast.AccessPublic)
	fileScope.InsertSymbol("obj", objVar)

	access := &ast.MemberAccess{
		Target: &ast.Identifier{Tok: tok("obj")},
		Ident:  tok("value"),
	}
	got := Expr(ctx, fileScope, access)
	if got.Sym != intSym {
		t.Fatalf("obj.value should resolve to int via the base class, got %+v", got)
	}

	memberHints := ctx.Hints.OfKind(hints.KindAutocompleteInstanceMember)
	if len(memberHints) == 0 {
		t.Errorf("member access should record an AutocompleteInstanceMember hint")
	}
}

func TestAnalyzeMemberAccessMissingMemberDiagnostic(t *testing.T) {
	ctx, _, fileScope := newTestContext("file:///a.as")
	sym, _ := declareClass(ctx, fileScope, "Widget")

	objVar := symbol.NewVariable(tok("w"), fileScope.Path, sym.AsResolvedType(), false, ast.AccessPublic)
	fileScope.InsertSymbol("w", objVar)

	access := &ast.MemberAccess{Target: &ast.Identifier{Tok: tok("w")}, Ident: tok("nope")}
	got := Expr(ctx, fileScope, access)
	if !got.IsUnresolved() {
		t.Errorf("missing member should resolve to Unresolved")
	}
	if ctx.Hoist.Diags.Len() != 1 {
		t.Fatalf("expected one diagnostic for missing member, got %d", ctx.Hoist.Diags.Len())
	}
}

func TestAnalyzeIndexOnArrayType(t *testing.T) {
	ctx, global, fileScope := newTestContext("file:///a.as")
	intSym := global.Primitive("int")

	arrVar := symbol.NewVariable(tok("arr"), fileScope.Path, intSym.AsResolvedType().WithArray(), false, ast.AccessPublic)
	fileScope.InsertSymbol("arr", arrVar)

	idx := &ast.IndexExpr{
		Target: &ast.Identifier{Tok: tok("arr")},
		Index:  &ast.Literal{Kind: ast.LiteralInt, Text: "0"},
	}
	got := Expr(ctx, fileScope, idx)
	if got.Sym != intSym || got.Array {
		t.Errorf("indexing an int[] should yield a plain int, got %+v", got)
	}
}

func TestAnalyzeReturnTypeMismatchDiagnostic(t *testing.T) {
	ctx, global, fileScope := newTestContext("file:///a.as")
	intSym := global.Primitive("int")
	boolSym := global.Primitive("bool")

	bodyScope := symbol.NewScope(fileScope, "$body", ast.Range{})
	fnSym := symbol.NewFunction(tok("f"), fileScope.Path, intSym.AsResolvedType(), nil, nil, false, ast.AccessPublic, nil)
	bodyScope.OwnerFunction = fnSym

	boolVar := symbol.NewVariable(tok("flag"), bodyScope.Path, boolSym.AsResolvedType(), false, ast.AccessPublic)
	bodyScope.InsertSymbol("flag", boolVar)

	ret := &ast.ReturnStmt{Value: &ast.Identifier{Tok: tok("flag")}}
	Statement(ctx, bodyScope, ret)

	if ctx.Hoist.Diags.Len() != 1 {
		t.Fatalf("returning bool from an int function should raise one diagnostic, got %d: %+v",
			ctx.Hoist.Diags.Len(), ctx.Hoist.Diags.Items())
	}
}

func TestAnalyzeReturnAssignableNumericWidening(t *testing.T) {
	ctx, global, fileScope := newTestContext("file:///a.as")
	floatSym := global.Primitive("float")

	bodyScope := symbol.NewScope(fileScope, "$body", ast.Range{})
	fnSym := symbol.NewFunction(tok("f"), fileScope.Path, floatSym.AsResolvedType(), nil, nil, false, ast.AccessPublic, nil)
	bodyScope.OwnerFunction = fnSym

	ret := &ast.ReturnStmt{Value: &ast.Literal{Kind: ast.LiteralInt, Text: "1"}}
	Statement(ctx, bodyScope, ret)

	if ctx.Hoist.Diags.Len() != 0 {
		t.Errorf("returning an int literal from a float function should be allowed by numeric widening, got %+v", ctx.Hoist.Diags.Items())
	}
}

func TestAssignableHandlesSubtyping(t *testing.T) {
	_, global, fileScope := newTestContext("file:///a.as")
	baseSym := symbol.NewType(tok("Base"), fileScope.Path, symbol.Class)
	derivedSym := symbol.NewType(tok("Derived"), fileScope.Path, symbol.Class)
	derivedSym.Bases = []symbol.ResolvedType{baseSym.AsResolvedType()}
	_ = global

	if !assignable(baseSym.AsResolvedType(), derivedSym.AsResolvedType()) {
		t.Errorf("a Derived value should be assignable to a Base-typed destination")
	}
	if assignable(derivedSym.AsResolvedType(), baseSym.AsResolvedType()) {
		t.Errorf("a Base value should not be assignable to a Derived-typed destination")
	}
}

func TestIsNumericExcludesBoolAndVoid(t *testing.T) {
	global := symbol.NewGlobalScope()
	if isNumeric(global.Primitive("bool").AsResolvedType()) {
		t.Errorf("bool should not be numeric")
	}
	if isNumeric(global.Primitive("void").AsResolvedType()) {
		t.Errorf("void should not be numeric")
	}
	if !isNumeric(global.Primitive("int").AsResolvedType()) {
		t.Errorf("int should be numeric")
	}
	if !isNumeric(global.Primitive("double").AsResolvedType()) {
		t.Errorf("double should be numeric")
	}
}
