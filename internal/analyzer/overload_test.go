package analyzer

import (
	"testing"

	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/hints"
	"github.com/carn181/angelscript-lsp/internal/symbol"
)

func TestConversionCostRanksExactOverNumericOverSubtype(t *testing.T) {
	global := symbol.NewGlobalScope()
	intT := global.Primitive("int").AsResolvedType()
	floatT := global.Primitive("float").AsResolvedType()

	if cost := conversionCost(intT, intT); cost != 0 {
		t.Errorf("exact match should cost 0, got %d", cost)
	}
	if cost := conversionCost(floatT, intT); cost != 1 {
		t.Errorf("numeric widening should cost 1, got %d", cost)
	}

	baseSym := symbol.NewType(ast.Token{Text: "Base"}, nil, symbol.Class)
	derivedSym := symbol.NewType(ast.Token{Text: "Derived"}, nil, symbol.Class)
	derivedSym.Bases = []symbol.ResolvedType{baseSym.AsResolvedType()}
	if cost := conversionCost(baseSym.AsResolvedType(), derivedSym.AsResolvedType()); cost != 2 {
		t.Errorf("subtype match should cost 2, got %d", cost)
	}

	unrelated := symbol.NewType(ast.Token{Text: "Other"}, nil, symbol.Class)
	if cost := conversionCost(unrelated.AsResolvedType(), derivedSym.AsResolvedType()); cost != -1 {
		t.Errorf("unrelated types should reject with -1, got %d", cost)
	}
}

func TestSelectOverloadPicksExactArityAndType(t *testing.T) {
	global := symbol.NewGlobalScope()
	intT := global.Primitive("int").AsResolvedType()
	floatT := global.Primitive("float").AsResolvedType()

	intOverload := symbol.NewFunction(ast.Token{Text: "f"}, nil, intT, []symbol.ResolvedType{intT}, []string{"a"}, false, ast.AccessPublic, nil)
	floatOverload := symbol.NewFunction(ast.Token{Text: "f"}, nil, floatT, []symbol.ResolvedType{floatT}, []string{"a"}, false, ast.AccessPublic, nil)

	best, ambiguous := selectOverload([]*symbol.Symbol{intOverload, floatOverload}, []symbol.ResolvedType{intT})
	if ambiguous {
		t.Fatalf("an exact int match should not be ambiguous")
	}
	if best != intOverload {
		t.Errorf("expected the exact int overload to win, got %+v", best)
	}
}

func TestSelectOverloadAmbiguousWhenCostsTie(t *testing.T) {
	global := symbol.NewGlobalScope()
	intT := global.Primitive("int").AsResolvedType()

	base := symbol.NewType(ast.Token{Text: "Base"}, nil, symbol.Class)
	left := symbol.NewType(ast.Token{Text: "Left"}, nil, symbol.Class)
	right := symbol.NewType(ast.Token{Text: "Right"}, nil, symbol.Class)
	left.Bases = []symbol.ResolvedType{base.AsResolvedType()}
	right.Bases = []symbol.ResolvedType{base.AsResolvedType()}

	fLeft := symbol.NewFunction(ast.Token{Text: "f"}, nil, intT, []symbol.ResolvedType{left.AsResolvedType()}, []string{"a"}, false, ast.AccessPublic, nil)
	fRight := symbol.NewFunction(ast.Token{Text: "f"}, nil, intT, []symbol.ResolvedType{right.AsResolvedType()}, []string{"a"}, false, ast.AccessPublic, nil)

	argDerived := symbol.NewType(ast.Token{Text: "Derived"}, nil, symbol.Class)
	argDerived.Bases = []symbol.ResolvedType{left.AsResolvedType(), right.AsResolvedType()}

	_, ambiguous := selectOverload([]*symbol.Symbol{fLeft, fRight}, []symbol.ResolvedType{argDerived.AsResolvedType()})
	if !ambiguous {
		t.Errorf("two equally-costed unrelated-subtype overloads should be ambiguous")
	}
}

func TestSelectOverloadRejectsWrongArityWithoutVariadic(t *testing.T) {
	global := symbol.NewGlobalScope()
	intT := global.Primitive("int").AsResolvedType()

	fn := symbol.NewFunction(ast.Token{Text: "f"}, nil, intT, []symbol.ResolvedType{intT}, []string{"a"}, false, ast.AccessPublic, nil)
	best, _ := selectOverload([]*symbol.Symbol{fn}, []symbol.ResolvedType{intT, intT})
	if best != nil {
		t.Errorf("calling a 1-arg function with 2 args should find no match, got %+v", best)
	}
}

func TestSelectOverloadPrefersNonVariadicOnTie(t *testing.T) {
	global := symbol.NewGlobalScope()
	intT := global.Primitive("int").AsResolvedType()

	fixed := symbol.NewFunction(ast.Token{Text: "f"}, nil, intT, []symbol.ResolvedType{intT}, []string{"a"}, false, ast.AccessPublic, nil)
	variadic := symbol.NewFunction(ast.Token{Text: "f"}, nil, intT, []symbol.ResolvedType{intT}, []string{"a"}, false, ast.AccessPublic, nil)
	variadic.Variadic = true

	best, ambiguous := selectOverload([]*symbol.Symbol{variadic, fixed}, []symbol.ResolvedType{intT})
	if ambiguous {
		t.Errorf("non-variadic tie-break should resolve without ambiguity")
	}
	if best != fixed {
		t.Errorf("non-variadic overload should be preferred over a variadic one on a cost tie")
	}
}

func TestAnalyzeCallResolvesBestOverloadAndRecordsHint(t *testing.T) {
	ctx, global, fileScope := newTestContext("file:///a.as")
	intT := global.Primitive("int").AsResolvedType()

	fn := symbol.NewFunction(tok("add"), fileScope.Path, intT, []symbol.ResolvedType{intT, intT}, []string{"a", "b"}, false, ast.AccessPublic, nil)
	fileScope.InsertSymbol("add", fn)

	call := &ast.CallExpr{
		Callee: &ast.Identifier{Tok: tok("add")},
		Args: []ast.Node{
			&ast.Literal{Kind: ast.LiteralInt, Text: "1"},
			&ast.Literal{Kind: ast.LiteralInt, Text: "2"},
		},
	}
	got := Expr(ctx, fileScope, call)
	if got.Sym != intT.Sym {
		t.Fatalf("add(1, 2) should resolve to int, got %+v", got)
	}
	if len(ctx.Hints.OfKind(hints.KindFunctionCall)) != 1 {
		t.Errorf("a call expression should record exactly one FunctionCall hint")
	}
}

func TestAnalyzeBinaryNumericAndOperatorOverload(t *testing.T) {
	ctx, global, fileScope := newTestContext("file:///a.as")
	intT := global.Primitive("int").AsResolvedType()

	add := &ast.BinaryExpr{
		Op:   "+",
		Left: &ast.Literal{Kind: ast.LiteralInt, Text: "1"},
		Right: &ast.Literal{Kind: ast.LiteralInt, Text: "2"},
	}
	got := Expr(ctx, fileScope, add)
	if got.Sym != intT.Sym {
		t.Errorf("1 + 2 should resolve to int, got %+v", got)
	}

	vecSym, vecScope := declareClass(ctx, fileScope, "Vec")
	declareMethod(vecScope, "opAdd", vecSym.AsResolvedType(), vecSym.AsResolvedType())

	vA := symbol.NewVariable(tok("a"), fileScope.Path, vecSym.AsResolvedType(), false, ast.AccessPublic)
	vB := symbol.NewVariable(tok("b"), fileScope.Path, vecSym.AsResolvedType(), false, ast.AccessPublic)
	fileScope.InsertSymbol("a", vA)
	fileScope.InsertSymbol("b", vB)

	vecAdd := &ast.BinaryExpr{Op: "+", Left: &ast.Identifier{Tok: tok("a")}, Right: &ast.Identifier{Tok: tok("b")}}
	got2 := Expr(ctx, fileScope, vecAdd)
	if got2.Sym != vecSym {
		t.Errorf("a + b should resolve through opAdd to Vec, got %+v", got2)
	}
}

func TestAnalyzeBinaryUnsupportedOperatorDiagnostic(t *testing.T) {
	ctx, _, fileScope := newTestContext("file:///a.as")
	sym, _ := declareClass(ctx, fileScope, "Widget")

	a := symbol.NewVariable(tok("a"), fileScope.Path, sym.AsResolvedType(), false, ast.AccessPublic)
	fileScope.InsertSymbol("a", a)

	expr := &ast.BinaryExpr{Op: "@@", Left: &ast.Identifier{Tok: tok("a")}, Right: &ast.Identifier{Tok: tok("a")}}
	got := Expr(ctx, fileScope, expr)
	if !got.IsUnresolved() {
		t.Errorf("an unknown operator should resolve to Unresolved")
	}
	if ctx.Hoist.Diags.Len() != 1 {
		t.Errorf("an unknown operator should raise exactly one diagnostic, got %d", ctx.Hoist.Diags.Len())
	}
}
