package symbol

import (
	"testing"

	"github.com/carn181/angelscript-lsp/internal/ast"
)

func tok(text string) ast.Token {
	return ast.Token{Text: text}
}

func TestInsertSymbolAggregatesFunctionOverloads(t *testing.T) {
	scope := NewGlobalScope().Root

	first := NewFunction(tok("foo"), scope.Path, Unresolved, nil, nil, false, ast.AccessPublic, nil)
	second := NewFunction(tok("foo"), scope.Path, Unresolved, nil, nil, false, ast.AccessPublic, nil)
	scope.InsertSymbol("foo", first)
	scope.InsertSymbol("foo", second)

	holder, ok := scope.LookupSymbol("foo")
	if !ok {
		t.Fatalf("foo not found")
	}
	fh, isFn := holder.(*FunctionHolder)
	if !isFn {
		t.Fatalf("expected a FunctionHolder, got %T", holder)
	}
	if len(fh.Symbols()) != 2 {
		t.Fatalf("expected 2 overloads, got %d", len(fh.Symbols()))
	}
	if fh.Symbols()[0] != first || fh.Symbols()[1] != second {
		t.Errorf("overloads should be kept in declaration order")
	}
}

func TestInsertSymbolAndCheckReportsCollisionForNonFunctions(t *testing.T) {
	scope := NewGlobalScope().Root

	a := NewVariable(tok("x"), scope.Path, Unresolved, false, ast.AccessPublic)
	b := NewVariable(tok("x"), scope.Path, Unresolved, false, ast.AccessPublic)

	if collided := scope.InsertSymbolAndCheck("x", a); collided {
		t.Fatalf("first insertion should not collide")
	}
	if collided := scope.InsertSymbolAndCheck("x", b); !collided {
		t.Fatalf("second insertion of a non-function under the same name should collide")
	}
}

func TestInsertSymbolAndCheckDoesNotCollideAcrossOverloads(t *testing.T) {
	scope := NewGlobalScope().Root

	a := NewFunction(tok("f"), scope.Path, Unresolved, nil, nil, false, ast.AccessPublic, nil)
	b := NewFunction(tok("f"), scope.Path, Unresolved, nil, nil, false, ast.AccessPublic, nil)

	if collided := scope.InsertSymbolAndCheck("f", a); collided {
		t.Fatalf("first function insertion should not collide")
	}
	if collided := scope.InsertSymbolAndCheck("f", b); collided {
		t.Fatalf("a second overload should never be reported as a collision")
	}
}

func TestLookupSymbolWithParentWalksEnclosingScopes(t *testing.T) {
	root := NewGlobalScope().Root
	child := NewScope(root, "child", ast.Range{})
	grandchild := NewScope(child, "grandchild", ast.Range{})

	sym := NewVariable(tok("v"), root.Path, Unresolved, false, ast.AccessPublic)
	root.InsertSymbol("v", sym)

	holder, owner, ok := grandchild.LookupSymbolWithParent("v")
	if !ok {
		t.Fatalf("v should be visible from a nested scope")
	}
	if owner != root {
		t.Errorf("owner should be the declaring scope")
	}
	if holder.(SingleHolder).Sym != sym {
		t.Errorf("wrong symbol returned")
	}

	if _, _, ok := grandchild.LookupSymbolWithParent("nonexistent"); ok {
		t.Errorf("lookup of an undeclared name should fail")
	}
}

func TestLookupSymbolWithParentFallsThroughIncludes(t *testing.T) {
	global := NewGlobalScope()
	included := global.FileScope("file:///included.as")
	main := global.FileScope("file:///main.as")
	main.SetIncludes([]*Scope{included})

	sym := NewVariable(tok("shared"), included.Path, Unresolved, false, ast.AccessPublic)
	included.InsertSymbol("shared", sym)

	nested := NewScope(main, "inner", ast.Range{})
	holder, owner, ok := nested.LookupSymbolWithParent("shared")
	if !ok {
		t.Fatalf("symbol from an included file should be visible")
	}
	if owner != included {
		t.Errorf("owner should be the included file's scope")
	}
	if holder.(SingleHolder).Sym != sym {
		t.Errorf("wrong symbol resolved through include")
	}
}

func TestResolveScopeRoundTripsAPath(t *testing.T) {
	global := NewGlobalScope()
	fileScope := global.FileScope("file:///a.as")
	nested := NewScope(fileScope, "Widget", ast.Range{})
	deeper := NewScope(nested, "inner", ast.Range{})

	resolved, ok := ResolveScope(global.Root, deeper.Path)
	if !ok {
		t.Fatalf("ResolveScope failed to round-trip a path")
	}
	if resolved != deeper {
		t.Errorf("ResolveScope returned the wrong scope")
	}

	if _, ok := ResolveScope(global.Root, ScopePath{"file:///a.as", "Missing"}); ok {
		t.Errorf("ResolveScope should fail for a path with no matching child")
	}
}

func TestReferencesToFiltersByPathAndIdent(t *testing.T) {
	global := NewGlobalScope()
	fileScope := global.FileScope("file:///a.as")

	r1 := Reference{FromFile: "file:///a.as", ToPath: fileScope.Path, ToIdent: "x"}
	r2 := Reference{FromFile: "file:///a.as", ToPath: fileScope.Path, ToIdent: "y"}
	global.AddReference(r1)
	global.AddReference(r2)

	got := global.ReferencesTo(fileScope.Path, "x")
	if len(got) != 1 || got[0].ToIdent != r1.ToIdent || got[0].FromFile != r1.FromFile {
		t.Fatalf("expected exactly r1, got %+v", got)
	}
}

func TestDropFileRemovesFileScope(t *testing.T) {
	global := NewGlobalScope()
	global.FileScope("file:///a.as")
	if _, ok := global.Root.ChildScope("file:///a.as"); !ok {
		t.Fatalf("setup: file scope should exist")
	}
	global.DropFile("file:///a.as")
	if _, ok := global.Root.ChildScope("file:///a.as"); ok {
		t.Errorf("DropFile should remove the file's root scope")
	}
}

func TestIsPureNamespaceTrueOnlyWithoutOwnSymbols(t *testing.T) {
	root := NewGlobalScope().Root
	ns := NewScope(root, "A", ast.Range{})
	if !ns.IsPureNamespace() {
		t.Errorf("a freshly created scope with no table entries should be a pure namespace")
	}
	ns.InsertSymbol("x", NewVariable(tok("x"), ns.Path, Unresolved, false, ast.AccessPublic))
	if ns.IsPureNamespace() {
		t.Errorf("a scope with a symbol of its own should not be a pure namespace")
	}
}

func TestResolvedTypeModifiersAndIdentity(t *testing.T) {
	sym := NewType(tok("Foo"), ScopePath{"file:///a.as"}, Class)
	base := sym.AsResolvedType()

	arr := base.WithArray()
	if !arr.Array || arr.Identical(base) {
		t.Errorf("WithArray should set Array and change identity")
	}

	handle := base.WithHandle()
	if !handle.Handle {
		t.Errorf("WithHandle should set Handle")
	}

	c := base.WithConst()
	if !c.Const {
		t.Errorf("WithConst should set Const")
	}

	if !base.Identical(base) {
		t.Errorf("a ResolvedType should be identical to itself")
	}
	if Unresolved.IsUnresolved() != true {
		t.Errorf("the zero ResolvedType must report itself unresolved")
	}
	if base.IsUnresolved() {
		t.Errorf("a ResolvedType with a symbol should not be unresolved")
	}
}

func TestResolvedTypeIdenticalComparesTemplateTranslators(t *testing.T) {
	listSym := NewType(tok("list"), ScopePath{"file:///a.as"}, Class)
	listSym.TemplateParams = []string{"T"}
	intSym := NewType(tok("int"), ScopePath{}, Primitive)
	floatSym := NewType(tok("float"), ScopePath{}, Primitive)

	listOfInt := ResolvedType{Sym: listSym, Translator: TemplateTranslator{"T": intSym.AsResolvedType()}}
	listOfIntAgain := ResolvedType{Sym: listSym, Translator: TemplateTranslator{"T": intSym.AsResolvedType()}}
	listOfFloat := ResolvedType{Sym: listSym, Translator: TemplateTranslator{"T": floatSym.AsResolvedType()}}

	if !listOfInt.Identical(listOfIntAgain) {
		t.Errorf("two list<int> values with equal translators should be identical")
	}
	if listOfInt.Identical(listOfFloat) {
		t.Errorf("list<int> and list<float> should not be identical")
	}
}

func TestScopePathEqualChildParent(t *testing.T) {
	p := ScopePath{"file:///a.as", "Widget"}
	q := ScopePath{"file:///a.as", "Widget"}
	if !p.Equal(q) {
		t.Errorf("equal paths should compare equal")
	}

	child := p.Child("method")
	if !child.Equal(ScopePath{"file:///a.as", "Widget", "method"}) {
		t.Errorf("Child should append a segment")
	}

	parent, ok := child.Parent()
	if !ok || !parent.Equal(p) {
		t.Errorf("Parent should strip the last segment")
	}

	if _, ok := (ScopePath{}).Parent(); ok {
		t.Errorf("Parent of an empty path should report false")
	}
}
