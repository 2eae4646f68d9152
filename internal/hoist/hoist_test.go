package hoist

import (
	"testing"

	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/config"
	"github.com/carn181/angelscript-lsp/internal/symbol"
)

func tok(text string) ast.Token {
	return ast.Token{Text: text}
}

func newFileContext(uri string) (*Context, *symbol.GlobalScope, *symbol.Scope) {
	global := symbol.NewGlobalScope()
	fileScope := global.FileScope(uri)
	ctx := NewContext(global, uri, config.Default())
	return ctx, global, fileScope
}

func intType() *ast.TypeRef {
	return &ast.TypeRef{Ident: tok("int")}
}

func TestHoistEnumDeclaresMembersInOwnScope(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")

	decl := &ast.EnumDecl{
		Ident:   tok("Color"),
		Members: []ast.Token{tok("Red"), tok("Green"), tok("Blue")},
	}
	hoistEnum(ctx, fileScope, decl)

	if ctx.Diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", ctx.Diags.Items())
	}

	holder, ok := fileScope.LookupSymbol("Color")
	if !ok {
		t.Fatalf("Color type not declared in file scope")
	}
	single, isSingle := holder.(symbol.SingleHolder)
	if !isSingle || single.Sym.Kind != symbol.KindType || single.Sym.Discriminator != symbol.Enum {
		t.Fatalf("Color did not hoist as an enum type symbol: %+v", holder)
	}

	memberScope, ok := fileScope.ChildScope("Color")
	if !ok {
		t.Fatalf("Color member scope not linked under file scope")
	}
	for _, name := range []string{"Red", "Green", "Blue"} {
		h, ok := memberScope.LookupSymbol(name)
		if !ok {
			t.Fatalf("enum member %q not declared", name)
		}
		vh := h.(symbol.SingleHolder)
		if !vh.Sym.VarType.Identical(single.Sym.AsResolvedType()) {
			t.Errorf("enum member %q has wrong type", name)
		}
	}

	// Without HoistEnumParentScope, members must not leak into the
	// enclosing scope.
	if _, ok := fileScope.LookupSymbol("Red"); ok {
		t.Errorf("enum member leaked into parent scope despite default settings")
	}
}

func TestHoistEnumParentScopeSetting(t *testing.T) {
	global := symbol.NewGlobalScope()
	fileScope := global.FileScope("file:///a.as")
	settings := config.Default()
	settings.HoistEnumParentScope = true
	ctx := NewContext(global, "file:///a.as", settings)

	decl := &ast.EnumDecl{Ident: tok("Color"), Members: []ast.Token{tok("Red")}}
	hoistEnum(ctx, fileScope, decl)

	if _, ok := fileScope.LookupSymbol("Red"); !ok {
		t.Fatalf("enum member should be copied into parent scope when HoistEnumParentScope is set")
	}
}

func TestHoistEnumDuplicateDeclarationDiagnostic(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")

	fileScope.InsertSymbolAndCheck("Color", symbol.NewType(tok("Color"), fileScope.Path, symbol.Class))
	hoistEnum(ctx, fileScope, &ast.EnumDecl{Ident: tok("Color"), Members: nil})

	if ctx.Diags.Len() != 1 {
		t.Fatalf("expected exactly one duplicate-declaration diagnostic, got %d", ctx.Diags.Len())
	}
}

func TestHoistClassBindsThisAndTemplateParams(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")

	decl := &ast.ClassDecl{
		Ident:  tok("Box"),
		Params: []ast.TemplateParam{{Ident: tok("T")}},
	}
	hoistClass(ctx, fileScope, decl)
	ctx.DrainHoistQueue()

	memberScope, ok := fileScope.ChildScope("Box")
	if !ok {
		t.Fatalf("Box member scope not created")
	}

	thisHolder, ok := memberScope.LookupSymbol("this")
	if !ok {
		t.Fatalf("this not bound in class member scope")
	}
	thisSym := thisHolder.(symbol.SingleHolder).Sym
	if thisSym.Access != ast.AccessPrivate {
		t.Errorf("this should be private, got %v", thisSym.Access)
	}
	classHolder, _ := fileScope.LookupSymbol("Box")
	classSym := classHolder.(symbol.SingleHolder).Sym
	if !thisSym.VarType.Identical(classSym.AsResolvedType()) {
		t.Errorf("this should be typed as the owning class")
	}

	tpHolder, ok := memberScope.LookupSymbol("T")
	if !ok {
		t.Fatalf("template parameter T not bound in member scope")
	}
	tpSym := tpHolder.(symbol.SingleHolder).Sym
	if tpSym.Discriminator != symbol.TemplateParameter {
		t.Errorf("T should be a template-parameter type symbol")
	}
	if len(classSym.TemplateParams) != 1 || classSym.TemplateParams[0] != "T" {
		t.Errorf("class symbol should record template param name, got %+v", classSym.TemplateParams)
	}
}

func TestHoistClassCopiesPublicBaseMembersAndSkipsPrivate(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")

	base := &ast.ClassDecl{
		Ident: tok("Base"),
		Members: []ast.Node{
			&ast.VarDecl{Type: intType(), Ident: tok("pub"), Access: ast.AccessPublic, IsInstance: true},
			&ast.VarDecl{Type: intType(), Ident: tok("priv"), Access: ast.AccessPrivate, IsInstance: true},
		},
	}
	derived := &ast.ClassDecl{
		Ident: tok("Derived"),
		Bases: []ast.Token{tok("Base")},
	}

	hoistClass(ctx, fileScope, base)
	hoistClass(ctx, fileScope, derived)
	ctx.DrainHoistQueue()

	if ctx.Diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", ctx.Diags.Items())
	}

	derivedScope, ok := fileScope.ChildScope("Derived")
	if !ok {
		t.Fatalf("Derived member scope not created")
	}
	if _, ok := derivedScope.LookupSymbol("pub"); !ok {
		t.Errorf("public base member should be copied into derived scope")
	}
	if _, ok := derivedScope.LookupSymbol("priv"); ok {
		t.Errorf("private base member should not be copied into derived scope")
	}
}

func TestHoistClassUnresolvedBaseDiagnostic(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")

	decl := &ast.ClassDecl{Ident: tok("Derived"), Bases: []ast.Token{tok("Nonexistent")}}
	hoistClass(ctx, fileScope, decl)
	ctx.DrainHoistQueue()

	if ctx.Diags.Len() != 1 {
		t.Fatalf("expected one unresolved-base diagnostic, got %d: %+v", ctx.Diags.Len(), ctx.Diags.Items())
	}
}

func TestHoistFunctionRegistersConstructorAndQueuesBody(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")

	classDecl := &ast.ClassDecl{Ident: tok("Widget")}
	hoistClass(ctx, fileScope, classDecl)
	ctx.DrainHoistQueue()

	memberScope, _ := fileScope.ChildScope("Widget")
	ctorBody := &ast.StatBlock{}
	ctorDecl := &ast.FuncDecl{
		Ident:      tok("Widget"),
		ReturnType: nil,
		IsInstance: true,
		Body:       ctorBody,
	}
	hoistFunction(ctx, memberScope, ctorDecl)
	ctx.DrainHoistQueue()

	ctorHolder, ok := memberScope.LookupSymbol("$constructor")
	if !ok {
		t.Fatalf("constructor not registered under $constructor")
	}
	if len(ctorHolder.Symbols()) != 1 {
		t.Fatalf("expected exactly one constructor overload")
	}

	tasks := ctx.TakeAnalyzeQueue()
	found := false
	for _, task := range tasks {
		if task.Kind == TaskFunctionBody && task.Node == ast.Node(ctorBody) {
			found = true
		}
	}
	if !found {
		t.Errorf("constructor body was not queued for analysis")
	}
}

func TestHoistFunctionSkipsDestructor(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")

	before := fileScope.Table.Len()
	hoistFunction(ctx, fileScope, &ast.FuncDecl{Ident: tok("~Widget"), Body: &ast.StatBlock{}})
	if fileScope.Table.Len() != before {
		t.Errorf("destructor should not be hoisted as a named symbol")
	}
}

func TestMaybeSynthesizePropertyGetter(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")
	settings := config.Default()
	settings.ExplicitPropertyAccessor = false
	ctx.Settings = settings

	decl := &ast.FuncDecl{Ident: tok("get_Value"), ReturnType: intType()}
	holderScope := fileScope.InsertScope("get_Value", ast.Range{})
	bodyScope := symbol.NewScope(holderScope, newAnonymousIdent(), ast.Range{})
	fnSym := symbol.NewFunction(decl.Ident, fileScope.Path, symbol.Unresolved, nil, nil, false, ast.AccessPublic, decl)
	hoistParams(ctx, bodyScope, fnSym, decl)

	maybeSynthesizeProperty(ctx, fileScope, fnSym, decl)

	propHolder, ok := fileScope.LookupSymbol("Value")
	if !ok {
		t.Fatalf("property Value was not synthesized from get_Value")
	}
	propSym := propHolder.(symbol.SingleHolder).Sym
	if propSym.Kind != symbol.KindVariable {
		t.Errorf("synthesized property should be a variable symbol")
	}
}

func TestMaybeSynthesizePropertyRequiresAttributeWhenExplicit(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")
	// config.Default() sets ExplicitPropertyAccessor true.

	decl := &ast.FuncDecl{Ident: tok("get_Value"), ReturnType: intType(), IsProperty: false}
	fnSym := symbol.NewFunction(decl.Ident, fileScope.Path, symbol.Unresolved, nil, nil, false, ast.AccessPublic, decl)

	maybeSynthesizeProperty(ctx, fileScope, fnSym, decl)

	if _, ok := fileScope.LookupSymbol("Value"); ok {
		t.Errorf("property should not synthesize without the property attribute when ExplicitPropertyAccessor is set")
	}
}

func TestHoistNamespaceCreatesNestedScopesPerSegment(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")

	ns := &ast.Namespace{
		Segments: []ast.Token{tok("A"), tok("B")},
		Body: &ast.Script{
			Statements: []ast.Node{&ast.EnumDecl{Ident: tok("Kind"), Members: []ast.Token{tok("One")}}},
		},
	}
	hoistNamespace(ctx, fileScope, ns)

	aScope, ok := fileScope.ChildScope("A")
	if !ok {
		t.Fatalf("namespace segment A not created")
	}
	bScope, ok := aScope.ChildScope("B")
	if !ok {
		t.Fatalf("namespace segment B not created under A")
	}
	if _, ok := bScope.LookupSymbol("Kind"); !ok {
		t.Errorf("namespace body was not hoisted into the innermost segment scope")
	}
}

func TestHoistVirtualPropCreatesAccessorScopesAndValueParam(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")

	vp := &ast.VirtualProp{
		Type:  intType(),
		Ident: tok("Count"),
		Get:   &ast.StatBlock{},
		Set:   &ast.StatBlock{},
	}
	hoistVirtualProp(ctx, fileScope, vp)

	if _, ok := fileScope.LookupSymbol("Count"); !ok {
		t.Fatalf("virtual property symbol Count not declared")
	}
	setScope, ok := fileScope.ChildScope("set_Count")
	if !ok {
		t.Fatalf("set_Count scope not created")
	}
	if _, ok := setScope.LookupSymbol("value"); !ok {
		t.Errorf("synthetic value parameter missing from set_Count scope")
	}

	tasks := ctx.TakeAnalyzeQueue()
	if len(tasks) != 2 {
		t.Fatalf("expected getter and setter bodies both queued, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.Kind != TaskPropertyBody {
			t.Errorf("virtual property accessor tasks should be TaskPropertyBody, got %v", task.Kind)
		}
	}
}

func TestHoistGlobalVarDeferredForAuto(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")

	decl := &ast.VarDecl{Ident: tok("x"), IsAuto: true, Init: &ast.Literal{Kind: ast.LiteralInt, Text: "1"}}
	hoistGlobalVar(ctx, fileScope, decl)

	if _, ok := fileScope.LookupSymbol("x"); ok {
		t.Errorf("auto-typed global should not be declared until its initializer is analyzed")
	}
	tasks := ctx.TakeAnalyzeQueue()
	if len(tasks) != 1 || tasks[0].Kind != TaskVarInitializer || tasks[0].Owner != decl {
		t.Fatalf("expected exactly one TaskVarInitializer owned by decl, got %+v", tasks)
	}
}

func TestHoistGlobalVarDeclaredTypeInsertsImmediately(t *testing.T) {
	ctx, _, fileScope := newFileContext("file:///a.as")

	decl := &ast.VarDecl{Type: intType(), Ident: tok("x")}
	hoistGlobalVar(ctx, fileScope, decl)

	holder, ok := fileScope.LookupSymbol("x")
	if !ok {
		t.Fatalf("declared-type global should be inserted immediately")
	}
	sym := holder.(symbol.SingleHolder).Sym
	if sym.VarType.IsUnresolved() {
		t.Errorf("x should resolve to int, got unresolved")
	}
}
