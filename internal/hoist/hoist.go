package hoist

import (
	"strings"

	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/diagnostics"
	"github.com/carn181/angelscript-lsp/internal/symbol"
)

// Script hoists every top-level statement of script into scope, then
// drains the deferred hoist queue. Callers (the workspace resolver)
// invoke this once per file with scope set to the file's root scope.
func Script(ctx *Context, scope *symbol.Scope, script *ast.Script) {
	Statements(ctx, scope, script.Statements)
	ctx.DrainHoistQueue()
}

// Statements hoists a flat list of top-level-shaped statements — used for
// both a file's root statement list and a namespace's nested body.
func Statements(ctx *Context, scope *symbol.Scope, stmts []ast.Node) {
	for _, n := range stmts {
		statement(ctx, scope, n)
	}
}

func statement(ctx *Context, scope *symbol.Scope, n ast.Node) {
	switch node := n.(type) {
	case *ast.Include:
		// Include resolution is the workspace resolver's job (spec.md
		// §4.6); hoist itself does nothing with the directive.
	case *ast.EnumDecl:
		hoistEnum(ctx, scope, node)
	case *ast.TypedefDecl:
		hoistTypedef(ctx, scope, node)
	case *ast.ClassDecl:
		hoistClass(ctx, scope, node)
	case *ast.InterfaceDecl:
		hoistInterface(ctx, scope, node)
	case *ast.FuncDecl:
		hoistFunction(ctx, scope, node)
	case *ast.FuncDefDecl:
		hoistFuncDef(ctx, scope, node)
	case *ast.Namespace:
		hoistNamespace(ctx, scope, node)
	case *ast.VarDecl:
		hoistGlobalVar(ctx, scope, node)
	case *ast.VirtualProp:
		hoistVirtualProp(ctx, scope, node)
	default:
		// Statements only meaningful inside a function body (if/while/
		// expr/...) never appear at hoist-visible level; ignore them
		// here, they are handled by the analyze phase's statement walker.
	}
}

func hoistEnum(ctx *Context, scope *symbol.Scope, node *ast.EnumDecl) {
	sym := symbol.NewType(node.Ident, scope.Path, symbol.Enum)
	collided := scope.InsertSymbolAndCheck(node.Ident.Text, sym)
	if collided {
		ctx.Diags.Errorf(diagnostics.DuplicateDeclaration, node.Ident.Range, "duplicate declaration of %q", node.Ident.Text)
	}
	// The member scope is the spec's own linked-node for this type; reuse
	// it across a genuine redeclaration rather than discarding the first
	// occurrence's subtree (insert-scope-and-check, spec §4.1). The symbol
	// table check above already raises the diagnostic for the common
	// case; only raise here too if it somehow didn't (e.g. a stray scope
	// left behind without a matching symbol).
	memberScope, scopeExisted := scope.InsertScopeAndCheck(node.Ident.Text, node.NodeRange())
	if scopeExisted && !collided {
		ctx.Diags.Errorf(diagnostics.DuplicateDeclaration, node.Ident.Range, "duplicate declaration of %q", node.Ident.Text)
	}
	memberPath := memberScope.Path
	sym.MembersScope = &memberPath

	enumType := sym.AsResolvedType()
	for _, member := range node.Members {
		varSym := symbol.NewVariable(member, memberScope.Path, enumType, false, ast.AccessPublic)
		if collided := memberScope.InsertSymbolAndCheck(member.Text, varSym); collided {
			ctx.Diags.Errorf(diagnostics.DuplicateDeclaration, member.Range, "duplicate enum member %q", member.Text)
		}
		if ctx.Settings.HoistEnumParentScope {
			parentCopy := symbol.NewVariable(member, scope.Path, enumType, false, ast.AccessPublic)
			scope.InsertSymbol(member.Text, parentCopy)
		}
	}
}

func hoistTypedef(ctx *Context, scope *symbol.Scope, node *ast.TypedefDecl) {
	primSym := symbol.NewType(node.Primitive, scope.Path, symbol.Primitive)
	sym := symbol.NewType(node.Ident, scope.Path, symbol.Typedef)
	sym.Bases = []symbol.ResolvedType{primSym.AsResolvedType()}
	if collided := scope.InsertSymbolAndCheck(node.Ident.Text, sym); collided {
		ctx.Diags.Errorf(diagnostics.DuplicateDeclaration, node.Ident.Range, "duplicate declaration of %q", node.Ident.Text)
	}
}

func hoistClass(ctx *Context, scope *symbol.Scope, node *ast.ClassDecl) {
	sym := symbol.NewType(node.Ident, scope.Path, symbol.Class)
	collided := scope.InsertSymbolAndCheck(node.Ident.Text, sym)
	if collided {
		ctx.Diags.Errorf(diagnostics.DuplicateDeclaration, node.Ident.Range, "duplicate declaration of %q", node.Ident.Text)
	}
	memberScope, scopeExisted := scope.InsertScopeAndCheck(node.Ident.Text, node.NodeRange())
	if scopeExisted && !collided {
		ctx.Diags.Errorf(diagnostics.DuplicateDeclaration, node.Ident.Range, "duplicate declaration of %q", node.Ident.Text)
	}
	memberPath := memberScope.Path
	sym.MembersScope = &memberPath

	thisType := sym.AsResolvedType()
	thisTok := ast.Token{Text: "this", Range: node.Ident.Range}
	memberScope.InsertSymbol("this", symbol.NewVariable(thisTok, memberScope.Path, thisType, true, ast.AccessPrivate))

	for _, tp := range node.Params {
		sym.TemplateParams = append(sym.TemplateParams, tp.Ident.Text)
		paramSym := symbol.NewType(tp.Ident, memberScope.Path, symbol.TemplateParameter)
		memberScope.InsertSymbol(tp.Ident.Text, paramSym)
	}

	var bases []ast.Token
	for _, baseTok := range node.Bases {
		h, _, ok := scope.LookupSymbolWithParent(baseTok.Text)
		if !ok {
			ctx.Diags.Errorf(diagnostics.UnresolvedName, baseTok.Range, "base %q not found", baseTok.Text)
			continue
		}
		single, isType := h.(symbol.SingleHolder)
		if !isType || single.Sym.Kind != symbol.KindType {
			ctx.Diags.Errorf(diagnostics.TypeMismatch, baseTok.Range, "%q is not a type", baseTok.Text)
			continue
		}
		sym.Bases = append(sym.Bases, single.Sym.AsResolvedType())
		bases = append(bases, baseTok)
	}

	members := node.Members
	ctx.DeferHoist(func(c *Context) {
		Statements(c, memberScope, members)
	})
	ctx.DeferHoist(func(c *Context) {
		copyBaseMembers(c, memberScope, bases, node.Ident.Range)
	})
}

// copyBaseMembers materializes inherited members into a derived class's
// member scope, skipping `private` members and the base's `this` — spec.md
// invariant 6 — and injects a `super` constructor holder cloned from the
// first base's constructors, if any — spec.md §9's flagged non-standard
// "clone every constructor" behavior, kept as specified.
func copyBaseMembers(ctx *Context, derived *symbol.Scope, bases []ast.Token, at ast.Range) {
	for i, baseTok := range bases {
		h, _, ok := derived.Parent.LookupSymbolWithParent(baseTok.Text)
		if !ok {
			continue
		}
		single, isType := h.(symbol.SingleHolder)
		if !isType || single.Sym.MembersScope == nil {
			continue
		}
		baseScope, ok := symbol.ResolveScope(derived.Parent.Root(), *single.Sym.MembersScope)
		if !ok {
			continue
		}
		for pair := baseScope.Table.Oldest(); pair != nil; pair = pair.Next() {
			ident, holder := pair.Key, pair.Value
			if ident == "this" {
				continue
			}
			for _, memberSym := range holder.Symbols() {
				if memberSym.Access == ast.AccessPrivate {
					continue
				}
				if collided := derived.InsertSymbolAndCheck(ident, memberSym); collided {
					ctx.Diags.Errorf(diagnostics.DuplicateDeclaration, at, "inherited member %q collides with existing declaration", ident)
				}
			}
		}
		if i == 0 {
			if ctorHolder, ok := baseScope.LookupSymbol("$constructor"); ok {
				for _, ctor := range ctorHolder.Symbols() {
					superSym := *ctor
					superSym.Ident = ast.Token{Text: "super", Range: at}
					derived.InsertSymbol("super", &superSym)
				}
			}
		}
	}
}

func hoistInterface(ctx *Context, scope *symbol.Scope, node *ast.InterfaceDecl) {
	sym := symbol.NewType(node.Ident, scope.Path, symbol.Interface)
	collided := scope.InsertSymbolAndCheck(node.Ident.Text, sym)
	if collided {
		ctx.Diags.Errorf(diagnostics.DuplicateDeclaration, node.Ident.Range, "duplicate declaration of %q", node.Ident.Text)
	}
	memberScope, scopeExisted := scope.InsertScopeAndCheck(node.Ident.Text, node.NodeRange())
	if scopeExisted && !collided {
		ctx.Diags.Errorf(diagnostics.DuplicateDeclaration, node.Ident.Range, "duplicate declaration of %q", node.Ident.Text)
	}
	memberPath := memberScope.Path
	sym.MembersScope = &memberPath

	for _, baseTok := range node.Bases {
		h, _, ok := scope.LookupSymbolWithParent(baseTok.Text)
		if !ok {
			ctx.Diags.Errorf(diagnostics.UnresolvedName, baseTok.Range, "base %q not found", baseTok.Text)
			continue
		}
		if single, isType := h.(symbol.SingleHolder); isType {
			sym.Bases = append(sym.Bases, single.Sym.AsResolvedType())
		}
	}

	members := node.Members
	ctx.DeferHoist(func(c *Context) {
		Statements(c, memberScope, members)
	})
}

func hoistFunction(ctx *Context, scope *symbol.Scope, node *ast.FuncDecl) {
	if node.Ident.Text != "" && strings.HasPrefix(node.Ident.Text, "~") {
		return // destructors are not hoisted
	}

	holderScope := scope.InsertScope(node.Ident.Text, node.NodeRange())
	bodyScope := symbol.NewScope(holderScope, newAnonymousIdent(), node.NodeRange())
	bodyPath := bodyScope.Path

	fnSym := symbol.NewFunction(node.Ident, scope.Path, symbol.Unresolved, nil, nil, node.IsInstance, node.Access, node)
	fnSym.BodyScope = &bodyPath
	bodyScope.OwnerFunction = fnSym
	for _, tp := range node.TemplateParams {
		fnSym.FuncTemplateParams = append(fnSym.FuncTemplateParams, tp.Ident.Text)
		bodyScope.InsertSymbol(tp.Ident.Text, symbol.NewType(tp.Ident, bodyScope.Path, symbol.TemplateParameter))
	}
	scope.InsertSymbol(node.Ident.Text, fnSym)
	if isConstructorName(node.Ident.Text, scope) {
		scope.InsertSymbol("$constructor", fnSym)
	}

	ctx.DeferHoist(func(c *Context) {
		hoistParams(c, bodyScope, fnSym, node)
		maybeSynthesizeProperty(c, scope, fnSym, node)
	})

	if node.Body != nil {
		ctx.DeferAnalyze(AnalyzeTask{Kind: TaskFunctionBody, Scope: bodyScope, Node: node.Body})
	}
}

// isConstructorName reports whether ident matches the owning class's own
// name, i.e. this FuncDecl is a constructor.
func isConstructorName(ident string, classMemberScope *symbol.Scope) bool {
	if classMemberScope == nil || len(classMemberScope.Path) == 0 {
		return false
	}
	return classMemberScope.Path[len(classMemberScope.Path)-1] == ident
}

func hoistParams(ctx *Context, bodyScope *symbol.Scope, fnSym *symbol.Symbol, node *ast.FuncDecl) {
	ret := analyzeTypeRef(ctx, bodyScope.Parent, node.ReturnType)
	fnSym.ReturnType = ret

	for _, p := range node.Params {
		pt := analyzeTypeRef(ctx, bodyScope.Parent, p.Type)
		fnSym.ParamTypes = append(fnSym.ParamTypes, pt)
		fnSym.ParamNames = append(fnSym.ParamNames, p.Ident.Text)
		if p.Ident.Text != "" {
			bodyScope.InsertSymbol(p.Ident.Text, symbol.NewVariable(p.Ident, bodyScope.Path, pt, false, ast.AccessPublic))
		}
	}
}

// maybeSynthesizeProperty implements spec.md §4.2's property-accessor
// synthesis rule: a get_X/set_X function becomes a synthetic variable X
// when either explicitPropertyAccessor is off or the function itself
// carries the property attribute.
func maybeSynthesizeProperty(ctx *Context, scope *symbol.Scope, fnSym *symbol.Symbol, node *ast.FuncDecl) {
	isGet := strings.HasPrefix(node.Ident.Text, "get_")
	isSet := strings.HasPrefix(node.Ident.Text, "set_")
	if !isGet && !isSet {
		if node.IsProperty {
			ctx.Diags.Errorf(diagnostics.PropertyContract, node.Ident.Range, "property attribute used on non-accessor name %q", node.Ident.Text)
		}
		return
	}
	if ctx.Settings.ExplicitPropertyAccessor && !node.IsProperty {
		return
	}
	propName := node.Ident.Text[4:]
	var propType symbol.ResolvedType
	if isGet {
		propType = fnSym.ReturnType
	} else if len(fnSym.ParamTypes) > 0 {
		propType = fnSym.ParamTypes[0]
	}
	propTok := ast.Token{Text: propName, Range: node.Ident.Range}
	propSym := symbol.NewVariable(propTok, scope.Path, propType, node.IsInstance, node.Access)
	scope.InsertSymbol(propName, propSym)
}

func hoistFuncDef(ctx *Context, scope *symbol.Scope, node *ast.FuncDefDecl) {
	fnSym := symbol.NewFunction(node.Ident, scope.Path, symbol.Unresolved, nil, nil, false, ast.AccessPublic, nil)
	if collided := scope.InsertSymbolAndCheck(node.Ident.Text, fnSym); collided {
		ctx.Diags.Errorf(diagnostics.DuplicateDeclaration, node.Ident.Range, "duplicate declaration of %q", node.Ident.Text)
	}
	ret, params := node.ReturnType, node.Params
	ctx.DeferHoist(func(c *Context) {
		fnSym.ReturnType = analyzeTypeRef(c, scope, ret)
		for _, p := range params {
			fnSym.ParamTypes = append(fnSym.ParamTypes, analyzeTypeRef(c, scope, p.Type))
			fnSym.ParamNames = append(fnSym.ParamNames, p.Ident.Text)
		}
	})
}

func hoistNamespace(ctx *Context, scope *symbol.Scope, node *ast.Namespace) {
	cur := scope
	for _, seg := range node.Segments {
		next := cur.InsertScope(seg.Text, node.NodeRange())
		cur = next
	}
	if node.Body != nil {
		Statements(ctx, cur, node.Body.Statements)
	}
}

func hoistVirtualProp(ctx *Context, scope *symbol.Scope, node *ast.VirtualProp) {
	t := analyzeTypeRef(ctx, scope, node.Type)
	sym := symbol.NewVariable(node.Ident, scope.Path, t, true, node.Access)
	if collided := scope.InsertSymbolAndCheck(node.Ident.Text, sym); collided {
		ctx.Diags.Errorf(diagnostics.DuplicateDeclaration, node.Ident.Range, "duplicate declaration of %q", node.Ident.Text)
	}

	if node.Get != nil {
		getScope := scope.InsertScope("get_"+node.Ident.Text, node.NodeRange())
		ctx.DeferAnalyze(AnalyzeTask{Kind: TaskPropertyBody, Scope: getScope, Node: node.Get})
	}
	if node.Set != nil {
		setScope := scope.InsertScope("set_"+node.Ident.Text, node.NodeRange())
		valueTok := ast.Token{Text: "value", Range: node.Ident.Range}
		setScope.InsertSymbol("value", symbol.NewVariable(valueTok, setScope.Path, t, false, ast.AccessPublic))
		ctx.DeferAnalyze(AnalyzeTask{Kind: TaskPropertyBody, Scope: setScope, Node: node.Set})
	}
}

func hoistGlobalVar(ctx *Context, scope *symbol.Scope, node *ast.VarDecl) {
	if node.IsAuto {
		ctx.DeferAnalyze(AnalyzeTask{Kind: TaskVarInitializer, Scope: scope, Node: node.Init, Owner: node})
		return
	}
	t := analyzeTypeRef(ctx, scope, node.Type)
	sym := symbol.NewVariable(node.Ident, scope.Path, t, node.IsInstance, node.Access)
	if collided := scope.InsertSymbolAndCheck(node.Ident.Text, sym); collided {
		ctx.Diags.Errorf(diagnostics.DuplicateDeclaration, node.Ident.Range, "duplicate declaration of %q", node.Ident.Text)
	}
	if node.Init != nil {
		ctx.DeferAnalyze(AnalyzeTask{Kind: TaskVarInitializer, Scope: scope, Node: node.Init, Owner: node})
	}
}
