package analyzer

import (
	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/diagnostics"
	"github.com/carn181/angelscript-lsp/internal/hints"
	"github.com/carn181/angelscript-lsp/internal/hoist"
	"github.com/carn181/angelscript-lsp/internal/symbol"
)

// Context carries the hoist Context (global scope, settings, diagnostic
// sink) plus the hints list this analyze run is building.
type Context struct {
	Hoist *hoist.Context
	Hints *hints.List
}

// Drain pops every task the hoist phase deferred to the analyze queue
// and dispatches it by kind. Tasks are independent of one another within
// a file — spec.md §9 — so the only ordering requirement is FIFO, which
// TakeAnalyzeQueue already guarantees.
func Drain(ctx *Context) {
	for _, task := range ctx.Hoist.TakeAnalyzeQueue() {
		recordScopeRegion(ctx, task.Scope)
		switch task.Kind {
		case hoist.TaskFunctionBody, hoist.TaskPropertyBody:
			if block, ok := task.Node.(*ast.StatBlock); ok {
				Statement(ctx, task.Scope, block)
			}
		case hoist.TaskVarInitializer:
			analyzeVarInitializer(ctx, task.Scope, task)
		}
	}
}

func recordScopeRegion(ctx *Context, scope *symbol.Scope) {
	ctx.Hints.Add(hints.ScopeRegionHint(scope.Range, scope.Path))
}

func analyzeVarInitializer(ctx *Context, scope *symbol.Scope, task hoist.AnalyzeTask) {
	owner := task.Owner
	initType := symbol.Unresolved
	if task.Node != nil {
		initType = Expr(ctx, scope, task.Node)
	}
	if owner.IsAuto {
		ctx.Hints.Add(hints.AutoType(owner.AutoToken.Range, initType))
		sym := symbol.NewVariable(owner.Ident, scope.Path, initType, owner.IsInstance, owner.Access)
		if collided := scope.InsertSymbolAndCheck(owner.Ident.Text, sym); collided {
			ctx.Hoist.Diags.Errorf(diagnostics.DuplicateDeclaration, owner.Ident.Range, "duplicate declaration of %q", owner.Ident.Text)
		}
		return
	}
	declared := hoist.AnalyzeTypeRef(ctx.Hoist, scope, owner.Type)
	if !declared.IsUnresolved() && !initType.IsUnresolved() && !assignable(declared, initType) {
		ctx.Hoist.Diags.Errorf(diagnostics.TypeMismatch, owner.NodeRange(), "cannot initialize %q of type %s with value of type %s",
			owner.Ident.Text, typeName(declared), typeName(initType))
	}
}

// Statement dispatches on n's dynamic type, recursing structurally, per
// spec.md §4.5.
func Statement(ctx *Context, scope *symbol.Scope, n ast.Node) {
	if n == nil {
		return
	}
	switch node := n.(type) {
	case *ast.StatBlock:
		for _, s := range node.Statements {
			Statement(ctx, scope, s)
		}
	case *ast.VarDecl:
		analyzeLocalVar(ctx, scope, node)
	case *ast.IfStmt:
		Expr(ctx, scope, node.Cond)
		Statement(ctx, scope, node.Then)
		Statement(ctx, scope, node.Else)
	case *ast.WhileStmt:
		Expr(ctx, scope, node.Cond)
		Statement(ctx, scope, node.Body)
	case *ast.DoWhileStmt:
		Statement(ctx, scope, node.Body)
		Expr(ctx, scope, node.Cond)
	case *ast.ForStmt:
		Statement(ctx, scope, node.Init)
		Expr(ctx, scope, node.Cond)
		Expr(ctx, scope, node.Post)
		Statement(ctx, scope, node.Body)
	case *ast.SwitchStmt:
		Expr(ctx, scope, node.Cond)
		for _, c := range node.Cases {
			for _, label := range c.Labels {
				Expr(ctx, scope, label)
			}
			for _, s := range c.Body {
				Statement(ctx, scope, s)
			}
		}
	case *ast.ReturnStmt:
		analyzeReturn(ctx, scope, node)
	case *ast.ExprStmt:
		Expr(ctx, scope, node.Expr)
	}
}

func analyzeLocalVar(ctx *Context, scope *symbol.Scope, node *ast.VarDecl) {
	initType := symbol.Unresolved
	if node.Init != nil {
		initType = Expr(ctx, scope, node.Init)
	}
	if node.IsAuto {
		ctx.Hints.Add(hints.AutoType(node.AutoToken.Range, initType))
		sym := symbol.NewVariable(node.Ident, scope.Path, initType, false, node.Access)
		if collided := scope.InsertSymbolAndCheck(node.Ident.Text, sym); collided {
			ctx.Hoist.Diags.Errorf(diagnostics.DuplicateDeclaration, node.Ident.Range, "duplicate declaration of %q", node.Ident.Text)
		}
		return
	}
	declared := hoist.AnalyzeTypeRef(ctx.Hoist, scope, node.Type)
	sym := symbol.NewVariable(node.Ident, scope.Path, declared, false, node.Access)
	if collided := scope.InsertSymbolAndCheck(node.Ident.Text, sym); collided {
		ctx.Hoist.Diags.Errorf(diagnostics.DuplicateDeclaration, node.Ident.Range, "duplicate declaration of %q", node.Ident.Text)
	}
	if node.Init != nil && !declared.IsUnresolved() && !initType.IsUnresolved() && !assignable(declared, initType) {
		ctx.Hoist.Diags.Errorf(diagnostics.TypeMismatch, node.NodeRange(), "cannot initialize %q of type %s with value of type %s",
			node.Ident.Text, typeName(declared), typeName(initType))
	}
}

// enclosingFunctionReturnType walks up parent scopes to find the nearest
// function body scope, used to check a return statement's conformance.
func enclosingFunctionReturnType(scope *symbol.Scope) (symbol.ResolvedType, bool) {
	for cur := scope; cur != nil; cur = cur.Parent {
		if cur.OwnerFunction != nil {
			return cur.OwnerFunction.ReturnType, true
		}
	}
	return symbol.Unresolved, false
}

func analyzeReturn(ctx *Context, scope *symbol.Scope, node *ast.ReturnStmt) {
	var valueType symbol.ResolvedType
	if node.Value != nil {
		valueType = Expr(ctx, scope, node.Value)
	}
	retType, ok := enclosingFunctionReturnType(scope)
	if !ok || retType.IsUnresolved() || (node.Value != nil && valueType.IsUnresolved()) {
		return
	}
	if node.Value == nil {
		if retType.Sym != nil && retType.Sym.Ident.Text != "void" {
			ctx.Hoist.Diags.Errorf(diagnostics.TypeMismatch, node.NodeRange(), "missing return value for non-void function")
		}
		return
	}
	if !assignable(retType, valueType) {
		ctx.Hoist.Diags.Errorf(diagnostics.TypeMismatch, node.NodeRange(), "cannot return value of type %s from function returning %s",
			typeName(valueType), typeName(retType))
	}
}

func typeName(t symbol.ResolvedType) string {
	if t.IsUnresolved() {
		return "<unresolved>"
	}
	return t.Sym.Ident.Text
}

// assignable is a permissive compatibility check: identical symbols, or
// both sides numeric primitives (widening/narrowing between numeric
// primitives is always allowed, matching AngelScript's implicit numeric
// conversions), or src a subtype of dst, or either side unresolved (never
// double-diagnose a already-unresolved operand).
func assignable(dst, src symbol.ResolvedType) bool {
	if dst.IsUnresolved() || src.IsUnresolved() {
		return true
	}
	if dst.Sym == src.Sym {
		return true
	}
	if isNumeric(dst) && isNumeric(src) {
		return true
	}
	if dst.Handle && src.Handle && isSubtype(src, dst) {
		return true
	}
	return isSubtype(src, dst)
}

func isNumeric(t symbol.ResolvedType) bool {
	if t.Sym == nil || t.Sym.Discriminator != symbol.Primitive {
		return false
	}
	switch t.Sym.Ident.Text {
	case "bool", "void":
		return false
	default:
		return true
	}
}

// isSubtype reports whether src's type symbol is sub or identical to dst
// by walking the base list, supporting upcast assignment and handle
// compatibility scoring (spec.md §4.4 "handle-compatible").
func isSubtype(src, dst symbol.ResolvedType) bool {
	if src.Sym == nil || dst.Sym == nil {
		return false
	}
	seen := map[*symbol.Symbol]bool{}
	var walk func(s *symbol.Symbol) bool
	walk = func(s *symbol.Symbol) bool {
		if s == dst.Sym {
			return true
		}
		if seen[s] {
			return false
		}
		seen[s] = true
		for _, base := range s.Bases {
			if walk(base.Sym) {
				return true
			}
		}
		return false
	}
	return walk(src.Sym)
}
