package analyzer

import (
	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/diagnostics"
	"github.com/carn181/angelscript-lsp/internal/hints"
	"github.com/carn181/angelscript-lsp/internal/symbol"
)

// operatorMethodNames is the fixed operator-overload table from spec.md
// §6: sigil -> candidate method names, tried in order (binary operators
// that support a reflected `_r` counterpart list it second).
var operatorMethodNames = map[string][]string{
	"-":   {"opSub", "opSub_r"},
	"~":   {"opCom"},
	"==":  {"opEquals"},
	"is":  {"opEquals"},
	"<=>": {"opCmp"},
	"=":   {"opAssign"},
	"+=":  {"opAddAssign"},
	"-=":  {"opSubAssign"},
	"*=":  {"opMulAssign"},
	"/=":  {"opDivAssign"},
	"%=":  {"opModAssign"},
	"**=": {"opPowAssign"},
	"&=":  {"opAndAssign"},
	"|=":  {"opOrAssign"},
	"^=":  {"opXorAssign"},
	"<<=": {"opShlAssign"},
	">>=": {"opShrAssign"},
	">>>=": {"opUShrAssign"},
	"+":   {"opAdd", "opAdd_r"},
	"*":   {"opMul", "opMul_r"},
	"/":   {"opDiv", "opDiv_r"},
	"%":   {"opMod", "opMod_r"},
	"**":  {"opPow", "opPow_r"},
	"&":   {"opAnd", "opAnd_r"},
	"|":   {"opOr", "opOr_r"},
	"^":   {"opXor", "opXor_r"},
	"<<":  {"opShl", "opShl_r"},
	">>":  {"opShr", "opShr_r"},
	">>>": {"opUShr", "opUShr_r"},
}

// unaryOperatorMethodNames covers the prefix operator names; analyzeUnary
// maps postfix ++/-- to opPostInc/opPostDec instead.
var unaryOperatorMethodNames = map[string]string{
	"-": "opNeg", "~": "opCom", "++": "opPreInc", "--": "opPreDec",
}

// findOperatorOverload looks up methodName on t's member scope (and its
// bases), the same resolution findMember performs for ordinary member
// access.
func findOperatorOverload(root *symbol.Scope, t symbol.ResolvedType, methodName string) (*symbol.Symbol, bool) {
	if t.Sym == nil {
		return nil, false
	}
	_, holder, ok := findMember(root, t.Sym, methodName)
	if !ok {
		return nil, false
	}
	fh, isFn := holder.(*symbol.FunctionHolder)
	if !isFn || len(fh.Overloads) == 0 {
		return nil, false
	}
	return fh.Overloads[0], true
}

func analyzeBinary(ctx *Context, scope *symbol.Scope, node *ast.BinaryExpr) symbol.ResolvedType {
	left := Expr(ctx, scope, node.Left)
	right := Expr(ctx, scope, node.Right)
	if left.IsUnresolved() || right.IsUnresolved() {
		return symbol.Unresolved
	}

	switch node.Op {
	case "&&", "||", "<", ">", "<=", ">=", "!=":
		return ctx.Hoist.Global.Primitive("bool").AsResolvedType()
	}

	if isNumeric(left) && isNumeric(right) {
		if node.Op == "==" {
			return ctx.Hoist.Global.Primitive("bool").AsResolvedType()
		}
		return left
	}

	names, known := operatorMethodNames[node.Op]
	if !known {
		ctx.Hoist.Diags.Errorf(diagnostics.TypeMismatch, node.NodeRange(), "unsupported operator %q", node.Op)
		return symbol.Unresolved
	}

	if fn, ok := findOperatorOverload(ctx.Hoist.Global.Root, left, names[0]); ok {
		return fn.ReturnType
	}
	if len(names) > 1 {
		if fn, ok := findOperatorOverload(ctx.Hoist.Global.Root, right, names[1]); ok {
			return fn.ReturnType
		}
	}
	// a == b may also try b.opEquals(a), per spec.md §4.5.
	if node.Op == "==" {
		if fn, ok := findOperatorOverload(ctx.Hoist.Global.Root, right, "opEquals"); ok {
			return fn.ReturnType
		}
	}

	ctx.Hoist.Diags.Errorf(diagnostics.OverloadResolutionFailure, node.NodeRange(),
		"no operator overload %s found for types %s and %s", names[0], typeName(left), typeName(right))
	return symbol.Unresolved
}

func analyzeUnary(ctx *Context, scope *symbol.Scope, node *ast.UnaryExpr) symbol.ResolvedType {
	operandType := Expr(ctx, scope, node.Operand)
	if operandType.IsUnresolved() {
		return symbol.Unresolved
	}
	if isNumeric(operandType) {
		return operandType
	}
	methodName, known := unaryOperatorMethodNames[node.Op]
	if node.Postfix {
		switch node.Op {
		case "++":
			methodName, known = "opPostInc", true
		case "--":
			methodName, known = "opPostDec", true
		}
	}
	if !known {
		return operandType
	}
	if fn, ok := findOperatorOverload(ctx.Hoist.Global.Root, operandType, methodName); ok {
		return fn.ReturnType
	}
	ctx.Hoist.Diags.Errorf(diagnostics.OverloadResolutionFailure, node.NodeRange(), "no operator overload %s found for type %s", methodName, typeName(operandType))
	return symbol.Unresolved
}

// conversionCost scores how many implicit conversions are required to
// pass an argument of type arg where param is expected, per spec.md
// §4.4's ranking: exact (0) > numeric-widening (1) > subtype/handle-
// compatible (2) > fail. An unresolved parameter or argument also scores
// 2; there is no separate any-type tier. A negative result means the
// overload is rejected outright.
func conversionCost(param, arg symbol.ResolvedType) int {
	if param.IsUnresolved() || arg.IsUnresolved() {
		return 2
	}
	if param.Sym == arg.Sym {
		return 0
	}
	if isNumeric(param) && isNumeric(arg) {
		return 1
	}
	if isSubtype(arg, param) {
		return 2
	}
	return -1
}

// scoredOverload pairs a candidate Function symbol with its call-site
// cost, used for tie-breaking in selectOverload.
type scoredOverload struct {
	fn   *symbol.Symbol
	cost int
}

// selectOverload implements spec.md §4.4 steps 2-4: score each candidate,
// reject incompatible ones, then break ties by fewer conversions,
// non-variadic over variadic, non-template over template, declaration
// order (declaration order falls out naturally since candidates are
// walked in the holder's insertion order and Go's sort is not invoked —
// the first minimal-cost, non-variadic, non-template candidate wins).
func selectOverload(candidates []*symbol.Symbol, argTypes []symbol.ResolvedType) (best *symbol.Symbol, ambiguous bool) {
	var scored []scoredOverload
	for _, fn := range candidates {
		if !fn.Variadic && len(fn.ParamTypes) != len(argTypes) {
			continue
		}
		total := 0
		ok := true
		for i, argType := range argTypes {
			var paramType symbol.ResolvedType
			if i < len(fn.ParamTypes) {
				paramType = fn.ParamTypes[i]
			} else if fn.Variadic && len(fn.ParamTypes) > 0 {
				paramType = fn.ParamTypes[len(fn.ParamTypes)-1]
			}
			cost := conversionCost(paramType, argType)
			if cost < 0 {
				ok = false
				break
			}
			total += cost
		}
		if !ok {
			continue
		}
		scored = append(scored, scoredOverload{fn: fn, cost: total})
	}
	if len(scored) == 0 {
		return nil, false
	}
	minCost := scored[0].cost
	for _, s := range scored[1:] {
		if s.cost < minCost {
			minCost = s.cost
		}
	}
	var tied []scoredOverload
	for _, s := range scored {
		if s.cost == minCost {
			tied = append(tied, s)
		}
	}
	if len(tied) == 1 {
		return tied[0].fn, false
	}
	// non-variadic over variadic
	var nonVariadic []scoredOverload
	for _, s := range tied {
		if !s.fn.Variadic {
			nonVariadic = append(nonVariadic, s)
		}
	}
	if len(nonVariadic) == 1 {
		return nonVariadic[0].fn, false
	}
	if len(nonVariadic) > 0 {
		tied = nonVariadic
	}
	// non-template over template
	var nonTemplate []scoredOverload
	for _, s := range tied {
		if len(s.fn.FuncTemplateParams) == 0 {
			nonTemplate = append(nonTemplate, s)
		}
	}
	if len(nonTemplate) == 1 {
		return nonTemplate[0].fn, false
	}
	if len(nonTemplate) > 0 {
		tied = nonTemplate
	}
	// declaration order: first remaining candidate in original order.
	first := tied[0].fn
	for _, cand := range candidates {
		for _, s := range tied {
			if s.fn == cand {
				return first, len(tied) > 1
			}
		}
	}
	return first, len(tied) > 1
}

func analyzeCall(ctx *Context, scope *symbol.Scope, node *ast.CallExpr) symbol.ResolvedType {
	holder, holderScope, ok := resolveCallee(ctx, scope, node.Callee)
	if !ok {
		ctx.Hoist.Diags.Errorf(diagnostics.UnresolvedName, node.NodeRange(), "callee is not callable")
		for _, a := range node.Args {
			Expr(ctx, scope, a)
		}
		return symbol.Unresolved
	}

	var argTypes []symbol.ResolvedType
	for _, a := range node.Args {
		argTypes = append(argTypes, Expr(ctx, scope, a))
	}

	candidates := holder.Symbols()
	best, ambiguous := selectOverload(candidates, argTypes)

	activeParam := len(node.Args) - 1
	if activeParam < 0 {
		activeParam = 0
	}
	ctx.Hints.Add(hints.Call(node.NodeRange(), candidates, activeParam))

	if best == nil {
		ctx.Hoist.Diags.Errorf(diagnostics.OverloadResolutionFailure, node.NodeRange(),
			"no matching overload among %d candidate(s)", len(candidates))
		return symbol.Unresolved
	}
	if ambiguous {
		ctx.Hoist.Diags.Errorf(diagnostics.OverloadResolutionFailure, node.NodeRange(), "ambiguous call")
	}
	recordReference(ctx, calleeToken(node.Callee), holderScope, best.Ident.Text)
	return best.ReturnType
}

// resolveCallee finds the function holder a call-site's callee expression
// names, supporting a bare identifier, a scope-qualified name, or a
// member access.
func resolveCallee(ctx *Context, scope *symbol.Scope, callee ast.Node) (symbol.Holder, symbol.ScopePath, bool) {
	switch c := callee.(type) {
	case *ast.Identifier:
		h, owner, ok := scope.LookupSymbolWithParent(c.Tok.Text)
		if !ok {
			return nil, nil, false
		}
		if _, isFn := h.(*symbol.FunctionHolder); !isFn {
			return nil, nil, false
		}
		return h, owner.Path, true
	case *ast.ScopeAccess:
		cur := scope
		if c.GlobalScope {
			cur = ctx.Hoist.Global.Root
		}
		for _, seg := range c.Segments {
			next, ok := cur.ChildScopeDeep(seg.Text)
			if !ok {
				return nil, nil, false
			}
			cur = next
		}
		h, ok := cur.LookupSymbol(c.Ident.Text)
		if !ok {
			return nil, nil, false
		}
		if _, isFn := h.(*symbol.FunctionHolder); !isFn {
			return nil, nil, false
		}
		return h, cur.Path, true
	case *ast.MemberAccess:
		targetType := Expr(ctx, scope, c.Target)
		if targetType.Sym == nil {
			return nil, nil, false
		}
		path, h, ok := findMember(ctx.Hoist.Global.Root, targetType.Sym, c.Ident.Text)
		if !ok {
			return nil, nil, false
		}
		if _, isFn := h.(*symbol.FunctionHolder); !isFn {
			return nil, nil, false
		}
		return h, path, true
	default:
		return nil, nil, false
	}
}

func calleeToken(callee ast.Node) ast.Token {
	switch c := callee.(type) {
	case *ast.Identifier:
		return c.Tok
	case *ast.ScopeAccess:
		return c.Ident
	case *ast.MemberAccess:
		return c.Ident
	default:
		return ast.Token{}
	}
}
