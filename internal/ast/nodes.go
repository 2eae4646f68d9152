package ast

// Node is the sealed interface every AST node implements. The set of
// concrete types below is closed: traversal sites switch on the dynamic
// type, and the hoist and analyze phases skip any node type a given
// switch does not handle instead of panicking.
type Node interface {
	node()
	NodeRange() Range
}

type baseNode struct{ Range Range }

func (baseNode) node()                 {}
func (n baseNode) NodeRange() Range    { return n.Range }

// Script is the root of a single file's AST: a flat list of top-level
// statements (classes, interfaces, enums, namespaces, functions, global
// variables, typedefs, func-defs, mixins, and #include directives).
type Script struct {
	baseNode
	Statements []Node
}

// Include models a `#include "path"` directive extracted by the
// parser/preprocessor. The analyzer never resolves the path itself; that
// is the workspace resolver's job (spec §4.6).
type Include struct {
	baseNode
	PathToken Token // the quoted literal token, for diagnostics location
	Path      string
}

// Namespace is `namespace A::B::C { ... }`; Segments holds each identifier
// token in order and Body is hoisted into nested child scopes.
type Namespace struct {
	baseNode
	Segments []Token
	Body     *Script
}

// TemplateParam is a single template parameter identifier on a class,
// interface, or function.
type TemplateParam struct {
	Ident Token
}

// TypeRef is a type usage: `const A::B<T>[]@`. Scope qualifies the data
// type identifier; Args are template arguments (possibly empty); Array
// and Handle are suffix modifiers.
type TypeRef struct {
	baseNode
	Const       bool
	GlobalScope bool // leading `::`
	Scope       []Token
	Ident       Token
	Args        []*TypeRef
	Array       bool
	Handle      bool
}

// AccessModifier mirrors the three AngelScript member visibilities.
type AccessModifier int

const (
	AccessPublic AccessModifier = iota
	AccessProtected
	AccessPrivate
)

// ClassDecl is a class or (when Mixin is true) a mixin class declaration.
type ClassDecl struct {
	baseNode
	Ident    Token
	Mixin    bool
	Params   []TemplateParam
	Bases    []Token
	Members  []Node // FuncDecl, VarDecl, VirtualProp, nested ClassDecl/EnumDecl/FuncDefDecl
}

// InterfaceDecl is like ClassDecl but only ever contains method signatures
// and virtual properties; it has no bodies.
type InterfaceDecl struct {
	baseNode
	Ident   Token
	Bases   []Token
	Members []Node
}

// EnumDecl declares an enum type and its ordered member list.
type EnumDecl struct {
	baseNode
	Ident   Token
	Members []Token
}

// TypedefDecl aliases a builtin primitive type to a new identifier.
type TypedefDecl struct {
	baseNode
	Ident     Token
	Primitive Token
}

// FuncDefDecl is a function-typedef: `funcdef void Callback(int)`.
type FuncDefDecl struct {
	baseNode
	Ident      Token
	ReturnType *TypeRef
	Params     []ParamDecl
}

// ParamDecl is one parameter in a function signature.
type ParamDecl struct {
	Type  *TypeRef
	Ident Token // may be empty for unnamed parameters
}

// PropertyAttr marks a function declared with the `property` keyword.
type PropertyAttr struct{}

// FuncDecl is a method or global function declaration. Destructors have
// Ident.Text starting with "~" and are skipped by property-accessor
// synthesis and overload aggregation rules.
type FuncDecl struct {
	baseNode
	Ident          Token
	ReturnType     *TypeRef
	Params         []ParamDecl
	TemplateParams []TemplateParam
	IsProperty     bool
	Access         AccessModifier
	IsInstance     bool
	Body           *StatBlock // nil for interface method signatures
}

// VarDecl is a variable or member field declaration, optionally with an
// initializer expression.
type VarDecl struct {
	baseNode
	Type       *TypeRef
	Ident      Token
	Init       Node // initializer expression, nil if absent
	IsAuto     bool
	AutoToken  Token
	Access     AccessModifier
	IsInstance bool
}

// VirtualProp is `type ident { get {...} set {...} }`.
type VirtualProp struct {
	baseNode
	Type   *TypeRef
	Ident  Token
	Get    *StatBlock // nil if absent
	Set    *StatBlock // nil if absent
	Access AccessModifier
}

// StatBlock is `{ ... }`, a sequence of statements forming one scope.
type StatBlock struct {
	baseNode
	Statements []Node
}

// IfStmt, WhileStmt, DoWhileStmt, ForStmt, SwitchStmt, ReturnStmt, and
// ExprStmt are the statement forms the analyzer recurses through.
type IfStmt struct {
	baseNode
	Cond Node
	Then Node
	Else Node // nil if absent
}

type WhileStmt struct {
	baseNode
	Cond Node
	Body Node
}

type DoWhileStmt struct {
	baseNode
	Body Node
	Cond Node
}

type ForStmt struct {
	baseNode
	Init Node // VarDecl or ExprStmt, nil if absent
	Cond Node
	Post Node
	Body Node
}

type SwitchCase struct {
	Labels []Node // nil label slice element means `default`
	Body   []Node
}

type SwitchStmt struct {
	baseNode
	Cond  Node
	Cases []SwitchCase
}

type ReturnStmt struct {
	baseNode
	Value Node // nil for bare `return;`
}

type ExprStmt struct {
	baseNode
	Expr Node
}

// Identifier is a bare name reference, e.g. inside an expression.
type Identifier struct {
	baseNode
	Tok Token
}

// ScopeAccess is `A::B::ident`.
type ScopeAccess struct {
	baseNode
	GlobalScope bool
	Segments    []Token
	Ident       Token
}

// MemberAccess is `expr.ident`.
type MemberAccess struct {
	baseNode
	Target Node
	Ident  Token
	DotPos Position // position of the '.' itself, for completion triggers
}

// CallExpr is `callee(args)`; ArgNames parallels Args for `ident: expr`
// named-argument bindings (empty token means positional).
type CallExpr struct {
	baseNode
	Callee    Node
	Args      []Node
	ArgNames  []Token
}

// BinaryExpr covers all infix operators, including assignment and
// comparison; Op carries the literal operator text (e.g. "+", "==").
type BinaryExpr struct {
	baseNode
	Op    string
	Left  Node
	Right Node
}

// UnaryExpr covers prefix/postfix unary operators (`-x`, `x++`, ...).
type UnaryExpr struct {
	baseNode
	Op       string
	Postfix  bool
	Operand  Node
}

// IndexExpr is `expr[index]`.
type IndexExpr struct {
	baseNode
	Target Node
	Index  Node
}

// Literal is a primitive literal (int, float, string, bool, null).
type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralString
	LiteralBool
	LiteralNull
)

type Literal struct {
	baseNode
	Kind LiteralKind
	Text string
}

// CastExpr is `cast<T>(expr)`.
type CastExpr struct {
	baseNode
	Type   *TypeRef
	Target Node
}
