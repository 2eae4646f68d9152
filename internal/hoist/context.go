// Package hoist implements the first semantic pass described in spec.md
// §4.2: a recursive walk over a file's AST that declares every named
// entity — types, variables, functions, namespaces — without resolving
// any function body, so later analysis can see forward and mutually
// recursive references.
package hoist

import (
	"github.com/google/uuid"

	list "github.com/bahlo/generic-list-go"

	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/config"
	"github.com/carn181/angelscript-lsp/internal/diagnostics"
	"github.com/carn181/angelscript-lsp/internal/symbol"
)

// AnalyzeTaskKind discriminates the three analyze-queue payload shapes
// spec.md §4.5 names: a function/accessor body, a variable initializer,
// or a virtual-property accessor body. All three are "a scope and an AST
// fragment" as the spec puts it; Kind only changes which entry point the
// analyze phase dispatches to.
type AnalyzeTaskKind int

const (
	TaskFunctionBody AnalyzeTaskKind = iota
	TaskVarInitializer
	TaskPropertyBody
)

// AnalyzeTask is one deferred unit of body-level work queued during
// hoist and drained during analyze.
type AnalyzeTask struct {
	Kind  AnalyzeTaskKind
	Scope *symbol.Scope
	Node  ast.Node // *ast.StatBlock for bodies, the initializer Node for TaskVarInitializer
	// Owner links a TaskVarInitializer task back to the VarDecl being
	// hoisted, since the variable symbol for an `auto` declaration is
	// only finalized once the initializer's type is known.
	Owner *ast.VarDecl
}

// Context threads the state one file's hoist+analyze run shares, per
// spec.md §9's "Global mutable state" design note: rather than a
// process-wide active scope and sink, the scheduler owns one Context per
// in-flight per-file pipeline.
type Context struct {
	Global   *symbol.GlobalScope
	FileURI  string
	Settings config.Settings
	Diags    *diagnostics.Sink

	hoistQueue   *list.List[func(*Context)]
	analyzeQueue *list.List[AnalyzeTask]
}

// NewContext builds a fresh per-file context with empty queues.
func NewContext(global *symbol.GlobalScope, fileURI string, settings config.Settings) *Context {
	return &Context{
		Global:       global,
		FileURI:      fileURI,
		Settings:     settings,
		Diags:        diagnostics.NewSink(),
		hoistQueue:   list.New[func(*Context)](),
		analyzeQueue: list.New[AnalyzeTask](),
	}
}

// DeferHoist enqueues a closure to run once the current recursive hoist
// walk has finished (base-class copy, parameter-list resolution, member
// hoisting — spec.md §4.2's "hoist queue").
func (c *Context) DeferHoist(fn func(*Context)) {
	c.hoistQueue.PushBack(fn)
}

// DeferAnalyze enqueues body-level work for the analyze phase.
func (c *Context) DeferAnalyze(task AnalyzeTask) {
	c.analyzeQueue.PushBack(task)
}

// DrainHoistQueue runs every deferred hoist task to completion. A task
// may itself enqueue further deferred steps (e.g. base-class copy
// scheduling a second deferred step), so the loop keeps popping from the
// front until the queue is empty rather than iterating a fixed snapshot.
func (c *Context) DrainHoistQueue() {
	for {
		front := c.hoistQueue.Front()
		if front == nil {
			return
		}
		c.hoistQueue.Remove(front)
		front.Value(c)
	}
}

// TakeAnalyzeQueue detaches and returns every queued analyze task, in
// FIFO order, leaving the context's queue empty. The analyzer package
// calls this once hoist has fully drained.
func (c *Context) TakeAnalyzeQueue() []AnalyzeTask {
	var out []AnalyzeTask
	for e := c.analyzeQueue.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value)
	}
	c.analyzeQueue.Init()
	return out
}

// newAnonymousIdent returns a synthetic identifier for an anonymous
// scope (a function body, a block statement) — spec.md invariant 4: "a
// function's body scope is anonymous (unique synthetic identifier)".
func newAnonymousIdent() string {
	return "$anon$" + uuid.NewString()
}
