package workspace

import (
	"testing"

	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/config"
	"github.com/carn181/angelscript-lsp/internal/symbol"
)

func tok(text string) ast.Token {
	return ast.Token{Text: text}
}

// scriptParser returns a Parser that looks up a fixed *ast.Script per URI,
// ignoring the content argument — the tests build ASTs directly rather
// than exercising a real tokenizer/parser, which is out of this module's
// scope.
func scriptParser(scripts map[string]*ast.Script) Parser {
	return ParserFunc(func(uri, content string) ParseResult {
		return ParseResult{AST: scripts[uri]}
	})
}

func TestResolverDidOpenAndFlushProducesAnalyzerResult(t *testing.T) {
	uri := "file:///tmp/angelscript-lsp-test-ws/a.as"
	script := &ast.Script{
		Statements: []ast.Node{
			&ast.ClassDecl{Ident: tok("Foo")},
		},
	}
	r := NewResolver(config.Default(), scriptParser(map[string]*ast.Script{uri: script}))

	r.DidOpen(uri, "class Foo {}")
	rec := r.Flush(uri)

	if rec == nil || rec.AnalyzerResult == nil {
		t.Fatalf("Flush should produce an analyzed record")
	}

	fileScope, ok := r.Global.Root.ChildScope(uri)
	if !ok {
		t.Fatalf("file scope not created for %s", uri)
	}
	if _, ok := fileScope.LookupSymbol("Foo"); !ok {
		t.Errorf("Foo should be declared in the file's scope after analysis")
	}
}

func TestResolverFlushIsIdempotentOnUnchangedContent(t *testing.T) {
	uri := "file:///tmp/angelscript-lsp-test-ws/a.as"
	script := &ast.Script{Statements: []ast.Node{&ast.ClassDecl{Ident: tok("Foo")}}}
	r := NewResolver(config.Default(), scriptParser(map[string]*ast.Script{uri: script}))

	r.DidOpen(uri, "class Foo {}")
	first := r.Flush(uri)
	second := r.Flush(uri)

	if first != second {
		t.Errorf("Flush should return the same record pointer once nothing is queued")
	}
}

func TestResolverResolvesAcrossIncludes(t *testing.T) {
	aURI := "file:///tmp/angelscript-lsp-test-ws/a.as"
	bURI := "file:///tmp/angelscript-lsp-test-ws/b.as"

	aScript := &ast.Script{Statements: []ast.Node{&ast.ClassDecl{Ident: tok("Foo")}}}
	bScript := &ast.Script{
		Statements: []ast.Node{
			&ast.Include{Path: "a.as"},
			&ast.VarDecl{Type: &ast.TypeRef{Ident: tok("Foo")}, Ident: tok("f")},
		},
	}

	r := NewResolver(config.Default(), scriptParser(map[string]*ast.Script{aURI: aScript, bURI: bScript}))
	r.DidOpen(aURI, "class Foo {}")
	r.DidOpen(bURI, "#include \"a.as\"\nFoo f;")

	rec := r.Flush(bURI)
	if rec == nil || rec.AnalyzerResult == nil {
		t.Fatalf("Flush(b) should produce an analyzed record")
	}

	aRec, ok := r.Record(aURI)
	if !ok || aRec.AnalyzerResult == nil {
		t.Fatalf("including b should transitively analyze a")
	}

	bFileScope, ok := r.Global.Root.ChildScope(bURI)
	if !ok {
		t.Fatalf("b's file scope should exist")
	}
	holder, ok := bFileScope.LookupSymbol("f")
	if !ok {
		t.Fatalf("f should be declared in b's scope")
	}
	fSym := holder.(symbol.SingleHolder).Sym
	if fSym.VarType.IsUnresolved() {
		t.Errorf("f's type Foo should resolve across the #include, got unresolved")
	}
	if fSym.VarType.Sym == nil || fSym.VarType.Sym.Ident.Text != "Foo" {
		t.Errorf("f should be typed as Foo, got %+v", fSym.VarType)
	}
}

func TestResolverDidChangeReenqueuesDirectTier(t *testing.T) {
	uri := "file:///tmp/angelscript-lsp-test-ws/a.as"
	script1 := &ast.Script{Statements: []ast.Node{&ast.ClassDecl{Ident: tok("Foo")}}}
	script2 := &ast.Script{Statements: []ast.Node{&ast.ClassDecl{Ident: tok("Bar")}}}

	scripts := map[string]*ast.Script{uri: script1}
	r := NewResolver(config.Default(), scriptParser(scripts))

	r.DidOpen(uri, "class Foo {}")
	r.Flush(uri)

	scripts[uri] = script2
	r.DidChange(uri, "class Bar {}")
	r.Flush(uri)

	fileScope, _ := r.Global.Root.ChildScope(uri)
	if _, ok := fileScope.LookupSymbol("Bar"); !ok {
		t.Errorf("after DidChange+Flush, the file scope should reflect the new content")
	}
}

func TestResolverRemoveDropsRecordAndScope(t *testing.T) {
	uri := "file:///tmp/angelscript-lsp-test-ws/a.as"
	script := &ast.Script{Statements: []ast.Node{&ast.ClassDecl{Ident: tok("Foo")}}}
	r := NewResolver(config.Default(), scriptParser(map[string]*ast.Script{uri: script}))

	r.DidOpen(uri, "class Foo {}")
	r.Flush(uri)
	r.Remove(uri)

	if _, ok := r.Record(uri); ok {
		t.Errorf("Remove should drop the file's record")
	}
	if _, ok := r.Global.Root.ChildScope(uri); ok {
		t.Errorf("Remove should drop the file's scope")
	}
}

func TestEnqueueLockedPromotesToMoreUrgentTier(t *testing.T) {
	r := NewResolver(config.Default(), scriptParser(nil))
	r.enqueueLocked("x", TierLazyIndirect)
	r.enqueueLocked("x", TierDirect)

	uri, tier, ok := r.popLocked()
	if !ok || uri != "x" || tier != TierDirect {
		t.Fatalf("x should have been promoted to TierDirect, got tier=%v ok=%v", tier, ok)
	}
}

func TestEnqueueLockedDoesNotDemote(t *testing.T) {
	r := NewResolver(config.Default(), scriptParser(nil))
	r.enqueueLocked("x", TierDirect)
	r.enqueueLocked("x", TierLazyIndirect)

	uri, tier, ok := r.popLocked()
	if !ok || uri != "x" || tier != TierDirect {
		t.Fatalf("a pending direct-tier entry should not be demoted, got tier=%v ok=%v", tier, ok)
	}
}
