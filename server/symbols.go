package server

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/hints"
	"github.com/carn181/angelscript-lsp/internal/symbol"
	"github.com/carn181/angelscript-lsp/transport"
)

// semanticTokenTypes is the token-type half of the legend advertised at
// initialize time; indices here are what SemanticTokensFull encodes into
// each token's tokenType slot. Modifiers are left empty since nothing in
// SPEC_FULL.md's semantic-tokens scope needs them yet.
var semanticTokenTypes = []string{
	"namespace", "class", "interface", "enum", "enumMember",
	"function", "method", "variable", "property", "parameter", "type",
}

var semanticTokensLegend = transport.SemanticTokensLegend{
	TokenTypes:     semanticTokenTypes,
	TokenModifiers: []string{},
}

func tokenTypeIndex(name string) uint32 {
	for i, t := range semanticTokenTypes {
		if t == name {
			return uint32(i)
		}
	}
	return 0
}

// semanticTokenTypeFor classifies a symbol by its discriminator, the rule
// SPEC_FULL.md §4 asks for.
func semanticTokenTypeFor(sym *symbol.Symbol) uint32 {
	switch sym.Kind {
	case symbol.KindFunction:
		if sym.IsInstanceMember {
			return tokenTypeIndex("method")
		}
		return tokenTypeIndex("function")
	case symbol.KindVariable:
		if sym.IsInstanceMember {
			return tokenTypeIndex("property")
		}
		return tokenTypeIndex("variable")
	case symbol.KindType:
		switch sym.Discriminator {
		case symbol.Enum:
			return tokenTypeIndex("enum")
		case symbol.Interface:
			return tokenTypeIndex("interface")
		default:
			return tokenTypeIndex("class")
		}
	}
	return tokenTypeIndex("variable")
}

// symbolKindFor maps a Symbol onto the LSP DocumentSymbol/SymbolInformation
// SymbolKind enum.
func symbolKindFor(sym *symbol.Symbol) transport.SymbolKind {
	switch sym.Kind {
	case symbol.KindFunction:
		if sym.Ident.Text != "" && sym.Ident.Text[0] == '~' {
			return transport.SymbolKindConstructor
		}
		if sym.IsInstanceMember {
			return transport.SymbolKindMethod
		}
		return transport.SymbolKindFunction
	case symbol.KindVariable:
		if sym.IsInstanceMember {
			return transport.SymbolKindField
		}
		return transport.SymbolKindVariable
	case symbol.KindType:
		switch sym.Discriminator {
		case symbol.Enum:
			return transport.SymbolKindEnum
		case symbol.Interface:
			return transport.SymbolKindInterface
		default:
			return transport.SymbolKindClass
		}
	}
	return transport.SymbolKindVariable
}

// TextDocumentSymbol answers textDocument/documentSymbol by walking the
// file's root scope into a DocumentSymbol tree, following a type's
// MembersScope or a function's BodyScope to recurse into its members
// (spec.md §6's "supplemented LSP features").
func TextDocumentSymbol(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	var params transport.DocumentSymbolParams
	json.Unmarshal(par, &params)

	uri := string(params.TextDocument.URI)
	rec := s.flushed(uri)
	if rec == nil || rec.AnalyzerResult == nil {
		return respond(id, json.RawMessage("[]"))
	}

	root := rec.AnalyzerResult.Global.Root
	fileScope, ok := root.ChildScope(uri)
	if !ok {
		return respond(id, json.RawMessage("[]"))
	}

	out := documentSymbolsForScope(root, fileScope)
	resultBytes, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return respond(id, resultBytes)
}

func documentSymbolsForScope(root, scope *symbol.Scope) []transport.DocumentSymbol {
	var out []transport.DocumentSymbol
	for pair := scope.Table.Oldest(); pair != nil; pair = pair.Next() {
		for _, sym := range pair.Value.Symbols() {
			out = append(out, documentSymbolFor(root, sym))
		}
	}
	return out
}

func documentSymbolFor(root *symbol.Scope, sym *symbol.Symbol) transport.DocumentSymbol {
	ds := transport.DocumentSymbol{
		Name:           sym.Ident.Text,
		Kind:           symbolKindFor(sym),
		Range:          lspRange(sym.Ident.Range),
		SelectionRange: lspRange(sym.Ident.Range),
	}

	var childPath *symbol.ScopePath
	switch sym.Kind {
	case symbol.KindType:
		childPath = sym.MembersScope
	case symbol.KindFunction:
		childPath = sym.BodyScope
	}
	if childPath != nil {
		if childScope, ok := symbol.ResolveScope(root, *childPath); ok {
			ds.Range = lspRange(childScope.Range)
			ds.Children = documentSymbolsForScope(root, childScope)
		}
	}
	return ds
}

// WorkspaceSymbol answers workspace/symbol with a flat, fuzzy (substring,
// case-insensitive) scan over every tracked file's scope tree, ranked by
// match position within the name (SPEC_FULL.md §4).
func WorkspaceSymbol(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	var params transport.WorkspaceSymbolParams
	json.Unmarshal(par, &params)

	var out []transport.SymbolInformation
	for _, rec := range s.Resolver.AllRecords() {
		if rec.AnalyzerResult == nil {
			continue
		}
		root := rec.AnalyzerResult.Global.Root
		fileScope, ok := root.ChildScope(rec.URI)
		if !ok {
			continue
		}
		collectWorkspaceSymbols(fileScope, rec.URI, params.Query, &out)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return fuzzyMatchIndex(out[i].Name, params.Query) < fuzzyMatchIndex(out[j].Name, params.Query)
	})

	resultBytes, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return respond(id, resultBytes)
}

func collectWorkspaceSymbols(scope *symbol.Scope, uri, query string, out *[]transport.SymbolInformation) {
	for pair := scope.Table.Oldest(); pair != nil; pair = pair.Next() {
		for _, sym := range pair.Value.Symbols() {
			if fuzzyMatchIndex(sym.Ident.Text, query) < 0 {
				continue
			}
			*out = append(*out, transport.SymbolInformation{
				Name: sym.Ident.Text,
				Kind: symbolKindFor(sym),
				Location: transport.Location{
					URI:   transport.DocumentURI(uri),
					Range: lspRange(sym.Ident.Range),
				},
			})
		}
	}
	for pair := scope.Children.Oldest(); pair != nil; pair = pair.Next() {
		collectWorkspaceSymbols(pair.Value, uri, query, out)
	}
}

// fuzzyMatchIndex returns the position of query within name (case
// insensitive), or -1 if it doesn't occur. An empty query matches
// everything at position 0.
func fuzzyMatchIndex(name, query string) int {
	if query == "" {
		return 0
	}
	return strings.Index(strings.ToLower(name), strings.ToLower(query))
}

// FoldingRanges answers textDocument/foldingRange directly from the
// ScopeRegion complement hints recorded during analysis, rather than
// re-walking the AST (SPEC_FULL.md §4).
func FoldingRanges(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	var params transport.FoldingRangeParams
	json.Unmarshal(par, &params)

	rec := s.flushed(string(params.TextDocument.URI))
	if rec == nil || rec.AnalyzerResult == nil {
		return respond(id, json.RawMessage("[]"))
	}

	var out []transport.FoldingRange
	for _, h := range rec.AnalyzerResult.Hints.OfKind(hints.KindScopeRegion) {
		if h.Range.End.Line <= h.Range.Start.Line {
			continue
		}
		out = append(out, transport.FoldingRange{
			StartLine: h.Range.Start.Line,
			EndLine:   h.Range.End.Line,
			Kind:      transport.FoldingRegion,
		})
	}

	resultBytes, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return respond(id, resultBytes)
}

// semToken is an intermediate, pre-delta-encoded semantic token.
type semToken struct {
	line, char, length uint32
	tokenType          uint32
}

// SemanticTokensFull answers textDocument/semanticTokens/full: one token
// per declaration in the file plus one per reference recorded from it,
// classified by the referenced symbol's discriminator and delta-encoded
// per the LSP semantic-tokens wire format (SPEC_FULL.md §4).
func SemanticTokensFull(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	var params transport.SemanticTokensParams
	json.Unmarshal(par, &params)

	uri := string(params.TextDocument.URI)
	rec := s.flushed(uri)
	if rec == nil || rec.AnalyzerResult == nil {
		resultBytes, _ := json.Marshal(transport.SemanticTokens{Data: []uint32{}})
		return respond(id, resultBytes)
	}

	global := rec.AnalyzerResult.Global
	root := global.Root

	var toks []semToken
	if fileScope, ok := root.ChildScope(uri); ok {
		collectDeclarationTokens(fileScope, &toks)
	}
	for _, ref := range global.References {
		if ref.FromFile != uri {
			continue
		}
		scope, ok := symbol.ResolveScope(root, ref.ToPath)
		if !ok {
			continue
		}
		h, ok := scope.LookupSymbol(ref.ToIdent)
		if !ok || len(h.Symbols()) == 0 {
			continue
		}
		toks = append(toks, semToken{
			line:      ref.FromRange.Start.Line,
			char:      ref.FromRange.Start.Column,
			length:    rangeLength(ref.FromRange),
			tokenType: semanticTokenTypeFor(h.Symbols()[0]),
		})
	}

	sort.Slice(toks, func(i, j int) bool {
		if toks[i].line != toks[j].line {
			return toks[i].line < toks[j].line
		}
		return toks[i].char < toks[j].char
	})

	data := make([]uint32, 0, len(toks)*5)
	var prevLine, prevChar uint32
	for _, t := range toks {
		deltaLine := t.line - prevLine
		deltaChar := t.char
		if deltaLine == 0 {
			deltaChar = t.char - prevChar
		}
		data = append(data, deltaLine, deltaChar, t.length, t.tokenType, 0)
		prevLine, prevChar = t.line, t.char
	}

	resultBytes, err := json.Marshal(transport.SemanticTokens{Data: data})
	if err != nil {
		return nil, err
	}
	return respond(id, resultBytes)
}

func collectDeclarationTokens(scope *symbol.Scope, out *[]semToken) {
	for pair := scope.Table.Oldest(); pair != nil; pair = pair.Next() {
		for _, sym := range pair.Value.Symbols() {
			*out = append(*out, semToken{
				line:      sym.Ident.Range.Start.Line,
				char:      sym.Ident.Range.Start.Column,
				length:    rangeLength(sym.Ident.Range),
				tokenType: semanticTokenTypeFor(sym),
			})
		}
	}
	for pair := scope.Children.Oldest(); pair != nil; pair = pair.Next() {
		collectDeclarationTokens(pair.Value, out)
	}
}

// rangeLength returns a token's length in columns, assuming (as every
// identifier token does) that it never spans multiple lines.
func rangeLength(r ast.Range) uint32 {
	if r.End.Column <= r.Start.Column {
		return 1
	}
	return r.End.Column - r.Start.Column
}
