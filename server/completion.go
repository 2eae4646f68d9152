package server

import (
	"context"
	"encoding/json"

	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/internal/hints"
	"github.com/carn181/angelscript-lsp/internal/symbol"
	"github.com/carn181/angelscript-lsp/internal/workspace"
	"github.com/carn181/angelscript-lsp/logging"
	"github.com/carn181/angelscript-lsp/transport"
)

// flushed is a small convenience wrapper so every handler below reads a
// record guaranteed current up to and including the last direct-tier
// edit, per the Flush contract spec.md §5's ordering guarantee 3 gives.
func (s *Server) flushed(uri string) *workspace.PartialInspectRecord {
	return s.Resolver.Flush(uri)
}

// Completion answers textDocument/completion using the AutocompleteInstanceMember
// and AutocompleteNamespaceAccess complement hints when the cursor sits in
// a `.` or `::` context, falling back to unscoped lexical-scope-chain
// completion otherwise.
func Completion(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	var params transport.CompletionParams
	json.Unmarshal(par, &params)

	rec := s.flushed(string(params.TextDocument.URI))
	if rec == nil || rec.AnalyzerResult == nil {
		return respond(id, json.RawMessage("null"))
	}

	pos := astPosition(params.Position)
	var items []transport.CompletionItem

	triggerHints := rec.AnalyzerResult.Hints.At(pos)
	switch hint, kind := pickTrigger(triggerHints); kind {
	case hints.KindAutocompleteInstanceMember:
		items = completeMembers(rec.AnalyzerResult.Global.Root, hint.MemberTarget)
	case hints.KindAutocompleteNamespaceAccess:
		if scope, ok := symbol.ResolveScope(rec.AnalyzerResult.Global.Root, hint.NamespacePath); ok {
			items = completeScopeTable(scope)
		}
	default:
		if path, ok := rec.AnalyzerResult.Hints.EnclosingScopeRegion(pos); ok {
			if scope, ok := symbol.ResolveScope(rec.AnalyzerResult.Global.Root, path); ok {
				items = completeScopeChain(scope)
			}
		}
	}

	list := transport.CompletionList{Items: items}
	resultBytes, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	logging.Logger.Debug("completion results", "count", len(items))
	return respond(id, resultBytes)
}

// pickTrigger returns the innermost member-access or namespace-access
// hint covering the cursor, if any — those two take priority over a bare
// unscoped completion because they're strictly more specific.
func pickTrigger(covering []hints.Hint) (hints.Hint, hints.Kind) {
	for i := len(covering) - 1; i >= 0; i-- {
		switch covering[i].Kind {
		case hints.KindAutocompleteInstanceMember, hints.KindAutocompleteNamespaceAccess:
			return covering[i], covering[i].Kind
		}
	}
	return hints.Hint{}, -1
}

func completeMembers(root *symbol.Scope, target symbol.ResolvedType) []transport.CompletionItem {
	if target.IsUnresolved() || target.Sym == nil || target.Sym.MembersScope == nil {
		return nil
	}
	scope, ok := symbol.ResolveScope(root, *target.Sym.MembersScope)
	if !ok {
		return nil
	}
	return completeScopeTable(scope)
}

func completeScopeTable(scope *symbol.Scope) []transport.CompletionItem {
	var items []transport.CompletionItem
	for pair := scope.Table.Oldest(); pair != nil; pair = pair.Next() {
		items = append(items, holderCompletionItems(pair.Key, pair.Value)...)
	}
	return items
}

// completeScopeChain walks from scope up through enclosing scopes (and,
// for a file-root scope, its flattened Includes) collecting every table
// entry. An identifier is emitted only the first time it is seen, so an
// inner scope's entry shadows same-named entries of enclosing scopes and
// included files.
func completeScopeChain(scope *symbol.Scope) []transport.CompletionItem {
	var items []transport.CompletionItem
	seen := map[string]bool{}
	for cur := scope; cur != nil; cur = cur.Parent {
		for pair := cur.Table.Oldest(); pair != nil; pair = pair.Next() {
			if seen[pair.Key] {
				continue
			}
			seen[pair.Key] = true
			items = append(items, holderCompletionItems(pair.Key, pair.Value)...)
		}
		if cur.IsFile {
			for _, inc := range cur.Includes {
				for pair := inc.Table.Oldest(); pair != nil; pair = pair.Next() {
					if seen[pair.Key] {
						continue
					}
					seen[pair.Key] = true
					items = append(items, holderCompletionItems(pair.Key, pair.Value)...)
				}
			}
		}
	}
	return items
}

func holderCompletionItems(ident string, h symbol.Holder) []transport.CompletionItem {
	var items []transport.CompletionItem
	for _, sym := range h.Symbols() {
		items = append(items, transport.CompletionItem{
			Label:  ident,
			Kind:   completionKind(sym),
			Detail: symbolDetail(sym),
		})
	}
	return items
}

func completionKind(sym *symbol.Symbol) transport.CompletionItemKind {
	switch sym.Kind {
	case symbol.KindFunction:
		return transport.FunctionCompletion
	case symbol.KindType:
		if sym.Discriminator == symbol.Enum {
			return transport.EnumCompletion
		}
		return transport.ClassCompletion
	default:
		return transport.VariableCompletion
	}
}

func symbolDetail(sym *symbol.Symbol) string {
	switch sym.Kind {
	case symbol.KindFunction:
		return typeName(sym.ReturnType) + " " + sym.Ident.Text + "(...)"
	case symbol.KindVariable:
		return typeName(sym.VarType)
	default:
		return sym.Ident.Text
	}
}

func typeName(t symbol.ResolvedType) string {
	if t.IsUnresolved() {
		return "?"
	}
	name := t.Sym.Ident.Text
	if t.Handle {
		name += "@"
	}
	if t.Array {
		name += "[]"
	}
	return name
}

// Hover answers textDocument/hover by finding the declaration a reference
// at the cursor resolves to and describing its signature.
func Hover(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	var params transport.HoverParams
	json.Unmarshal(par, &params)

	rec := s.flushed(string(params.TextDocument.URI))
	if rec == nil || rec.AnalyzerResult == nil {
		return respond(id, json.RawMessage("null"))
	}

	pos := astPosition(params.Position)
	ref, ok := referenceAt(rec.AnalyzerResult.Global, string(params.TextDocument.URI), pos)
	if !ok {
		return respond(id, json.RawMessage("null"))
	}

	scope, ok := symbol.ResolveScope(rec.AnalyzerResult.Global.Root, ref.ToPath)
	if !ok {
		return respond(id, json.RawMessage("null"))
	}
	h, ok := scope.LookupSymbol(ref.ToIdent)
	if !ok {
		return respond(id, json.RawMessage("null"))
	}

	var detail string
	for _, sym := range h.Symbols() {
		if detail != "" {
			detail += "\n"
		}
		detail += symbolDetail(sym)
	}

	hover := transport.Hover{
		Contents: transport.MarkupContent{Kind: transport.Markdown, Value: "```angelscript\n" + detail + "\n```"},
		Range:    refRangePtr(ref),
	}
	resultBytes, err := json.Marshal(hover)
	if err != nil {
		return nil, err
	}
	return respond(id, resultBytes)
}

func refRangePtr(ref symbol.Reference) *transport.Range {
	r := lspRange(ref.FromRange)
	return &r
}

// referenceAt finds the reference recorded from uri whose FromRange
// contains pos, the declaration-site lookup both Hover and GetDefinition
// share.
func referenceAt(global *symbol.GlobalScope, uri string, pos ast.Position) (symbol.Reference, bool) {
	for _, ref := range global.References {
		if ref.FromFile == uri && ref.FromRange.ContainsPosition(pos) {
			return ref, true
		}
	}
	return symbol.Reference{}, false
}

// SignatureHelp answers textDocument/signatureHelp from the FunctionCall
// complement hint covering the cursor (spec.md §8 "Round-trips").
func SignatureHelp(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	var params transport.SignatureHelpParams
	json.Unmarshal(par, &params)

	rec := s.flushed(string(params.TextDocument.URI))
	if rec == nil || rec.AnalyzerResult == nil {
		return respond(id, json.RawMessage("null"))
	}

	pos := astPosition(params.Position)
	callHints := rec.AnalyzerResult.Hints.OfKind(hints.KindFunctionCall)
	var active *hints.Hint
	for i := range callHints {
		if callHints[i].Range.ContainsPosition(pos) {
			active = &callHints[i]
		}
	}
	if active == nil {
		return respond(id, json.RawMessage("null"))
	}

	var sigs []transport.SignatureInformation
	for _, cand := range active.Candidates {
		var params []transport.ParameterInformation
		for i, pt := range cand.ParamTypes {
			name := ""
			if i < len(cand.ParamNames) {
				name = cand.ParamNames[i]
			}
			params = append(params, transport.ParameterInformation{Label: typeName(pt) + " " + name})
		}
		sigs = append(sigs, transport.SignatureInformation{
			Label:      symbolDetail(cand),
			Parameters: params,
		})
	}

	help := transport.SignatureHelp{
		Signatures:      sigs,
		ActiveParameter: active.ActiveParam,
	}
	resultBytes, err := json.Marshal(help)
	if err != nil {
		return nil, err
	}
	return respond(id, resultBytes)
}

// InlayHints renders each AutoTypeResolution complement hint in range as
// an inlay type annotation (spec.md §3, SPEC_FULL.md §4).
func InlayHints(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	var params transport.InlayHintParams
	json.Unmarshal(par, &params)

	rec := s.flushed(string(params.TextDocument.URI))
	if rec == nil || rec.AnalyzerResult == nil {
		return respond(id, json.RawMessage("[]"))
	}

	want := astRange(params.Range)
	var out []transport.InlayHint
	for _, h := range rec.AnalyzerResult.Hints.OfKind(hints.KindAutoTypeResolution) {
		if !want.Contains(h.Range) {
			continue
		}
		out = append(out, transport.InlayHint{
			Position: lspPosition(h.Range.End),
			Label:    ": " + typeName(h.InferredType),
			Kind:     transport.InlayHintKindType,
		})
	}
	resultBytes, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return respond(id, resultBytes)
}
