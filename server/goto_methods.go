package server

import (
	"context"
	"encoding/json"

	"github.com/carn181/angelscript-lsp/internal/symbol"
	"github.com/carn181/angelscript-lsp/transport"
)

// GetDefinition answers textDocument/definition from the reference
// recorded at the cursor, reusing the declaration-site scope/ident pair a
// Reference stores (spec.md §3).
func GetDefinition(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	var params transport.DefinitionParams
	json.Unmarshal(par, &params)

	rec := s.flushed(string(params.TextDocument.URI))
	if rec == nil || rec.AnalyzerResult == nil {
		return respond(id, json.RawMessage("null"))
	}

	ref, ok := referenceAt(rec.AnalyzerResult.Global, string(params.TextDocument.URI), astPosition(params.Position))
	if !ok {
		return respond(id, json.RawMessage("null"))
	}

	scope, ok := symbol.ResolveScope(rec.AnalyzerResult.Global.Root, ref.ToPath)
	if !ok {
		return respond(id, json.RawMessage("null"))
	}
	h, ok := scope.LookupSymbol(ref.ToIdent)
	if !ok || len(h.Symbols()) == 0 {
		return respond(id, json.RawMessage("null"))
	}
	declFile := ref.ToPath[1]

	loc := transport.Location{
		URI:   transport.DocumentURI(declFile),
		Range: lspRange(h.Symbols()[0].Ident.Range),
	}
	resultBytes, err := json.Marshal(loc)
	if err != nil {
		return nil, err
	}
	return respond(id, resultBytes)
}

// GetReferences answers textDocument/references: every recorded Reference
// resolving to the same (path, ident) the cursor sits on, across every
// file record the resolver currently tracks.
func GetReferences(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	var params transport.ReferenceParams
	json.Unmarshal(par, &params)

	rec := s.flushed(string(params.TextDocument.URI))
	if rec == nil || rec.AnalyzerResult == nil {
		return respond(id, json.RawMessage("[]"))
	}

	ref, ok := referenceAt(rec.AnalyzerResult.Global, string(params.TextDocument.URI), astPosition(params.Position))
	if !ok {
		return respond(id, json.RawMessage("[]"))
	}

	var locs []transport.Location
	for _, other := range rec.AnalyzerResult.Global.ReferencesTo(ref.ToPath, ref.ToIdent) {
		locs = append(locs, transport.Location{
			URI:   transport.DocumentURI(other.FromFile),
			Range: lspRange(other.FromRange),
		})
	}
	if params.Context.IncludeDeclaration {
		if scope, ok := symbol.ResolveScope(rec.AnalyzerResult.Global.Root, ref.ToPath); ok {
			if h, ok := scope.LookupSymbol(ref.ToIdent); ok && len(h.Symbols()) > 0 {
				locs = append(locs, transport.Location{
					URI:   transport.DocumentURI(ref.ToPath[1]),
					Range: lspRange(h.Symbols()[0].Ident.Range),
				})
			}
		}
	}

	resultBytes, err := json.Marshal(locs)
	if err != nil {
		return nil, err
	}
	return respond(id, resultBytes)
}

// DocumentHighlight answers textDocument/documentHighlight: every
// reference in the *current* file resolving to the symbol at the cursor
// (SPEC_FULL.md §4).
func DocumentHighlight(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	var params transport.DocumentHighlightParams
	json.Unmarshal(par, &params)

	uri := string(params.TextDocument.URI)
	rec := s.flushed(uri)
	if rec == nil || rec.AnalyzerResult == nil {
		return respond(id, json.RawMessage("[]"))
	}

	ref, ok := referenceAt(rec.AnalyzerResult.Global, uri, astPosition(params.Position))
	if !ok {
		return respond(id, json.RawMessage("[]"))
	}

	var out []transport.DocumentHighlight
	for _, other := range rec.AnalyzerResult.Global.ReferencesTo(ref.ToPath, ref.ToIdent) {
		if other.FromFile != uri {
			continue
		}
		out = append(out, transport.DocumentHighlight{Range: lspRange(other.FromRange), Kind: transport.HighlightRead})
	}

	resultBytes, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return respond(id, resultBytes)
}

// Rename answers textDocument/rename: a WorkspaceEdit touching the
// declaration token plus every recorded reference across every tracked
// file (SPEC_FULL.md §4 "cross-file rename").
func Rename(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	var params transport.RenameParams
	json.Unmarshal(par, &params)

	uri := string(params.TextDocument.URI)
	rec := s.flushed(uri)
	if rec == nil || rec.AnalyzerResult == nil {
		return respond(id, json.RawMessage("null"))
	}

	ref, ok := referenceAt(rec.AnalyzerResult.Global, uri, astPosition(params.Position))
	if !ok {
		return respond(id, json.RawMessage("null"))
	}

	changes := map[transport.DocumentURI][]transport.TextEdit{}
	addEdit := func(file string, r transport.Range) {
		docURI := transport.DocumentURI(file)
		changes[docURI] = append(changes[docURI], transport.TextEdit{Range: r, NewText: params.NewName})
	}

	for _, other := range rec.AnalyzerResult.Global.ReferencesTo(ref.ToPath, ref.ToIdent) {
		addEdit(other.FromFile, lspRange(other.FromRange))
	}
	if scope, ok := symbol.ResolveScope(rec.AnalyzerResult.Global.Root, ref.ToPath); ok {
		if h, ok := scope.LookupSymbol(ref.ToIdent); ok {
			for _, sym := range h.Symbols() {
				addEdit(ref.ToPath[1], lspRange(sym.Ident.Range))
			}
		}
	}

	resultBytes, err := json.Marshal(transport.WorkspaceEdit{Changes: changes})
	if err != nil {
		return nil, err
	}
	return respond(id, resultBytes)
}
