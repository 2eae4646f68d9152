package server

import (
	"context"
	"encoding/json"

	"github.com/carn181/angelscript-lsp/internal/workspace"
	"github.com/carn181/angelscript-lsp/logging"
	"github.com/carn181/angelscript-lsp/transport"
	"github.com/carn181/angelscript-lsp/util"
)

// Initialize negotiates position encoding and reports the capabilities
// this module actually serves (spec.md §6, SPEC_FULL.md §4).
func Initialize(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	s.Status = Initializing
	var params transport.InitializeParams
	json.Unmarshal(par, &params)
	logging.Logger.Info("got initialize parameters", "params", string(par))

	s.Encoding = "utf-16"
	if params.Capabilities.General != nil {
		for _, enc := range params.Capabilities.General.PositionEncodings {
			if enc == "utf-8" || enc == "utf-32" {
				s.Encoding = enc
				break
			}
		}
	}
	encoding := s.Encoding

	s.Capabilities = transport.ServerCapabilities{
		PositionEncoding: &encoding,
		TextDocumentSync: &transport.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    2, // incremental
		},
		DocumentSymbolProvider:    true,
		WorkspaceSymbolProvider:   true,
		CompletionProvider:        &transport.CompletionOptions{TriggerCharacters: []string{".", ":"}},
		SignatureHelpProvider:     &transport.SignatureHelpOptions{TriggerCharacters: []string{"(", ","}},
		HoverProvider:             true,
		DefinitionProvider:        true,
		ReferencesProvider:        true,
		DocumentHighlightProvider: true,
		RenameProvider:            true,
		FoldingRangeProvider:      true,
		InlayHintProvider:         true,
		SemanticTokensProvider: &transport.SemanticTokensOptions{
			Legend: semanticTokensLegend,
			Full:   true,
		},
	}

	if params.RootURI != nil {
		root, err := util.URI2path(string(*params.RootURI))
		if err == nil {
			s.Root = root
		}
	}
	logging.Logger.Info("got workspace root", "root", s.Root)

	result := transport.InitializeResult{Capabilities: s.Capabilities}
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return respond(id, resultBytes)
}

// Initialized starts the scheduler loop and the filesystem watcher now
// that the workspace root is known.
func Initialized(ctx context.Context, s *Server, par json.RawMessage) error {
	s.Status = Running

	go s.Resolver.Run(ctx)

	if s.Root != "" && util.IsValidPath(s.Root) {
		w, err := workspace.NewWatcher(s.Resolver, s.Root)
		if err != nil {
			logging.Logger.Error("failed to start workspace watcher", "error", err)
		} else {
			s.Watcher = w
			go w.Run(ctx)
		}
	}

	go s.PublishDiagnosticsLoop(ctx)

	logging.Logger.Info("server running")
	return nil
}

// ShutdownEnd answers the shutdown request; actual teardown happens once
// exit arrives.
func ShutdownEnd(ctx context.Context, s *Server, id interface{}, par json.RawMessage) (json.RawMessage, error) {
	s.Status = Shutdown
	return respond(id, json.RawMessage("null"))
}

// ExitEnd stops the main loop, exiting cleanly only if shutdown preceded it.
func ExitEnd(ctx context.Context, s *Server, par json.RawMessage) error {
	if s.Status == Shutdown {
		s.Status = Exit
	} else {
		s.Status = ExitError
	}
	return nil
}
