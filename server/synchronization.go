package server

import (
	"context"
	"encoding/json"

	"github.com/carn181/angelscript-lsp/logging"
	"github.com/carn181/angelscript-lsp/transport"
)

// TextDocumentOpen registers the file with the Resolver at direct
// priority, mirroring the teacher's TextDocumentOpen but through the
// scheduler instead of a Files store.
func TextDocumentOpen(ctx context.Context, s *Server, par json.RawMessage) error {
	var params transport.DidOpenTextDocumentParams
	json.Unmarshal(par, &params)
	s.Resolver.DidOpen(string(params.TextDocument.URI), params.TextDocument.Text)
	logging.Logger.Debug("opened file", "uri", params.TextDocument.URI)
	return nil
}

// TextDocumentChange applies each content-change event (full or
// incremental, per the client's negotiated sync kind) and re-enqueues the
// file for direct-tier reanalysis.
func TextDocumentChange(ctx context.Context, s *Server, par json.RawMessage) error {
	var params transport.DidChangeTextDocumentParams
	json.Unmarshal(par, &params)

	uri := string(params.TextDocument.URI)
	rec, _ := s.Resolver.Record(uri)
	content := ""
	if rec != nil {
		content = rec.PreprocessedOutput
	}

	for _, change := range params.ContentChanges {
		if change.Range == nil {
			content = change.Text
			continue
		}
		content = ApplyIncrementalChange(*change.Range, change.Text, content, s.Encoding)
	}

	s.Resolver.DidChange(uri, content)
	logging.Logger.Debug("changed file", "uri", uri)
	return nil
}

// TextDocumentClose marks the file closed; a dependent file still sees it
// reanalyzed lazily if its on-disk content later changes (spec.md §4.6).
func TextDocumentClose(ctx context.Context, s *Server, par json.RawMessage) error {
	var params transport.DidCloseTextDocumentParams
	json.Unmarshal(par, &params)
	s.Resolver.DidClose(string(params.TextDocument.URI))
	logging.Logger.Debug("closed file", "uri", params.TextDocument.URI)
	return nil
}
