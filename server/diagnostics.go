package server

import (
	"context"
	"encoding/json"

	"github.com/carn181/angelscript-lsp/internal/diagnostics"
	"github.com/carn181/angelscript-lsp/logging"
	"github.com/carn181/angelscript-lsp/transport"
)

// PublishDiagnosticsLoop wires the Resolver's OnAnalyzed hook to a
// buffered channel drained by one goroutine, the same
// generate-then-forward shape as the teacher's GenerateDiagnostics, so
// the scheduler's own goroutine(s) never block on transport I/O.
func (s *Server) PublishDiagnosticsLoop(ctx context.Context) {
	s.diagChan = make(chan transport.PublishDiagnosticsParams, 64)
	s.Resolver.OnAnalyzed = func(uri string, diags []diagnostics.Diagnostic) {
		s.diagChan <- transport.PublishDiagnosticsParams{
			URI:         transport.DocumentURI(uri),
			Diagnostics: toLSPDiagnostics(diags),
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case diag := <-s.diagChan:
			content, err := json.Marshal(diag)
			if err != nil {
				logging.Logger.Error("marshal diagnostics failed", "error", err)
				continue
			}
			if err := s.Transport.WriteNotif("textDocument/publishDiagnostics", content); err != nil {
				logging.Logger.Error("publish diagnostics failed", "error", err)
			}
		}
	}
}

func toLSPDiagnostics(diags []diagnostics.Diagnostic) []transport.Diagnostic {
	out := make([]transport.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, transport.Diagnostic{
			Range:    lspRange(d.Range),
			Severity: toLSPSeverity(d.Severity),
			Source:   "angelscript-lsp",
			Message:  d.Message,
		})
	}
	return out
}

func toLSPSeverity(sev diagnostics.Severity) transport.DiagnosticSeverity {
	switch sev {
	case diagnostics.Error:
		return transport.SeverityError
	case diagnostics.Warning:
		return transport.SeverityWarning
	default:
		return transport.SeverityInformation
	}
}
