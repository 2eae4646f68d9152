// Package server implements the LSP request/notification dispatch loop
// and the handlers backing spec.md §6's external-interfaces table, wired
// against an internal/workspace.Resolver instead of the teacher's
// tree-sitter-backed file store.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"

	"github.com/carn181/angelscript-lsp/internal/config"
	"github.com/carn181/angelscript-lsp/internal/workspace"
	"github.com/carn181/angelscript-lsp/logging"
	"github.com/carn181/angelscript-lsp/transport"
)

type ServerState int

const (
	Created ServerState = iota
	Initializing
	Running
	Shutdown
	Exit
	ExitError
)

// Server is the LSP server: one JSON-RPC transport, one workspace
// Resolver, and one filesystem Watcher feeding it. Unlike the teacher's
// Server (which owned a separate Workspace and Files store that had to be
// kept in sync by hand on every change), all document and analysis state
// lives in Resolver, so synchronization handlers only ever call into it.
type Server struct {
	Capabilities transport.ServerCapabilities

	Resolver *workspace.Resolver
	Watcher  *workspace.Watcher
	Settings config.Settings

	Root     string
	Encoding string // "utf-8" | "utf-16" | "utf-32", negotiated at initialize

	Status ServerState
	mu     sync.Mutex

	Transport transport.Transport

	reqIdCtr int
	diagChan chan transport.PublishDiagnosticsParams
}

// Init prepares the transport and the workspace Resolver; it does not
// start the scheduler loop or the filesystem watcher, both of which need
// the workspace root from the client's initialize request first. port is
// only consulted when transp is transport.Socket; pass 0 to accept
// transport.DefaultPort.
func (s *Server) Init(transp transport.TransportMethod, port int, parser workspace.Parser, settings config.Settings) {
	s.Status = Created
	s.Transport.Port = port
	s.Transport.Init(transport.Server, transp)
	s.Settings = settings
	s.Resolver = workspace.NewResolver(settings, parser)
	s.Encoding = "utf-16"
}

// Run drives the main loop until ctx is cancelled or the transport ends.
func (s *Server) Run(ctx context.Context) error {
	var returnError error
	end := make(chan error, 1)
	go s.Loop(ctx, end)
	select {
	case err := <-end:
		if err != nil {
			logging.Logger.Error("server loop ended with error", "error", err)
			returnError = errors.New(err.Error())
		} else {
			logging.Logger.Info("server exited cleanly")
		}
	case <-ctx.Done():
		logging.Logger.Info("canceling main loop")
	}

	if s.Watcher != nil {
		s.Watcher.Close()
	}
	return returnError
}

// Loop is the central LSP read-dispatch-write loop, unchanged in shape
// from the teacher's Server.Loop: notifications and requests other than
// shutdown/exit are dispatched to their own goroutine so a slow analysis
// never blocks reading the next message off the wire.
func (s *Server) Loop(ctx context.Context, end chan<- error) {
	var err error
	var msg []byte
	var method string

	for s.Status != Exit && s.Status != ExitError && !s.Transport.Closed && err == nil {
		select {
		case <-ctx.Done():
			end <- nil
			return
		default:
		}

		msg, err = s.Transport.Read()
		if err != nil {
			break
		}

		method, err = transport.GetMethod(msg)
		if len(method) == 0 {
			break
		}
		if err != nil {
			break
		}

		logging.Logger.Debug("got method", "method", method)

		if err = s.ValidateMethod(method); err != nil {
			break
		}

		if method != "exit" && method != "shutdown" {
			go s.HandleMethod(ctx, method, msg)
		} else {
			s.HandleMethod(ctx, method, msg)
		}
	}

	if s.Status == ExitError {
		end <- errors.New("exiting ungracefully")
		return
	}
	if s.Status == Exit {
		end <- nil
		return
	}
	if err == nil && s.Transport.Closed {
		err = errors.New("stream closed: got EOF")
	} else {
		s.Transport.Close()
	}
	end <- err
}

// ValidateMethod rejects methods the client shouldn't be sending given
// the current server state.
func (s *Server) ValidateMethod(method string) error {
	switch s.Status {
	case Created:
		if method != "initialize" {
			return errors.New("server not started, but received " + method)
		}
	case Shutdown:
		if method != "exit" {
			return errors.New("can only exit, got " + method)
		}
	}
	return nil
}

// HandleMethod decodes the JSON-RPC envelope and dispatches to the
// registered request or notification handler.
func (s *Server) HandleMethod(ctx context.Context, method string, message []byte) {
	_, content, _ := bytes.Cut(message, []byte{'\r', '\n', '\r', '\n'})

	if handler, ok := requestHandlers[method]; ok {
		var m transport.RequestMessage
		json.Unmarshal(content, &m)
		if reflect.TypeOf(m.ID) != nil && reflect.TypeOf(m.ID).Kind() == reflect.Float64 {
			s.reqIdCtr = int(m.ID.(float64)) + 1
		}
		resp, err := handler(ctx, s, m.ID, m.Params)
		if err != nil {
			logging.Logger.Error("request handler error", "method", method, "error", err)
			return
		}
		if len(resp) != 0 {
			if err := s.Transport.Write(resp); err != nil {
				logging.Logger.Error("write response failed", "error", err)
			}
		}
		return
	}

	if handler, ok := notificationHandlers[method]; ok {
		var m transport.NotificationMessage
		json.Unmarshal(content, &m)
		if err := handler(ctx, s, m.Params); err != nil {
			logging.Logger.Error("notification handler error", "method", method, "error", err)
		}
		return
	}

	logging.Logger.Debug("no handler for method", "method", method)
}

type requestHandler func(ctx context.Context, s *Server, id interface{}, params json.RawMessage) (json.RawMessage, error)
type notificationHandler func(ctx context.Context, s *Server, params json.RawMessage) error

var requestHandlers = map[string]requestHandler{
	"initialize":                   Initialize,
	"shutdown":                     ShutdownEnd,
	"textDocument/documentSymbol":  TextDocumentSymbol,
	"workspace/symbol":             WorkspaceSymbol,
	"textDocument/completion":      Completion,
	"textDocument/hover":           Hover,
	"textDocument/signatureHelp":   SignatureHelp,
	"textDocument/definition":      GetDefinition,
	"textDocument/references":      GetReferences,
	"textDocument/documentHighlight": DocumentHighlight,
	"textDocument/rename":          Rename,
	"textDocument/foldingRange":    FoldingRanges,
	"textDocument/inlayHint":       InlayHints,
	"textDocument/semanticTokens/full": SemanticTokensFull,
}

var notificationHandlers = map[string]notificationHandler{
	"initialized":            Initialized,
	"textDocument/didOpen":   TextDocumentOpen,
	"textDocument/didChange": TextDocumentChange,
	"textDocument/didClose":  TextDocumentClose,
	"exit":                   ExitEnd,
}

func respond(id interface{}, result json.RawMessage) (json.RawMessage, error) {
	resp := transport.ResponseMessage{
		Message: transport.Message{Jsonrpc: "2.0"},
		ID:      id,
		Result:  result,
	}
	return json.Marshal(resp)
}
