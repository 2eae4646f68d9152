// Command angelscript-lsp starts the language server described by
// SPEC_FULL.md: it wires a transport (stdio or TCP socket), a
// preprocess.Scan-backed parser seam, and the server.Server request loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/carn181/angelscript-lsp/internal/config"
	"github.com/carn181/angelscript-lsp/internal/preprocess"
	"github.com/carn181/angelscript-lsp/internal/workspace"
	"github.com/carn181/angelscript-lsp/logging"
	"github.com/carn181/angelscript-lsp/server"
	"github.com/carn181/angelscript-lsp/transport"
)

var (
	useSocket  bool
	port       int
	logLevel   string
	configPath string
)

func main() {
	root := &cobra.Command{
		Use:   "angelscript-lsp",
		Short: "Language server for AngelScript",
		RunE:  run,
	}

	flags := root.Flags()
	flags.BoolVar(&useSocket, "socket", false, "communicate over a TCP socket instead of stdio")
	flags.Bool("stdio", true, "communicate over stdio (default)")
	flags.IntVar(&port, "port", 5007, "TCP port to listen on when --socket is set")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&configPath, "config", "", "path to a JSON or YAML project settings file")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logging.Init()
	logging.SetLevel(parseLevel(logLevel))
	logging.Logger.Info("starting angelscript-lsp", "pid", os.Getpid())

	settings := loadSettings(configPath)

	transportMethod := transport.Stdin
	if useSocket {
		transportMethod = transport.Socket
	}

	parser := workspace.ParserFunc(func(uri string, content string) workspace.ParseResult {
		r := preprocess.Scan(uri, content)
		return workspace.ParseResult{Tokens: r.Tokens, Diagnostics: r.Diagnostics, AST: r.AST}
	})

	s := &server.Server{}
	s.Init(transportMethod, port, parser, settings)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		logging.Logger.Error("server exited with error", "error", err)
		return err
	}
	return nil
}

// loadSettings loads a project config file if one was given, falling
// back to config.Default() either when no path was given or when loading
// fails (a malformed project config should not prevent the server from
// starting, matching the analyzer's own recovering-not-fail-fast stance).
func loadSettings(path string) config.Settings {
	if path == "" {
		return config.Default()
	}
	if isYAML(path) {
		s, err := config.LoadYAML(path)
		if err != nil {
			logging.Logger.Error("failed to load yaml config, using defaults", "path", path, "error", err)
			return config.Default()
		}
		return s
	}
	s, err := config.LoadJSON(path)
	if err != nil {
		logging.Logger.Error("failed to load json config, using defaults", "path", path, "error", err)
		return config.Default()
	}
	return s
}

func isYAML(path string) bool {
	for _, suffix := range []string{".yaml", ".yml"} {
		if len(path) >= len(suffix) && path[len(path)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
