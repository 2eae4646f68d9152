// Package logging sets up the server's structured logger. The client
// talks to the server over stdin/stdout (or a socket), so nothing may be
// written to standard output outside the JSON-RPC framing — all logging
// goes to a single temp-dir file, truncated at startup and not rotated,
// as the teacher repo's logging.Init does.
package logging

import (
	"log/slog"
	"os"
	"path/filepath"
)

// logPath is the default log file location.
var logPath string

// Logger is the global structured logger every package logs through.
var Logger *slog.Logger

// Init opens (truncating) a log file under the OS temp directory and
// installs a text-handler slog.Logger writing to it.
func Init() {
	logPath = filepath.Join(os.TempDir(), "angelscript-lsp-log.txt")

	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		panic("Couldn't open log file: " + err.Error())
	}
	Logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// SetLevel adjusts the minimum level new log records are written at,
// used by main.go's --log-level flag.
func SetLevel(level slog.Level) {
	if Logger == nil {
		return
	}
	h := slog.NewTextHandler(handlerWriter(), &slog.HandlerOptions{Level: level})
	Logger = slog.New(h)
}

// handlerWriter reopens the log path for appending, used only when
// SetLevel needs to rebuild the handler with a new level filter.
func handlerWriter() *os.File {
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		panic("Couldn't reopen log file: " + err.Error())
	}
	return f
}

// Path returns the active log file path, surfaced to the client via
// window/logMessage or a status line if needed.
func Path() string { return logPath }
