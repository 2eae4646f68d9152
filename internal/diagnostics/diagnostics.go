// Package diagnostics implements the accumulating error/warning sink used
// by every analysis pass. The analyzer is recovering, not fail-fast
// (spec §7): every detected problem is recorded here with a location and
// continues analysis with a best-effort value.
package diagnostics

import (
	"fmt"

	"github.com/carn181/angelscript-lsp/internal/ast"
)

// Severity is one of the three kinds a diagnostic can carry. Lexical and
// syntactic problems are bubbled up from the tokenizer/parser (out of
// scope for this module) and are merged in by the workspace resolver
// alongside these.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Kind classifies why a diagnostic was raised, independent of its
// reported Severity (which can be downgraded by configuration, e.g.
// suppressAnalyzerErrors).
type Kind int

const (
	UnresolvedName Kind = iota
	DuplicateDeclaration
	TypeMismatch
	OverloadResolutionFailure
	AccessViolation
	PropertyContract
	MissingInclude
)

func (k Kind) String() string {
	switch k {
	case UnresolvedName:
		return "unresolved-name"
	case DuplicateDeclaration:
		return "duplicate-declaration"
	case TypeMismatch:
		return "type-mismatch"
	case OverloadResolutionFailure:
		return "overload-resolution-failure"
	case AccessViolation:
		return "access-violation"
	case PropertyContract:
		return "property-contract"
	case MissingInclude:
		return "missing-include"
	default:
		return "unknown"
	}
}

// Diagnostic is one reported problem: a location, a kind, a severity, and
// a human-readable message.
type Diagnostic struct {
	Range    ast.Range
	Kind     Kind
	Severity Severity
	Message  string
}

// Sink accumulates diagnostics for a single analysis pass. Each per-file
// analyzer run creates a fresh Sink (spec §7: "the per-file analyzer
// resets its sink at the start of each pass").
type Sink struct {
	items []Diagnostic
}

// NewSink returns an empty sink ready to accumulate diagnostics.
func NewSink() *Sink {
	return &Sink{}
}

// Add records a diagnostic.
func (s *Sink) Add(d Diagnostic) {
	s.items = append(s.items, d)
}

// Errorf is a convenience that builds and records an Error-severity
// diagnostic of the given kind.
func (s *Sink) Errorf(kind Kind, r ast.Range, format string, args ...any) {
	s.Add(Diagnostic{Range: r, Kind: kind, Severity: Error, Message: fmt.Sprintf(format, args...)})
}

// Warnf is the Warning-severity counterpart to Errorf.
func (s *Sink) Warnf(kind Kind, r ast.Range, format string, args ...any) {
	s.Add(Diagnostic{Range: r, Kind: kind, Severity: Warning, Message: fmt.Sprintf(format, args...)})
}

// Items returns every diagnostic recorded so far, in recording order.
func (s *Sink) Items() []Diagnostic {
	return s.items
}

// Len reports how many diagnostics have been recorded.
func (s *Sink) Len() int { return len(s.items) }

// Downgrade returns a copy of the diagnostics with every Error severity
// replaced by Warning; used when suppressAnalyzerErrors is enabled (spec
// §6) so analyzer diagnostics never block on the client's "problems" view
// the way parser errors do.
func Downgrade(items []Diagnostic) []Diagnostic {
	out := make([]Diagnostic, len(items))
	for i, d := range items {
		if d.Severity == Error {
			d.Severity = Warning
		}
		out[i] = d
	}
	return out
}
