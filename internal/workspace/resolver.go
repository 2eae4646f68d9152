// Package workspace implements the Analysis Resolver described in
// spec.md §4.6: the workspace-level scheduler that detects include
// dependencies between files, maintains a per-file PartialInspectRecord,
// and prioritizes re-analysis across a three-tier delayed queue after an
// edit.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	list "github.com/bahlo/generic-list-go"

	"github.com/carn181/angelscript-lsp/internal/analyzer"
	"github.com/carn181/angelscript-lsp/internal/config"
	"github.com/carn181/angelscript-lsp/internal/diagnostics"
	"github.com/carn181/angelscript-lsp/internal/hoist"
	"github.com/carn181/angelscript-lsp/internal/symbol"
	"github.com/carn181/angelscript-lsp/util"
)

// Tier is one of the three scheduler priority queues spec.md §4.6 names.
type Tier int

const (
	TierDirect Tier = iota
	TierIndirect
	TierLazyIndirect
	tierCount
)

// TierDelay is the wait the scheduler applies before draining each tier,
// matching the approximate values spec.md §4.6 gives. Tests that need
// deterministic timing call ProcessOne/Flush directly instead of Run.
var TierDelay = [tierCount]time.Duration{
	TierDirect:       10 * time.Millisecond,
	TierIndirect:     100 * time.Millisecond,
	TierLazyIndirect: 500 * time.Millisecond,
}

// Resolver is the workspace-level scheduler. All mutable state (records,
// the dependency graph, the global scope, the priority queues) is guarded
// by one mutex: spec.md §5 specifies a single-threaded cooperative core,
// and since LSP request/notification handlers run concurrently (one
// goroutine per message, per the teacher's server.Loop), the mutex is
// what actually enforces that single-threaded view of analysis state.
type Resolver struct {
	mu sync.Mutex

	Settings config.Settings
	Parser   Parser
	Global   *symbol.GlobalScope

	records map[string]*PartialInspectRecord
	deps    *DependencyGraph

	predefinedCache  map[string]string
	discoveredRoots  map[string]bool

	queues   [tierCount]*list.List[string]
	queuedAt map[string]Tier

	wake chan struct{}

	// OnAnalyzed, if set, is called synchronously at the end of
	// analyzeLocked with uri's freshly published diagnostics — the hook
	// the server uses to drive textDocument/publishDiagnostics without the
	// handler goroutines reaching back into resolver state. It must not
	// call back into the Resolver: analyzeLocked runs under r.mu.
	OnAnalyzed func(uri string, diags []diagnostics.Diagnostic)
}

// NewResolver builds an empty Resolver ready to accept DidOpen/DidChange
// notifications.
func NewResolver(settings config.Settings, parser Parser) *Resolver {
	r := &Resolver{
		Settings:        settings,
		Parser:          parser,
		Global:          symbol.NewGlobalScope(),
		records:         make(map[string]*PartialInspectRecord),
		deps:            NewDependencyGraph(),
		predefinedCache: make(map[string]string),
		discoveredRoots: make(map[string]bool),
		queuedAt:        make(map[string]Tier),
		wake:            make(chan struct{}, 1),
	}
	for i := range r.queues {
		r.queues[i] = list.New[string]()
	}
	return r
}

func (r *Resolver) recordLocked(uri string) *PartialInspectRecord {
	rec, ok := r.records[uri]
	if !ok {
		rec = &PartialInspectRecord{URI: uri}
		r.records[uri] = rec
	}
	return rec
}

// Record returns the current record for uri, if one has been created.
func (r *Resolver) Record(uri string) (*PartialInspectRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[uri]
	return rec, ok
}

// AllRecords returns a snapshot of every file record currently tracked,
// the backing iteration workspace/symbol needs for a flat fuzzy scan
// across the whole workspace rather than a single file.
func (r *Resolver) AllRecords() []*PartialInspectRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*PartialInspectRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out
}

// DidOpen registers uri as open with content and schedules it for
// immediate (direct-tier) analysis.
func (r *Resolver) DidOpen(uri, content string) {
	r.mu.Lock()
	rec := r.recordLocked(uri)
	rec.IsOpen = true
	rec.PreprocessedOutput = content
	r.enqueueLocked(uri, TierDirect)
	r.mu.Unlock()
	r.signal()
}

// DidChange updates uri's content and schedules direct-tier reanalysis.
func (r *Resolver) DidChange(uri, content string) {
	r.mu.Lock()
	rec := r.recordLocked(uri)
	rec.IsOpen = true
	rec.PreprocessedOutput = content
	r.enqueueLocked(uri, TierDirect)
	r.mu.Unlock()
	r.signal()
}

// DidClose marks uri closed; its record and scope are kept (a dependent
// file may still include it) but future reanalysis after a dependency
// change enqueues it at the lazy-indirect tier instead of indirect.
func (r *Resolver) DidClose(uri string) {
	r.mu.Lock()
	if rec, ok := r.records[uri]; ok {
		rec.IsOpen = false
	}
	r.mu.Unlock()
}

// Remove drops uri entirely — its record, scope, dependency edges, and
// any pending queue entry — per spec.md §9's open question: "eviction
// invalidates any pending task."
func (r *Resolver) Remove(uri string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, uri)
	r.Global.DropFile(uri)
	r.deps.Remove(uri)
	if tier, ok := r.queuedAt[uri]; ok {
		r.removeFromQueueLocked(tier, uri)
	}
}

func (r *Resolver) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// enqueueLocked adds uri to tier, promoting it if already queued at a
// less urgent tier, and leaving it alone if already queued at an equal or
// more urgent one. Caller must hold r.mu.
func (r *Resolver) enqueueLocked(uri string, tier Tier) {
	if existing, ok := r.queuedAt[uri]; ok {
		if existing <= tier {
			return
		}
		r.removeFromQueueLocked(existing, uri)
	}
	r.queues[tier].PushBack(uri)
	r.queuedAt[uri] = tier
}

func (r *Resolver) removeFromQueueLocked(tier Tier, uri string) {
	for e := r.queues[tier].Front(); e != nil; e = e.Next() {
		if e.Value == uri {
			r.queues[tier].Remove(e)
			break
		}
	}
	delete(r.queuedAt, uri)
}

// popLocked removes and returns the next URI to analyze, preferring
// direct over indirect over lazy-indirect (spec.md §5 ordering
// guarantee 2). Caller must hold r.mu.
func (r *Resolver) popLocked() (string, Tier, bool) {
	for tier := Tier(0); tier < tierCount; tier++ {
		if front := r.queues[tier].Front(); front != nil {
			r.queues[tier].Remove(front)
			delete(r.queuedAt, front.Value)
			return front.Value, tier, true
		}
	}
	return "", 0, false
}

// NextDelay reports the wait before the next scheduler wakeup should pop
// a task, and whether any tier currently has work — "a single delayed
// task is rescheduled after each pop: if direct non-empty use the
// shortest delay, else indirect, else lazy-indirect, else stop" (§4.6).
func (r *Resolver) NextDelay() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for tier := Tier(0); tier < tierCount; tier++ {
		if r.queues[tier].Len() > 0 {
			return TierDelay[tier], true
		}
	}
	return 0, false
}

// ProcessOne pops and analyzes the single highest-priority pending file,
// if any. Returns false if every queue was empty.
func (r *Resolver) ProcessOne() bool {
	r.mu.Lock()
	uri, _, ok := r.popLocked()
	if !ok {
		r.mu.Unlock()
		return false
	}
	r.analyzeLocked(uri)
	r.mu.Unlock()
	return true
}

// Run drives the scheduler loop until ctx is cancelled: wait for the
// delay NextDelay reports (or block if all queues are empty), then pop
// and analyze one file, repeating. A newly enqueued item wakes the loop
// early so a direct-tier edit is never stuck behind a stale long sleep —
// spec.md §5's "the only source of suspension is the delayed-task timer
// between scheduler wakeups."
func (r *Resolver) Run(ctx context.Context) {
	for {
		delay, ok := r.NextDelay()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-r.wake:
				continue
			}
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-r.wake:
			timer.Stop()
		case <-timer.C:
			r.ProcessOne()
		}
	}
}

// Flush guarantees that after it returns, uri's record reflects the
// latest content: it drains the entire direct queue, then — if uri is
// still pending in the indirect tier — promotes and analyzes it
// immediately (spec.md §5 ordering guarantee 3). A URI with no record at
// all is analyzed on first request so handlers always have something to
// read.
func (r *Resolver) Flush(uri string) *PartialInspectRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.queues[TierDirect].Len() > 0 {
		front := r.queues[TierDirect].Front()
		u := front.Value
		r.queues[TierDirect].Remove(front)
		delete(r.queuedAt, u)
		r.analyzeLocked(u)
	}

	if tier, ok := r.queuedAt[uri]; ok && tier != TierDirect {
		r.removeFromQueueLocked(tier, uri)
		r.analyzeLocked(uri)
	} else if _, known := r.records[uri]; !known {
		r.analyzeLocked(uri)
	}

	return r.records[uri]
}

// analyzeLocked is the per-file analysis pipeline spec.md §4.6
// describes: parse, extract includes, ensure every include is itself
// analyzed, hoist, analyze, publish, propagate. Caller must hold r.mu.
func (r *Resolver) analyzeLocked(uri string) {
	rec := r.recordLocked(uri)

	content := rec.PreprocessedOutput
	if !rec.IsOpen {
		if path, err := util.URI2path(uri); err == nil {
			if b, err := os.ReadFile(path); err == nil {
				content = string(b)
				rec.PreprocessedOutput = content
			}
		}
	}

	parsed := r.Parser.Parse(uri, content)
	rec.Tokens = parsed.Tokens
	rec.ParserDiagnostics = parsed.Diagnostics
	rec.AST = parsed.AST

	includes := ExtractExplicitIncludes(uri, rec.AST)
	if root, ok := r.predefinedRootFor(uri); ok {
		predefinedURI := util.Path2URI(filepath.Join(root, PredefinedFileName))
		if predefinedURI != uri {
			includes = appendUnique(includes, predefinedURI)
		}
		if r.Settings.ImplicitMutualInclusion {
			for _, sib := range r.filesUnderRoot(root, uri) {
				includes = appendUnique(includes, sib)
			}
		}
		if !r.discoveredRoots[root] {
			r.discoverPredefinedRootLocked(root)
		}
	}
	r.deps.SetIncludes(uri, includes)
	rec.Includes = includes

	visiting := map[string]bool{uri: true}
	for _, inc := range includes {
		r.ensureAnalyzedLocked(inc, visiting)
	}

	r.Global.DropFile(uri)
	fileScope := r.Global.FileScope(uri)
	fileScope.SetIncludes(r.transitiveIncludeScopesLocked(uri))

	hctx := hoist.NewContext(r.Global, uri, r.Settings)
	hoist.Script(hctx, fileScope, rec.AST)
	result := analyzer.Run(hctx)

	rec.AnalyzerDiagnostics = result.Diagnostics
	rec.AnalyzerResult = result
	rec.PendingTask = false

	if r.OnAnalyzed != nil {
		r.OnAnalyzed(uri, rec.PublishedDiagnostics(r.Settings.SuppressAnalyzerErrors))
	}

	for _, dep := range r.deps.Dependents(uri) {
		if depRec, ok := r.records[dep]; ok && depRec.IsOpen {
			r.enqueueLocked(dep, TierIndirect)
		} else {
			r.enqueueLocked(dep, TierLazyIndirect)
		}
	}
}

// ensureAnalyzedLocked analyzes uri if it has never been analyzed,
// guarding against include cycles with visiting (spec.md §4.6: "cycles
// are benign — re-analysis is idempotent given stable AST"). Caller must
// hold r.mu.
func (r *Resolver) ensureAnalyzedLocked(uri string, visiting map[string]bool) {
	if visiting[uri] {
		return
	}
	visiting[uri] = true
	if rec, ok := r.records[uri]; ok && rec.AnalyzerResult != nil {
		return
	}
	r.analyzeLocked(uri)
}

// transitiveIncludeScopesLocked returns the file-root scopes of every
// file transitively reachable from uri's include set, flattened, so
// unscoped and scope-qualified lookup (symbol.Scope.Includes) needs only
// one level of indirection at resolution time. Caller must hold r.mu.
func (r *Resolver) transitiveIncludeScopesLocked(uri string) []*symbol.Scope {
	seen := map[string]bool{uri: true}
	var order []string
	queue := append([]string{}, r.deps.Includes(uri)...)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		if seen[u] {
			continue
		}
		seen[u] = true
		order = append(order, u)
		queue = append(queue, r.deps.Includes(u)...)
	}
	scopes := make([]*symbol.Scope, 0, len(order))
	for _, u := range order {
		scopes = append(scopes, r.Global.FileScope(u))
	}
	return scopes
}
