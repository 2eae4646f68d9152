package workspace

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/carn181/angelscript-lsp/logging"
	"github.com/carn181/angelscript-lsp/util"
)

// Watcher keeps the resolver's include graph current as files are added,
// removed, or edited outside the editor (e.g. by version control or
// another tool), adapted from the fsnotify loop pattern used for watching
// source trees in this ecosystem; each event is handled as it arrives,
// without debouncing. This way a lazy-indirect file
// is never stuck with a stale on-disk reading between LSP requests.
type Watcher struct {
	fsw      *fsnotify.Watcher
	resolver *Resolver
	root     string
}

// NewWatcher recursively watches every non-hidden directory under root
// for ".as" file and PredefinedFileName changes.
func NewWatcher(resolver *Resolver, root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fsw: fsw, resolver: resolver, root: root}
	if err := w.addDirs(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run blocks, dispatching filesystem events to the resolver until ctx is
// cancelled or the watcher's event channel closes.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Logger.Error("workspace watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	base := filepath.Base(ev.Name)
	isSource := strings.HasSuffix(ev.Name, ".as")
	isPredefined := base == PredefinedFileName
	if !isSource && !isPredefined {
		if ev.Op&fsnotify.Create != 0 {
			if err := w.fsw.Add(ev.Name); err == nil {
				return
			}
		}
		return
	}

	uri := util.Path2URI(ev.Name)

	if isPredefined {
		w.resolver.mu.Lock()
		dir := filepath.Dir(ev.Name)
		delete(w.resolver.predefinedCache, dir)
		delete(w.resolver.discoveredRoots, dir)
		w.resolver.mu.Unlock()
	}

	switch {
	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		w.resolver.mu.Lock()
		if rec, ok := w.resolver.records[uri]; !ok || !rec.IsOpen {
			w.resolver.enqueueLocked(uri, TierLazyIndirect)
		}
		w.resolver.mu.Unlock()
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.resolver.Remove(uri)
	}
}

// Close shuts down the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
