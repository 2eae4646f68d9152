package workspace

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/carn181/angelscript-lsp/util"
)

// predefinedRootFor walks uri's parent directories looking for
// PredefinedFileName, returning the first (closest) directory that
// contains one — spec.md §4.6 "Predefined discovery". Results (including
// negative ones) are cached per directory so repeated lookups for files
// in the same tree don't re-stat the filesystem.
func (r *Resolver) predefinedRootFor(uri string) (string, bool) {
	path, err := util.URI2path(uri)
	if err != nil {
		return "", false
	}
	dir := filepath.Dir(path)

	var visited []string
	for {
		if root, ok := r.predefinedCache[dir]; ok {
			fillPredefinedCache(r.predefinedCache, visited, root)
			return root, root != ""
		}
		visited = append(visited, dir)
		if util.IsValidPath(filepath.Join(dir, PredefinedFileName)) {
			fillPredefinedCache(r.predefinedCache, visited, dir)
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			fillPredefinedCache(r.predefinedCache, visited, "")
			return "", false
		}
		dir = parent
	}
}

func fillPredefinedCache(cache map[string]string, dirs []string, root string) {
	for _, d := range dirs {
		cache[d] = root
	}
}

// discoverPredefinedRootLocked runs once per predefined root the first
// time it is observed: it inspects the predefined file itself, then
// enumerates and schedules every ".as" file under the root directory
// (spec.md §4.6: "every .as file under the directory is enumerated").
// Caller must hold r.mu.
func (r *Resolver) discoverPredefinedRootLocked(root string) {
	if r.discoveredRoots[root] {
		return
	}
	r.discoveredRoots[root] = true

	predefinedURI := util.Path2URI(filepath.Join(root, PredefinedFileName))
	r.analyzeLocked(predefinedURI)

	var paths []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".as") {
			paths = append(paths, path)
		}
		return nil
	})

	for _, p := range paths {
		u := util.Path2URI(p)
		if u != predefinedURI {
			r.enqueueLocked(u, TierLazyIndirect)
		}
	}
}

// filesUnderRoot returns every ".as" file URI under root except self,
// used for implicitMutualInclusion (spec.md §4.6 (b)).
func (r *Resolver) filesUnderRoot(root, self string) []string {
	var out []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".as") {
			return nil
		}
		u := util.Path2URI(path)
		if u != self {
			out = append(out, u)
		}
		return nil
	})
	return out
}
