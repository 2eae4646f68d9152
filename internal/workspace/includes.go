package workspace

import (
	"path/filepath"

	"github.com/carn181/angelscript-lsp/internal/ast"
	"github.com/carn181/angelscript-lsp/util"
)

// PredefinedFileName is the special file spec.md §4.6 calls "the
// workspace's implicit include root".
const PredefinedFileName = "as.predefined"

// ExtractExplicitIncludes walks script's top-level statements for
// `#include "path"` directives and resolves each path relative to uri's
// containing directory, per spec.md §4.6 "(a) explicit #include
// directives extracted by the parser-preprocessor".
func ExtractExplicitIncludes(uri string, script *ast.Script) []string {
	if script == nil {
		return nil
	}
	dir := filepath.Dir(mustPath(uri))
	var out []string
	for _, stmt := range script.Statements {
		inc, ok := stmt.(*ast.Include)
		if !ok {
			continue
		}
		resolved := inc.Path
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(dir, resolved)
		}
		out = append(out, util.Path2URI(resolved))
	}
	return out
}

func mustPath(uri string) string {
	p, err := util.URI2path(uri)
	if err != nil {
		return uri
	}
	return p
}

// appendUnique appends v to list if not already present.
func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
