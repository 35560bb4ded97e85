// Package fs provides filesystem implementations of papershelf's workspace
// scanning and watching.
package fs

import (
	"path/filepath"

	"github.com/fwojciec/papershelf"
	"github.com/gobwas/glob"
)

// DefaultExcludes are directory patterns never descended into.
var DefaultExcludes = []string{".git", "node_modules", ".venv", "venv", "__pycache__", ".cache"}

// excluder matches workspace paths against glob patterns.
// A pattern matches either the base name or the slash-separated path
// relative to the workspace root.
type excluder struct {
	root  string
	globs []glob.Glob
}

func newExcluder(root string, patterns []string) (*excluder, error) {
	e := &excluder{root: root}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, papershelf.Errorf(papershelf.EINVALID, "invalid exclude pattern %q: %v", p, err)
		}
		e.globs = append(e.globs, g)
	}
	return e, nil
}

func (e *excluder) match(path string) bool {
	if len(e.globs) == 0 || path == e.root {
		return false
	}
	name := filepath.Base(path)
	rel, err := filepath.Rel(e.root, path)
	if err != nil {
		rel = name
	}
	rel = filepath.ToSlash(rel)
	for _, g := range e.globs {
		if g.Match(name) || g.Match(rel) {
			return true
		}
	}
	return false
}
