package tree

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/stree/internal/ignore"
)

// Build constructs the filesystem subtree rooted at path. It returns nil
// when the path is ignored or cannot be stat'd; the caller treats nil as
// "absent", not as an error. Directory entries come back sorted by name so
// output is deterministic; a directory that cannot be listed (permission
// denied) stays in the tree as a childless node. The leaf/directory
// decision uses the stat result at call time.
func Build(path string, withExtras bool, pred ignore.Predicate) *Node {
	if pred != nil && pred(path) {
		return nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil
	}

	node := &Node{
		Name: filepath.Base(abs),
		Path: abs,
		Kind: File,
	}
	if fi.IsDir() {
		node.Kind = Directory
	}
	if withExtras {
		applyExtras(node, fi)
	}

	if node.Kind != Directory {
		return node
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		log.Debug().Err(err).Str("dir", abs).Msg("tree: unreadable directory kept childless")
		return node
	}
	// os.ReadDir returns entries sorted by filename.
	for _, entry := range entries {
		if child := Build(filepath.Join(abs, entry.Name()), withExtras, pred); child != nil {
			node.AddChild(child)
		}
	}
	return node
}
