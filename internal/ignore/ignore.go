package ignore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Predicate reports whether a path should be excluded from the tree. It is
// consumed as an opaque boolean function by the tree builder.
type Predicate func(path string) bool

// IgnoreFile is the well-known pattern file consulted in the walk root.
const IgnoreFile = ".gitignore"

// None admits every path.
func None() Predicate {
	return func(string) bool { return false }
}

// New builds the predicate for a walk rooted at rootDir: patterns from the
// root's ignore file plus exclusion of hidden names (leading dot). An
// unreadable ignore file degrades to the hidden check alone.
func New(rootDir string) Predicate {
	matcher, err := LoadMatcher(filepath.Join(rootDir, IgnoreFile))
	if err != nil {
		log.Warn().Err(err).Str("root", rootDir).Msg("ignore: unreadable ignore file, hidden check only")
		matcher = &Matcher{}
	}

	return func(path string) bool {
		rel, err := filepath.Rel(rootDir, path)
		if err != nil || rel == "." {
			// The walk root itself is never ignored, dot-named or not.
			return false
		}
		if hidden(path) {
			return true
		}
		isDir := false
		if fi, err := os.Stat(path); err == nil {
			isDir = fi.IsDir()
		}
		return matcher.Match(rel, isDir)
	}
}

// hidden reports whether the base name starts with a dot. The filesystem
// root itself never counts as hidden.
func hidden(path string) bool {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return false
	}
	return strings.HasPrefix(base, ".")
}
