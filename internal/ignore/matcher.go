// Package ignore decides which paths the tree builder excludes. The
// predicate composes gitignore-style patterns from the root's .gitignore
// with a hidden-name check.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Matcher matches relative paths against an ordered list of
// gitignore-style patterns. Later patterns override earlier ones, so
// negations work the way version control does them.
type Matcher struct {
	patterns []pattern
}

type pattern struct {
	regex    *regexp.Regexp
	negation bool
	dirOnly  bool
	anchored bool
}

// LoadMatcher reads one pattern per line from path. A missing file yields
// an empty matcher, not an error; blank lines and # comments are skipped.
func LoadMatcher(path string) (*Matcher, error) {
	m := &Matcher{}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if p, ok := compilePattern(line); ok {
			m.patterns = append(m.patterns, p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Match reports whether relPath (slash-separated, relative to the root the
// patterns were loaded from) is ignored.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	relPath = filepath.ToSlash(relPath)

	var ignored bool
	for _, p := range m.patterns {
		if p.matches(relPath, isDir) {
			ignored = !p.negation
		}
	}
	return ignored
}

func (p pattern) matches(relPath string, isDir bool) bool {
	if p.dirOnly {
		if isDir {
			return p.regex.MatchString(relPath)
		}
		// A file inside an ignored directory is ignored with it.
		return p.regex.MatchString(pathDir(relPath))
	}
	if p.anchored {
		return p.regex.MatchString(relPath)
	}
	return p.regex.MatchString(relPath) || p.regex.MatchString(pathBase(relPath))
}

func pathDir(p string) string  { return filepath.ToSlash(filepath.Dir(p)) }
func pathBase(p string) string { return filepath.Base(p) }

// compilePattern translates one gitignore line into a matchable pattern.
// Invalid lines are dropped rather than failing the whole file.
func compilePattern(line string) (pattern, bool) {
	p := pattern{}
	if strings.HasPrefix(line, "!") {
		p.negation = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	p.anchored = strings.HasPrefix(line, "/")

	re, err := regexp.Compile(globToRegex(line))
	if err != nil {
		return pattern{}, false
	}
	p.regex = re
	return p, true
}

// globToRegex converts a gitignore glob to an anchored regular expression.
// Supported: *, **, ?, character classes, backslash escapes.
func globToRegex(glob string) string {
	var b strings.Builder

	anchored := strings.HasPrefix(glob, "/")
	if anchored {
		b.WriteString("^")
		glob = glob[1:]
	} else {
		b.WriteString("(^|/)")
	}

	for i := 0; i < len(glob); {
		switch c := glob[i]; c {
		case '*':
			if strings.HasPrefix(glob[i:], "**/") {
				b.WriteString("(.*/)?")
				i += 3
			} else if strings.HasPrefix(glob[i:], "**") {
				b.WriteString(".*")
				i += 2
			} else {
				b.WriteString("[^/]*")
				i++
			}
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			end := strings.IndexByte(glob[i:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				i++
				break
			}
			b.WriteString(glob[i : i+end+1])
			i += end + 1
		case '\\':
			if i+1 < len(glob) {
				b.WriteByte('\\')
				b.WriteByte(glob[i+1])
				i += 2
			} else {
				b.WriteString(`\\`)
				i++
			}
		case '.', '+', '(', ')', '|', '^', '$', '@', '%', '{', '}':
			b.WriteByte('\\')
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}

	if anchored {
		b.WriteString("$")
	} else {
		b.WriteString("(/.*)?$")
	}
	return b.String()
}
