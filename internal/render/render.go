// Package render turns a merged tree into its textual report: one entry
// per line, two spaces of indent per depth.
package render

import (
	"fmt"
	"strings"

	"github.com/xonecas/stree/internal/tree"
)

// Render writes the tree rooted at n in the compact text format:
//
//	d: root [drwxr-xr-x | alice | 4096]
//	  f: a.py [-rw-r--r-- | alice | 120]
//	    fn: foo (x)
func Render(n *tree.Node) string {
	var b strings.Builder
	writeNode(&b, n, 0)
	return b.String()
}

func writeNode(b *strings.Builder, n *tree.Node, depth int) {
	indent := strings.Repeat("  ", depth)

	if n.Kind == tree.Symbol {
		fmt.Fprintf(b, "%s%s %s\n", indent, n.SymbolKind, n.Name)
	} else {
		marker := "f"
		if n.Kind == tree.Directory {
			marker = "d"
		}
		if n.HasExtras() {
			var size int64
			if n.Size != nil {
				size = *n.Size
			}
			fmt.Fprintf(b, "%s%s: %s [%s | %s | %d]\n", indent, marker, n.Name, n.Permissions, n.Owner, size)
		} else {
			fmt.Fprintf(b, "%s%s: %s\n", indent, marker, n.Name)
		}
	}

	for _, child := range n.Children {
		writeNode(b, child, depth+1)
	}
}
