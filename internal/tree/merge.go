package tree

import "github.com/xonecas/stree/internal/lsp"

// Attach grafts normalized symbol nodes onto a file node, preserving
// response order and nesting. Symbol nodes inherit the owning file's path
// and their children are always symbols.
func Attach(file *Node, symbols []lsp.SymbolNode) {
	for _, s := range symbols {
		file.AddChild(symbolNode(file.Path, s))
	}
}

func symbolNode(path string, s lsp.SymbolNode) *Node {
	n := &Node{
		Name:       s.Name,
		Path:       path,
		Kind:       Symbol,
		SymbolKind: s.Kind,
	}
	for _, child := range s.Children {
		n.AddChild(symbolNode(path, child))
	}
	return n
}
