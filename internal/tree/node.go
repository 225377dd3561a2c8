// Package tree builds the filesystem skeleton and merges normalized symbol
// nodes into it.
package tree

// Kind distinguishes the three node variants of the merged tree.
type Kind int

const (
	Directory Kind = iota
	File
	Symbol
)

// Node is one node of the merged output tree. Directory and File nodes may
// carry extras (permissions, owner, size); Symbol nodes carry the short
// symbol kind tag instead, and their Path is the path of the owning file.
// Size is a pointer so "extras not requested" stays distinguishable from a
// zero-byte file. Children keep discovery order: filesystem entries sorted
// by name, symbols in response order.
type Node struct {
	Name        string
	Path        string
	Kind        Kind
	SymbolKind  string
	Permissions string
	Owner       string
	Size        *int64
	Children    []*Node
}

// AddChild appends a child, preserving insertion order.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// HasExtras reports whether any of the extra stat fields were filled in.
func (n *Node) HasExtras() bool {
	return n.Permissions != "" || n.Owner != "" || n.Size != nil
}
