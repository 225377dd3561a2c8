//go:build !unix

package tree

import "os"

// applyExtras fills what is portable: permission string and byte size.
// Owner resolution needs unix uid semantics and stays empty elsewhere.
func applyExtras(n *Node, fi os.FileInfo) {
	n.Permissions = fi.Mode().String()
	size := fi.Size()
	n.Size = &size
}
