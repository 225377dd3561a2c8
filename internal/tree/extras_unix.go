//go:build unix

package tree

import (
	"os"
	"os/user"
	"strconv"
	"syscall"
)

// applyExtras fills the permission string, owner name, and byte size from
// the stat result. Owner lookup failure falls back to the numeric uid as a
// string; it never fails.
func applyExtras(n *Node, fi os.FileInfo) {
	n.Permissions = fi.Mode().String()
	size := fi.Size()
	n.Size = &size
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		n.Owner = ownerName(st.Uid)
	}
}

func ownerName(uid uint32) string {
	id := strconv.FormatUint(uint64(uid), 10)
	u, err := user.LookupId(id)
	if err != nil {
		return id
	}
	return u.Username
}
