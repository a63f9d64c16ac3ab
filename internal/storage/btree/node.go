// Package btree implements the B+Tree node formats (meta, leaf, branch)
// over a slotted region, and the B+Tree itself: an ordered map over
// byte-string keys with search, insert, and leaf-linked iteration.
package btree

import (
	"bytes"
)

// tagSize is the width of the ASCII node tag at offset 0 of every
// non-meta page.
const tagSize = 8

var leafTag = []byte("LEAF    ")
var branchTag = []byte("BRANCH  ")

// Tag returns the raw 8-byte node tag of buf.
func Tag(buf []byte) []byte {
	return buf[0:tagSize]
}

// IsLeaf reports whether buf carries the leaf node tag.
func IsLeaf(buf []byte) bool {
	return bytes.Equal(Tag(buf), leafTag)
}

// IsBranch reports whether buf carries the branch node tag.
func IsBranch(buf []byte) bool {
	return bytes.Equal(Tag(buf), branchTag)
}
