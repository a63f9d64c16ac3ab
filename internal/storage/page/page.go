// Package page defines the fixed-size on-disk page and the page id space
// shared by the disk manager, buffer pool, and B+Tree node formats.
//
// Every on-disk structure in barrow fits in exactly one Size-byte page.
// Multi-byte integer fields inside a page are encoded little-endian via
// encoding/binary, following the same fixed-offset accessor style used
// throughout this package's sibling packages rather than unsafe re-interpret
// casts over the raw buffer.
package page

import "encoding/binary"

// Size is the fixed page size in bytes. Variable page sizes are out of
// scope for this engine.
const Size = 4096

// ID identifies a page within a backing store. Ids are assigned densely
// starting from 0 by the disk manager.
type ID uint64

// InvalidID is the sentinel written on disk for "no page" — used as the
// default prev/next/root pointer before a real page exists.
const InvalidID ID = ID(^uint64(0))

// Valid reports whether id refers to an actual page.
func (id ID) Valid() bool {
	return id != InvalidID
}

// New returns a zeroed, Size-byte page buffer.
func New() []byte {
	return make([]byte, Size)
}

// PutID writes id little-endian at buf[off:off+8].
func PutID(buf []byte, off int, id ID) {
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(id))
}

// GetID reads an ID little-endian from buf[off:off+8].
func GetID(buf []byte, off int) ID {
	return ID(binary.LittleEndian.Uint64(buf[off : off+8]))
}
