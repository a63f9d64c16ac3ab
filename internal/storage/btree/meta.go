package btree

import "github.com/barrowdb/barrow/internal/storage/page"

// Meta is the single-page header identifying a tree's current root. It
// carries no node tag — a tree's meta page id is communicated out of
// band, never discovered by reading a tag byte.
type Meta struct {
	buf []byte
}

// WrapMeta views buf (a whole page) as a meta page.
func WrapMeta(buf []byte) Meta {
	return Meta{buf: buf}
}

// RootPageID returns the id of the tree's current root page.
func (m Meta) RootPageID() page.ID {
	return page.GetID(m.buf, 0)
}

// SetRootPageID updates the tree's root pointer, e.g. after a root split.
func (m Meta) SetRootPageID(id page.ID) {
	page.PutID(m.buf, 0, id)
}
