// Package table is a thin composition over two B+Trees — a primary key
// index and an optional secondary index keyed by (column, primary key) —
// with tuple encoding. The secondary index does not reject rows that share
// a column value.
// It is deliberately minimal: the real query executor (sequential scan,
// filter, index scan, index-only scan) lives above this layer and isn't
// this engine's concern.
package table

import (
	"bytes"
	"fmt"

	"github.com/barrowdb/barrow/internal/codec"
	"github.com/barrowdb/barrow/internal/storage/btree"
	"github.com/barrowdb/barrow/internal/storage/buffer"
	"github.com/barrowdb/barrow/internal/storage/page"
)

// Table composes a primary-key B+Tree, keyed by the encoded primary-key
// tuple, with an optional secondary B+Tree keyed by (indexed column,
// primary key) for uniqueness of the tie-break.
type Table struct {
	pool         *buffer.Pool
	primary      *btree.BTree
	secondary    *btree.BTree // nil if this table has no secondary index
	secondaryCol int
}

// Create builds a fresh table. If secondaryCol >= 0, a secondary index is
// also created over that column of each inserted row.
func Create(pool *buffer.Pool, secondaryCol int) (*Table, error) {
	primary, err := btree.Create(pool)
	if err != nil {
		return nil, fmt.Errorf("table: create primary index: %w", err)
	}
	t := &Table{pool: pool, primary: primary, secondaryCol: secondaryCol}
	if secondaryCol >= 0 {
		secondary, err := btree.Create(pool)
		if err != nil {
			return nil, fmt.Errorf("table: create secondary index: %w", err)
		}
		t.secondary = secondary
	}
	return t, nil
}

// Open reopens a table whose primary (and, if present, secondary) tree
// meta pages already exist at the given ids. Pass page.InvalidID for
// secondaryMeta if the table has no secondary index.
func Open(pool *buffer.Pool, primaryMeta, secondaryMeta page.ID, secondaryCol int) *Table {
	t := &Table{pool: pool, primary: btree.Open(primaryMeta), secondaryCol: secondaryCol}
	if secondaryMeta.Valid() {
		t.secondary = btree.Open(secondaryMeta)
	}
	return t
}

// PrimaryMetaPageID is the id to persist for reopening this table's
// primary index.
func (t *Table) PrimaryMetaPageID() page.ID {
	return t.primary.MetaPageID()
}

// SecondaryMetaPageID is the id to persist for reopening this table's
// secondary index, or page.InvalidID if it has none.
func (t *Table) SecondaryMetaPageID() page.ID {
	if t.secondary == nil {
		return page.InvalidID
	}
	return t.secondary.MetaPageID()
}

// Insert adds one row under primaryKey. row is the full column tuple,
// including the column passed to Create as secondaryCol if a secondary
// index is configured.
func (t *Table) Insert(primaryKey, row [][]byte) error {
	pk := codec.EncodeTuple(primaryKey)
	rowBytes := codec.EncodeTuple(row)
	if err := t.primary.Insert(t.pool, pk, rowBytes); err != nil {
		return err
	}
	if t.secondary != nil {
		secKey := codec.EncodeTuple(append([][]byte{row[t.secondaryCol]}, primaryKey...))
		if err := t.secondary.Insert(t.pool, secKey, pk); err != nil {
			return fmt.Errorf("table: secondary index: %w", err)
		}
	}
	return nil
}

// Get looks up one row by its exact primary key.
func (t *Table) Get(primaryKey [][]byte) (row [][]byte, found bool, err error) {
	pk := codec.EncodeTuple(primaryKey)
	it, err := t.primary.Search(t.pool, btree.Key(pk))
	if err != nil {
		return nil, false, err
	}
	defer it.Close()
	k, v, ok := it.Get()
	if !ok || !bytes.Equal(k, pk) {
		return nil, false, nil
	}
	return codec.DecodeTuple(v), true, nil
}

// LookupBySecondary finds the first row whose secondary-indexed column
// equals col, via the secondary index then a primary-key fetch.
func (t *Table) LookupBySecondary(col []byte) (row [][]byte, found bool, err error) {
	if t.secondary == nil {
		return nil, false, fmt.Errorf("table: no secondary index configured")
	}
	prefix := codec.EncodeMemcmp(col)
	it, err := t.secondary.Search(t.pool, btree.Key(prefix))
	if err != nil {
		return nil, false, err
	}
	k, pk, ok := it.Get()
	it.Close()
	if !ok || !bytes.HasPrefix(k, prefix) {
		return nil, false, nil
	}
	return t.Get(codec.DecodeTuple(pk))
}

// Cursor is a sequential, ascending scan over a table's rows — the
// sequential-scan side of the query executor's iterator tree.
type Cursor struct {
	it *btree.Iter
}

// Scan opens a Cursor positioned at the table's first row in primary-key
// order.
func (t *Table) Scan() (*Cursor, error) {
	it, err := t.primary.Search(t.pool, btree.Start())
	if err != nil {
		return nil, err
	}
	return &Cursor{it: it}, nil
}

// Next returns the next row, or ok=false once the scan is exhausted.
func (c *Cursor) Next() (row [][]byte, ok bool, err error) {
	_, v, ok, err := c.it.Next()
	if err != nil || !ok {
		return nil, ok, err
	}
	return codec.DecodeTuple(v), true, nil
}

// Close releases any page pinned by a partially-consumed scan.
func (c *Cursor) Close() {
	c.it.Close()
}
