package btree

import (
	"bytes"

	"github.com/barrowdb/barrow/internal/storage/page"
)

const (
	leafPrevOffset  = tagSize     // 8
	leafNextOffset  = tagSize + 8 // 16
	leafBodyOffset  = tagSize + 16
)

// Leaf is a B+Tree leaf node: a tagged page holding {prev_page_id,
// next_page_id} followed by a slotted region of unique, ascending
// key/value pairs. Leaves form a doubly-linked list across the whole
// tree in key order.
type Leaf struct {
	buf     []byte
	slotted page.Slotted
}

// WrapLeaf views an already-tagged, already-initialized page as a Leaf.
func WrapLeaf(buf []byte) Leaf {
	return Leaf{buf: buf, slotted: page.Wrap(buf[leafBodyOffset:])}
}

// InitLeaf stamps the leaf tag onto a fresh page and initializes it as an
// empty leaf with no neighbours.
func InitLeaf(buf []byte) Leaf {
	copy(buf[0:tagSize], leafTag)
	l := WrapLeaf(buf)
	l.Initialize()
	return l
}

// Initialize resets prev/next to "none" and empties the slotted body.
func (l Leaf) Initialize() {
	l.SetPrevPageID(page.InvalidID)
	l.SetNextPageID(page.InvalidID)
	l.slotted.Initialize()
}

func (l Leaf) PrevPageID() page.ID      { return page.GetID(l.buf, leafPrevOffset) }
func (l Leaf) SetPrevPageID(id page.ID) { page.PutID(l.buf, leafPrevOffset, id) }
func (l Leaf) NextPageID() page.ID      { return page.GetID(l.buf, leafNextOffset) }
func (l Leaf) SetNextPageID(id page.ID) { page.PutID(l.buf, leafNextOffset, id) }

// NumPairs is the number of key/value pairs currently stored.
func (l Leaf) NumPairs() int {
	return l.slotted.NumSlots()
}

// PairAt returns the key and value stored at slot.
func (l Leaf) PairAt(slot int) (key, value []byte) {
	return decodePair(l.slotted.Get(slot))
}

// KeyAt returns just the key stored at slot.
func (l Leaf) KeyAt(slot int) []byte {
	return pairKey(l.slotted.Get(slot))
}

// SearchSlotID locates key among this leaf's pairs: (i, true) if key is
// stored at slot i, (i, false) if key would need to be inserted at i.
func (l Leaf) SearchSlotID(key []byte) (int, bool) {
	return searchSlotID(l.NumPairs(), l.KeyAt, key)
}

// MaxPairSize is the largest encoded pair this leaf could ever hold —
// half the body's capacity minus one slot pointer entry, so that any
// single pair always fits in the
// emptier side of a split.
func (l Leaf) MaxPairSize() int {
	return l.slotted.Capacity()/2 - page.PointerSize
}

// Insert places key/value at slot, shifting later slots right. It
// returns false without mutating the leaf if there isn't room; the
// caller is then expected to split. Panics if the pair exceeds
// MaxPairSize — that is a caller bug, not a runtime condition.
func (l Leaf) Insert(slot int, key, value []byte) bool {
	if pairSize(key, value) > l.MaxPairSize() {
		panic("btree: pair exceeds max_pair_size")
	}
	pairBytes := encodePair(key, value)
	if !l.slotted.Insert(slot, len(pairBytes)) {
		return false
	}
	copy(l.slotted.Get(slot), pairBytes)
	return true
}

func (l Leaf) isHalfFull() bool {
	return 2*l.slotted.FreeSpace() < l.slotted.Capacity()
}

// transfer moves this leaf's first (smallest-key) pair onto the back of
// dest, which must already have room — true whenever dest isn't yet
// half full.
func (l Leaf) transfer(dest Leaf) {
	src := l.slotted.Get(0)
	destIdx := dest.NumPairs()
	if !dest.slotted.Insert(destIdx, len(src)) {
		panic("btree: transfer into non-half-full sibling must fit")
	}
	copy(dest.slotted.Get(destIdx), src)
	l.slotted.Remove(0)
}

// SplitInsert splits l, moving pairs from its front into newLeaf (the
// new LEFT sibling) until newLeaf is half full, inserting
// (newKey,newValue) into whichever side it belongs on by key order. It
// returns the first key remaining in l (the old/right leaf) — the
// separator to promote into the parent.
func (l Leaf) SplitInsert(newLeaf Leaf, newKey, newValue []byte) []byte {
	newLeaf.Initialize()
	for {
		if newLeaf.isHalfFull() {
			slotID, found := l.SearchSlotID(newKey)
			if found {
				panic("btree: duplicate key reached split path")
			}
			if !l.Insert(slotID, newKey, newValue) {
				panic("btree: old leaf must have space after split")
			}
			break
		}
		frontKey, _ := l.PairAt(0)
		if bytes.Compare(frontKey, newKey) < 0 {
			l.transfer(newLeaf)
			continue
		}
		if !newLeaf.Insert(newLeaf.NumPairs(), newKey, newValue) {
			panic("btree: new leaf must have space")
		}
		for !newLeaf.isHalfFull() {
			l.transfer(newLeaf)
		}
		break
	}
	promotedKey, _ := l.PairAt(0)
	promoted := make([]byte, len(promotedKey))
	copy(promoted, promotedKey)
	return promoted
}
