package btree

import (
	"bytes"

	"github.com/barrowdb/barrow/internal/storage/page"
)

const (
	branchRightChildOffset = tagSize     // 8
	branchBodyOffset       = tagSize + 8 // 16
)

// Branch is a B+Tree branch (interior) node: a tagged page holding
// {right_child} followed by a slotted region of {key, child page id}
// pairs in ascending key order. N slots route N+1 children: slot i's
// child holds keys strictly less than slot i's key, and right_child
// holds everything greater than or equal to the last slot's key.
type Branch struct {
	buf     []byte
	slotted page.Slotted
}

// WrapBranch views an already-tagged, already-initialized page as a
// Branch. It panics if buf does not carry the branch tag.
func WrapBranch(buf []byte) Branch {
	if !IsBranch(buf) {
		panic("btree: page carries neither the leaf nor the branch tag")
	}
	return Branch{buf: buf, slotted: page.Wrap(buf[branchBodyOffset:])}
}

// tagBranch stamps the branch tag onto a fresh page without populating
// any entries — used when a split needs a blank branch for SplitInsert
// to fill in.
func tagBranch(buf []byte) Branch {
	copy(buf[0:tagSize], branchTag)
	return WrapBranch(buf)
}

// InitBranch stamps the branch tag onto a fresh page, inserts one entry
// {key, leftChild}, and sets rightChild — the layout a freshly split root
// always starts from.
func InitBranch(buf []byte, key []byte, leftChild, rightChild page.ID) Branch {
	copy(buf[0:tagSize], branchTag)
	b := WrapBranch(buf)
	b.slotted.Initialize()
	if !b.Insert(0, key, leftChild) {
		panic("btree: fresh branch must have space for its first entry")
	}
	b.SetRightChild(rightChild)
	return b
}

func (b Branch) RightChild() page.ID {
	return page.GetID(b.buf, branchRightChildOffset)
}

func (b Branch) SetRightChild(id page.ID) {
	page.PutID(b.buf, branchRightChildOffset, id)
}

// NumPairs is the number of {key, child} entries currently stored.
func (b Branch) NumPairs() int {
	return b.slotted.NumSlots()
}

// PairAt returns the key and child page id stored at slot.
func (b Branch) PairAt(slot int) (key []byte, child page.ID) {
	k, v := decodePair(b.slotted.Get(slot))
	return k, page.GetID(v, 0)
}

// KeyAt returns just the key stored at slot.
func (b Branch) KeyAt(slot int) []byte {
	return pairKey(b.slotted.Get(slot))
}

// SearchSlotID locates key among this branch's separators: (i, true) if
// key equals slot i's separator, (i, false) if key would need to be
// inserted at i.
func (b Branch) SearchSlotID(key []byte) (int, bool) {
	return searchSlotID(b.NumPairs(), b.KeyAt, key)
}

// SearchChildIdx maps a search key to the index of the child subtree
// that must contain it.
func (b Branch) SearchChildIdx(key []byte) int {
	slotID, found := b.SearchSlotID(key)
	if found {
		return slotID + 1
	}
	return slotID
}

// SearchChild is SearchChildIdx followed by ChildAt.
func (b Branch) SearchChild(key []byte) page.ID {
	return b.ChildAt(b.SearchChildIdx(key))
}

// ChildAt returns the page id of the childIdx-th child; childIdx ==
// NumPairs() selects RightChild.
func (b Branch) ChildAt(childIdx int) page.ID {
	if childIdx == b.NumPairs() {
		return b.RightChild()
	}
	_, child := b.PairAt(childIdx)
	return child
}

// MaxPairSize is the largest encoded {key, child} entry this branch
// could ever hold — half the body's capacity minus one slot pointer
// entry, so that any single entry
// always fits in the emptier side of a split.
func (b Branch) MaxPairSize() int {
	return b.slotted.Capacity()/2 - page.PointerSize
}

// Insert places {key, childID} at slot, shifting later slots right. It
// returns false without mutating the branch if there isn't room.
func (b Branch) Insert(slot int, key []byte, childID page.ID) bool {
	value := make([]byte, 8)
	putChildID(value, childID)
	if pairSize(key, value) > b.MaxPairSize() {
		panic("btree: branch entry exceeds max_pair_size")
	}
	pairBytes := encodePair(key, value)
	if !b.slotted.Insert(slot, len(pairBytes)) {
		return false
	}
	copy(b.slotted.Get(slot), pairBytes)
	return true
}

func (b Branch) isHalfFull() bool {
	return 2*b.slotted.FreeSpace() < b.slotted.Capacity()
}

func (b Branch) transfer(dest Branch) {
	src := b.slotted.Get(0)
	destIdx := dest.NumPairs()
	if !dest.slotted.Insert(destIdx, len(src)) {
		panic("btree: transfer into non-half-full sibling must fit")
	}
	copy(dest.slotted.Get(destIdx), src)
	b.slotted.Remove(0)
}

// FillRightChild pops the last entry off b, making its child id the new
// RightChild and returning its key as the promoted separator. This keeps
// the N-slots-route-N+1-children invariant consistent after a split
// moved entries into b as a fresh sibling.
func (b Branch) FillRightChild() []byte {
	lastID := b.NumPairs() - 1
	key, child := b.PairAt(lastID)
	promoted := make([]byte, len(key))
	copy(promoted, key)
	b.slotted.Remove(lastID)
	b.SetRightChild(child)
	return promoted
}

// SplitInsert splits b, moving entries from its front into newBranch
// (the new LEFT sibling) until newBranch is half full, inserting
// {newKey, newChild} into whichever side it belongs on by key order,
// then calling FillRightChild on newBranch to restore the
// N-routes-N+1 invariant. It returns the promoted separator key.
func (b Branch) SplitInsert(newBranch Branch, newKey []byte, newChild page.ID) []byte {
	newBranch.slotted.Initialize()
	for {
		if newBranch.isHalfFull() {
			slotID, found := b.SearchSlotID(newKey)
			if found {
				panic("btree: duplicate key reached split path")
			}
			if !b.Insert(slotID, newKey, newChild) {
				panic("btree: old branch must have space after split")
			}
			break
		}
		frontKey, _ := b.PairAt(0)
		if bytes.Compare(frontKey, newKey) < 0 {
			b.transfer(newBranch)
			continue
		}
		if !newBranch.Insert(newBranch.NumPairs(), newKey, newChild) {
			panic("btree: new branch must have space")
		}
		for !newBranch.isHalfFull() {
			b.transfer(newBranch)
		}
		break
	}
	return newBranch.FillRightChild()
}

func putChildID(dst []byte, id page.ID) {
	page.PutID(dst, 0, id)
}
