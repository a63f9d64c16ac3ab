package btree

import (
	"errors"

	"github.com/barrowdb/barrow/internal/storage/buffer"
	"github.com/barrowdb/barrow/internal/storage/page"
)

// ErrDuplicateKey is returned by Insert when the key already exists. It
// is a pure pre-split check: the tree is left untouched.
var ErrDuplicateKey = errors.New("btree: duplicate key")

// SearchMode selects where a Search positions its returned Iter.
type SearchMode struct {
	start bool
	key   []byte
}

// Start positions a search at the tree's minimum key.
func Start() SearchMode {
	return SearchMode{start: true}
}

// Key positions a search at the first key greater than or equal to key.
func Key(key []byte) SearchMode {
	return SearchMode{key: key}
}

// BTree is an ordered map over byte-string keys, identified externally
// by the id of its meta page.
type BTree struct {
	metaPageID page.ID
}

// Open wraps an existing tree whose meta page is at metaPageID.
func Open(metaPageID page.ID) *BTree {
	return &BTree{metaPageID: metaPageID}
}

// MetaPageID returns the id callers should persist to reopen this tree.
func (t *BTree) MetaPageID() page.ID {
	return t.metaPageID
}

// Create allocates a meta page and one empty leaf page, marks the leaf as
// the tree's initial root, and returns a handle to the new tree.
func Create(pool *buffer.Pool) (*BTree, error) {
	metaHandle, err := pool.CreatePage()
	if err != nil {
		return nil, err
	}
	metaPageID := metaHandle.PageID()

	rootHandle, err := pool.CreatePage()
	if err != nil {
		metaHandle.Unpin()
		return nil, err
	}
	InitLeaf(rootHandle.Bytes())
	rootHandle.MarkDirty()
	rootPageID := rootHandle.PageID()
	rootHandle.Unpin()

	meta := WrapMeta(metaHandle.Bytes())
	meta.SetRootPageID(rootPageID)
	metaHandle.MarkDirty()
	metaHandle.Unpin()

	return &BTree{metaPageID: metaPageID}, nil
}

func (t *BTree) fetchRoot(pool *buffer.Pool) (*buffer.Handle, error) {
	metaHandle, err := pool.Fetch(t.metaPageID)
	if err != nil {
		return nil, err
	}
	root := WrapMeta(metaHandle.Bytes()).RootPageID()
	metaHandle.Unpin()
	return pool.Fetch(root)
}

// Search returns an iterator positioned at the first key satisfying mode.
func (t *BTree) Search(pool *buffer.Pool, mode SearchMode) (*Iter, error) {
	rootHandle, err := t.fetchRoot(pool)
	if err != nil {
		return nil, err
	}
	return t.searchInternal(pool, rootHandle, mode)
}

// searchInternal takes ownership of handle: every return path either
// transfers it into the returned Iter or unpins it. The parent handle at
// a branch is always dropped before fetching the child — search never
// needs to re-examine an ancestor.
func (t *BTree) searchInternal(pool *buffer.Pool, handle *buffer.Handle, mode SearchMode) (*Iter, error) {
	buf := handle.Bytes()
	if IsLeaf(buf) {
		leaf := WrapLeaf(buf)
		slotID := 0
		if !mode.start {
			slotID, _ = leaf.SearchSlotID(mode.key)
		}
		if slotID == leaf.NumPairs() {
			next := leaf.NextPageID()
			handle.Unpin()
			if !next.Valid() {
				return &Iter{pool: pool}, nil
			}
			nextHandle, err := pool.Fetch(next)
			if err != nil {
				return nil, err
			}
			return &Iter{pool: pool, handle: nextHandle, slotID: 0}, nil
		}
		return &Iter{pool: pool, handle: handle, slotID: slotID}, nil
	}

	branch := WrapBranch(buf)
	childIdx := 0
	if !mode.start {
		childIdx = branch.SearchChildIdx(mode.key)
	}
	childID := branch.ChildAt(childIdx)
	handle.Unpin()
	childHandle, err := pool.Fetch(childID)
	if err != nil {
		return nil, err
	}
	return t.searchInternal(pool, childHandle, mode)
}

// Insert adds key/value to the tree, returning ErrDuplicateKey without
// mutating anything if key is already present.
func (t *BTree) Insert(pool *buffer.Pool, key, value []byte) error {
	metaHandle, err := pool.Fetch(t.metaPageID)
	if err != nil {
		return err
	}
	meta := WrapMeta(metaHandle.Bytes())
	rootID := meta.RootPageID()

	rootHandle, err := pool.Fetch(rootID)
	if err != nil {
		metaHandle.Unpin()
		return err
	}

	promotedKey, newSiblingID, err := t.insertInternal(pool, rootHandle, key, value)
	if err != nil {
		metaHandle.Unpin()
		return err
	}
	if promotedKey != nil {
		newRootHandle, err := pool.CreatePage()
		if err != nil {
			metaHandle.Unpin()
			return err
		}
		InitBranch(newRootHandle.Bytes(), promotedKey, newSiblingID, rootID)
		newRootHandle.MarkDirty()
		meta.SetRootPageID(newRootHandle.PageID())
		metaHandle.MarkDirty()
		newRootHandle.Unpin()
	}
	metaHandle.Unpin()
	return nil
}

// insertInternal takes ownership of handle: every return path unpins it
// exactly once. On success it returns (nil, 0, nil); on a split it
// returns the promoted separator key and the new sibling's page id,
// which the caller (the parent node, or Insert for the root) must insert
// or use to build a new root.
func (t *BTree) insertInternal(pool *buffer.Pool, handle *buffer.Handle, key, value []byte) ([]byte, page.ID, error) {
	buf := handle.Bytes()

	if IsLeaf(buf) {
		leaf := WrapLeaf(buf)
		slotID, found := leaf.SearchSlotID(key)
		if found {
			handle.Unpin()
			return nil, 0, ErrDuplicateKey
		}
		if leaf.Insert(slotID, key, value) {
			handle.MarkDirty()
			handle.Unpin()
			return nil, 0, nil
		}

		prevID := leaf.PrevPageID()
		newHandle, err := pool.CreatePage()
		if err != nil {
			handle.Unpin()
			return nil, 0, err
		}
		if prevID.Valid() {
			prevHandle, err := pool.Fetch(prevID)
			if err != nil {
				handle.Unpin()
				newHandle.Unpin()
				return nil, 0, err
			}
			WrapLeaf(prevHandle.Bytes()).SetNextPageID(newHandle.PageID())
			prevHandle.MarkDirty()
			prevHandle.Unpin()
		}
		leaf.SetPrevPageID(newHandle.PageID())

		newLeaf := InitLeaf(newHandle.Bytes())
		promoted := leaf.SplitInsert(newLeaf, key, value)
		newLeaf.SetNextPageID(handle.PageID())
		newLeaf.SetPrevPageID(prevID)
		handle.MarkDirty()
		newHandle.MarkDirty()
		newSiblingID := newHandle.PageID()
		handle.Unpin()
		newHandle.Unpin()
		return promoted, newSiblingID, nil
	}

	// The parent is released before descending and re-fetched only if the
	// child split and its separator has to be inserted here.
	branch := WrapBranch(buf)
	childIdx := branch.SearchChildIdx(key)
	childID := branch.ChildAt(childIdx)
	parentID := handle.PageID()
	handle.Unpin()

	childHandle, err := pool.Fetch(childID)
	if err != nil {
		return nil, 0, err
	}
	childPromoted, childNewID, err := t.insertInternal(pool, childHandle, key, value)
	if err != nil {
		return nil, 0, err
	}
	if childPromoted == nil {
		return nil, 0, nil
	}

	handle, err = pool.Fetch(parentID)
	if err != nil {
		return nil, 0, err
	}
	branch = WrapBranch(handle.Bytes())
	if branch.Insert(childIdx, childPromoted, childNewID) {
		handle.MarkDirty()
		handle.Unpin()
		return nil, 0, nil
	}

	newHandle, err := pool.CreatePage()
	if err != nil {
		handle.Unpin()
		return nil, 0, err
	}
	newBranch := tagBranch(newHandle.Bytes())
	promoted := branch.SplitInsert(newBranch, childPromoted, childNewID)
	handle.MarkDirty()
	newHandle.MarkDirty()
	newSiblingID := newHandle.PageID()
	handle.Unpin()
	newHandle.Unpin()
	return promoted, newSiblingID, nil
}

// ───────────────────────────────────────────────────────────────────────────
// Iterator
// ───────────────────────────────────────────────────────────────────────────

// Iter walks leaves in ascending key order, following next_page_id across
// leaf boundaries automatically. It pins exactly one leaf page at a time
// — the one it currently points to.
type Iter struct {
	pool   *buffer.Pool
	handle *buffer.Handle // nil once exhausted
	slotID int
}

// Get returns the pair the iterator currently points to, or ok=false if
// past the end. The returned slices are owned copies: advancing the
// iterator does not invalidate them.
func (it *Iter) Get() (key, value []byte, ok bool) {
	if it.handle == nil {
		return nil, nil, false
	}
	leaf := WrapLeaf(it.handle.Bytes())
	if it.slotID >= leaf.NumPairs() {
		return nil, nil, false
	}
	k, v := leaf.PairAt(it.slotID)
	return append([]byte(nil), k...), append([]byte(nil), v...), true
}

// Advance moves to the next pair, crossing into the next leaf if needed.
func (it *Iter) Advance() error {
	if it.handle == nil {
		return nil
	}
	leaf := WrapLeaf(it.handle.Bytes())
	it.slotID++
	if it.slotID < leaf.NumPairs() {
		return nil
	}
	next := leaf.NextPageID()
	it.handle.Unpin()
	it.handle = nil
	if !next.Valid() {
		return nil
	}
	h, err := it.pool.Fetch(next)
	if err != nil {
		return err
	}
	it.handle = h
	it.slotID = 0
	return nil
}

// Next returns the current pair (as Get would) and then advances.
func (it *Iter) Next() (key, value []byte, ok bool, err error) {
	key, value, ok = it.Get()
	err = it.Advance()
	return key, value, ok, err
}

// Close releases any leaf handle still pinned by a partially-consumed
// iterator. Safe to call on an already-exhausted iterator.
func (it *Iter) Close() {
	if it.handle != nil {
		it.handle.Unpin()
		it.handle = nil
	}
}
