package btree

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/barrowdb/barrow/internal/storage/buffer"
	"github.com/barrowdb/barrow/internal/storage/disk"
)

func newTestPool(t *testing.T, size int) *buffer.Pool {
	t.Helper()
	return buffer.NewPool(disk.NewMemory(), size)
}

func keyBytes(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

func mustSearchOne(t *testing.T, tree *BTree, pool *buffer.Pool, key []byte) (value []byte, found bool) {
	t.Helper()
	it, err := tree.Search(pool, Key(key))
	if err != nil {
		t.Fatalf("search %x: %v", key, err)
	}
	defer it.Close()
	k, v, ok := it.Get()
	if !ok || !bytes.Equal(k, key) {
		return nil, false
	}
	return v, true
}

// TestScenarioS1Duplicate mirrors scenario S1.
func TestScenarioS1Duplicate(t *testing.T) {
	pool := newTestPool(t, 16)
	tree, err := Create(pool)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	k := keyBytes(3)
	if err := tree.Insert(pool, k, []byte("hello")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := tree.Insert(pool, k, []byte("x")); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("second insert: got %v, want ErrDuplicateKey", err)
	}
	v, found := mustSearchOne(t, tree, pool, k)
	if !found || string(v) != "hello" {
		t.Fatalf("search after rejected duplicate: got %q found=%v, want hello", v, found)
	}
}

// TestScenarioS2Basic mirrors scenario S2.
func TestScenarioS2Basic(t *testing.T) {
	pool := newTestPool(t, 16)
	tree, err := Create(pool)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inserts := []struct {
		k uint64
		v string
	}{
		{6, "world"}, {3, "hello"}, {8, "!"}, {4, ","},
	}
	for _, ins := range inserts {
		if err := tree.Insert(pool, keyBytes(ins.k), []byte(ins.v)); err != nil {
			t.Fatalf("insert %d: %v", ins.k, err)
		}
	}
	if v, ok := mustSearchOne(t, tree, pool, keyBytes(3)); !ok || string(v) != "hello" {
		t.Errorf("search 3 = %q,%v want hello,true", v, ok)
	}
	if v, ok := mustSearchOne(t, tree, pool, keyBytes(8)); !ok || string(v) != "!" {
		t.Errorf("search 8 = %q,%v want !,true", v, ok)
	}
}

// TestScenarioS3LeafSplitGapSearch mirrors scenario S3: insert even keys
// 0..30 with large values forcing splits, then for each odd gap key,
// search(Key(k)) followed by next() should land on k+1.
func TestScenarioS3LeafSplitGapSearch(t *testing.T) {
	pool := newTestPool(t, 16)
	tree, err := Create(pool)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bigValue := bytes.Repeat([]byte{0xAB}, 1024)
	for k := uint64(0); k <= 30; k += 2 {
		if err := tree.Insert(pool, keyBytes(k), bigValue); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}
	for k := uint64(1); k <= 29; k += 2 {
		it, err := tree.Search(pool, Key(keyBytes(k)))
		if err != nil {
			t.Fatalf("search %d: %v", k, err)
		}
		gotKey, _, ok := it.Get()
		it.Close()
		if !ok {
			t.Fatalf("search %d: iterator empty at gap", k)
		}
		want := keyBytes(k + 1)
		if !bytes.Equal(gotKey, want) {
			t.Errorf("search(%d).get() key = %x, want %x", k, gotKey, want)
		}
	}
}

// TestScenarioS4LargePair mirrors scenario S4: 8 keys, each 1000 bytes,
// value equal to key.
func TestScenarioS4LargePair(t *testing.T) {
	pool := newTestPool(t, 16)
	tree, err := Create(pool)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	keys := make([][]byte, 8)
	for i := range keys {
		k := bytes.Repeat([]byte{byte(i)}, 1000)
		keys[i] = k
		if err := tree.Insert(pool, k, k); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	for i, k := range keys {
		v, ok := mustSearchOne(t, tree, pool, k)
		if !ok || !bytes.Equal(v, k) {
			t.Errorf("key %d: search returned ok=%v value-mismatch=%v", i, ok, !bytes.Equal(v, k))
		}
	}
}

// TestIterationAscendingNoDuplicatesNoOmissions covers invariant 2 and 5.
func TestIterationAscendingNoDuplicatesNoOmissions(t *testing.T) {
	pool := newTestPool(t, 16)
	tree, err := Create(pool)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	const n = 200
	inserted := make(map[uint64]bool)
	for i := uint64(0); i < n; i++ {
		k := (i * 2654435761) % 100000 // scrambled insertion order, unique keys
		if inserted[k] {
			continue
		}
		inserted[k] = true
		if err := tree.Insert(pool, keyBytes(k), []byte("v")); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}

	it, err := tree.Search(pool, Start())
	if err != nil {
		t.Fatalf("search start: %v", err)
	}
	var prev []byte
	count := 0
	for {
		k, _, ok, err := it.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		if prev != nil && bytes.Compare(prev, k) >= 0 {
			t.Fatalf("keys not strictly ascending: prev=%x cur=%x", prev, k)
		}
		prev = k
		count++
	}
	if count != len(inserted) {
		t.Errorf("iterated %d keys, want %d", count, len(inserted))
	}
}
