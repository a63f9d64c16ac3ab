package table

import (
	"bytes"
	"testing"

	"github.com/barrowdb/barrow/internal/storage/buffer"
	"github.com/barrowdb/barrow/internal/storage/disk"
)

func newTestPool(t *testing.T, size int) *buffer.Pool {
	t.Helper()
	return buffer.NewPool(disk.NewMemory(), size)
}

func row(id string, name string, email string) [][]byte {
	return [][]byte{[]byte(id), []byte(name), []byte(email)}
}

func TestInsertAndGetByPrimaryKey(t *testing.T) {
	pool := newTestPool(t, 16)
	tb, err := Create(pool, -1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := tb.Insert([][]byte{[]byte("1")}, row("1", "ada", "ada@example.com")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tb.Insert([][]byte{[]byte("2")}, row("2", "grace", "grace@example.com")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, found, err := tb.Get([][]byte{[]byte("1")})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("get: row 1 not found")
	}
	if !bytes.Equal(got[1], []byte("ada")) {
		t.Errorf("row 1 name = %q, want ada", got[1])
	}

	_, found, err = tb.Get([][]byte{[]byte("3")})
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if found {
		t.Error("get: row 3 should not be found")
	}
}

func TestSecondaryIndexLookup(t *testing.T) {
	pool := newTestPool(t, 16)
	tb, err := Create(pool, 2) // index on the email column
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := tb.Insert([][]byte{[]byte("1")}, row("1", "ada", "ada@example.com")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tb.Insert([][]byte{[]byte("2")}, row("2", "grace", "grace@example.com")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, found, err := tb.LookupBySecondary([]byte("grace@example.com"))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !found {
		t.Fatal("lookup: grace's row not found")
	}
	if !bytes.Equal(got[1], []byte("grace")) {
		t.Errorf("looked up name = %q, want grace", got[1])
	}
}

func TestLookupBySecondaryWithoutIndexErrors(t *testing.T) {
	pool := newTestPool(t, 16)
	tb, err := Create(pool, -1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := tb.LookupBySecondary([]byte("x")); err == nil {
		t.Fatal("lookup without secondary index: want error, got nil")
	}
}

func TestScanVisitsAllRowsInKeyOrder(t *testing.T) {
	pool := newTestPool(t, 16)
	tb, err := Create(pool, -1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ids := []string{"3", "1", "4", "1", "5"} // note: literal "1" duplicate is skipped below
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := tb.Insert([][]byte{[]byte(id)}, row(id, "n"+id, "e"+id)); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	cur, err := tb.Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	defer cur.Close()

	var prevKey []byte
	count := 0
	for {
		r, ok, err := cur.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		k := r[0]
		if prevKey != nil && bytes.Compare(prevKey, k) >= 0 {
			t.Fatalf("scan not ascending: prev=%q cur=%q", prevKey, k)
		}
		prevKey = k
		count++
	}
	if count != len(seen) {
		t.Errorf("scanned %d rows, want %d", count, len(seen))
	}
}

func TestReopenPreservesRows(t *testing.T) {
	pool := newTestPool(t, 16)
	tb, err := Create(pool, -1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tb.Insert([][]byte{[]byte("1")}, row("1", "ada", "ada@example.com")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := pool.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reopened := Open(pool, tb.PrimaryMetaPageID(), tb.SecondaryMetaPageID(), -1)
	got, found, err := reopened.Get([][]byte{[]byte("1")})
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if !found || !bytes.Equal(got[1], []byte("ada")) {
		t.Errorf("get after reopen = %q found=%v, want ada,true", got, found)
	}
}
