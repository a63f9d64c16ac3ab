package btree

import "bytes"

// searchSlotID is the shared half-open binary search used by both leaf
// and branch nodes: at reports the key stored at slot i, among n sorted
// slots. It returns (i, true) on an exact match, or (i, false) for the
// index the key would need to be inserted at to keep slots sorted.
func searchSlotID(n int, at func(int) []byte, key []byte) (int, bool) {
	lo, hi := 0, n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch c := bytes.Compare(at(mid), key); {
		case c == 0:
			return mid, true
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return lo, false
}
