package btree

import "encoding/binary"

// encodePair lays out a key/value pair as a single slot payload: a 4-byte
// little-endian key length, the key bytes, then the value bytes (whose
// length is implicit — it's whatever remains in the slot). Any
// deterministic encoding that round-trips and respects maxPairSize would
// do; this one is chosen for its fixed, easy-to-reason-about header.
func encodePair(key, value []byte) []byte {
	buf := make([]byte, 4+len(key)+len(value))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(key)))
	copy(buf[4:4+len(key)], key)
	copy(buf[4+len(key):], value)
	return buf
}

func pairSize(key, value []byte) int {
	return 4 + len(key) + len(value)
}

func decodePair(buf []byte) (key, value []byte) {
	klen := binary.LittleEndian.Uint32(buf[0:4])
	key = buf[4 : 4+klen]
	value = buf[4+klen:]
	return key, value
}

func pairKey(buf []byte) []byte {
	klen := binary.LittleEndian.Uint32(buf[0:4])
	return buf[4 : 4+klen]
}
