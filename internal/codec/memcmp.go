// Package codec implements the memcmp-preserving byte-string codec and
// the tuple codec built on top of it: arbitrary byte strings are encoded
// into a self-delimiting chunked form such that raw byte comparison of
// encoded values matches lexicographic comparison of the originals, and
// multiple encoded elements can be concatenated to form a comparable
// multi-column key.
package codec

// groupSize is the number of payload bytes per encoded group; each group
// is groupSize payload bytes followed by one terminator byte.
const groupSize = 8

// EncodedSize returns the number of bytes EncodeMemcmp emits for an input
// of length n. There is always at least one group, so the empty string
// has a well-defined (9-byte) encoding.
func EncodedSize(n int) int {
	return (n + groupSize) / groupSize * (groupSize + 1)
}

// EncodeMemcmp encodes src into its memcmp-preserving form: groups of 8
// payload bytes terminated by a marker byte — 9 ("more groups follow") for
// every group but the last, and the count of valid bytes (0..8) for the
// last, zero-padded group.
func EncodeMemcmp(src []byte) []byte {
	dst := make([]byte, 0, EncodedSize(len(src)))
	for {
		if len(src) >= groupSize {
			dst = append(dst, src[:groupSize]...)
			dst = append(dst, groupSize+1)
			src = src[groupSize:]
			continue
		}
		var group [groupSize]byte
		copy(group[:], src)
		dst = append(dst, group[:]...)
		dst = append(dst, byte(len(src)))
		return dst
	}
}

// DecodeMemcmp reads one memcmp-encoded value from the front of src and
// returns its decoded bytes along with whatever remains of src.
func DecodeMemcmp(src []byte) (value, rest []byte) {
	var out []byte
	for {
		terminator := src[groupSize]
		n := int(terminator)
		if n > groupSize {
			n = groupSize
		}
		out = append(out, src[:n]...)
		src = src[groupSize+1:]
		if terminator <= groupSize {
			return out, src
		}
	}
}
