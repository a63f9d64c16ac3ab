package codec

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// EncodeTuple encodes each element of elems with EncodeMemcmp, in order,
// and concatenates the results. Comparing two such encodings byte-wise
// matches comparing the original tuples lexicographically element by
// element.
func EncodeTuple(elems [][]byte) []byte {
	size := 0
	for _, e := range elems {
		size += EncodedSize(len(e))
	}
	buf := make([]byte, 0, size)
	for _, e := range elems {
		buf = append(buf, EncodeMemcmp(e)...)
	}
	return buf
}

// DecodeTuple repeatedly decodes elements from the front of src until it
// is exhausted, returning them in order.
func DecodeTuple(src []byte) [][]byte {
	var elems [][]byte
	for len(src) > 0 {
		var v []byte
		v, src = DecodeMemcmp(src)
		elems = append(elems, v)
	}
	return elems
}

// PrettyTuple renders a decoded tuple for debug/log output: each element
// is shown as a UTF-8 string when it decodes as one, otherwise as hex.
func PrettyTuple(elems [][]byte) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		if utf8.Valid(e) {
			parts[i] = fmt.Sprintf("%q", e)
		} else {
			parts[i] = fmt.Sprintf("%x", e)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
