package codec

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestEncodedSizeMatchesEmittedLength(t *testing.T) {
	for n := 0; n <= 40; n++ {
		src := make([]byte, n)
		got := len(EncodeMemcmp(src))
		want := EncodedSize(n)
		if got != want {
			t.Errorf("n=%d: EncodeMemcmp emitted %d bytes, EncodedSize said %d", n, got, want)
		}
	}
}

func TestMemcmpRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for n := 0; n <= 40; n++ {
		src := make([]byte, n)
		r.Read(src)
		encoded := EncodeMemcmp(src)
		decoded, rest := DecodeMemcmp(encoded)
		if len(rest) != 0 {
			t.Fatalf("n=%d: leftover bytes after decode: %d", n, len(rest))
		}
		if !bytes.Equal(decoded, src) {
			t.Errorf("n=%d: round trip mismatch: got %x want %x", n, decoded, src)
		}
	}
}

// TestMemcmpOrderPreserving is scenario S6: encode("apple") < encode("apricot")
// byte-wise, and both round-trip.
func TestMemcmpOrderPreserving(t *testing.T) {
	a, b := []byte("apple"), []byte("apricot")
	ea, eb := EncodeMemcmp(a), EncodeMemcmp(b)
	if bytes.Compare(ea, eb) >= 0 {
		t.Fatalf("encode(apple) should sort before encode(apricot)")
	}
	da, _ := DecodeMemcmp(ea)
	db, _ := DecodeMemcmp(eb)
	if !bytes.Equal(da, a) || !bytes.Equal(db, b) {
		t.Fatalf("round trip mismatch")
	}
}

func TestMemcmpPreservesLexOrderRandomPairs(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		a := randBytes(r, r.Intn(20))
		b := randBytes(r, r.Intn(20))
		want := bytes.Compare(a, b)
		got := bytes.Compare(EncodeMemcmp(a), EncodeMemcmp(b))
		if sign(want) != sign(got) {
			t.Fatalf("order mismatch: a=%x b=%x want sign %d got sign %d", a, b, sign(want), sign(got))
		}
	}
}

func randBytes(r *rand.Rand, n int) []byte {
	buf := make([]byte, n)
	r.Read(buf)
	return buf
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
