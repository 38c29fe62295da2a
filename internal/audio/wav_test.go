package audio

import (
	"bytes"
	"testing"
)

func TestConcatWAVStripsSubsequentHeaders(t *testing.T) {
	// F1: 44-byte header + 4 payload bytes, F2: 44-byte header + 16 payload bytes.
	f1 := append(fakeHeader('A'), []byte{1, 2, 3, 4}...)
	f2 := append(fakeHeader('B'), bytes.Repeat([]byte{9}, 16)...)

	got := ConcatWAV([][]byte{f1, f2})
	if len(got) != 64 {
		t.Fatalf("length = %d, want 64", len(got))
	}
	want := append(append([]byte{}, f1...), f2[HeaderSize:]...)
	if !bytes.Equal(got, want) {
		t.Fatalf("concat mismatch")
	}
}

func TestConcatWAVSingleFragmentIsVerbatim(t *testing.T) {
	f1 := append(fakeHeader('A'), 7, 7)
	got := ConcatWAV([][]byte{f1})
	if !bytes.Equal(got, f1) {
		t.Fatalf("single fragment must be byte-for-byte")
	}
}

func TestConcatWAVEmpty(t *testing.T) {
	if got := ConcatWAV(nil); got != nil {
		t.Fatalf("ConcatWAV(nil) = %v, want nil", got)
	}
}

func TestConcatWAVSkipsHeaderOnlyFragment(t *testing.T) {
	f1 := append(fakeHeader('A'), 1, 2)
	f2 := fakeHeader('B') // no payload, strips to nothing
	got := ConcatWAV([][]byte{f1, f2})
	if !bytes.Equal(got, f1) {
		t.Fatalf("header-only fragment should contribute no bytes")
	}
}

func fakeHeader(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, HeaderSize)
}
