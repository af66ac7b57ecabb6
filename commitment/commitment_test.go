package commitment

import (
	"bytes"
	"crypto/sha256"
	"math/rand"
	"testing"
)

func TestFingerprintMatchesSHA256(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n <= 200; n++ {
		data := make([]byte, n)
		rng.Read(data)
		got := FingerprintBytes(data)
		want := sha256.Sum256(data)
		if !bytes.Equal(got[:], want[:]) {
			t.Fatalf("Digest mismatch for length %d: got %x, want %x", n, got, want)
		}
	}
}

func TestFingerprintPaddingBoundaries(t *testing.T) {
	for _, n := range []int{55, 56, 63, 64, 65, 119, 120, 128, 4096} {
		data := bytes.Repeat([]byte{0xa5}, n)
		got := FingerprintBytes(data)
		want := sha256.Sum256(data)
		if got != Fingerprint(want) {
			t.Errorf("Digest mismatch for length %d", n)
		}
	}
}

func TestSampleBytesLittleEndian(t *testing.T) {
	got := SampleBytes([]int16{0, -50, 200, 100})
	want := []byte{0x00, 0x00, 0xCE, 0xFF, 0xC8, 0x00, 0x64, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("Expected %x, got %x", want, got)
	}
}

func TestOfReversedScenario(t *testing.T) {
	original := Of([]int16{100, 200, -50, 0})
	reversed := Of([]int16{0, -50, 200, 100})

	want := sha256.Sum256([]byte{0x00, 0x00, 0xCE, 0xFF, 0xC8, 0x00, 0x64, 0x00})
	if reversed != Fingerprint(want) {
		t.Errorf("Reversed fingerprint = %s, want %x", reversed.Hex(), want)
	}
	if original == reversed {
		t.Error("Distinct buffers produced the same fingerprint")
	}
}

func TestOfEmpty(t *testing.T) {
	want := "0xe3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Of(nil).Hex(); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestPrimitivesSingleBlock(t *testing.T) {
	// "abc" padded into one block by hand
	var block [BlockSize]byte
	copy(block[:], "abc")
	block[3] = 0x80
	block[63] = 24

	state := initialState
	processBlock(block[:], &state)

	want := sha256.Sum256([]byte("abc"))
	var got Fingerprint
	for i, v := range state {
		got[i*4] = byte(v >> 24)
		got[i*4+1] = byte(v >> 16)
		got[i*4+2] = byte(v >> 8)
		got[i*4+3] = byte(v)
	}
	if got != Fingerprint(want) {
		t.Errorf("Expected %x, got %x", want, got)
	}
}
