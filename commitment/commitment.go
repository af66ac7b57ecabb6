// Package commitment computes the content fingerprint of a sample buffer: a
// SHA-256 digest of its little-endian sample bytes, driven block by block
// through the schedule-extend and compress primitives.
package commitment

import (
	"encoding/binary"
	"encoding/hex"
	"math/bits"
)

const (
	// BlockSize is the SHA-256 block length in bytes
	BlockSize = 64
	// Size is the fingerprint length in bytes
	Size = 32
)

// Fingerprint is a 32-byte content commitment
type Fingerprint [Size]byte

// Hex renders the fingerprint as 0x-prefixed lowercase hex
func (f Fingerprint) Hex() string {
	return "0x" + hex.EncodeToString(f[:])
}

// Bytes returns a copy of the fingerprint as a slice
func (f Fingerprint) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, f[:])
	return out
}

var initialState = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

var roundConstants = [64]uint32{
	0x428a2f98, 0x71374491, 0xb5c0fbcf, 0xe9b5dba5, 0x3956c25b, 0x59f111f1, 0x923f82a4, 0xab1c5ed5,
	0xd807aa98, 0x12835b01, 0x243185be, 0x550c7dc3, 0x72be5d74, 0x80deb1fe, 0x9bdc06a7, 0xc19bf174,
	0xe49b69c1, 0xefbe4786, 0x0fc19dc6, 0x240ca1cc, 0x2de92c6f, 0x4a7484aa, 0x5cb0a9dc, 0x76f988da,
	0x983e5152, 0xa831c66d, 0xb00327c8, 0xbf597fc7, 0xc6e00bf3, 0xd5a79147, 0x06ca6351, 0x14292967,
	0x27b70a85, 0x2e1b2138, 0x4d2c6dfc, 0x53380d13, 0x650a7354, 0x766a0abb, 0x81c2c92e, 0x92722c85,
	0xa2bfe8a1, 0xa81a664b, 0xc24b8b70, 0xc76c51a3, 0xd192e819, 0xd6990624, 0xf40e3585, 0x106aa070,
	0x19a4c116, 0x1e376c08, 0x2748774c, 0x34b0bcb5, 0x391c0cb3, 0x4ed8aa4a, 0x5b9cca4f, 0x682e6ff3,
	0x748f82ee, 0x78a5636f, 0x84c87814, 0x8cc70208, 0x90befffa, 0xa4506ceb, 0xbef9a3f7, 0xc67178f2,
}

// ExtendSchedule fills w[16:64] from the sixteen message words in w[0:16]
func ExtendSchedule(w *[64]uint32) {
	for i := 16; i < 64; i++ {
		v1 := w[i-2]
		s1 := bits.RotateLeft32(v1, -17) ^ bits.RotateLeft32(v1, -19) ^ (v1 >> 10)
		v0 := w[i-15]
		s0 := bits.RotateLeft32(v0, -7) ^ bits.RotateLeft32(v0, -18) ^ (v0 >> 3)
		w[i] = s1 + w[i-7] + s0 + w[i-16]
	}
}

// Compress runs the 64 rounds over an extended schedule and folds the result
// into state.
func Compress(w *[64]uint32, state *[8]uint32) {
	a, b, c, d, e, f, g, h := state[0], state[1], state[2], state[3], state[4], state[5], state[6], state[7]
	for i := 0; i < 64; i++ {
		s1 := bits.RotateLeft32(e, -6) ^ bits.RotateLeft32(e, -11) ^ bits.RotateLeft32(e, -25)
		ch := (e & f) ^ (^e & g)
		t1 := h + s1 + ch + roundConstants[i] + w[i]
		s0 := bits.RotateLeft32(a, -2) ^ bits.RotateLeft32(a, -13) ^ bits.RotateLeft32(a, -22)
		maj := (a & b) ^ (a & c) ^ (b & c)
		t2 := s0 + maj

		h = g
		g = f
		f = e
		e = d + t1
		d = c
		c = b
		b = a
		a = t1 + t2
	}
	state[0] += a
	state[1] += b
	state[2] += c
	state[3] += d
	state[4] += e
	state[5] += f
	state[6] += g
	state[7] += h
}

func processBlock(block []byte, state *[8]uint32) {
	var w [64]uint32
	for i := 0; i < 16; i++ {
		w[i] = binary.BigEndian.Uint32(block[i*4:])
	}
	ExtendSchedule(&w)
	Compress(&w, state)
}

// FingerprintBytes digests data with SHA-256
func FingerprintBytes(data []byte) Fingerprint {
	state := initialState
	full := len(data) / BlockSize * BlockSize
	for off := 0; off < full; off += BlockSize {
		processBlock(data[off:off+BlockSize], &state)
	}

	// 0x80 terminator, zero fill, 64-bit bit length. One padding block when
	// at least eight bytes remain after the terminator, two otherwise.
	rest := data[full:]
	var tail [2 * BlockSize]byte
	copy(tail[:], rest)
	tail[len(rest)] = 0x80
	padded := BlockSize
	if len(rest) >= BlockSize-8 {
		padded = 2 * BlockSize
	}
	binary.BigEndian.PutUint64(tail[padded-8:], uint64(len(data))*8)
	for off := 0; off < padded; off += BlockSize {
		processBlock(tail[off:off+BlockSize], &state)
	}

	var out Fingerprint
	for i, v := range state {
		binary.BigEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// SampleBytes serializes samples as two little-endian bytes each
func SampleBytes(samples []int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// Of returns the fingerprint of a sample sequence
func Of(samples []int16) Fingerprint {
	return FingerprintBytes(SampleBytes(samples))
}
