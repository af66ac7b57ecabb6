// Package publicrecord encodes the committed output of a request as an
// ABI tuple (bytes32, bytes32, bytes32, bool) that an on-chain or off-chain
// verifier can decode without knowing anything about this system.
package publicrecord

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"zk-sampler/attestation"
	"zk-sampler/commitment"
	"zk-sampler/shared"
)

// EncodedSize is the length of an encoded record: four 32-byte words
const EncodedSize = 4 * 32

// Record is the public output of one request
type Record struct {
	OriginalFingerprint    commitment.Fingerprint
	TransformedFingerprint commitment.Fingerprint
	Identity               attestation.Identity
	HasSignature           bool
}

// HexRecord is the JSON view of a Record
type HexRecord struct {
	OriginalAudioHash    string `json:"original_audio_hash"`
	TransformedAudioHash string `json:"transformed_audio_hash"`
	SignerPublicKey      string `json:"signer_public_key"`
	HasSignature         bool   `json:"has_signature"`
}

var (
	argsOnce sync.Once
	args     abi.Arguments
	argsErr  error
)

func recordArguments() (abi.Arguments, error) {
	argsOnce.Do(func() {
		bytes32, err := abi.NewType("bytes32", "", nil)
		if err != nil {
			argsErr = err
			return
		}
		boolean, err := abi.NewType("bool", "", nil)
		if err != nil {
			argsErr = err
			return
		}
		args = abi.Arguments{
			{Name: "originalAudioHash", Type: bytes32},
			{Name: "transformedAudioHash", Type: bytes32},
			{Name: "signerPublicKey", Type: bytes32},
			{Name: "hasSignature", Type: boolean},
		}
	})
	return args, argsErr
}

// identityWord right-aligns the identity in a 32-byte word
func identityWord(id attestation.Identity) [32]byte {
	var word [32]byte
	copy(word[32-attestation.IdentityLength:], id[:])
	return word
}

// Encode packs r into its 128-byte ABI form
func Encode(r Record) []byte {
	arguments, err := recordArguments()
	if err != nil {
		// static type strings; cannot fail
		panic(fmt.Sprintf("publicrecord: building ABI types: %v", err))
	}
	packed, err := arguments.Pack(
		[32]byte(r.OriginalFingerprint),
		[32]byte(r.TransformedFingerprint),
		identityWord(r.Identity),
		r.HasSignature,
	)
	if err != nil {
		panic(fmt.Sprintf("publicrecord: packing static tuple: %v", err))
	}
	return packed
}

// Decode parses an encoded record. The identity word must carry twelve
// leading zero bytes.
func Decode(data []byte) (Record, error) {
	if len(data) != EncodedSize {
		return Record{}, shared.NewDecodingError("abi", fmt.Sprintf("expected %d bytes, got %d", EncodedSize, len(data)), nil)
	}
	arguments, err := recordArguments()
	if err != nil {
		return Record{}, shared.NewDecodingError("abi", "building ABI types", err)
	}
	values, err := arguments.Unpack(data)
	if err != nil {
		return Record{}, shared.NewDecodingError("abi", "unpacking public record", err)
	}
	if len(values) != 4 {
		return Record{}, shared.NewDecodingError("abi", fmt.Sprintf("expected 4 values, got %d", len(values)), nil)
	}

	original, ok1 := values[0].([32]byte)
	transformed, ok2 := values[1].([32]byte)
	signer, ok3 := values[2].([32]byte)
	hasSig, ok4 := values[3].(bool)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Record{}, shared.NewDecodingError("abi", "unexpected value types in public record", nil)
	}
	for _, b := range signer[:32-attestation.IdentityLength] {
		if b != 0 {
			return Record{}, shared.NewDecodingError("abi", "identity word is not a zero-extended 20-byte value", nil)
		}
	}

	r := Record{
		OriginalFingerprint:    commitment.Fingerprint(original),
		TransformedFingerprint: commitment.Fingerprint(transformed),
		HasSignature:           hasSig,
	}
	copy(r.Identity[:], signer[32-attestation.IdentityLength:])
	return r, nil
}

// DecodeHex parses a 0x-optional hex encoding of a record
func DecodeHex(s string) (Record, error) {
	raw, err := shared.DecodeHex("public_values", s)
	if err != nil {
		return Record{}, err
	}
	return Decode(raw)
}

// Hex returns the display form: three 0x-hex words and the flag. The
// signer field is the full 32-byte word, as a verifier sees it.
func (r Record) Hex() HexRecord {
	word := identityWord(r.Identity)
	return HexRecord{
		OriginalAudioHash:    r.OriginalFingerprint.Hex(),
		TransformedAudioHash: r.TransformedFingerprint.Hex(),
		SignerPublicKey:      "0x" + hex.EncodeToString(word[:]),
		HasSignature:         r.HasSignature,
	}
}
