package shared

import (
	"bytes"
	"math"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestInputRecordRoundTrip(t *testing.T) {
	in := &InputRecord{
		Samples:    []int16{0, 1, -1, math.MaxInt16, math.MinInt16, 200},
		SampleRate: 44100,
		Transforms: TransformList{Reverse(), PitchShift(-12), TimeStretch(0.75)},
		Attestation: &SignatureAttestation{
			Signature: bytes.Repeat([]byte{0xaa}, 65),
			PublicKey: []byte{0x04, 0x01},
		},
	}

	data, err := MarshalInputRecord(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out, err := UnmarshalInputRecord(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if out.SampleRate != in.SampleRate {
		t.Errorf("Expected rate %d, got %d", in.SampleRate, out.SampleRate)
	}
	if len(out.Samples) != len(in.Samples) {
		t.Fatalf("Expected %d samples, got %d", len(in.Samples), len(out.Samples))
	}
	for i := range in.Samples {
		if out.Samples[i] != in.Samples[i] {
			t.Errorf("sample %d: expected %d, got %d", i, in.Samples[i], out.Samples[i])
		}
	}
	if out.Transforms.String() != in.Transforms.String() {
		t.Errorf("Expected %s, got %s", in.Transforms, out.Transforms)
	}
	if out.Attestation == nil || !bytes.Equal(out.Attestation.Signature, in.Attestation.Signature) {
		t.Errorf("Attestation signature not preserved")
	}
	if !bytes.Equal(out.Attestation.PublicKey, in.Attestation.PublicKey) {
		t.Errorf("Attestation public key not preserved")
	}

	again, _ := MarshalInputRecord(out)
	if !bytes.Equal(again, data) {
		t.Error("Encoding is not deterministic")
	}
}

func TestInputRecordEmpty(t *testing.T) {
	data, err := MarshalInputRecord(&InputRecord{SampleRate: 8000})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out, err := UnmarshalInputRecord(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(out.Samples) != 0 || len(out.Transforms) != 0 || out.Attestation != nil {
		t.Errorf("Unexpected record %+v", out)
	}

	if _, err := MarshalInputRecord(nil); !IsValidationError(err) {
		t.Errorf("Expected validation error for nil record, got %v", err)
	}
}

func TestInputRecordUnpackedSamples(t *testing.T) {
	var b []byte
	for _, s := range []int64{3, -4} {
		b = protowire.AppendTag(b, fieldSamples, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(s))
	}
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("ignored"))

	out, err := UnmarshalInputRecord(b)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(out.Samples) != 2 || out.Samples[0] != 3 || out.Samples[1] != -4 {
		t.Errorf("Unexpected samples %v", out.Samples)
	}
}

func TestInputRecordMalformed(t *testing.T) {
	outOfRange := protowire.AppendTag(nil, fieldSamples, protowire.VarintType)
	outOfRange = protowire.AppendVarint(outOfRange, protowire.EncodeZigZag(40000))

	badKind := protowire.AppendTag(nil, fieldTransformKind, protowire.VarintType)
	badKind = protowire.AppendVarint(badKind, 9)
	unknownKind := protowire.AppendTag(nil, fieldTransforms, protowire.BytesType)
	unknownKind = protowire.AppendBytes(unknownKind, badKind)

	noKind := protowire.AppendTag(nil, fieldTransforms, protowire.BytesType)
	noKind = protowire.AppendBytes(noKind, nil)

	rate := protowire.AppendTag(nil, fieldSampleRate, protowire.VarintType)
	rate = protowire.AppendVarint(rate, math.MaxUint32+1)

	cases := map[string][]byte{
		"Garbage":         {0xff, 0xff, 0xff},
		"Truncated":       {byte(fieldSamples<<3 | 2), 10, 1},
		"SampleOverflow":  outOfRange,
		"UnknownKind":     unknownKind,
		"TransformNoKind": noKind,
		"RateOverflow":    rate,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := UnmarshalInputRecord(data)
			if ErrorTypeOf(err) != ErrTypeDecoding {
				t.Errorf("Expected decoding error, got %v", err)
			}
		})
	}
}

func TestMarshalUnknownTransform(t *testing.T) {
	_, err := MarshalInputRecord(&InputRecord{
		SampleRate: 8000,
		Transforms: TransformList{{Kind: "Echo"}},
	})
	if !IsValidationError(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}
