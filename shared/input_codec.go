package shared

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the serialized input record. The layout is the protobuf
// wire format so that a proving guest written against any protobuf runtime
// can read it.
//
//	message InputRecord {
//	  repeated sint32 samples     = 1 [packed = true];
//	  uint32          sample_rate = 2;
//	  repeated Transform transforms = 3;
//	  Attestation     attestation = 4;
//	}
//	message Transform { Kind kind = 1; sint32 semitones = 2; double factor = 3; }
//	message Attestation { bytes signature = 1; bytes public_key = 2; }
const (
	fieldSamples     protowire.Number = 1
	fieldSampleRate  protowire.Number = 2
	fieldTransforms  protowire.Number = 3
	fieldAttestation protowire.Number = 4

	fieldTransformKind      protowire.Number = 1
	fieldTransformSemitones protowire.Number = 2
	fieldTransformFactor    protowire.Number = 3

	fieldAttestationSignature protowire.Number = 1
	fieldAttestationPublicKey protowire.Number = 2
)

var transformKindCodes = map[TransformKind]uint64{
	TransformReverse: 1,
	TransformPitch:   2,
	TransformStretch: 3,
}

var transformKindByCode = map[uint64]TransformKind{
	1: TransformReverse,
	2: TransformPitch,
	3: TransformStretch,
}

// MarshalInputRecord serializes an input record deterministically: fields in
// ascending order, packed samples, no map fields.
func MarshalInputRecord(r *InputRecord) ([]byte, error) {
	if r == nil {
		return nil, NewValidationError("input", nil, "input record is required")
	}

	var b []byte
	if len(r.Samples) > 0 {
		packed := make([]byte, 0, len(r.Samples)*2)
		for _, s := range r.Samples {
			packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(s)))
		}
		b = protowire.AppendTag(b, fieldSamples, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}

	b = protowire.AppendTag(b, fieldSampleRate, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.SampleRate))

	for i, op := range r.Transforms {
		msg, err := marshalTransform(op)
		if err != nil {
			return nil, fmt.Errorf("transform %d: %w", i, err)
		}
		b = protowire.AppendTag(b, fieldTransforms, protowire.BytesType)
		b = protowire.AppendBytes(b, msg)
	}

	if r.Attestation != nil {
		var msg []byte
		msg = protowire.AppendTag(msg, fieldAttestationSignature, protowire.BytesType)
		msg = protowire.AppendBytes(msg, r.Attestation.Signature)
		msg = protowire.AppendTag(msg, fieldAttestationPublicKey, protowire.BytesType)
		msg = protowire.AppendBytes(msg, r.Attestation.PublicKey)
		b = protowire.AppendTag(b, fieldAttestation, protowire.BytesType)
		b = protowire.AppendBytes(b, msg)
	}

	return b, nil
}

func marshalTransform(op TransformOp) ([]byte, error) {
	code, ok := transformKindCodes[op.Kind]
	if !ok {
		return nil, NewValidationError("transformations", string(op.Kind), "unknown transform tag")
	}

	var b []byte
	b = protowire.AppendTag(b, fieldTransformKind, protowire.VarintType)
	b = protowire.AppendVarint(b, code)
	switch op.Kind {
	case TransformPitch:
		b = protowire.AppendTag(b, fieldTransformSemitones, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(op.Semitones)))
	case TransformStretch:
		b = protowire.AppendTag(b, fieldTransformFactor, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(op.Factor))
	}
	return b, nil
}

// UnmarshalInputRecord parses the wire form produced by MarshalInputRecord.
// Unknown fields are skipped.
func UnmarshalInputRecord(b []byte) (*InputRecord, error) {
	r := &InputRecord{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireError("tag", n)
		}
		b = b[n:]

		switch {
		case num == fieldSamples && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireError("samples", n)
			}
			b = b[n:]
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return nil, wireError("samples", m)
				}
				packed = packed[m:]
				s, err := sampleFromWire(v)
				if err != nil {
					return nil, err
				}
				r.Samples = append(r.Samples, s)
			}
		case num == fieldSamples && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, wireError("samples", n)
			}
			b = b[n:]
			s, err := sampleFromWire(v)
			if err != nil {
				return nil, err
			}
			r.Samples = append(r.Samples, s)
		case num == fieldSampleRate && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, wireError("sample_rate", n)
			}
			b = b[n:]
			if v > math.MaxUint32 {
				return nil, NewDecodingError("input record", fmt.Sprintf("sample_rate %d overflows uint32", v), nil)
			}
			r.SampleRate = uint32(v)
		case num == fieldTransforms && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireError("transforms", n)
			}
			b = b[n:]
			op, err := unmarshalTransform(msg)
			if err != nil {
				return nil, err
			}
			r.Transforms = append(r.Transforms, op)
		case num == fieldAttestation && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireError("attestation", n)
			}
			b = b[n:]
			att, err := unmarshalAttestation(msg)
			if err != nil {
				return nil, err
			}
			r.Attestation = att
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, wireError("unknown field", n)
			}
			b = b[n:]
		}
	}
	return r, nil
}

func unmarshalTransform(b []byte) (TransformOp, error) {
	var op TransformOp
	var haveKind bool
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return op, wireError("transform tag", n)
		}
		b = b[n:]

		switch {
		case num == fieldTransformKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return op, wireError("transform kind", n)
			}
			b = b[n:]
			kind, ok := transformKindByCode[v]
			if !ok {
				return op, NewDecodingError("input record", fmt.Sprintf("unknown transform kind %d", v), nil)
			}
			op.Kind = kind
			haveKind = true
		case num == fieldTransformSemitones && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return op, wireError("semitones", n)
			}
			b = b[n:]
			s := protowire.DecodeZigZag(v)
			if s < math.MinInt32 || s > math.MaxInt32 {
				return op, NewDecodingError("input record", fmt.Sprintf("semitones %d overflows int32", s), nil)
			}
			op.Semitones = int32(s)
		case num == fieldTransformFactor && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return op, wireError("factor", n)
			}
			b = b[n:]
			op.Factor = math.Float64frombits(v)
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return op, wireError("transform field", n)
			}
			b = b[n:]
		}
	}
	if !haveKind {
		return op, NewDecodingError("input record", "transform without kind", nil)
	}
	return op, nil
}

func unmarshalAttestation(b []byte) (*SignatureAttestation, error) {
	att := &SignatureAttestation{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireError("attestation tag", n)
		}
		b = b[n:]

		switch {
		case num == fieldAttestationSignature && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireError("signature", n)
			}
			b = b[n:]
			att.Signature = append([]byte(nil), v...)
		case num == fieldAttestationPublicKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireError("public_key", n)
			}
			b = b[n:]
			att.PublicKey = append([]byte(nil), v...)
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, wireError("attestation field", n)
			}
			b = b[n:]
		}
	}
	return att, nil
}

func sampleFromWire(v uint64) (int16, error) {
	s := protowire.DecodeZigZag(v)
	if s < math.MinInt16 || s > math.MaxInt16 {
		return 0, NewDecodingError("input record", fmt.Sprintf("sample %d out of int16 range", s), nil)
	}
	return int16(s), nil
}

func wireError(what string, n int) error {
	return NewDecodingError("input record", what, protowire.ParseError(n))
}
