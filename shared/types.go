package shared

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// SampleBuffer is a mono 16-bit PCM signal paired with its sample rate.
type SampleBuffer struct {
	Samples    []int16 `json:"samples"`
	SampleRate uint32  `json:"sample_rate"`
}

// Duration reports the playback length implied by the sample count and rate.
func (b SampleBuffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// Clone returns a buffer that shares no memory with b.
func (b SampleBuffer) Clone() SampleBuffer {
	out := make([]int16, len(b.Samples))
	copy(out, b.Samples)
	return SampleBuffer{Samples: out, SampleRate: b.SampleRate}
}

// TransformKind is the wire tag of a TransformOp
type TransformKind string

const (
	TransformReverse TransformKind = "Reverse"
	TransformPitch   TransformKind = "Pitch"
	TransformStretch TransformKind = "Stretch"
)

// TransformOp is one step of a transform list. Only the parameter matching
// Kind is meaningful.
type TransformOp struct {
	Kind      TransformKind
	Semitones int32   // Pitch
	Factor    float64 // Stretch
}

// Reverse builds a Reverse op
func Reverse() TransformOp {
	return TransformOp{Kind: TransformReverse}
}

// PitchShift builds a Pitch op shifting by n semitones
func PitchShift(semitones int32) TransformOp {
	return TransformOp{Kind: TransformPitch, Semitones: semitones}
}

// TimeStretch builds a Stretch op with the given factor
func TimeStretch(factor float64) TransformOp {
	return TransformOp{Kind: TransformStretch, Factor: factor}
}

func (op TransformOp) String() string {
	switch op.Kind {
	case TransformReverse:
		return "Reverse"
	case TransformPitch:
		return fmt.Sprintf("Pitch(%d)", op.Semitones)
	case TransformStretch:
		return fmt.Sprintf("Stretch(%g)", op.Factor)
	default:
		return fmt.Sprintf("Unknown(%s)", string(op.Kind))
	}
}

// MarshalJSON emits the tagged-union form: "Reverse", {"Pitch":n}, {"Stretch":f}
func (op TransformOp) MarshalJSON() ([]byte, error) {
	switch op.Kind {
	case TransformReverse:
		return json.Marshal(string(TransformReverse))
	case TransformPitch:
		return json.Marshal(map[string]int32{string(TransformPitch): op.Semitones})
	case TransformStretch:
		if math.IsNaN(op.Factor) || math.IsInf(op.Factor, 0) {
			return nil, NewValidationError("transformations.Stretch", op.Factor, "factor must be finite")
		}
		return json.Marshal(map[string]float64{string(TransformStretch): op.Factor})
	default:
		return nil, NewValidationError("transformations", string(op.Kind), "unknown transform tag")
	}
}

// UnmarshalJSON accepts "Reverse", {"Reverse":{}} / {"Reverse":null},
// {"Pitch":n} and {"Stretch":f}.
func (op *TransformOp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return WrapValidationError("transformations", string(data), "invalid transform tag", err)
		}
		if TransformKind(tag) != TransformReverse {
			return NewValidationError("transformations", tag, "only Reverse may be given without parameters")
		}
		*op = Reverse()
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return WrapValidationError("transformations", string(data), "transform must be a string tag or single-key object", err)
	}
	if len(obj) != 1 {
		return NewValidationError("transformations", string(data), "transform object must have exactly one tag")
	}

	for tag, raw := range obj {
		switch TransformKind(tag) {
		case TransformReverse:
			*op = Reverse()
		case TransformPitch:
			var n int32
			if err := json.Unmarshal(raw, &n); err != nil {
				return WrapValidationError("transformations.Pitch", string(raw), "semitones must be a 32-bit integer", err)
			}
			*op = PitchShift(n)
		case TransformStretch:
			var f float64
			if err := json.Unmarshal(raw, &f); err != nil {
				return WrapValidationError("transformations.Stretch", string(raw), "factor must be a number", err)
			}
			*op = TimeStretch(f)
		default:
			return NewValidationError("transformations", tag, "unknown transform tag")
		}
	}
	return nil
}

// TransformList is an ordered sequence of transform ops. Order is part of
// the commitment and is preserved end to end.
type TransformList []TransformOp

func (l TransformList) String() string {
	parts := make([]string, len(l))
	for i, op := range l {
		parts[i] = op.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// SignatureAttestation carries a 65-byte recoverable signature over the
// original fingerprint. PublicKey is informational only; identity always
// comes from the recovered key.
type SignatureAttestation struct {
	Signature []byte `json:"signature"`
	PublicKey []byte `json:"public_key"`
}

// HexSignatureData is the wire form of a SignatureAttestation
type HexSignatureData struct {
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
}

// Decode converts both hex strings to raw bytes. Malformed hex is a
// validation error; a well-formed signature of the wrong length is left for
// the verifier, which degrades it to "no signature".
func (h HexSignatureData) Decode() (*SignatureAttestation, error) {
	sig, err := DecodeHex("signature_data.signature", h.Signature)
	if err != nil {
		return nil, err
	}
	pub, err := DecodeHex("signature_data.public_key", h.PublicKey)
	if err != nil {
		return nil, err
	}
	return &SignatureAttestation{Signature: sig, PublicKey: pub}, nil
}

// ParseSignatureData decodes the JSON form {"signature":"0x..","public_key":"0x.."}
func ParseSignatureData(data []byte) (*SignatureAttestation, error) {
	var h HexSignatureData
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, WrapValidationError("signature_data", string(data), "invalid JSON", err)
	}
	if strings.TrimSpace(h.Signature) == "" {
		return nil, NewValidationError("signature_data.signature", h.Signature, "signature is required")
	}
	return h.Decode()
}

// DecodeHex decodes an optionally 0x-prefixed hex string
func DecodeHex(field, s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, WrapValidationError(field, s, "malformed hex", err)
	}
	return b, nil
}

// EncodeHex renders bytes as 0x-prefixed lowercase hex
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// InputRecord is everything the core consumes for one request.
type InputRecord struct {
	Samples     []int16               `json:"samples"`
	SampleRate  uint32                `json:"sample_rate"`
	Transforms  TransformList         `json:"transforms"`
	Attestation *SignatureAttestation `json:"attestation,omitempty"`
}

// Buffer returns the original audio as a SampleBuffer view
func (r *InputRecord) Buffer() SampleBuffer {
	return SampleBuffer{Samples: r.Samples, SampleRate: r.SampleRate}
}
