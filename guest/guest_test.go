package guest

import (
	"bytes"
	"context"
	"slices"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"zk-sampler/attestation"
	"zk-sampler/commitment"
	"zk-sampler/publicrecord"
	"zk-sampler/shared"
)

func scenarioInput() *shared.InputRecord {
	return &shared.InputRecord{
		Samples:    []int16{100, 200, -50, 0},
		SampleRate: 8000,
		Transforms: shared.TransformList{shared.Reverse()},
	}
}

func TestExecuteWithoutSignature(t *testing.T) {
	out, err := New(zaptest.NewLogger(t)).Execute(context.Background(), scenarioInput())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.Stage != StageEncoded {
		t.Errorf("Expected stage %s, got %s", StageEncoded, out.Stage)
	}
	if !slices.Equal(out.Transformed.Samples, []int16{0, -50, 200, 100}) {
		t.Errorf("Unexpected transformed samples %v", out.Transformed.Samples)
	}
	if out.Record.OriginalFingerprint != commitment.Of([]int16{100, 200, -50, 0}) {
		t.Error("Original fingerprint mismatch")
	}
	if out.Record.TransformedFingerprint != commitment.Of([]int16{0, -50, 200, 100}) {
		t.Error("Transformed fingerprint mismatch")
	}
	if out.Record.HasSignature || !out.Record.Identity.IsZero() {
		t.Error("Expected no signature")
	}
	if !bytes.Equal(out.PublicValues, publicrecord.Encode(out.Record)) {
		t.Error("Public values do not encode the record")
	}
}

func TestExecuteWithSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	in := scenarioInput()
	in.Attestation, err = attestation.NewAttestation(commitment.Of(in.Samples), key)
	if err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}

	out, err := New(nil).Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.Record.HasSignature {
		t.Fatal("Expected signature to verify")
	}
	if out.Record.Identity.Address() != crypto.PubkeyToAddress(key.PublicKey) {
		t.Errorf("Unexpected identity %s", out.Record.Identity.Hex())
	}
}

func TestExecuteMalformedAttestation(t *testing.T) {
	key, _ := crypto.GenerateKey()
	in := scenarioInput()
	att, err := attestation.NewAttestation(commitment.Of(in.Samples), key)
	if err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}
	att.Signature = att.Signature[:64]
	in.Attestation = att

	out, err := New(zaptest.NewLogger(t)).Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.Record.HasSignature {
		t.Error("Expected HasSignature=false for 64-byte signature")
	}
	if !out.Record.Identity.IsZero() {
		t.Errorf("Expected zero identity, got %s", out.Record.Identity.Hex())
	}
	if out.Record.TransformedFingerprint != commitment.Of([]int16{0, -50, 200, 100}) {
		t.Error("Transform and commitment stages should be unaffected")
	}
	if out.Stage != StageEncoded {
		t.Errorf("Expected stage %s, got %s", StageEncoded, out.Stage)
	}
}

func TestExecuteValidationFailure(t *testing.T) {
	in := scenarioInput()
	in.Transforms = shared.TransformList{shared.TimeStretch(0)}
	_, err := New(nil).Execute(context.Background(), in)
	if !shared.IsValidationError(err) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(nil).Execute(ctx, scenarioInput()); err == nil {
		t.Fatal("Expected context error")
	}
}

func TestRun(t *testing.T) {
	in := scenarioInput()
	raw, err := shared.MarshalInputRecord(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	values, err := Run(raw)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	record, err := publicrecord.Decode(values)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if record.TransformedFingerprint != commitment.Of([]int16{0, -50, 200, 100}) {
		t.Error("Unexpected transformed fingerprint")
	}

	if _, err := Run([]byte{0xff}); err == nil {
		t.Fatal("Expected decode error for garbage input")
	}
}

func TestExecuteLogsStages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	in := scenarioInput()
	in.Attestation = &shared.SignatureAttestation{Signature: make([]byte, 65), PublicKey: make([]byte, 65)}

	if _, err := New(zap.New(core)).Execute(context.Background(), in); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var stages []string
	for _, entry := range logs.FilterMessage("Guest stage reached").All() {
		stages = append(stages, entry.ContextMap()["stage"].(string))
	}
	want := []string{"transformed", "committed", "signature_checked", "encoded"}
	if !slices.Equal(stages, want) {
		t.Errorf("Expected stages %v, got %v", want, stages)
	}

	warn := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warn) != 1 || warn[0].ContextMap()["stage"] != "signature_checked" {
		t.Errorf("Expected one stage-tagged attestation warning, got %+v", warn)
	}
}
