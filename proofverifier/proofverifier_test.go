package proofverifier

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zk-sampler/prover"
	"zk-sampler/shared"
	"zk-sampler/wavio"
)

func writeBundle(t *testing.T, dir string) (string, *prover.LocalHost) {
	t.Helper()
	key, err := shared.GenerateSigningKeyPair()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	host, err := prover.NewLocalHost(key, nil)
	if err != nil {
		t.Fatalf("Failed to create host: %v", err)
	}
	raw, _ := shared.MarshalInputRecord(&shared.InputRecord{
		Samples:    []int16{100, 200, -50, 0},
		SampleRate: 8000,
		Transforms: shared.TransformList{shared.Reverse()},
	})
	result, err := host.Prove(context.Background(), raw)
	if err != nil {
		t.Fatalf("Prove failed: %v", err)
	}
	data, _ := json.MarshalIndent(result.Bundle(), "", "  ")
	path := filepath.Join(dir, "proof.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write bundle: %v", err)
	}
	return path, host
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	path, host := writeBundle(t, dir)

	original := filepath.Join(dir, "original.wav")
	transformed := filepath.Join(dir, "transformed.wav")
	if err := wavio.WriteFile(original, shared.SampleBuffer{Samples: []int16{100, 200, -50, 0}, SampleRate: 8000}); err != nil {
		t.Fatalf("Failed to write wav: %v", err)
	}
	if err := wavio.WriteFile(transformed, shared.SampleBuffer{Samples: []int16{0, -50, 200, 100}, SampleRate: 8000}); err != nil {
		t.Fatalf("Failed to write wav: %v", err)
	}

	t.Run("Valid", func(t *testing.T) {
		var out bytes.Buffer
		report, err := ValidateWithOptions(path, Options{
			ExpectedProver: host.Address().Hex(),
			OriginalWAV:    original,
			TransformedWAV: transformed,
			Out:            &out,
		})
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if report.ProverAddress != host.Address() {
			t.Errorf("Unexpected prover %s", report.ProverAddress.Hex())
		}
		if !strings.Contains(out.String(), "Offline verification complete") {
			t.Errorf("Unexpected output:\n%s", out.String())
		}
	})

	t.Run("AudioMismatch", func(t *testing.T) {
		_, err := ValidateWithOptions(path, Options{OriginalWAV: transformed, Out: &bytes.Buffer{}})
		if err == nil {
			t.Fatal("Expected fingerprint mismatch")
		}
	})

	t.Run("TamperedBundle", func(t *testing.T) {
		data, _ := os.ReadFile(path)
		var b prover.Bundle
		json.Unmarshal(data, &b)
		// unsigned input, so flipping the last nibble claims a signature
		b.PublicValues = b.PublicValues[:len(b.PublicValues)-1] + "1"
		tampered := filepath.Join(dir, "tampered.json")
		data, _ = json.Marshal(b)
		os.WriteFile(tampered, data, 0o644)

		if _, err := ValidateWithOptions(tampered, Options{Out: &bytes.Buffer{}}); err == nil {
			t.Fatal("Expected tampered bundle to fail")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := ValidateWithOptions(filepath.Join(dir, "nope.json"), Options{Out: &bytes.Buffer{}}); err == nil {
			t.Fatal("Expected error for missing file")
		}
	})
}
