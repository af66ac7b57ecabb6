package proofverifier

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"zk-sampler/commitment"
	"zk-sampler/prover"
	"zk-sampler/publicrecord"
	"zk-sampler/wavio"
)

// Options adds optional checks on top of the proof itself
type Options struct {
	ExpectedProver string // hex address the proof must be signed by
	OriginalWAV    string // audio whose fingerprint must match the record
	TransformedWAV string
	Out            io.Writer // progress output; nil means stdout
}

// Report summarises a successful verification
type Report struct {
	ProverAddress common.Address
	Record        publicrecord.Record
	Hex           publicrecord.HexRecord
}

// Validate loads the proof bundle at bundlePath, verifies the prover
// attestation and decodes the public record.
func Validate(bundlePath string) (*Report, error) {
	return ValidateWithOptions(bundlePath, Options{})
}

// ValidateWithOptions is Validate plus the checks selected in opts
func ValidateWithOptions(bundlePath string, opts Options) (*Report, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "[Verifier] Loading proof bundle: %s\n", bundlePath)

	data, err := os.ReadFile(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read bundle: %v", err)
	}

	var bundle prover.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode bundle JSON: %v", err)
	}
	result, err := bundle.Result()
	if err != nil {
		return nil, fmt.Errorf("malformed bundle: %w", err)
	}

	var expected common.Address
	if opts.ExpectedProver != "" {
		if !common.IsHexAddress(opts.ExpectedProver) {
			return nil, fmt.Errorf("expected prover %q is not a hex address", opts.ExpectedProver)
		}
		expected = common.HexToAddress(opts.ExpectedProver)
	}

	signer, err := prover.VerifyProof(result, expected)
	if err != nil {
		return nil, fmt.Errorf("proof invalid: %w", err)
	}
	fmt.Fprintf(out, "[Verifier] Proof signature valid, prover %s\n", signer.Hex())

	view := result.Record.Hex()
	fmt.Fprintf(out, "[Verifier]   original_audio_hash:    %s\n", view.OriginalAudioHash)
	fmt.Fprintf(out, "[Verifier]   transformed_audio_hash: %s\n", view.TransformedAudioHash)
	fmt.Fprintf(out, "[Verifier]   signer_public_key:      %s\n", view.SignerPublicKey)
	fmt.Fprintf(out, "[Verifier]   has_signature:          %t\n", view.HasSignature)

	if opts.OriginalWAV != "" {
		if err := checkAudio(opts.OriginalWAV, result.Record.OriginalFingerprint); err != nil {
			return nil, fmt.Errorf("original audio: %w", err)
		}
		fmt.Fprintln(out, "[Verifier] Original audio matches committed fingerprint")
	}
	if opts.TransformedWAV != "" {
		if err := checkAudio(opts.TransformedWAV, result.Record.TransformedFingerprint); err != nil {
			return nil, fmt.Errorf("transformed audio: %w", err)
		}
		fmt.Fprintln(out, "[Verifier] Transformed audio matches committed fingerprint")
	}

	fmt.Fprintln(out, "[Verifier] Offline verification complete")
	return &Report{ProverAddress: signer, Record: result.Record, Hex: view}, nil
}

func checkAudio(path string, want commitment.Fingerprint) error {
	buf, err := wavio.ReadFile(path)
	if err != nil {
		return err
	}
	if got := commitment.Of(buf.Samples); got != want {
		return fmt.Errorf("fingerprint %s does not match committed %s", got.Hex(), want.Hex())
	}
	return nil
}
