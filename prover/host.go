// Package prover turns serialized input records into proofs. A Host runs the
// guest program and attests the public values it committed to; hosts can be
// in-process, behind a prover node, cached, or concurrency limited.
package prover

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"zk-sampler/publicrecord"
	"zk-sampler/shared"
)

// ProgramID names the guest program a verification key is derived from
const ProgramID = "zk-sampler/guest/v1"

// Host proves serialized input records
type Host interface {
	Name() string
	Prove(ctx context.Context, input []byte) (*ProofResult, error)
}

// ProofResult is a proof together with the public values it covers
type ProofResult struct {
	JobID           string
	Proof           []byte
	PublicValues    []byte
	VerificationKey string
	ProverAddress   common.Address
	Record          publicrecord.Record
}

// Bundle is the JSON form of a ProofResult, exchanged with prover nodes and
// written to proof files.
type Bundle struct {
	JobID           string `json:"job_id,omitempty"`
	Proof           string `json:"proof"`
	PublicValues    string `json:"public_values"`
	VerificationKey string `json:"verification_key"`
	ProverAddress   string `json:"prover_address"`
}

// Bundle converts r to its hex JSON form
func (r *ProofResult) Bundle() Bundle {
	return Bundle{
		JobID:           r.JobID,
		Proof:           shared.EncodeHex(r.Proof),
		PublicValues:    shared.EncodeHex(r.PublicValues),
		VerificationKey: r.VerificationKey,
		ProverAddress:   r.ProverAddress.Hex(),
	}
}

// Result decodes the hex fields and the public record
func (b Bundle) Result() (*ProofResult, error) {
	proof, err := shared.DecodeHex("proof", b.Proof)
	if err != nil {
		return nil, err
	}
	values, err := shared.DecodeHex("public_values", b.PublicValues)
	if err != nil {
		return nil, err
	}
	record, err := publicrecord.Decode(values)
	if err != nil {
		return nil, err
	}
	if b.ProverAddress != "" && !common.IsHexAddress(b.ProverAddress) {
		return nil, shared.NewValidationError("prover_address", b.ProverAddress, "not a hex address")
	}
	return &ProofResult{
		JobID:           b.JobID,
		Proof:           proof,
		PublicValues:    values,
		VerificationKey: b.VerificationKey,
		ProverAddress:   common.HexToAddress(b.ProverAddress),
		Record:          record,
	}, nil
}

// VerificationKey identifies the guest program: Keccak256(ProgramID)
func VerificationKey() string {
	return shared.EncodeHex(crypto.Keccak256([]byte(ProgramID)))
}

func attestedMessage(vkey []byte, publicValues []byte) []byte {
	msg := make([]byte, 0, len(vkey)+len(publicValues))
	msg = append(msg, vkey...)
	return append(msg, publicValues...)
}

// VerifyProof checks that r.Proof is the prover's signature over
// vkey || public values and that the public values decode. It returns the
// recovered prover address. When expected is non-zero it must match.
func VerifyProof(r *ProofResult, expected common.Address) (common.Address, error) {
	if r == nil {
		return common.Address{}, shared.NewValidationError("proof", nil, "proof result is required")
	}
	if r.VerificationKey != VerificationKey() {
		return common.Address{}, fmt.Errorf("verification key %s does not match program %s", r.VerificationKey, ProgramID)
	}
	vkey, err := shared.DecodeHex("verification_key", r.VerificationKey)
	if err != nil {
		return common.Address{}, err
	}
	if _, err := publicrecord.Decode(r.PublicValues); err != nil {
		return common.Address{}, err
	}

	signer, err := shared.RecoverEthSigner(attestedMessage(vkey, r.PublicValues), r.Proof)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid proof: %w", err)
	}
	if expected != (common.Address{}) && signer != expected {
		return signer, fmt.Errorf("proof signed by %s, expected %s", signer.Hex(), expected.Hex())
	}
	if r.ProverAddress != (common.Address{}) && signer != r.ProverAddress {
		return signer, fmt.Errorf("proof signed by %s but claims prover %s", signer.Hex(), r.ProverAddress.Hex())
	}
	return signer, nil
}
