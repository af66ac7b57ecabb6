package main

import (
	"zk-sampler/prover"
	"zk-sampler/publicrecord"
	"zk-sampler/shared"
)

type ProofData struct {
	Proof           string `json:"proof"`
	VerificationKey string `json:"verification_key"`
	PublicValues    string `json:"public_values"`
}

type ProofResponse struct {
	Success              bool       `json:"success"`
	Message              string     `json:"message"`
	ErrorType            string     `json:"error_type,omitempty"`
	Field                string     `json:"field,omitempty"`
	OriginalAudioHash    string     `json:"original_audio_hash"`
	TransformedAudioHash string     `json:"transformed_audio_hash"`
	SignerPublicKey      string     `json:"signer_public_key"`
	HasSignature         bool       `json:"has_signature"`
	ProverAddress        string     `json:"prover_address,omitempty"`
	ProofData            *ProofData `json:"proof_data"`
}

type PreviewResponse struct {
	Success              bool   `json:"success"`
	Message              string `json:"message"`
	OriginalAudioHash    string `json:"original_audio_hash"`
	TransformedAudioHash string `json:"transformed_audio_hash"`
	SignerPublicKey      string `json:"signer_public_key"`
	HasSignature         bool   `json:"has_signature"`
	PublicValues         string `json:"public_values"`
	SampleRate           uint32 `json:"sample_rate"`
	SampleCount          int    `json:"sample_count"`
	TransformedAudio     []byte `json:"transformed_audio"` // WAV, base64 in JSON
}

type VerifyRequest struct {
	prover.Bundle
	ExpectedProver string `json:"expected_prover,omitempty"`
}

type VerifyResponse struct {
	Valid         bool                    `json:"valid"`
	Message       string                  `json:"message"`
	ProverAddress string                  `json:"prover_address,omitempty"`
	Record        *publicrecord.HexRecord `json:"record,omitempty"`
}

func proofSuccess(result *prover.ProofResult) ProofResponse {
	view := result.Record.Hex()
	return ProofResponse{
		Success:              true,
		Message:              "Proof generated successfully",
		OriginalAudioHash:    view.OriginalAudioHash,
		TransformedAudioHash: view.TransformedAudioHash,
		SignerPublicKey:      view.SignerPublicKey,
		HasSignature:         view.HasSignature,
		ProverAddress:        result.ProverAddress.Hex(),
		ProofData: &ProofData{
			Proof:           shared.EncodeHex(result.Proof),
			VerificationKey: result.VerificationKey,
			PublicValues:    shared.EncodeHex(result.PublicValues),
		},
	}
}

func proofFailure(message, errType, field string) ProofResponse {
	return ProofResponse{
		Success:              false,
		Message:              message,
		ErrorType:            errType,
		Field:                field,
		OriginalAudioHash:    "0x",
		TransformedAudioHash: "0x",
		SignerPublicKey:      "0x",
	}
}
