package prover

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"zk-sampler/guest"
	"zk-sampler/shared"
)

// LocalHost executes the guest in-process and signs the committed public
// values with the prover key.
type LocalHost struct {
	key     *shared.SigningKeyPair
	program *guest.Program
	logger  *zap.Logger
	vkey    []byte
}

// NewLocalHost creates a host attesting with key
func NewLocalHost(key *shared.SigningKeyPair, logger *zap.Logger) (*LocalHost, error) {
	if key == nil || key.PrivateKey == nil {
		return nil, shared.NewConfigurationError("prover_key", "a signing key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	vkey, err := shared.DecodeHex("verification_key", VerificationKey())
	if err != nil {
		return nil, err
	}
	return &LocalHost{
		key:     key,
		program: guest.New(logger),
		logger:  logger,
		vkey:    vkey,
	}, nil
}

// Name implements Host
func (h *LocalHost) Name() string {
	return "local"
}

// Address is the prover's Ethereum address
func (h *LocalHost) Address() common.Address {
	return h.key.GetEthAddress()
}

// Prove implements Host. Input that fails to decode or validate is returned
// unwrapped so callers can report it as a client error.
func (h *LocalHost) Prove(ctx context.Context, input []byte) (*ProofResult, error) {
	jobID := uuid.New().String()
	logger := h.logger.With(zap.String("job_id", jobID))

	in, err := shared.UnmarshalInputRecord(input)
	if err != nil {
		return nil, err
	}

	out, err := h.program.Execute(ctx, in)
	if err != nil {
		var ve *shared.ValidationError
		if errors.As(err, &ve) {
			return nil, err
		}
		return nil, shared.NewProverError(h.Name(), "guest execution failed", err)
	}

	proof, err := h.key.SignData(attestedMessage(h.vkey, out.PublicValues))
	if err != nil {
		return nil, shared.NewProverError(h.Name(), "signing public values failed", err)
	}

	logger.Info("Proof generated",
		zap.Int("samples", len(in.Samples)),
		zap.Duration("audio_duration", in.Buffer().Duration()),
		zap.Int("transforms", len(in.Transforms)),
		zap.Bool("has_signature", out.Record.HasSignature))

	return &ProofResult{
		JobID:           jobID,
		Proof:           proof,
		PublicValues:    out.PublicValues,
		VerificationKey: VerificationKey(),
		ProverAddress:   h.Address(),
		Record:          out.Record,
	}, nil
}
