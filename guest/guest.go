// Package guest is the program a proof host executes: transform the original
// audio, commit to both buffers, check the optional attestation and emit the
// ABI-encoded public record.
package guest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"zk-sampler/attestation"
	"zk-sampler/commitment"
	"zk-sampler/dsp"
	"zk-sampler/publicrecord"
	"zk-sampler/shared"
)

// Stage tracks how far a request got
type Stage int

const (
	StageReceived Stage = iota
	StageTransformed
	StageCommitted
	StageSignatureChecked
	StageSignatureSkipped
	StageEncoded
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageTransformed:
		return "transformed"
	case StageCommitted:
		return "committed"
	case StageSignatureChecked:
		return "signature_checked"
	case StageSignatureSkipped:
		return "signature_skipped"
	case StageEncoded:
		return "encoded"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Output is everything one execution produces. PublicValues is what a proof
// host commits to; Transformed is only of interest to the preview path.
type Output struct {
	Record       publicrecord.Record
	PublicValues []byte
	Transformed  shared.SampleBuffer
	Stage        Stage
}

// Program runs the transform-and-commit core
type Program struct {
	logger   *shared.Logger
	pipeline *dsp.Pipeline
}

// New creates a program logging to logger (nil disables logging)
func New(logger *zap.Logger) *Program {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Program{
		logger:   shared.WrapLogger("guest", logger),
		pipeline: dsp.NewPipeline(logger),
	}
}

func (p *Program) advance(out *Output, stage Stage) {
	out.Stage = stage
	p.logger.WithStage(stage.String()).Debug("Guest stage reached")
}

// Execute runs one input record to completion. Validation errors abort;
// attestation problems only clear HasSignature.
func (p *Program) Execute(ctx context.Context, in *shared.InputRecord) (*Output, error) {
	if in == nil {
		return nil, shared.NewValidationError("input", nil, "input record is required")
	}
	out := &Output{Stage: StageReceived}

	transformed, err := p.pipeline.Apply(in.Buffer(), in.Transforms)
	if err != nil {
		return nil, err
	}
	out.Transformed = transformed
	p.advance(out, StageTransformed)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	original := commitment.Of(in.Samples)
	out.Record.OriginalFingerprint = original
	out.Record.TransformedFingerprint = commitment.Of(transformed.Samples)
	p.advance(out, StageCommitted)

	if in.Attestation != nil {
		id, ok := attestation.Verify(original, in.Attestation)
		out.Record.Identity = id
		out.Record.HasSignature = ok
		p.advance(out, StageSignatureChecked)
		if !ok {
			p.logger.WithStage(out.Stage.String()).Warn("Attestation did not verify, committing without signer",
				zap.Int("signature_len", len(in.Attestation.Signature)))
		}
	} else {
		p.advance(out, StageSignatureSkipped)
	}

	out.PublicValues = publicrecord.Encode(out.Record)
	p.advance(out, StageEncoded)

	p.logger.Debug("Guest execution complete",
		zap.String("original", out.Record.OriginalFingerprint.Hex()),
		zap.String("transformed", out.Record.TransformedFingerprint.Hex()),
		zap.Bool("has_signature", out.Record.HasSignature),
		zap.Stringer("transforms", in.Transforms))
	return out, nil
}

// Run decodes a serialized input record, executes it and returns the public
// values.
func Run(raw []byte) ([]byte, error) {
	in, err := shared.UnmarshalInputRecord(raw)
	if err != nil {
		return nil, err
	}
	out, err := New(nil).Execute(context.Background(), in)
	if err != nil {
		return nil, err
	}
	return out.PublicValues, nil
}
