package dsp

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"zk-sampler/shared"
)

// ValidateTransforms checks a transform list before any stage runs
func ValidateTransforms(ops shared.TransformList) error {
	if len(ops) > shared.MaxTransforms {
		return shared.NewValidationError("transformations", len(ops),
			fmt.Sprintf("at most %d transformations are allowed", shared.MaxTransforms))
	}
	for i, op := range ops {
		field := fmt.Sprintf("transformations[%d]", i)
		switch op.Kind {
		case shared.TransformReverse:
		case shared.TransformPitch:
			if op.Semitones > shared.MaxSemitones || op.Semitones < -shared.MaxSemitones {
				return shared.NewValidationError(field+".Pitch", op.Semitones,
					fmt.Sprintf("semitones must be within ±%d", shared.MaxSemitones))
			}
		case shared.TransformStretch:
			if math.IsNaN(op.Factor) || math.IsInf(op.Factor, 0) {
				return shared.NewValidationError(field+".Stretch", op.Factor, "factor must be finite")
			}
			if op.Factor <= 0 {
				return shared.NewValidationError(field+".Stretch", op.Factor, "factor must be positive")
			}
		default:
			return shared.NewValidationError(field, string(op.Kind), "unknown transform tag")
		}
	}
	return nil
}

// PitchFactor is the resample factor for a shift of n semitones: 2^(-n/12)
func PitchFactor(semitones int32) float64 {
	return math.Pow(2, float64(-float64(semitones)/12))
}

// StretchFactor is the resample factor for a duration factor f: 1/f
func StretchFactor(f float64) float64 {
	return float64(1 / f)
}

// Resample resamples samples recorded at sampleRate to round(sampleRate*factor)
// and returns the result as PCM. The input is consumed in fixed blocks; the
// last block is zero-padded and the padding is kept.
func Resample(samples []int16, factor float64, sampleRate int) ([]int16, error) {
	if sampleRate <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 0 {
		return nil, fmt.Errorf("%w: rate=%d factor=%v", ErrResamplerUnavailable, sampleRate, factor)
	}
	outRate := math.Round(float64(float64(sampleRate) * factor))
	if outRate > math.MaxInt32 {
		return nil, fmt.Errorf("%w: output rate %v out of range", ErrResamplerUnavailable, outRate)
	}

	r, err := NewResampler(sampleRate, int(outRate), ChunkSize)
	if err != nil {
		return nil, err
	}

	input := ToFloat(samples)
	frames := r.InputFramesNext()
	blocks := (len(input) + frames - 1) / frames
	out := make([]float64, 0, blocks*r.OutputFramesNext())
	chunk := make([]float64, frames)
	for pos := 0; pos < len(input); pos += frames {
		n := copy(chunk, input[pos:min(pos+frames, len(input))])
		for i := n; i < frames; i++ {
			chunk[i] = 0
		}
		block, err := r.Process(chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
	return ToInt16(out), nil
}

// Pipeline applies transform lists. The zero value is not usable; use
// NewPipeline.
type Pipeline struct {
	logger *zap.Logger
}

// NewPipeline returns a pipeline that logs stage fallbacks to logger
func NewPipeline(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{logger: logger}
}

// Apply validates ops and runs them in order over a private copy of buf.
// The returned buffer keeps the input sample rate; Pitch and Stretch change
// the sample count, not the playback rate.
func (p *Pipeline) Apply(buf shared.SampleBuffer, ops shared.TransformList) (shared.SampleBuffer, error) {
	if buf.SampleRate == 0 {
		return shared.SampleBuffer{}, shared.NewValidationError("sample_rate", buf.SampleRate, "sample rate must be positive")
	}
	if err := ValidateTransforms(ops); err != nil {
		return shared.SampleBuffer{}, err
	}

	cur := buf.Clone()
	for i, op := range ops {
		next, err := p.stage(cur.Samples, int(buf.SampleRate), op)
		if err != nil {
			return shared.SampleBuffer{}, fmt.Errorf("stage %d (%s): %w", i, op, err)
		}
		p.logger.Debug("Transform stage complete",
			zap.Int("stage", i),
			zap.Stringer("op", op),
			zap.Int("samples_in", len(cur.Samples)),
			zap.Int("samples_out", len(next)))
		cur.Samples = next
	}
	return cur, nil
}

func (p *Pipeline) stage(samples []int16, rate int, op shared.TransformOp) ([]int16, error) {
	var factor float64
	switch op.Kind {
	case shared.TransformReverse:
		slices.Reverse(samples)
		return samples, nil
	case shared.TransformPitch:
		factor = PitchFactor(op.Semitones)
	case shared.TransformStretch:
		factor = StretchFactor(op.Factor)
	default:
		return nil, shared.NewValidationError("transformations", string(op.Kind), "unknown transform tag")
	}

	out, err := Resample(samples, factor, rate)
	if errors.Is(err, ErrResamplerUnavailable) {
		p.logger.Warn("Resampler unavailable, passing stage input through",
			zap.Stringer("op", op),
			zap.Int("sample_rate", rate),
			zap.Float64("factor", factor),
			zap.Error(err))
		return samples, nil
	}
	return out, err
}

// Apply runs ops over samples recorded at sampleRate without logging
func Apply(samples []int16, sampleRate uint32, ops shared.TransformList) ([]int16, error) {
	out, err := NewPipeline(nil).Apply(shared.SampleBuffer{Samples: samples, SampleRate: sampleRate}, ops)
	if err != nil {
		return nil, err
	}
	return out.Samples, nil
}
