package dsp

import (
	"math"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"zk-sampler/shared"
)

func TestApplyReverse(t *testing.T) {
	in := []int16{100, 200, -50, 0}
	out, err := Apply(in, 44100, shared.TransformList{shared.Reverse()})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	want := []int16{0, -50, 200, 100}
	if !slices.Equal(out, want) {
		t.Errorf("Expected %v, got %v", want, out)
	}
	if !slices.Equal(in, []int16{100, 200, -50, 0}) {
		t.Errorf("Caller's buffer was modified: %v", in)
	}
}

func TestApplyReverseInvolution(t *testing.T) {
	lengths := []int{0, 1, 2, 7, 1024}
	for _, n := range lengths {
		in := make([]int16, n)
		for i := range in {
			in[i] = int16(i*37 - 500)
		}
		out, err := Apply(in, 8000, shared.TransformList{shared.Reverse(), shared.Reverse()})
		if err != nil {
			t.Fatalf("Apply failed for length %d: %v", n, err)
		}
		if !slices.Equal(out, in) {
			t.Errorf("Reverse twice is not the identity for length %d", n)
		}
	}
}

func TestApplyEmptyListCopies(t *testing.T) {
	in := []int16{1, 2, 3}
	out, err := Apply(in, 8000, nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !slices.Equal(out, in) {
		t.Fatalf("Expected %v, got %v", in, out)
	}
	out[0] = 99
	if in[0] != 1 {
		t.Error("Output aliases the caller's buffer")
	}
}

func TestValidateTransforms(t *testing.T) {
	tooMany := make(shared.TransformList, shared.MaxTransforms+1)
	for i := range tooMany {
		tooMany[i] = shared.Reverse()
	}

	tests := []struct {
		name    string
		ops     shared.TransformList
		wantErr bool
	}{
		{"Empty", nil, false},
		{"Mixed", shared.TransformList{shared.Reverse(), shared.PitchShift(-12), shared.TimeStretch(1.5)}, false},
		{"MaxSemitones", shared.TransformList{shared.PitchShift(shared.MaxSemitones)}, false},
		{"StretchZero", shared.TransformList{shared.TimeStretch(0)}, true},
		{"StretchNegative", shared.TransformList{shared.TimeStretch(-2)}, true},
		{"StretchNaN", shared.TransformList{shared.TimeStretch(math.NaN())}, true},
		{"StretchInf", shared.TransformList{shared.TimeStretch(math.Inf(1))}, true},
		{"PitchTooHigh", shared.TransformList{shared.PitchShift(shared.MaxSemitones + 1)}, true},
		{"PitchTooLow", shared.TransformList{shared.PitchShift(-shared.MaxSemitones - 1)}, true},
		{"UnknownKind", shared.TransformList{{Kind: "Echo"}}, true},
		{"TooMany", tooMany, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransforms(tt.ops)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected validation error")
				}
				if !shared.IsValidationError(err) {
					t.Errorf("Expected ValidationError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
		})
	}
}

func TestApplyRejectsStretchZero(t *testing.T) {
	_, err := Apply([]int16{1, 2, 3}, 8000, shared.TransformList{shared.Reverse(), shared.TimeStretch(0)})
	if !shared.IsValidationError(err) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestApplyRejectsZeroRate(t *testing.T) {
	_, err := Apply([]int16{1, 2, 3}, 0, nil)
	if !shared.IsValidationError(err) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestApplyDeterministicAcrossPipelines(t *testing.T) {
	in := make([]int16, 20000)
	for i := range in {
		in[i] = int16(12000 * math.Sin(2*math.Pi*330*float64(i)/16000))
	}
	ops := shared.TransformList{shared.PitchShift(-7), shared.Reverse(), shared.TimeStretch(1.25)}

	first, err := NewPipeline(zaptest.NewLogger(t)).Apply(shared.SampleBuffer{Samples: in, SampleRate: 16000}, ops)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	second, err := NewPipeline(nil).Apply(shared.SampleBuffer{Samples: in, SampleRate: 16000}, ops)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !slices.Equal(first.Samples, second.Samples) {
		t.Fatal("Pipelines produced different output for identical input")
	}
	if first.SampleRate != 16000 {
		t.Errorf("Expected sample rate to stay 16000, got %d", first.SampleRate)
	}
}

func TestApplyPitchChangesLength(t *testing.T) {
	in := make([]int16, 1000)
	out, err := Apply(in, 8000, shared.TransformList{shared.PitchShift(12)})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	// octave up resamples at half rate: one block of 24000 -> 12000
	if len(out) != 12000 {
		t.Errorf("Expected 12000 samples, got %d", len(out))
	}
}

func TestApplyFallsBackOnDegenerateRate(t *testing.T) {
	in := []int16{5, -5, 7, 9}
	out, err := NewPipeline(zaptest.NewLogger(t)).Apply(shared.SampleBuffer{Samples: in, SampleRate: 1}, shared.TransformList{shared.PitchShift(24)})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !slices.Equal(out.Samples, in) {
		t.Errorf("Expected pass-through %v, got %v", in, out.Samples)
	}
}

func TestFactors(t *testing.T) {
	if got := PitchFactor(12); got != 0.5 {
		t.Errorf("PitchFactor(12) = %v, want 0.5", got)
	}
	if got := PitchFactor(-12); got != 2 {
		t.Errorf("PitchFactor(-12) = %v, want 2", got)
	}
	if got := PitchFactor(0); got != 1 {
		t.Errorf("PitchFactor(0) = %v, want 1", got)
	}
	if got := StretchFactor(2); got != 0.5 {
		t.Errorf("StretchFactor(2) = %v, want 0.5", got)
	}
}
