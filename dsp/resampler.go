package dsp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ChunkSize is the number of input frames requested per processing block.
// The actual block is rounded up to a whole number of rate-ratio periods.
const ChunkSize = 24000

// MaxFFTSize caps the transform length a rate pair may require
const MaxFFTSize = 1 << 22

// rolloffFraction is the share of the pass band given to the cosine taper
const rolloffFraction = 0.1

// ErrResamplerUnavailable is returned when no resampler can be built for a
// rate pair. Pipeline stages treat it as "pass the input through".
var ErrResamplerUnavailable = errors.New("resampler unavailable for rate pair")

// Resampler is a fixed-input, fixed-output FFT resampler. Every call to
// Process consumes InputFramesNext() frames and produces OutputFramesNext()
// frames. Each block is zero-padded to twice its length, low-pass filtered in
// the frequency domain, re-synthesised at the output length and overlap-added
// with the tail of the previous block.
type Resampler struct {
	chunkIn  int
	chunkOut int

	fftIn  *fourier.FFT
	fftOut *fourier.FFT

	response []float64
	scale    float64

	inBuf     []float64
	inCoeffs  []complex128
	outCoeffs []complex128
	outBuf    []float64
	overlap   []float64
}

// NewResampler builds a resampler for inRate -> outRate with blocks of at
// least chunkSize input frames.
func NewResampler(inRate, outRate, chunkSize int) (*Resampler, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("%w: rates must be positive (in=%d, out=%d)", ErrResamplerUnavailable, inRate, outRate)
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrResamplerUnavailable, chunkSize)
	}

	g := gcd(inRate, outRate)
	minIn := inRate / g
	minOut := outRate / g
	blocks := (chunkSize + minIn - 1) / minIn
	if blocks > MaxFFTSize/2/minIn || blocks > MaxFFTSize/2/minOut {
		return nil, fmt.Errorf("%w: rate pair %d/%d needs a transform larger than %d", ErrResamplerUnavailable, inRate, outRate, MaxFFTSize)
	}
	chunkIn := blocks * minIn
	chunkOut := blocks * minOut

	r := &Resampler{
		chunkIn:   chunkIn,
		chunkOut:  chunkOut,
		fftIn:     fourier.NewFFT(2 * chunkIn),
		fftOut:    fourier.NewFFT(2 * chunkOut),
		response:  lowPassResponse(min(chunkIn, chunkOut)),
		scale:     1 / float64(2*chunkIn),
		inBuf:     make([]float64, 2*chunkIn),
		inCoeffs:  make([]complex128, chunkIn+1),
		outCoeffs: make([]complex128, chunkOut+1),
		outBuf:    make([]float64, 2*chunkOut),
		overlap:   make([]float64, chunkOut),
	}
	return r, nil
}

// InputFramesNext is the exact number of frames Process expects
func (r *Resampler) InputFramesNext() int {
	return r.chunkIn
}

// OutputFramesNext is the number of frames Process returns
func (r *Resampler) OutputFramesNext() int {
	return r.chunkOut
}

// Process resamples one block. len(chunk) must equal InputFramesNext().
func (r *Resampler) Process(chunk []float64) ([]float64, error) {
	if len(chunk) != r.chunkIn {
		return nil, fmt.Errorf("resampler expects %d frames, got %d", r.chunkIn, len(chunk))
	}

	copy(r.inBuf, chunk)
	for i := r.chunkIn; i < len(r.inBuf); i++ {
		r.inBuf[i] = 0
	}
	coeffs := r.fftIn.Coefficients(r.inCoeffs, r.inBuf)

	for i := range r.outCoeffs {
		r.outCoeffs[i] = 0
	}
	for k, gain := range r.response {
		g := float64(gain * r.scale)
		re := float64(real(coeffs[k]) * g)
		im := float64(imag(coeffs[k]) * g)
		r.outCoeffs[k] = complex(re, im)
	}

	// The response is zero-phase and applied circularly, so the filter's
	// negative-time half lands at the end of seq and is carried into the
	// next block's overlap instead of the start of this one. This smears a
	// little pre-ringing across block boundaries; it is an accepted
	// approximation, not a linear-phase overlap-add.
	seq := r.fftOut.Sequence(r.outBuf, r.outCoeffs)
	out := make([]float64, r.chunkOut)
	for i := range out {
		out[i] = float64(seq[i] + r.overlap[i])
	}
	copy(r.overlap, seq[r.chunkOut:])
	return out, nil
}

// lowPassResponse returns a zero-phase gain per frequency bin 0..cutoff: flat,
// then a raised-cosine taper reaching zero at the cutoff bin.
func lowPassResponse(cutoff int) []float64 {
	resp := make([]float64, cutoff+1)
	start := int(float64(cutoff) * (1 - rolloffFraction))
	width := cutoff - start
	for k := range resp {
		switch {
		case k < start:
			resp[k] = 1
		case width == 0:
			resp[k] = 0
		default:
			x := float64(k-start) / float64(width)
			resp[k] = float64(0.5 * float64(1+math.Cos(math.Pi*x)))
		}
	}
	return resp
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
