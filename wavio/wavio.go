// Package wavio reads and writes mono 16-bit PCM WAV files.
package wavio

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"zk-sampler/shared"
)

const (
	bitDepth        = 16
	pcmFormat       = 1
	requiredChannel = 1
)

// Decode reads a mono 16-bit PCM WAV stream
func Decode(r io.ReadSeeker) (shared.SampleBuffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return shared.SampleBuffer{}, shared.NewDecodingError("wav", "not a valid WAV file", dec.Err())
	}
	if dec.WavAudioFormat != pcmFormat {
		return shared.SampleBuffer{}, shared.NewValidationError("audio", dec.WavAudioFormat, "only PCM WAV is supported")
	}
	if dec.NumChans != requiredChannel {
		return shared.SampleBuffer{}, shared.NewValidationError("audio", dec.NumChans, "only mono audio is supported")
	}
	if dec.BitDepth != bitDepth {
		return shared.SampleBuffer{}, shared.NewValidationError("audio", dec.BitDepth, "only 16-bit samples are supported")
	}
	if dec.SampleRate == 0 {
		return shared.SampleBuffer{}, shared.NewValidationError("audio", dec.SampleRate, "sample rate must be positive")
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return shared.SampleBuffer{}, shared.NewDecodingError("wav", "reading PCM data", err)
	}

	samples := make([]int16, len(pcm.Data))
	for i, v := range pcm.Data {
		if v > math.MaxInt16 || v < math.MinInt16 {
			return shared.SampleBuffer{}, shared.NewDecodingError("wav", fmt.Sprintf("sample %d out of 16-bit range", i), nil)
		}
		samples[i] = int16(v)
	}
	return shared.SampleBuffer{Samples: samples, SampleRate: dec.SampleRate}, nil
}

// DecodeBytes decodes an in-memory WAV file
func DecodeBytes(data []byte) (shared.SampleBuffer, error) {
	return Decode(bytes.NewReader(data))
}

// ReadFile decodes the WAV file at path
func ReadFile(path string) (shared.SampleBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return shared.SampleBuffer{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes buf as a mono 16-bit PCM WAV stream
func Encode(w io.WriteSeeker, buf shared.SampleBuffer) error {
	if buf.SampleRate == 0 {
		return shared.NewValidationError("sample_rate", buf.SampleRate, "sample rate must be positive")
	}
	enc := wav.NewEncoder(w, int(buf.SampleRate), bitDepth, requiredChannel, pcmFormat)

	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		data[i] = int(s)
	}
	pcm := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: requiredChannel, SampleRate: int(buf.SampleRate)},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV header: %w", err)
	}
	return nil
}

// EncodeBytes renders buf as an in-memory WAV file
func EncodeBytes(buf shared.SampleBuffer) ([]byte, error) {
	ws := &writeSeeker{}
	if err := Encode(ws, buf); err != nil {
		return nil, err
	}
	return ws.buf, nil
}

// WriteFile writes buf to path, replacing any existing file
func WriteFile(path string, buf shared.SampleBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeSeeker is an in-memory io.WriteSeeker; the encoder seeks back to
// patch chunk sizes once the data length is known.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	if end := w.pos + len(p); end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	return n, nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(w.pos) + offset
	case io.SeekEnd:
		abs = int64(len(w.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative position %d", abs)
	}
	w.pos = int(abs)
	return abs, nil
}
