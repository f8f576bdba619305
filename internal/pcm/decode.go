package pcm

import (
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/wav"
)

// Decoded is a WAV stream read back into planar float channels in [-1, 1].
type Decoded struct {
	SampleRate int
	L          []float64
	R          []float64
}

// Decode reads a 16-bit PCM WAV stream. Mono input is duplicated into both
// channels; more than two channels is rejected.
func Decode(r io.ReadSeeker) (*Decoded, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("pcm: invalid wav stream")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("pcm: decode: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("pcm: empty wav buffer")
	}
	if dec.BitDepth != bitsPerSample {
		return nil, fmt.Errorf("pcm: unsupported bit depth %d", dec.BitDepth)
	}
	ch := buf.Format.NumChannels
	if ch < 1 || ch > channels {
		return nil, fmt.Errorf("%w: %d channels", ErrShape, ch)
	}
	frames := len(buf.Data) / ch
	out := &Decoded{
		SampleRate: buf.Format.SampleRate,
		L:          make([]float64, frames),
		R:          make([]float64, frames),
	}
	for i := 0; i < frames; i++ {
		out.L[i] = float64(buf.Data[i*ch]) / fullScale
		out.R[i] = float64(buf.Data[i*ch+ch-1]) / fullScale
	}
	return out, nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*Decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
