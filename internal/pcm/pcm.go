// Package pcm peak-normalizes stereo float audio and writes it as 16-bit
// PCM WAV. Files go through the wav encoder; Encode writes the same layout
// to plain streams that cannot seek back to patch the header.
package pcm

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// Ceiling is the peak level normalization aims for.
const Ceiling = 0.999

const (
	headerSize    = 44
	channels      = 2
	bitsPerSample = 16
	fullScale     = 32767.0
)

// ErrShape is returned for buffers that are not N frames x 2 channels.
var ErrShape = errors.New("pcm: buffer is not N x 2")

// ErrSampleRate is returned for non-positive sample rates.
var ErrSampleRate = errors.New("pcm: sample rate must be positive")

// Peak returns the largest absolute value over both channels.
func Peak(l, r []float64) float64 {
	var peak float64
	for _, ch := range [][]float64{l, r} {
		for _, v := range ch {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// NormGain returns min(1, Ceiling/peak), or 1 for silence.
func NormGain(peak float64) float64 {
	if peak <= 0 {
		return 1
	}
	return math.Min(1, Ceiling/peak)
}

// Quantize normalizes l and r and returns interleaved 16-bit samples.
// Values are truncated toward zero after scaling by 32767.
func Quantize(l, r []float64) ([]int16, error) {
	if len(l) != len(r) {
		return nil, fmt.Errorf("%w: left has %d frames, right has %d", ErrShape, len(l), len(r))
	}
	gain := NormGain(Peak(l, r)) * fullScale
	out := make([]int16, len(l)*channels)
	for i := range l {
		out[i*2] = toInt16(l[i] * gain)
		out[i*2+1] = toInt16(r[i] * gain)
	}
	return out, nil
}

func toInt16(v float64) int16 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt16:
		return math.MaxInt16
	case v <= math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

// SplitInterleaved splits [L0 R0 L1 R1 ...] into planar channels.
func SplitInterleaved(samples []float64) (l, r []float64, err error) {
	if len(samples)%channels != 0 {
		return nil, nil, fmt.Errorf("%w: %d interleaved samples", ErrShape, len(samples))
	}
	n := len(samples) / channels
	l = make([]float64, n)
	r = make([]float64, n)
	for i := 0; i < n; i++ {
		l[i] = samples[i*2]
		r[i] = samples[i*2+1]
	}
	return l, r, nil
}

// Header returns the 44-byte RIFF/WAVE header for frames 16-bit stereo
// frames at sampleRate.
func Header(frames, sampleRate int) []byte {
	dataSize := frames * channels * bitsPerSample / 8
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	out := make([]byte, headerSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], channels)
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], bitsPerSample)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	return out
}

// Encode normalizes l and r and writes a 16-bit stereo WAV stream to w.
func Encode(w io.Writer, l, r []float64, sampleRate int) error {
	if sampleRate <= 0 {
		return ErrSampleRate
	}
	samples, err := Quantize(l, r)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(Header(len(l), sampleRate)); err != nil {
		return err
	}
	var frame [2]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint16(frame[:], uint16(s))
		if _, err := bw.Write(frame[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile encodes l and r to path through the wav encoder, creating
// parent directories.
func WriteFile(path string, l, r []float64, sampleRate int) (err error) {
	if sampleRate <= 0 {
		return ErrSampleRate
	}
	samples, err := Quantize(l, r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc := wav.NewEncoder(f, sampleRate, bitsPerSample, channels, 1)
	if err := enc.Write(intBuffer(samples, sampleRate)); err != nil {
		return err
	}
	return enc.Close()
}

// intBuffer wraps quantized samples so the encoder writes them unchanged.
func intBuffer(samples []int16, sampleRate int) *audio.IntBuffer {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	return &audio.IntBuffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           data,
		SourceBitDepth: bitsPerSample,
	}
}
