package render

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Buffer is a planar stereo float accumulator.
type Buffer struct {
	SampleRate int
	L          []float64
	R          []float64
}

// NewBuffer allocates a silent buffer of frames samples per channel.
func NewBuffer(sampleRate, frames int) *Buffer {
	if frames < 0 {
		frames = 0
	}
	return &Buffer{
		SampleRate: sampleRate,
		L:          make([]float64, frames),
		R:          make([]float64, frames),
	}
}

// Frames returns the number of stereo frames.
func (b *Buffer) Frames() int {
	if b == nil {
		return 0
	}
	return len(b.L)
}

// Seconds returns the buffer length in seconds.
func (b *Buffer) Seconds() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.L)) / float64(b.SampleRate)
}

// Peak returns the largest absolute sample value across both channels.
func (b *Buffer) Peak() float64 {
	if b == nil {
		return 0
	}
	var peak float64
	for _, ch := range [][]float64{b.L, b.R} {
		for _, v := range ch {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// Scale multiplies both channels by gain in place.
func (b *Buffer) Scale(gain float64) {
	if b == nil || gain == 1 {
		return
	}
	vecmath.ScaleBlock(b.L, b.L, gain)
	vecmath.ScaleBlock(b.R, b.R, gain)
}

// Interleaved returns [L0 R0 L1 R1 ...] as float32, the layout the audio
// devices consume.
func (b *Buffer) Interleaved() []float32 {
	n := b.Frames()
	out := make([]float32, n*2)
	for i := 0; i < n; i++ {
		out[i*2] = float32(b.L[i])
		out[i*2+1] = float32(b.R[i])
	}
	return out
}
