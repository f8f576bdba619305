// Package audio plays a loopable stereo buffer through an output device.
//
// The device pulls samples from a LoopBuffer on its own goroutine while a
// control goroutine swaps in freshly rendered buffers. Both sides go through
// the same mutex, so a reader never sees the samples of one update paired
// with the cursor of another.
package audio

import "sync"

// LoopBuffer is an interleaved stereo float32 buffer with a frame cursor
// that wraps to the start at the end of the buffer.
type LoopBuffer struct {
	mu      sync.Mutex
	samples []float32
	cursor  int // in frames
}

// NewLoopBuffer returns a LoopBuffer holding samples (which may be empty).
func NewLoopBuffer(samples []float32) *LoopBuffer {
	b := &LoopBuffer{}
	b.Update(samples)
	return b
}

// Update replaces the buffer and resets the cursor to zero. A trailing odd
// sample is dropped so the buffer always holds whole frames.
func (b *LoopBuffer) Update(samples []float32) {
	samples = samples[:len(samples)&^1]
	b.mu.Lock()
	b.samples = samples
	b.cursor = 0
	b.mu.Unlock()
}

// Process copies the next len(dst)/2 frames into dst, looping over the
// buffer. An empty buffer yields silence. Process does not allocate.
func (b *LoopBuffer) Process(dst []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.samples) / 2
	if n == 0 {
		clear(dst)
		return
	}
	if b.cursor >= n {
		b.cursor = 0
	}
	for len(dst) >= 2 {
		src := b.samples[b.cursor*2:]
		c := copy(dst, src) &^ 1
		dst = dst[c:]
		b.cursor += c / 2
		if b.cursor >= n {
			b.cursor = 0
		}
	}
	clear(dst)
}

// Cursor returns the current read position in frames.
func (b *LoopBuffer) Cursor() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// Frames returns the buffer length in frames.
func (b *LoopBuffer) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples) / 2
}
