// Package render synthesizes a scheduled oscillator list into a stereo
// float buffer, one fixed-size block at a time.
//
// Oscillators must be sorted by start time. The renderer walks them with two
// pointers: one admits oscillators whose start precedes the end of the
// current block, the other drops active oscillators that ended before the
// block began. Per-block work is therefore proportional to the number of
// simultaneous voices, not to the total oscillator count.
//
// Every sample is computed from its absolute index, and contributions are
// accumulated in oscillator order, so the output does not depend on the block
// size.
package render

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cbegin/pixelsaw-go/internal/schedule"
	"github.com/cbegin/pixelsaw-go/internal/wavetable"
)

// Headroom scales the per-oscillator gain so that full polyphony stays
// below clipping: each voice contributes Amp/sqrt(voices)*Headroom.
const Headroom = 0.95

// Options controls block rendering.
type Options struct {
	SampleRate int
	BlockMS    float64
	FadeMS     float64
	Voices     int
	Mono       bool
	// Progress, if set, is called after every block with the number of
	// blocks done and the total.
	Progress func(done, total int)
}

// FrameCount returns ceil(seconds*sampleRate). A tiny tolerance keeps
// products such as 0.3*8000 = 2400.0000000000005 from gaining a frame.
func FrameCount(seconds float64, sampleRate int) int {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(math.Ceil(seconds*float64(sampleRate) - 1e-9))
}

// BlockSize returns max(1, floor(sr*blockMS/1000)).
func BlockSize(sampleRate int, blockMS float64) int {
	n := int(float64(sampleRate) * blockMS / 1000)
	if n < 1 {
		return 1
	}
	return n
}

// FadeSamples returns floor(sr*fadeMS/1000), never negative.
func FadeSamples(sampleRate int, fadeMS float64) int {
	n := int(float64(sampleRate) * fadeMS / 1000)
	if n < 0 {
		return 0
	}
	return n
}

// span is the sample-domain view of one oscillator.
type span struct {
	start int // first sample
	end   int // one past the last sample, clipped to the buffer
	tail  int // unclipped end, used for the fade-out
	fade  int // fade length after clamping to half the lifetime
	gain  float64
}

// Renderer holds the waveform table and scratch space for one render
// configuration. It is not safe for concurrent use.
type Renderer struct {
	table *wavetable.Table
	opts  Options
	ramps map[int][]float64

	active []int
	phase  []float64
	wave   []float64
	env    []float64
	tmp    []float64
}

// New returns a renderer that reads waveform samples from table.
func New(table *wavetable.Table, opts Options) *Renderer {
	if opts.Voices <= 0 {
		opts.Voices = 1
	}
	return &Renderer{
		table: table,
		opts:  opts,
		ramps: make(map[int][]float64),
	}
}

// Render is a convenience wrapper around New(table, opts).Render.
func Render(oscs []schedule.Oscillator, duration float64, table *wavetable.Table, opts Options) *Buffer {
	return New(table, opts).Render(oscs, duration)
}

// Render synthesizes oscs over duration seconds. An empty oscillator list
// or a non-positive duration yields an empty buffer.
func (r *Renderer) Render(oscs []schedule.Oscillator, duration float64) *Buffer {
	sr := r.opts.SampleRate
	total := FrameCount(duration, sr)
	if len(oscs) == 0 || total == 0 {
		return NewBuffer(sr, 0)
	}
	if !sort.SliceIsSorted(oscs, func(i, j int) bool { return oscs[i].Start < oscs[j].Start }) {
		sorted := make([]schedule.Oscillator, len(oscs))
		copy(sorted, oscs)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
		oscs = sorted
	}

	out := NewBuffer(sr, total)
	spans := r.spans(oscs, total)
	block := BlockSize(sr, r.opts.BlockMS)
	r.grow(min(block, total))

	blocks := (total + block - 1) / block
	next := 0
	active := r.active[:0]
	for b := 0; b < blocks; b++ {
		n0 := b * block
		n1 := min(total, n0+block)

		for next < len(spans) && spans[next].start < n1 {
			active = append(active, next)
			next++
		}
		kept := active[:0]
		for _, k := range active {
			if spans[k].end > n0 && spans[k].end > spans[k].start {
				kept = append(kept, k)
			}
		}
		active = kept

		for _, k := range active {
			r.renderOscillator(out, &oscs[k], &spans[k], n0, n1)
		}
		if r.opts.Progress != nil {
			r.opts.Progress(b+1, blocks)
		}
	}
	r.active = active[:0]

	if r.opts.Mono {
		copy(out.R, out.L)
	}
	return out
}

func (r *Renderer) spans(oscs []schedule.Oscillator, total int) []span {
	sr := float64(r.opts.SampleRate)
	fade := FadeSamples(r.opts.SampleRate, r.opts.FadeMS)
	base := 1.0 / math.Sqrt(float64(r.opts.Voices)) * Headroom
	spans := make([]span, len(oscs))
	for i, o := range oscs {
		s0 := int(math.Round(o.Start * sr))
		s1 := int(math.Round(o.End * sr))
		nf := min(fade, max(s1-s0, 0)/2)
		spans[i] = span{
			start: s0,
			end:   min(s1, total),
			tail:  s1,
			fade:  nf,
			gain:  base * o.Amp,
		}
	}
	return spans
}

func (r *Renderer) grow(block int) {
	if cap(r.phase) >= block {
		return
	}
	r.phase = make([]float64, block)
	r.wave = make([]float64, block)
	r.env = make([]float64, block)
	r.tmp = make([]float64, block)
}

func (r *Renderer) renderOscillator(out *Buffer, o *schedule.Oscillator, s *span, n0, n1 int) {
	ls := max(n0, s.start)
	le := min(n1, s.end)
	if le <= ls {
		return
	}
	m := le - ls
	sr := float64(r.opts.SampleRate)

	phase := r.phase[:m]
	for j := range phase {
		p := (float64(ls+j)/sr - o.Start) * o.Freq
		phase[j] = p - math.Floor(p)
	}
	wave := r.wave[:m]
	r.table.Lookup(wave, phase)

	env := r.env[:m]
	r.envelope(env, s, ls)
	vecmath.MulBlockInPlace(wave, env)

	if r.opts.Mono {
		vecmath.AddBlockInPlace(out.L[ls:le], wave)
		return
	}
	tmp := r.tmp[:m]
	vecmath.ScaleBlock(tmp, wave, o.PanL)
	vecmath.AddBlockInPlace(out.L[ls:le], tmp)
	vecmath.ScaleBlock(tmp, wave, o.PanR)
	vecmath.AddBlockInPlace(out.R[ls:le], tmp)
}

// envelope writes gain times the raised-cosine fade for samples starting at
// absolute index from.
func (r *Renderer) envelope(env []float64, s *span, from int) {
	nf := s.fade
	if nf <= 0 {
		for j := range env {
			env[j] = s.gain
		}
		return
	}
	ramp := r.ramp(nf)
	for j := range env {
		n := from + j
		e := 1.0
		if d := n - s.start; d < nf {
			e = ramp[d]
		}
		if d := s.tail - n; d <= nf {
			e *= ramp[d]
		}
		env[j] = e * s.gain
	}
}

// ramp returns 0.5*(1-cos(pi*i/nf)) for i in [0, nf]: the rising half of a
// periodic Hann window of length 2*nf, plus its peak.
func (r *Renderer) ramp(nf int) []float64 {
	if ramp, ok := r.ramps[nf]; ok {
		return ramp
	}
	ramp := window.Generate(window.TypeHann, 2*nf, window.WithPeriodic())[:nf+1]
	r.ramps[nf] = ramp
	return ramp
}
