// Package schedule turns a frequency grid into a list of oscillators with
// fixed, staggered lifetimes.
//
// Every oscillator lives for exactly Voices steps and starts one step after
// its predecessor, so at most Voices oscillators sound at any instant without
// any allocation decision at render time.
package schedule

import (
	"errors"
	"fmt"
	"math"
)

// ErrRaggedGrid is returned when grid rows differ in length.
var ErrRaggedGrid = errors.New("schedule: grid rows have different lengths")

// Grid holds per-cell frequencies in Hz, row-major (H rows x W columns).
// Amps is optional; when present it must have the same shape as Freqs.
type Grid struct {
	Freqs [][]float64
	Amps  [][]float64
}

// Size returns the grid height and width.
func (g Grid) Size() (h, w int) {
	if len(g.Freqs) == 0 {
		return 0, 0
	}
	return len(g.Freqs), len(g.Freqs[0])
}

// Validate checks that the grid is rectangular and that Amps, if set,
// matches Freqs.
func (g Grid) Validate() error {
	h, w := g.Size()
	for r := 0; r < h; r++ {
		if len(g.Freqs[r]) != w {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrRaggedGrid, r, len(g.Freqs[r]), w)
		}
	}
	if g.Amps == nil {
		return nil
	}
	if len(g.Amps) != h {
		return fmt.Errorf("%w: amplitude grid has %d rows, want %d", ErrRaggedGrid, len(g.Amps), h)
	}
	for r := 0; r < h; r++ {
		if len(g.Amps[r]) != w {
			return fmt.Errorf("%w: amplitude row %d has %d cells, want %d", ErrRaggedGrid, r, len(g.Amps[r]), w)
		}
	}
	return nil
}

// Oscillator is one scheduled grid cell. Times are in seconds.
type Oscillator struct {
	Freq  float64
	Start float64
	End   float64
	Amp   float64
	PanL  float64
	PanR  float64
}

// Params controls scheduling.
type Params struct {
	SampleRate int
	StepMS     float64
	SustainS   float64
	Voices     int
	Stereo     bool
}

// Clamp flags which parameters were silently raised to their minimum.
type Clamp struct {
	Voices  bool
	StepMS  bool
	Sustain bool
}

// Any reports whether any clamp was applied.
func (c Clamp) Any() bool { return c.Voices || c.StepMS || c.Sustain }

// Schedule is the result of Plan.
type Schedule struct {
	Oscillators []Oscillator
	// Duration is the total render length in seconds, including sustain.
	Duration float64
	Voices   int
	StepS    float64
	Clamped  Clamp
}

// Normalize applies the documented silent clamps: voices below 1 become 1,
// step_ms below or at 0 becomes 1 ms, negative sustain becomes 0.
func (p Params) Normalize() (Params, Clamp) {
	var c Clamp
	if p.Voices <= 0 {
		p.Voices = 1
		c.Voices = true
	}
	if p.StepMS <= 0 || math.IsNaN(p.StepMS) {
		p.StepMS = 1
		c.StepMS = true
	}
	if p.SustainS < 0 || math.IsNaN(p.SustainS) {
		p.SustainS = 0
		c.Sustain = true
	}
	return p, c
}

// Plan builds the oscillator list for grid in boustrophedon order.
func Plan(grid Grid, params Params) (Schedule, error) {
	if err := grid.Validate(); err != nil {
		return Schedule{}, err
	}
	p, clamped := params.Normalize()
	stepS := p.StepMS / 1000.0
	h, w := grid.Size()
	n := h * w

	s := Schedule{Voices: p.Voices, StepS: stepS, Clamped: clamped}
	if n == 0 {
		return s, nil
	}

	pans := make([][2]float64, w)
	for c := 0; c < w; c++ {
		if !p.Stereo {
			pans[c] = [2]float64{1, 1}
			continue
		}
		x := 0.5
		if w > 1 {
			x = float64(c) / float64(w-1)
		}
		l, r := ConstantPowerPan(x)
		pans[c] = [2]float64{l, r}
	}

	oscs := make([]Oscillator, 0, n)
	for i, cell := range Boustrophedon(h, w) {
		amp := 1.0
		if grid.Amps != nil {
			amp = grid.Amps[cell.Row][cell.Col]
		}
		oscs = append(oscs, Oscillator{
			Freq:  grid.Freqs[cell.Row][cell.Col],
			Start: float64(i) * stepS,
			End:   float64(i+p.Voices) * stepS,
			Amp:   amp,
			PanL:  pans[cell.Col][0],
			PanR:  pans[cell.Col][1],
		})
	}
	s.Oscillators = oscs
	s.Duration = float64(n-1+p.Voices)*stepS + p.SustainS
	return s, nil
}

// ActiveAt counts oscillators with Start <= t < End.
func (s Schedule) ActiveAt(t float64) int {
	count := 0
	for _, o := range s.Oscillators {
		if o.Start > t {
			break
		}
		if t < o.End {
			count++
		}
	}
	return count
}

// ConstantPowerPan maps x in [0,1] (0 = hard left) to a cos/sin gain pair.
func ConstantPowerPan(x float64) (left, right float64) {
	if x < 0 {
		x = 0
	} else if x > 1 {
		x = 1
	}
	theta := math.Pi / 2 * x
	return math.Cos(theta), math.Sin(theta)
}
