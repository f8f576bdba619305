// Package pixelsaw turns a grid of per-cell frequencies into a stereo
// texture of staggered oscillators, rendered offline to a 16-bit WAV file or
// looped live through an audio device.
package pixelsaw

import (
	"log/slog"

	"github.com/cbegin/pixelsaw-go/internal/pcm"
	"github.com/cbegin/pixelsaw-go/internal/render"
	"github.com/cbegin/pixelsaw-go/internal/schedule"
	"github.com/cbegin/pixelsaw-go/internal/wavetable"
)

// Grid is a frequency grid (Hz) with optional per-cell amplitudes.
type Grid = schedule.Grid

// Buffer is a rendered planar stereo float buffer.
type Buffer = render.Buffer

// Engine owns the waveform tables for its lifetime. It is safe for
// concurrent use; each Render call gets its own scratch space.
type Engine struct {
	tables wavetable.Cache
	logger *slog.Logger
}

type EngineOption func(*Engine)

// WithLogger routes engine diagnostics to logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWarmTables builds every waveform table at construction time instead
// of on first use.
func WithWarmTables() EngineOption {
	return func(e *Engine) {
		e.tables.Warm()
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type RenderOption func(*render.Options)

// WithProgress reports block progress during Render.
func WithProgress(fn func(done, total int)) RenderOption {
	return func(o *render.Options) {
		o.Progress = fn
	}
}

// Schedule validates cfg and plans the oscillators for grid without
// rendering them.
func (e *Engine) Schedule(grid Grid, cfg Config) (schedule.Schedule, error) {
	if err := cfg.Validate(); err != nil {
		return schedule.Schedule{}, err
	}
	return e.plan(grid, cfg)
}

func (e *Engine) plan(grid Grid, cfg Config) (schedule.Schedule, error) {
	s, err := schedule.Plan(grid, cfg.scheduleParams())
	if err != nil {
		return schedule.Schedule{}, err
	}
	if s.Clamped.Any() {
		e.logger.Debug("clamped schedule parameters",
			"voices", s.Voices, "step_s", s.StepS,
			"voices_clamped", s.Clamped.Voices, "step_clamped", s.Clamped.StepMS, "sustain_clamped", s.Clamped.Sustain)
	}
	return s, nil
}

// Render synthesizes grid into an unnormalized float buffer. An unknown
// waveform fails before any scheduling or synthesis; an empty grid yields an
// empty buffer.
func (e *Engine) Render(grid Grid, cfg Config, opts ...RenderOption) (*Buffer, error) {
	kind, err := cfg.kind()
	if err != nil {
		return nil, err
	}
	table, err := e.tables.Get(kind)
	if err != nil {
		return nil, err
	}
	s, err := e.plan(grid, cfg)
	if err != nil {
		return nil, err
	}
	ro := cfg.renderOptions(s.Voices)
	for _, opt := range opts {
		opt(&ro)
	}
	buf := render.Render(s.Oscillators, s.Duration, table, ro)
	e.logger.Debug("rendered",
		"oscillators", len(s.Oscillators), "frames", buf.Frames(),
		"seconds", buf.Seconds(), "waveform", kind.String(), "voices", s.Voices)
	return buf, nil
}

// Normalize scales buf in place the same way the WAV encoder does, so live
// playback and offline files have the same loudness.
func Normalize(buf *Buffer) {
	buf.Scale(pcm.NormGain(buf.Peak()))
}
