package pixelsaw

import (
	"errors"
	"fmt"

	"github.com/cbegin/pixelsaw-go/internal/render"
	"github.com/cbegin/pixelsaw-go/internal/schedule"
	"github.com/cbegin/pixelsaw-go/internal/wavetable"
)

// Config holds the synthesis parameters shared by offline and live
// rendering.
type Config struct {
	SampleRate int     // Hz
	StepMS     float64 // delay between successive oscillator starts
	SustainS   float64 // silence-padded tail after the last oscillator ends
	Voices     int     // simultaneous oscillators (sliding window width)
	Waveform   string  // sine|saw|triangle|square
	FadeMS     float64 // raised-cosine attack/release per oscillator
	BlockMS    float64 // render block length
	Stereo     bool    // false renders mono into both channels
}

// DefaultConfig returns the offline rendering defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate: 32000,
		StepMS:     100,
		SustainS:   5,
		Voices:     20,
		Waveform:   "saw",
		FadeMS:     5,
		BlockMS:    50,
		Stereo:     true,
	}
}

// LiveDefaultConfig returns the defaults used for the preview loop: a fixed
// 48 kHz rate, short steps and no sustain tail so the loop stays tight.
func LiveDefaultConfig() Config {
	return Config{
		SampleRate: 48000,
		StepMS:     40,
		SustainS:   0,
		Voices:     32,
		Waveform:   "saw",
		FadeMS:     2,
		BlockMS:    50,
		Stereo:     true,
	}
}

// Validate reports configuration errors that must stop a render before any
// work is done. Out-of-range voices and step values are not errors; they
// are clamped during scheduling.
func (c Config) Validate() error {
	_, err := c.kind()
	return err
}

// kind validates c and returns its parsed waveform.
func (c Config) kind() (wavetable.Kind, error) {
	if c.SampleRate <= 0 {
		return 0, errors.New("sampleRate must be positive")
	}
	k, err := wavetable.ParseKind(c.Waveform)
	if err != nil {
		return 0, err
	}
	if c.FadeMS < 0 {
		return 0, fmt.Errorf("fade_ms must be >= 0, got %v", c.FadeMS)
	}
	return k, nil
}

func (c Config) scheduleParams() schedule.Params {
	return schedule.Params{
		SampleRate: c.SampleRate,
		StepMS:     c.StepMS,
		SustainS:   c.SustainS,
		Voices:     c.Voices,
		Stereo:     c.Stereo,
	}
}

func (c Config) renderOptions(voices int) render.Options {
	return render.Options{
		SampleRate: c.SampleRate,
		BlockMS:    c.BlockMS,
		FadeMS:     c.FadeMS,
		Voices:     voices,
		Mono:       !c.Stereo,
	}
}
