package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	pixelsaw "github.com/cbegin/pixelsaw-go"
	"github.com/cbegin/pixelsaw-go/internal/imagegrid"
	"github.com/cbegin/pixelsaw-go/internal/wavetable"
)

// Settings is everything a command needs to turn an image into sound.
type Settings struct {
	Synth   pixelsaw.Config
	Size    int
	Mapping imagegrid.Mapping
}

// Defaults returns the offline rendering settings.
func Defaults() Settings {
	return Settings{
		Synth:   pixelsaw.DefaultConfig(),
		Size:    64,
		Mapping: imagegrid.Mapping{FMin: 5, FMax: 200},
	}
}

// LiveDefaults returns the settings for the live loop. Size is unused there;
// the crop window decides the grid.
func LiveDefaults() Settings {
	return Settings{
		Synth:   pixelsaw.LiveDefaultConfig(),
		Size:    imagegrid.DefaultCropSize,
		Mapping: imagegrid.Mapping{FMin: 40, FMax: 8000},
	}
}

// File is the JSON schema for settings files. Absent fields keep the base
// value.
type File struct {
	SampleRate *int     `json:"sample_rate"`
	StepMS     *float64 `json:"step_ms"`
	SustainS   *float64 `json:"sustain_s"`
	Voices     *int     `json:"voices"`
	Waveform   *string  `json:"waveform"`
	FadeMS     *float64 `json:"fade_ms"`
	BlockMS    *float64 `json:"block_ms"`
	Mono       *bool    `json:"mono"`
	Size       *int     `json:"size"`
	FMin       *float64 `json:"fmin"`
	FMax       *float64 `json:"fmax"`
}

// LoadJSON reads a settings file and applies it on top of base.
func LoadJSON(path string, base Settings) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ApplyFile(&base, &f); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return base, nil
}

// ApplyFile applies a parsed settings file onto dst.
func ApplyFile(dst *Settings, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination settings")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		if *f.SampleRate <= 0 {
			return fmt.Errorf("sample_rate must be > 0")
		}
		dst.Synth.SampleRate = *f.SampleRate
	}
	if f.StepMS != nil {
		dst.Synth.StepMS = *f.StepMS
	}
	if f.SustainS != nil {
		dst.Synth.SustainS = *f.SustainS
	}
	if f.Voices != nil {
		dst.Synth.Voices = *f.Voices
	}
	if f.Waveform != nil {
		w := strings.TrimSpace(*f.Waveform)
		if _, err := wavetable.ParseKind(w); err != nil {
			return err
		}
		dst.Synth.Waveform = w
	}
	if f.FadeMS != nil {
		if *f.FadeMS < 0 {
			return fmt.Errorf("fade_ms must be >= 0")
		}
		dst.Synth.FadeMS = *f.FadeMS
	}
	if f.BlockMS != nil {
		dst.Synth.BlockMS = *f.BlockMS
	}
	if f.Mono != nil {
		dst.Synth.Stereo = !*f.Mono
	}
	if f.Size != nil {
		if *f.Size <= 0 {
			return fmt.Errorf("size must be > 0")
		}
		dst.Size = *f.Size
	}
	if f.FMin != nil {
		dst.Mapping.FMin = *f.FMin
	}
	if f.FMax != nil {
		dst.Mapping.FMax = *f.FMax
	}
	return dst.Mapping.Validate()
}
