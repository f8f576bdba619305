package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	pixelsaw "github.com/cbegin/pixelsaw-go"
	"github.com/cbegin/pixelsaw-go/internal/config"
	"github.com/cbegin/pixelsaw-go/internal/imagegrid"
	"github.com/cbegin/pixelsaw-go/internal/pcm"
)

func main() {
	def := config.Defaults()
	var (
		fv         = def
		mono       bool
		configPath = flag.String("config", "", "JSON settings file, applied before explicit flags")
		outPath    = flag.String("o", "", "output WAV path (default: image name with .wav)")
		verify     = flag.Bool("verify", false, "decode the written file and check its length")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.IntVar(&fv.Size, "size", def.Size, "grid side: the image is resized to size x size")
	flag.IntVar(&fv.Synth.SampleRate, "sr", def.Synth.SampleRate, "output sample rate")
	flag.Float64Var(&fv.Mapping.FMin, "fmin", def.Mapping.FMin, "frequency for black pixels (Hz)")
	flag.Float64Var(&fv.Mapping.FMax, "fmax", def.Mapping.FMax, "frequency for white pixels (Hz)")
	flag.Float64Var(&fv.Synth.StepMS, "step-ms", def.Synth.StepMS, "delay between oscillator starts")
	flag.Float64Var(&fv.Synth.SustainS, "sustain-s", def.Synth.SustainS, "tail after the last oscillator")
	flag.Float64Var(&fv.Synth.BlockMS, "block-ms", def.Synth.BlockMS, "render block length")
	flag.Float64Var(&fv.Synth.FadeMS, "fade-ms", def.Synth.FadeMS, "per-oscillator fade in/out")
	flag.StringVar(&fv.Synth.Waveform, "waveform", def.Synth.Waveform, "sine|saw|triangle|square")
	flag.IntVar(&fv.Synth.Voices, "voices", def.Synth.Voices, "simultaneous oscillators")
	flag.BoolVar(&mono, "mono", false, "render mono into both channels")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] image\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	imagePath := flag.Arg(0)

	settings := def
	if *configPath != "" {
		var err error
		settings, err = config.LoadJSON(*configPath, settings)
		if err != nil {
			fatal(logger, "load config", err)
		}
	}
	fv.Synth.Stereo = !mono
	applyFlags(&settings, fv)

	out := *outPath
	if out == "" {
		out = strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + ".wav"
	}

	src, err := imagegrid.Load(imagePath)
	if err != nil {
		fatal(logger, "load image", err)
	}
	grid, err := src.Resized(settings.Size, settings.Mapping)
	if err != nil {
		fatal(logger, "build grid", err)
	}

	engine := pixelsaw.NewEngine(pixelsaw.WithLogger(logger))
	sched, err := engine.Schedule(grid, settings.Synth)
	if err != nil {
		fatal(logger, "schedule", err)
	}
	logger.Info("rendering",
		"image", imagePath, "size", settings.Size, "oscillators", len(sched.Oscillators),
		"seconds", sched.Duration, "waveform", settings.Synth.Waveform, "voices", sched.Voices)

	progress := newProgress(os.Stderr)
	buf, err := engine.RenderFile(out, grid, settings.Synth, pixelsaw.WithProgress(progress.update))
	progress.done()
	if err != nil {
		fatal(logger, "render", err)
	}

	if *verify {
		dec, err := pcm.ReadFile(out)
		if err != nil {
			fatal(logger, "verify", err)
		}
		if len(dec.L) != buf.Frames() || dec.SampleRate != settings.Synth.SampleRate {
			fatal(logger, "verify", fmt.Errorf("decoded %d frames at %d Hz, rendered %d at %d Hz",
				len(dec.L), dec.SampleRate, buf.Frames(), settings.Synth.SampleRate))
		}
		logger.Debug("verified", "path", out, "frames", len(dec.L))
	}
	fmt.Printf("%s: %.2fs, %d oscillators, %d Hz\n", out, buf.Seconds(), len(sched.Oscillators), buf.SampleRate)
}

// applyFlags copies the flags the user actually set from fv onto s, so
// settings from a config file survive unless overridden.
func applyFlags(s *config.Settings, fv config.Settings) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "size":
			s.Size = fv.Size
		case "sr":
			s.Synth.SampleRate = fv.Synth.SampleRate
		case "fmin":
			s.Mapping.FMin = fv.Mapping.FMin
		case "fmax":
			s.Mapping.FMax = fv.Mapping.FMax
		case "step-ms":
			s.Synth.StepMS = fv.Synth.StepMS
		case "sustain-s":
			s.Synth.SustainS = fv.Synth.SustainS
		case "block-ms":
			s.Synth.BlockMS = fv.Synth.BlockMS
		case "fade-ms":
			s.Synth.FadeMS = fv.Synth.FadeMS
		case "waveform":
			s.Synth.Waveform = fv.Synth.Waveform
		case "voices":
			s.Synth.Voices = fv.Synth.Voices
		case "mono":
			s.Synth.Stereo = fv.Synth.Stereo
		}
	})
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
