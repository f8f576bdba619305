package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/term"

	pixelsaw "github.com/cbegin/pixelsaw-go"
	"github.com/cbegin/pixelsaw-go/internal/config"
	"github.com/cbegin/pixelsaw-go/internal/imagegrid"
)

const help = "tab: params/crop  arrows: step,voices | move crop  +/-: crop size  c: recenter  w: waveform  m: mono  [ ]: fade  r: regen  q: quit"

func main() {
	def := config.LiveDefaults()
	var (
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|oto")
		configPath = flag.String("config", "", "JSON settings file")
		cropSize   = flag.Int("crop", imagegrid.DefaultCropSize, "initial centered crop side in pixels")
		stepMS     = flag.Float64("step-ms", def.Synth.StepMS, "delay between oscillator starts")
		voices     = flag.Int("voices", def.Synth.Voices, "simultaneous oscillators")
		waveform   = flag.String("waveform", def.Synth.Waveform, "sine|saw|triangle|square")
		fadeMS     = flag.Float64("fade-ms", def.Synth.FadeMS, "per-oscillator fade in/out")
		fmin       = flag.Float64("fmin", def.Mapping.FMin, "frequency for black pixels (Hz)")
		fmax       = flag.Float64("fmax", def.Mapping.FMax, "frequency for white pixels (Hz)")
		mono       = flag.Bool("mono", false, "mono output")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] image\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	settings := def
	if *configPath != "" {
		var err error
		if settings, err = config.LoadJSON(*configPath, settings); err != nil {
			fatal(logger, "load config", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "step-ms":
			settings.Synth.StepMS = *stepMS
		case "voices":
			settings.Synth.Voices = *voices
		case "waveform":
			settings.Synth.Waveform = *waveform
		case "fade-ms":
			settings.Synth.FadeMS = *fadeMS
		case "fmin":
			settings.Mapping.FMin = *fmin
		case "fmax":
			settings.Mapping.FMax = *fmax
		case "mono":
			settings.Synth.Stereo = !*mono
		}
	})
	// The device runs at a fixed rate; a config file cannot change it.
	settings.Synth.SampleRate = pixelsaw.LiveDefaultConfig().SampleRate

	src, err := imagegrid.Load(flag.Arg(0))
	if err != nil {
		fatal(logger, "load image", err)
	}
	ctl := newController(src, settings.Synth, settings.Mapping, *cropSize)

	engine := pixelsaw.NewEngine(pixelsaw.WithLogger(logger), pixelsaw.WithWarmTables())
	player, err := pixelsaw.NewLivePlayer(engine, ctl.synth, pixelsaw.WithBackend(*backend))
	if err != nil {
		fatal(logger, "create player", err)
	}
	grid, err := ctl.grid()
	if err != nil {
		fatal(logger, "build grid", err)
	}
	if err := player.SetGrid(grid); err != nil {
		fatal(logger, "render", err)
	}
	if err := player.Start(); err != nil {
		fatal(logger, "start playback", err)
	}
	defer player.Stop()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			logger.Warn("raw mode unavailable", "err", err)
		} else {
			defer term.Restore(fd, oldState)
		}
	}

	keys := make(chan []byte)
	go readKeys(keys)

	fmt.Print(help + "\r\n")
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		fmt.Printf("\r\x1b[K%s pos=%.2fs", ctl.status(player.LoopSeconds()), player.PlaybackPosition())
		select {
		case b, ok := <-keys:
			if !ok {
				fmt.Print("\r\n")
				return
			}
			for _, ev := range parseKeys(b) {
				ch := ctl.handle(ev)
				if ch.quit {
					fmt.Print("\r\n")
					return
				}
				if err := apply(player, ctl, ch); err != nil {
					logger.Warn("update rejected", "err", err)
				}
			}
		case <-ticker.C:
		}
	}
}

func apply(p *pixelsaw.LivePlayer, ctl *controller, ch change) error {
	switch {
	case ch.grid:
		grid, err := ctl.grid()
		if err != nil {
			return err
		}
		return p.SetGrid(grid)
	case ch.config:
		if err := p.SetConfig(ctl.synth); err != nil {
			ctl.synth = p.Config()
			return err
		}
	case ch.regen:
		return p.Regenerate()
	}
	return nil
}

func readKeys(out chan<- []byte) {
	defer close(out)
	buf := make([]byte, 16)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			out <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			return
		}
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
