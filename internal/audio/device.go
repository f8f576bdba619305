package audio

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ebitengine/oto/v3"
	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// Device is an acquired audio output pulling float32 LE stereo frames.
type Device interface {
	Play()
	Close() error
}

// Opener acquires an output device at sampleRate reading from src.
type Opener func(sampleRate int, src io.Reader) (Device, error)

// Backend names an output implementation.
type Backend string

const (
	BackendEbiten Backend = "ebiten"
	BackendOto    Backend = "oto"
)

// ParseBackend maps a name to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case BackendEbiten, "":
		return BackendEbiten, nil
	case BackendOto:
		return BackendOto, nil
	}
	return "", fmt.Errorf("unknown audio backend %q (expected ebiten|oto)", name)
}

// Opener returns the device opener for b. Only one backend should be used
// per process: both keep a process-wide output context.
func (b Backend) Opener() Opener {
	if b == BackendOto {
		return OpenOto
	}
	return OpenEbiten
}

type ebitenDevice struct {
	player *ebitaudio.Player
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// OpenEbiten opens a player on the shared ebiten audio context.
func OpenEbiten(sampleRate int, src io.Reader) (Device, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(src)
	if err != nil {
		return nil, err
	}
	return &ebitenDevice{player: pl}, nil
}

func (d *ebitenDevice) Play() { d.player.Play() }

func (d *ebitenDevice) Close() error {
	d.player.Pause()
	return d.player.Close()
}

type otoDevice struct {
	player *oto.Player
}

var (
	otoContextOnce sync.Once
	otoContext     *oto.Context
	otoContextErr  error
	otoSampleRate  int
)

func sharedOtoContext(sampleRate int) (*oto.Context, error) {
	otoContextOnce.Do(func() {
		otoSampleRate = sampleRate
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			otoContextErr = err
			return
		}
		<-ready
		otoContext = ctx
	})
	if otoContextErr != nil {
		return nil, otoContextErr
	}
	if otoSampleRate != sampleRate {
		return nil, fmt.Errorf("oto context already initialized at %d Hz (requested %d Hz)", otoSampleRate, sampleRate)
	}
	return otoContext, nil
}

// OpenOto opens a player on the shared oto context.
func OpenOto(sampleRate int, src io.Reader) (Device, error) {
	ctx, err := sharedOtoContext(sampleRate)
	if err != nil {
		return nil, err
	}
	return &otoDevice{player: ctx.NewPlayer(src)}, nil
}

func (d *otoDevice) Play() { d.player.Play() }

func (d *otoDevice) Close() error {
	d.player.Pause()
	return d.player.Close()
}
