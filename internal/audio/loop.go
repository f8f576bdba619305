package audio

import (
	"errors"
	"fmt"
	"sync"
)

// State is the Loop lifecycle state.
type State int

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "idle"
}

// Loop plays a LoopBuffer continuously through a Device.
//
// A device failure at Start is returned to the caller. Errors after the
// device has started are not retried.
type Loop struct {
	mu         sync.Mutex
	sampleRate int
	open       Opener
	buf        *LoopBuffer
	reader     *StreamReader
	dev        Device
	state      State
}

// NewLoop returns an idle loop. A nil opener uses the ebiten backend.
func NewLoop(sampleRate int, open Opener) (*Loop, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if open == nil {
		open = OpenEbiten
	}
	buf := NewLoopBuffer(nil)
	return &Loop{
		sampleRate: sampleRate,
		open:       open,
		buf:        buf,
		reader:     NewStreamReader(buf),
	}, nil
}

// Start acquires the output device and begins playback. Starting a playing
// loop is a no-op.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Playing {
		return nil
	}
	dev, err := l.open(l.sampleRate, l.reader)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	l.dev = dev
	l.state = Playing
	dev.Play()
	return nil
}

// Stop closes the device before returning. Stopping an idle loop is a no-op.
func (l *Loop) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Playing {
		return nil
	}
	err := l.dev.Close()
	l.dev = nil
	l.state = Idle
	return err
}

// UpdateBuffer swaps in samples (interleaved stereo) and rewinds to the
// start. The loop takes ownership of samples.
func (l *Loop) UpdateBuffer(samples []float32) {
	l.buf.Update(samples)
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Buffer exposes the shared buffer, mainly for position reporting.
func (l *Loop) Buffer() *LoopBuffer { return l.buf }

// SampleRate returns the device sample rate.
func (l *Loop) SampleRate() int { return l.sampleRate }
