package pixelsaw

import (
	"errors"
	"sync"

	intaudio "github.com/cbegin/pixelsaw-go/internal/audio"
)

type LiveOption func(*liveConfig)

type liveConfig struct {
	backend string
	opener  intaudio.Opener
}

// WithBackend selects the output backend by name: "ebiten" (default) or
// "oto".
func WithBackend(name string) LiveOption {
	return func(cfg *liveConfig) {
		cfg.backend = name
	}
}

// WithDeviceOpener overrides the output device, mainly for tests.
func WithDeviceOpener(open intaudio.Opener) LiveOption {
	return func(cfg *liveConfig) {
		cfg.opener = open
	}
}

// LivePlayer loops a rendering of the current grid and re-renders it
// whenever the grid or the parameters change. Control methods are safe to
// call from any goroutine; the audio device reads concurrently through the
// loop buffer.
type LivePlayer struct {
	mu     sync.Mutex
	engine *Engine
	cfg    Config
	grid   Grid
	loop   *intaudio.Loop
	frames int
}

// NewLivePlayer creates an idle player. The sample rate of cfg is fixed for
// the player's lifetime; later SetConfig calls keep it.
func NewLivePlayer(engine *Engine, cfg Config, opts ...LiveOption) (*LivePlayer, error) {
	if engine == nil {
		return nil, errors.New("engine must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var lc liveConfig
	for _, opt := range opts {
		opt(&lc)
	}
	open := lc.opener
	if open == nil {
		backend, err := intaudio.ParseBackend(lc.backend)
		if err != nil {
			return nil, err
		}
		open = backend.Opener()
	}
	loop, err := intaudio.NewLoop(cfg.SampleRate, open)
	if err != nil {
		return nil, err
	}
	return &LivePlayer{engine: engine, cfg: cfg, loop: loop}, nil
}

// Start renders the current grid and opens the output device. A device
// failure is returned; nothing is retried.
func (p *LivePlayer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.regenerateLocked(); err != nil {
		return err
	}
	return p.loop.Start()
}

// Stop releases the output device before returning.
func (p *LivePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loop.Stop()
}

// SetGrid replaces the grid and swaps in a new rendering.
func (p *LivePlayer) SetGrid(grid Grid) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.grid = grid
	return p.regenerateLocked()
}

// SetConfig replaces the synthesis parameters and swaps in a new rendering.
// An invalid config leaves the current one in place.
func (p *LivePlayer) SetConfig(cfg Config) error {
	cfg.SampleRate = p.loop.SampleRate()
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
	return p.regenerateLocked()
}

// Regenerate re-renders the current grid and config and swaps the result in,
// restarting the loop from its beginning.
func (p *LivePlayer) Regenerate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regenerateLocked()
}

// Config returns the current parameters.
func (p *LivePlayer) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Playing reports whether the output device is open.
func (p *LivePlayer) Playing() bool {
	return p.loop.State() == intaudio.Playing
}

// LoopSeconds returns the length of the loop currently playing.
func (p *LivePlayer) LoopSeconds() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.frames) / float64(p.loop.SampleRate())
}

// PlaybackPosition returns the read position inside the loop in seconds.
func (p *LivePlayer) PlaybackPosition() float64 {
	return float64(p.loop.Buffer().Cursor()) / float64(p.loop.SampleRate())
}

func (p *LivePlayer) regenerateLocked() error {
	buf, err := p.engine.Render(p.grid, p.cfg)
	if err != nil {
		return err
	}
	Normalize(buf)
	p.frames = buf.Frames()
	p.loop.UpdateBuffer(buf.Interleaved())
	return nil
}
