package pixelsaw

import (
	"io"

	"github.com/cbegin/pixelsaw-go/internal/pcm"
)

// RenderSamples renders grid with a throwaway engine and returns normalized
// interleaved stereo samples.
func RenderSamples(grid Grid, cfg Config) ([]float32, error) {
	buf, err := NewEngine().Render(grid, cfg)
	if err != nil {
		return nil, err
	}
	Normalize(buf)
	return buf.Interleaved(), nil
}

// RenderWAV renders grid and writes it to w as 16-bit stereo PCM WAV.
func (e *Engine) RenderWAV(w io.Writer, grid Grid, cfg Config, opts ...RenderOption) (*Buffer, error) {
	buf, err := e.Render(grid, cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := pcm.Encode(w, buf.L, buf.R, cfg.SampleRate); err != nil {
		return nil, err
	}
	return buf, nil
}

// RenderFile renders grid into a WAV file at path.
func (e *Engine) RenderFile(path string, grid Grid, cfg Config, opts ...RenderOption) (*Buffer, error) {
	buf, err := e.Render(grid, cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := pcm.WriteFile(path, buf.L, buf.R, cfg.SampleRate); err != nil {
		return nil, err
	}
	e.logger.Info("wrote wav", "path", path, "frames", buf.Frames(), "sample_rate", cfg.SampleRate)
	return buf, nil
}
