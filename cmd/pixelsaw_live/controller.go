package main

import (
	"fmt"
	"slices"

	pixelsaw "github.com/cbegin/pixelsaw-go"
	"github.com/cbegin/pixelsaw-go/internal/imagegrid"
	"github.com/cbegin/pixelsaw-go/internal/wavetable"
)

type key int

const (
	keyRune key = iota
	keyUp
	keyDown
	keyLeft
	keyRight
	keyTab
	keyQuit
)

type keyEvent struct {
	k key
	r rune
}

// parseKeys decodes raw-mode terminal input. Unknown escape sequences are
// dropped.
func parseKeys(b []byte) []keyEvent {
	var out []keyEvent
	for i := 0; i < len(b); i++ {
		switch c := b[i]; {
		case c == 0x1b:
			if i+2 < len(b) && b[i+1] == '[' {
				switch b[i+2] {
				case 'A':
					out = append(out, keyEvent{k: keyUp})
				case 'B':
					out = append(out, keyEvent{k: keyDown})
				case 'C':
					out = append(out, keyEvent{k: keyRight})
				case 'D':
					out = append(out, keyEvent{k: keyLeft})
				}
				i += 2
			}
		case c == '\t':
			out = append(out, keyEvent{k: keyTab})
		case c == 0x03 || c == 'q' || c == 'Q':
			out = append(out, keyEvent{k: keyQuit})
		case c >= 0x20 && c < 0x7f:
			out = append(out, keyEvent{k: keyRune, r: rune(c)})
		}
	}
	return out
}

type mode int

const (
	modeParams mode = iota
	modeCrop
)

func (m mode) String() string {
	if m == modeCrop {
		return "CROP"
	}
	return "PARAMS"
}

// change says what a key press invalidated.
type change struct {
	grid   bool
	config bool
	regen  bool
	quit   bool
}

type controller struct {
	src     *imagegrid.Source
	synth   pixelsaw.Config
	mapping imagegrid.Mapping
	crop    imagegrid.Crop
	mode    mode
}

func newController(src *imagegrid.Source, synth pixelsaw.Config, mapping imagegrid.Mapping, cropSize int) *controller {
	return &controller{
		src:     src,
		synth:   synth,
		mapping: mapping,
		crop:    src.CenterCrop(cropSize, cropSize),
	}
}

func (c *controller) grid() (pixelsaw.Grid, error) {
	return c.src.Cropped(c.crop, c.mapping)
}

func (c *controller) handle(ev keyEvent) change {
	switch ev.k {
	case keyQuit:
		return change{quit: true}
	case keyTab:
		if c.mode == modeParams {
			c.mode = modeCrop
		} else {
			c.mode = modeParams
		}
		return change{}
	}
	if ev.k == keyRune {
		return c.handleRune(ev.r)
	}
	if c.mode == modeCrop {
		return c.moveCrop(ev.k)
	}
	switch ev.k {
	case keyUp:
		c.synth.StepMS += 5
	case keyDown:
		c.synth.StepMS = max(1, c.synth.StepMS-5)
	case keyRight:
		c.synth.Voices++
	case keyLeft:
		c.synth.Voices = max(1, c.synth.Voices-1)
	}
	return change{config: true}
}

func (c *controller) handleRune(r rune) change {
	switch r {
	case 'r':
		return change{regen: true}
	case 'w':
		c.synth.Waveform = nextWaveform(c.synth.Waveform).String()
		return change{config: true}
	case 'm':
		c.synth.Stereo = !c.synth.Stereo
		return change{config: true}
	case '[':
		c.synth.FadeMS = max(0, c.synth.FadeMS-1)
		return change{config: true}
	case ']':
		c.synth.FadeMS++
		return change{config: true}
	}
	if c.mode != modeCrop {
		return change{}
	}
	w, h := c.src.Size()
	switch r {
	case '+', '=':
		c.crop.W++
		c.crop.H++
	case '-':
		c.crop.W--
		c.crop.H--
	case 'c':
		c.crop = c.src.CenterCrop(imagegrid.DefaultCropSize, imagegrid.DefaultCropSize)
		return change{grid: true}
	default:
		return change{}
	}
	c.crop = c.crop.Clamp(w, h)
	return change{grid: true}
}

func (c *controller) moveCrop(k key) change {
	switch k {
	case keyUp:
		c.crop.Y--
	case keyDown:
		c.crop.Y++
	case keyLeft:
		c.crop.X--
	case keyRight:
		c.crop.X++
	}
	w, h := c.src.Size()
	c.crop = c.crop.Clamp(w, h)
	return change{grid: true}
}

func (c *controller) status(loopS float64) string {
	ch := "stereo"
	if !c.synth.Stereo {
		ch = "mono"
	}
	return fmt.Sprintf("[%s] step=%gms voices=%d wave=%s fade=%gms %s crop=%d,%d %dx%d loop=%.2fs",
		c.mode, c.synth.StepMS, c.synth.Voices, c.synth.Waveform, c.synth.FadeMS, ch,
		c.crop.X, c.crop.Y, c.crop.W, c.crop.H, loopS)
}

func nextWaveform(name string) wavetable.Kind {
	kinds := wavetable.Kinds()
	cur, err := wavetable.ParseKind(name)
	if err != nil {
		return kinds[0]
	}
	i := slices.Index(kinds, cur)
	return kinds[(i+1)%len(kinds)]
}
