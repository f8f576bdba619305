// Package imagegrid converts images into frequency grids: each pixel's
// luminance is mapped linearly onto a frequency range.
package imagegrid

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/cbegin/pixelsaw-go/internal/schedule"
)

// DefaultCropSize is the side of the centered crop used when a live session
// starts without an explicit window.
const DefaultCropSize = 16

var ErrEmptyImage = errors.New("image has no pixels")

// Mapping converts 8-bit luminance to Hz: fmin + gray/255*(fmax-fmin).
type Mapping struct {
	FMin float64
	FMax float64
}

func (m Mapping) Validate() error {
	if m.FMin < 0 || m.FMax < 0 {
		return fmt.Errorf("frequency range must be non-negative, got [%v, %v]", m.FMin, m.FMax)
	}
	return nil
}

func (m Mapping) Freq(gray uint8) float64 {
	return m.FMin + float64(gray)/255.0*(m.FMax-m.FMin)
}

// Crop is a pixel window into the source image.
type Crop struct {
	X, Y, W, H int
}

// Clamp moves and shrinks c so that it lies inside a w×h image and covers at
// least one pixel.
func (c Crop) Clamp(w, h int) Crop {
	c.X = max(0, min(c.X, w-1))
	c.Y = max(0, min(c.Y, h-1))
	c.W = max(1, c.W)
	c.H = max(1, c.H)
	if c.X+c.W > w {
		c.W = w - c.X
	}
	if c.Y+c.H > h {
		c.H = h - c.Y
	}
	return c
}

// Rect returns c as an image rectangle relative to origin.
func (c Crop) Rect(origin image.Point) image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.W, c.Y+c.H).Add(origin)
}

// Source is a decoded image ready to be sampled into grids.
type Source struct {
	img image.Image
}

func NewSource(img image.Image) (*Source, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return &Source{img: img}, nil
}

// Decode reads a PNG, JPEG, GIF, BMP, TIFF or WebP image.
func Decode(r io.Reader) (*Source, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return NewSource(img)
}

func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Size returns the source dimensions in pixels.
func (s *Source) Size() (w, h int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// CenterCrop returns a w×h window centered on the image, clamped to it.
func (s *Source) CenterCrop(w, h int) Crop {
	iw, ih := s.Size()
	return Crop{X: iw/2 - w/2, Y: ih/2 - h/2, W: w, H: h}.Clamp(iw, ih)
}

// Resized scales the whole image to size×size and maps it to frequencies.
func (s *Source) Resized(size int, m Mapping) (schedule.Grid, error) {
	if size <= 0 {
		return schedule.Grid{}, fmt.Errorf("grid size must be positive, got %d", size)
	}
	return s.grid(s.img.Bounds(), size, size, m)
}

// Cropped maps the pixels under c at native resolution.
func (s *Source) Cropped(c Crop, m Mapping) (schedule.Grid, error) {
	w, h := s.Size()
	c = c.Clamp(w, h)
	return s.grid(c.Rect(s.img.Bounds().Min), c.W, c.H, m)
}

func (s *Source) grid(src image.Rectangle, w, h int, m Mapping) (schedule.Grid, error) {
	if err := m.Validate(); err != nil {
		return schedule.Grid{}, err
	}
	gray := image.NewGray(image.Rect(0, 0, w, h))
	if src.Dx() == w && src.Dy() == h {
		draw.Draw(gray, gray.Bounds(), s.img, src.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(gray, gray.Bounds(), s.img, src, draw.Src, nil)
	}
	return FromGray(gray, m), nil
}

// FromGray maps every pixel of g to a frequency, row-major.
func FromGray(g *image.Gray, m Mapping) schedule.Grid {
	b := g.Bounds()
	freqs := make([][]float64, b.Dy())
	for y := range freqs {
		row := make([]float64, b.Dx())
		for x := range row {
			row[x] = m.Freq(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
		}
		freqs[y] = row
	}
	return schedule.Grid{Freqs: freqs}
}
