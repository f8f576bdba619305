package pcm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func TestNormGain(t *testing.T) {
	for _, tc := range []struct {
		peak float64
		want float64
	}{
		{0, 1},
		{0.5, 1},
		{0.999, 1},
		{2, Ceiling / 2},
	} {
		if got := NormGain(tc.peak); got != tc.want {
			t.Fatalf("NormGain(%v) = %v, want %v", tc.peak, got, tc.want)
		}
	}
}

func TestQuantize(t *testing.T) {
	got, err := Quantize([]float64{0.5, 0, -0.25}, []float64{-0.5, 0.1, 0})
	if err != nil {
		t.Fatal(err)
	}
	want := []int16{16383, -16383, 0, 3276, -8191, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}

	loud, err := Quantize([]float64{2, -2}, []float64{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if loud[0] != 32734 || loud[2] != -32734 {
		t.Fatalf("normalized peaks = %d, %d, want +-32734", loud[0], loud[2])
	}

	silent, err := Quantize([]float64{0, 0}, []float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range silent {
		if s != 0 {
			t.Fatalf("silence sample %d = %d", i, s)
		}
	}
}

func TestQuantizeRejectsMalformedShape(t *testing.T) {
	if _, err := Quantize([]float64{1, 2}, []float64{1}); !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
	if _, _, err := SplitInterleaved([]float64{1, 2, 3}); !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
	if err := Encode(&bytes.Buffer{}, []float64{0}, nil, 8000); !errors.Is(err, ErrShape) {
		t.Fatalf("encode err = %v, want ErrShape", err)
	}
	if err := Encode(&bytes.Buffer{}, nil, nil, 0); !errors.Is(err, ErrSampleRate) {
		t.Fatalf("encode err = %v, want ErrSampleRate", err)
	}
}

func TestEncodeHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, []float64{0.1, 0.2, 0.3}, []float64{0, 0, 0}, 44100); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()
	if len(b) != headerSize+3*4 {
		t.Fatalf("size = %d, want %d", len(b), headerSize+12)
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" || string(b[36:40]) != "data" {
		t.Fatalf("bad chunk ids in header: %q", b[:44])
	}
	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", binary.LittleEndian.Uint32(b[4:]), 36 + 12},
		{"format", uint32(binary.LittleEndian.Uint16(b[20:])), 1},
		{"channels", uint32(binary.LittleEndian.Uint16(b[22:])), 2},
		{"sample rate", binary.LittleEndian.Uint32(b[24:]), 44100},
		{"byte rate", binary.LittleEndian.Uint32(b[28:]), 44100 * 4},
		{"block align", uint32(binary.LittleEndian.Uint16(b[32:])), 4},
		{"bits", uint32(binary.LittleEndian.Uint16(b[34:])), 16},
		{"data size", binary.LittleEndian.Uint32(b[40:]), 12},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestEncodeEmptyBuffer(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil, nil, 8000); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != headerSize {
		t.Fatalf("empty encode wrote %d bytes, want %d", buf.Len(), headerSize)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	const frames = 512
	l := make([]float64, frames)
	r := make([]float64, frames)
	for i := range l {
		l[i] = 0.9 * math.Sin(2*math.Pi*float64(i)/37)
		r[i] = 0.5 * math.Cos(2*math.Pi*float64(i)/53)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, l, r, 22050); err != nil {
		t.Fatal(err)
	}
	dec, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.SampleRate != 22050 {
		t.Fatalf("sample rate = %d", dec.SampleRate)
	}
	if len(dec.L) != frames || len(dec.R) != frames {
		t.Fatalf("decoded %d/%d frames, want %d", len(dec.L), len(dec.R), frames)
	}
	lsb := 1 / fullScale
	for i := 0; i < frames; i++ {
		if math.Abs(dec.L[i]-l[i]) > lsb+1e-12 || math.Abs(dec.R[i]-r[i]) > lsb+1e-12 {
			t.Fatalf("frame %d: got (%v, %v), want (%v, %v)", i, dec.L[i], dec.R[i], l[i], r[i])
		}
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.wav")
	if err := WriteFile(path, []float64{0.25, -0.25}, []float64{0.5, -0.5}, 8000); err != nil {
		t.Fatal(err)
	}
	dec, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(dec.L) != 2 || math.Abs(dec.R[0]-0.5) > 1/fullScale {
		t.Fatalf("unexpected decoded data: %+v", dec)
	}
}

func TestWriteFileKeepsQuantizedValues(t *testing.T) {
	l := []float64{2, -1, 0.1, 0, 1.2}
	r := []float64{-2, 0.5, -0.25, 1e-6, 0}
	want, err := Quantize(l, r)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "q.wav")
	if err := WriteFile(path, l, r, 11025); err != nil {
		t.Fatal(err)
	}
	dec, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if dec.SampleRate != 11025 || len(dec.L) != len(l) {
		t.Fatalf("decoded %d frames at %d Hz", len(dec.L), dec.SampleRate)
	}
	for i := range l {
		gotL := int16(math.Round(dec.L[i] * fullScale))
		gotR := int16(math.Round(dec.R[i] * fullScale))
		if gotL != want[i*2] || gotR != want[i*2+1] {
			t.Fatalf("frame %d = (%d, %d), want (%d, %d)", i, gotL, gotR, want[i*2], want[i*2+1])
		}
	}

	if err := WriteFile(filepath.Join(t.TempDir(), "bad.wav"), l, r[:2], 8000); !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
	if err := WriteFile(filepath.Join(t.TempDir(), "bad.wav"), l, r, 0); !errors.Is(err, ErrSampleRate) {
		t.Fatalf("err = %v, want ErrSampleRate", err)
	}
}
