package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
)

func TestLoopBufferWrapsAround(t *testing.T) {
	b := NewLoopBuffer([]float32{1, -1, 2, -2, 3, -3})
	dst := make([]float32, 10)
	b.Process(dst)
	want := []float32{1, -1, 2, -2, 3, -3, 1, -1, 2, -2}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
	if got := b.Cursor(); got != 2 {
		t.Fatalf("cursor = %d, want 2", got)
	}
	b.Process(dst[:4])
	if dst[0] != 3 || dst[2] != 1 {
		t.Fatalf("second read = %v", dst[:4])
	}
}

func TestLoopBufferEmptyIsSilent(t *testing.T) {
	b := NewLoopBuffer(nil)
	dst := []float32{9, 9, 9, 9}
	b.Process(dst)
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %v, want silence", i, v)
		}
	}
	b.Update([]float32{5})
	if b.Frames() != 0 {
		t.Fatalf("partial frame should be dropped, frames = %d", b.Frames())
	}
	dst[0] = 7
	b.Process(dst)
	if dst[0] != 0 {
		t.Fatalf("expected silence for single-sample buffer")
	}
}

func TestLoopBufferUpdateShorterThanCursor(t *testing.T) {
	long := make([]float32, 200)
	for i := range long {
		long[i] = 1
	}
	b := NewLoopBuffer(long)
	dst := make([]float32, 150)
	b.Process(dst)
	if b.Cursor() != 75 {
		t.Fatalf("cursor = %d, want 75", b.Cursor())
	}
	b.Update([]float32{0.5, -0.5, 0.25, -0.25})
	if b.Cursor() != 0 {
		t.Fatalf("cursor after update = %d, want 0", b.Cursor())
	}
	b.Process(dst[:6])
	want := []float32{0.5, -0.5, 0.25, -0.25, 0.5, -0.5}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestLoopBufferConcurrentUpdateAndRead(t *testing.T) {
	b := NewLoopBuffer(make([]float32, 64))
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		dst := make([]float32, 48)
		for i := 0; i < 2000; i++ {
			b.Process(dst)
			// Every buffer is constant, so a frame must never mix values.
			for j := 0; j < len(dst); j += 2 {
				if dst[j] != -dst[j+1] {
					t.Errorf("torn frame: %v %v", dst[j], dst[j+1])
					return
				}
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			n := 2 * (1 + i%40)
			buf := make([]float32, n)
			for j := 0; j < n; j += 2 {
				buf[j] = float32(i)
				buf[j+1] = -float32(i)
			}
			b.Update(buf)
		}
	}()
	wg.Wait()
}

func TestStreamReaderEncodesFloat32LE(t *testing.T) {
	r := NewStreamReader(NewLoopBuffer([]float32{0.5, -0.25}))
	p := make([]byte, 20) // two whole frames plus a partial one
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != 16 {
		t.Fatalf("n = %d, want 16", n)
	}
	want := []float32{0.5, -0.25, 0.5, -0.25}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if got != w {
			t.Fatalf("sample %d = %v, want %v", i, got, w)
		}
	}
	if n, _ := r.Read(make([]byte, 7)); n != 0 {
		t.Fatalf("sub-frame read returned %d bytes", n)
	}
}

func TestPlaybackPathDoesNotAllocate(t *testing.T) {
	samples := make([]float32, 2*300)
	for i := range samples {
		samples[i] = float32(i) / 600
	}
	b := NewLoopBuffer(samples)
	dst := make([]float32, 2*128)
	if allocs := testing.AllocsPerRun(100, func() { b.Process(dst) }); allocs != 0 {
		t.Fatalf("Process allocs = %v, want 0", allocs)
	}

	r := NewStreamReader(b)
	p := make([]byte, 8*256)
	if _, err := r.Read(p); err != nil {
		t.Fatal(err)
	}
	if allocs := testing.AllocsPerRun(100, func() { _, _ = r.Read(p) }); allocs != 0 {
		t.Fatalf("StreamReader.Read allocs = %v, want 0", allocs)
	}

	b.Update(nil)
	if allocs := testing.AllocsPerRun(100, func() { b.Process(dst) }); allocs != 0 {
		t.Fatalf("silent Process allocs = %v, want 0", allocs)
	}
}

type fakeDevice struct {
	src      io.Reader
	played   bool
	closed   int
	closeErr error
}

func (d *fakeDevice) Play() { d.played = true }

func (d *fakeDevice) Close() error {
	d.closed++
	return d.closeErr
}

func TestLoopLifecycle(t *testing.T) {
	var dev *fakeDevice
	opens := 0
	loop, err := NewLoop(48000, func(sampleRate int, src io.Reader) (Device, error) {
		opens++
		if sampleRate != 48000 {
			t.Fatalf("sample rate = %d", sampleRate)
		}
		dev = &fakeDevice{src: src}
		return dev, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if loop.State() != Idle {
		t.Fatalf("initial state = %v", loop.State())
	}
	if err := loop.Stop(); err != nil {
		t.Fatalf("stop while idle: %v", err)
	}
	if err := loop.Start(); err != nil {
		t.Fatal(err)
	}
	if err := loop.Start(); err != nil {
		t.Fatal(err)
	}
	if opens != 1 || !dev.played || loop.State() != Playing {
		t.Fatalf("opens=%d played=%v state=%v", opens, dev.played, loop.State())
	}

	loop.UpdateBuffer([]float32{0.75, 0.75})
	p := make([]byte, 8)
	if _, err := dev.src.Read(p); err != nil {
		t.Fatal(err)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(p)); got != 0.75 {
		t.Fatalf("device read %v, want 0.75", got)
	}

	if err := loop.Stop(); err != nil {
		t.Fatal(err)
	}
	if dev.closed != 1 || loop.State() != Idle {
		t.Fatalf("closed=%d state=%v", dev.closed, loop.State())
	}
}

func TestLoopStopReportsCloseError(t *testing.T) {
	boom := errors.New("device lost")
	dev := &fakeDevice{closeErr: boom}
	loop, err := NewLoop(48000, func(int, io.Reader) (Device, error) { return dev, nil })
	if err != nil {
		t.Fatal(err)
	}
	if err := loop.Start(); err != nil {
		t.Fatal(err)
	}
	if err := loop.Stop(); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if dev.closed != 1 || loop.State() != Idle {
		t.Fatalf("closed=%d state=%v", dev.closed, loop.State())
	}
}

func TestLoopStartFailureIsReported(t *testing.T) {
	boom := errors.New("no device")
	loop, err := NewLoop(44100, func(int, io.Reader) (Device, error) { return nil, boom })
	if err != nil {
		t.Fatal(err)
	}
	if err := loop.Start(); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if loop.State() != Idle {
		t.Fatalf("state after failed start = %v", loop.State())
	}
	if _, err := NewLoop(0, nil); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestParseBackend(t *testing.T) {
	for in, want := range map[string]Backend{"": BackendEbiten, "Ebiten": BackendEbiten, "oto": BackendOto} {
		got, err := ParseBackend(in)
		if err != nil || got != want {
			t.Fatalf("ParseBackend(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseBackend("alsa"); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
