// Package wavetable holds precomputed single-cycle waveform tables.
//
// Lookups truncate the phase to a table index, so the output is a stepped
// approximation of the analytic shape with an error of at most one table
// slot (1/TableLen of a cycle). At high frequencies relative to the sample
// rate this is audible as a little extra aliasing; it is accepted rather than
// corrected with a larger table or interpolation.
package wavetable

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
)

// TableLen is the number of samples in one cycle.
const TableLen = 4096

const twoPi = math.Pi * 2

// ErrUnknownKind is returned by ParseKind for unsupported waveform names.
var ErrUnknownKind = errors.New("wavetable: unknown waveform")

// Kind selects a waveform shape.
type Kind int

const (
	Sine Kind = iota
	Saw
	Triangle
	Square
)

var kindNames = [...]string{
	Sine:     "sine",
	Saw:      "saw",
	Triangle: "triangle",
	Square:   "square",
}

// Kinds lists every supported waveform in cycling order.
func Kinds() []Kind { return []Kind{Sine, Saw, Triangle, Square} }

func (k Kind) String() string {
	if k.Valid() {
		return kindNames[k]
	}
	return "Kind(" + fmt.Sprint(int(k)) + ")"
}

// Valid reports whether k names a supported shape.
func (k Kind) Valid() bool { return k >= Sine && k <= Square }

// ParseKind maps a waveform name to a Kind. "sawtooth" is accepted as an
// alias for "saw".
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine", "sin":
		return Sine, nil
	case "saw", "sawtooth":
		return Saw, nil
	case "triangle", "tri":
		return Triangle, nil
	case "square":
		return Square, nil
	}
	return 0, fmt.Errorf("%w %q (expected sine|saw|triangle|square)", ErrUnknownKind, name)
}

// shape evaluates the analytic waveform at phase x in [0, 1).
func (k Kind) shape(x float64) float64 {
	switch k {
	case Saw:
		return 2 * (x - 0.5)
	case Triangle:
		if x < 0.5 {
			return 4*x - 1
		}
		return 3 - 4*x
	case Square:
		if x < 0.5 {
			return 1
		}
		return -1
	default:
		return math.Sin(twoPi * x)
	}
}

// Table is a read-only single-cycle waveform.
type Table struct {
	kind    Kind
	samples [TableLen]float64
}

// New builds the table for k by sampling the shape at TableLen evenly spaced
// phases in [0, 1).
func New(k Kind) (*Table, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, k)
	}
	t := &Table{kind: k}
	for i := range t.samples {
		t.samples[i] = k.shape(float64(i) / TableLen)
	}
	return t, nil
}

// Kind returns the waveform this table was built for.
func (t *Table) Kind() Kind { return t.kind }

// Index maps a phase (in cycles) to a table slot: floor(phase*len) mod len.
func Index(phase float64) int {
	idx := int(math.Floor(phase*TableLen)) % TableLen
	if idx < 0 {
		idx += TableLen
	}
	return idx
}

// At returns the table value for phase.
func (t *Table) At(phase float64) float64 {
	return t.samples[Index(phase)]
}

// Lookup fills dst[i] with the table value for phases[i].
// dst and phases must have equal length.
func (t *Table) Lookup(dst, phases []float64) {
	for i, p := range phases {
		dst[i] = t.samples[Index(p)]
	}
}

// Cache builds each table at most once. It is safe for concurrent use and
// is meant to live as long as the synthesis engine that owns it.
type Cache struct {
	mu     sync.Mutex
	tables [len(kindNames)]*Table
}

// Get returns the cached table for k, building it on first use.
func (c *Cache) Get(k Kind) (*Table, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, k)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if t := c.tables[k]; t != nil {
		return t, nil
	}
	t, err := New(k)
	if err != nil {
		return nil, err
	}
	c.tables[k] = t
	return t, nil
}

// Warm builds every table up front.
func (c *Cache) Warm() {
	for _, k := range Kinds() {
		_, _ = c.Get(k)
	}
}
