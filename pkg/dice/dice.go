// Package dice provides the uniform random draws used by checks.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/jwebster45206/d20"
)

// Roller draws a uniform integer in [min, max].
type Roller interface {
	Roll(min, max int) int
}

// D100 rolls a percentile die.
func D100(r Roller) int {
	return r.Roll(1, 100)
}

// Rand is a Roller backed by a seeded d20.Roller.
// It is safe for concurrent use.
type Rand struct {
	mu  sync.Mutex
	src *d20.Roller
}

// New creates a Rand from a seed. The same seed yields the same sequence.
func New(seed uint64) *Rand {
	return &Rand{src: d20.NewRoller(int64(seed))}
}

// NewRandom creates a Rand seeded from crypto/rand.
func NewRandom() (*Rand, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return New(seed), nil
}

// Roll returns a uniform integer in [min, max]. If max < min the bounds are swapped.
func (r *Rand) Roll(min, max int) int {
	if max < min {
		min, max = max, min
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// a die with at least one face always rolls
	out, err := r.src.Dice(1, uint(max-min+1)).Roll()
	if err != nil {
		return min
	}
	return min + out.Value - 1
}

// NewSeed generates a seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Fixed replays a scripted sequence of rolls, clamped to the requested range.
// When the script is exhausted the last value repeats.
type Fixed struct {
	mu     sync.Mutex
	values []int
	pos    int
}

// NewFixed creates a Fixed roller.
func NewFixed(values ...int) *Fixed {
	return &Fixed{values: values}
}

// Roll returns the next scripted value.
func (f *Fixed) Roll(min, max int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.values) == 0 {
		return min
	}
	idx := f.pos
	if idx >= len(f.values) {
		idx = len(f.values) - 1
	}
	f.pos++
	v := f.values[idx]
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Calls reports how many rolls have been drawn.
func (f *Fixed) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}
