// Package random provides the random sources used by the typing models.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Source is the subset of a PRNG the typing models draw from.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// IntN returns a uniform value in [0, n). n must be positive.
	IntN(n int) int
	// NormFloat64 returns a standard normal sample.
	NormFloat64() float64
}

// Locked is a Source safe for use from multiple goroutines.
type Locked struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a deterministic source for seed.
func New(seed uint64) *Locked {
	return &Locked{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewSeeded returns a source seeded from crypto/rand.
func NewSeeded() (*Locked, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return New(seed), nil
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

func (l *Locked) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.IntN(n)
}

func (l *Locked) NormFloat64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.NormFloat64()
}

// Uniform returns a value in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Scripted replays fixed values in order, wrapping around when exhausted.
// An empty script yields zero. It pins probabilistic branches in tests.
type Scripted struct {
	Floats []float64
	Ints   []int
	Norms  []float64

	mu                sync.Mutex
	floatAt, intAt, n int
}

func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.floatAt%len(s.Floats)]
	s.floatAt++
	return v
}

func (s *Scripted) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Ints) == 0 || n <= 0 {
		return 0
	}
	v := s.Ints[s.intAt%len(s.Ints)]
	s.intAt++
	if v < 0 {
		v = -v
	}
	return v % n
}

func (s *Scripted) NormFloat64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Norms) == 0 {
		return 0
	}
	v := s.Norms[s.n%len(s.Norms)]
	s.n++
	return v
}
