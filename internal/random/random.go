// Package random holds the randomization strategies used by the generators.
//
// A strategy produces one value from an Rng. Strategies never fail and never
// keep hidden state: two strategies fed identically seeded Rngs produce the
// same values, which is what makes a fuzz run replayable from its seed.
package random

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/schemafuzz/schemafuzz/internal/schema"
)

// Rng is the random source consumed by strategies and generators.
// *rand.Rand from math/rand/v2 satisfies it.
type Rng interface {
	IntN(n int) int
	Int64N(n int64) int64
	Uint64() uint64
	Float64() float64
}

// New returns a ChaCha8 stream seeded from seed.
func New(seed uint64) *rand.Rand {
	return NewStream(seed, 0)
}

// NewStream returns an independent ChaCha8 stream for (seed, stream). Workers
// use the scenario index as stream so that each scenario can be replayed on
// its own.
func NewStream(seed, stream uint64) *rand.Rand {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[0:8], seed)
	binary.LittleEndian.PutUint64(key[8:16], stream)
	return rand.New(rand.NewChaCha8(key))
}

// Bool draws a fair coin.
func Bool(rng Rng) bool {
	return rng.IntN(2) == 1
}

// Strategy produces one random value of type T.
type Strategy[T any] interface {
	Next(rng Rng) T
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc[T any] func(rng Rng) T

// Next calls f(rng).
func (f StrategyFunc[T]) Next(rng Rng) T { return f(rng) }

// Fixed always yields Value and consumes no entropy.
type Fixed[T any] struct {
	Value T
}

// Next returns the fixed value.
func (f Fixed[T]) Next(Rng) T { return f.Value }

// Mapped post-processes the values of another strategy.
type Mapped[T any] struct {
	Base Strategy[T]
	Map  func(rng Rng, v T) T
}

// Next draws from Base and applies Map.
func (m Mapped[T]) Next(rng Rng) T {
	return m.Map(rng, m.Base.Next(rng))
}

// OptionStrategy draws the column options for a column of the given type.
type OptionStrategy interface {
	Options(rng Rng, t schema.DataType) []schema.ColumnOption
}

// OptionStrategyFunc adapts a function to OptionStrategy.
type OptionStrategyFunc func(rng Rng, t schema.DataType) []schema.ColumnOption

// Options calls f(rng, t).
func (f OptionStrategyFunc) Options(rng Rng, t schema.DataType) []schema.ColumnOption {
	return f(rng, t)
}

// FixedOptions always yields a copy of the given options.
func FixedOptions(opts ...schema.ColumnOption) OptionStrategy {
	return OptionStrategyFunc(func(Rng, schema.DataType) []schema.ColumnOption {
		return append([]schema.ColumnOption{}, opts...)
	})
}

// Sequence yields Values in order, wrapping around, and consumes no entropy.
// It keeps a cursor, so a Sequence must not be shared between goroutines.
type Sequence[T any] struct {
	Values []T
	pos    int
}

// Next returns the next value of the sequence.
func (s *Sequence[T]) Next(Rng) T {
	v := s.Values[s.pos%len(s.Values)]
	s.pos++
	return v
}
