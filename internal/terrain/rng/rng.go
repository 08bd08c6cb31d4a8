// Package rng provides the deterministic random streams used by terrain
// generation. Every stream is owned by the component that creates it.
package rng

import "terrainforge.ai/internal/logic/mathx"

const (
	lcgMul = 1664525
	lcgInc = 1013904223

	tileMulX = 73856093
	tileMulZ = 19349663
)

// Stream is a 32-bit linear congruential generator. It is not safe for
// concurrent use; give each goroutine its own stream.
type Stream struct {
	state uint32
}

// NewSeeded returns a stream seeded with the low 32 bits of seed.
func NewSeeded(seed int64) *Stream {
	return &Stream{state: uint32(seed)}
}

// NewTile returns a stream keyed by a base seed, a tile coordinate and a
// salt naming the subsystem. Different salts at the same tile give
// independent streams.
func NewTile(baseSeed int64, tileX, tileZ int, salt string) *Stream {
	s := uint32(baseSeed)
	s ^= mathx.Hash32(uint32(int32(tileX) * tileMulX))
	s ^= mathx.Hash32(uint32(int32(tileZ) * tileMulZ))
	s ^= djb2(salt)
	return &Stream{state: s}
}

// NextUint32 advances the generator and returns the raw state.
func (s *Stream) NextUint32() uint32 {
	s.state = lcgMul*s.state + lcgInc
	return s.state
}

// Next returns the next value in [0, 1).
func (s *Stream) Next() float64 {
	return float64(s.NextUint32()) / 4294967296.0
}

// Intn returns a value in [0, n). n must be > 0.
func (s *Stream) Intn(n int) int {
	v := int(s.Next() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Func exposes the stream as a zero-argument closure.
func (s *Stream) Func() func() float64 {
	return s.Next
}

func djb2(salt string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(salt); i++ {
		h = h*33 + uint32(salt[i])
	}
	return h
}
