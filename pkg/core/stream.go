package core

import (
	"math/rand/v2"
)

// Stream is an independent random-number stream. A stream belongs to exactly
// one goroutine at a time; it is passed by ownership, never shared.
type Stream struct {
	random *rand.Rand
	draws  uint64
}

// NewStream creates the stream identified by (seed, id). Distinct ids give
// statistically independent sequences for the same seed.
func NewStream(seed, id uint64) *Stream {
	return &Stream{
		random: rand.New(rand.NewPCG(splitmix64(seed), splitmix64(id^0x6a09e667f3bcc909))),
	}
}

// Get1D returns a random float64 in [0, 1)
func (s *Stream) Get1D() float64 {
	s.draws++
	return s.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (s *Stream) Get2D() Vec2 {
	s.draws += 2
	return NewVec2(s.random.Float64(), s.random.Float64())
}

// Draws returns how many uniform variates the stream has produced
func (s *Stream) Draws() uint64 {
	return s.draws
}

// splitmix64 scrambles nearby integers into well separated generator seeds
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
