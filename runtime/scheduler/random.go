package scheduler

import (
	"math/rand/v2"
	"time"
)

// Random is the single seedable source of service durations.
type Random struct {
	src *rand.PCG
	rnd *rand.Rand
}

// NewRandom creates a source seeded with seed.
func NewRandom(seed uint64) *Random {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Random{src: src, rnd: rand.New(src)}
}

// MarshalBinary returns the generator state.
func (r *Random) MarshalBinary() ([]byte, error) {
	return r.src.MarshalBinary()
}

// UnmarshalBinary restores a state returned by MarshalBinary, so that the
// source continues the stream it was saved from.
func (r *Random) UnmarshalBinary(data []byte) error {
	return r.src.UnmarshalBinary(data)
}

// Between returns a duration uniformly drawn from [min, max] at one second
// resolution. When max <= min it returns min.
func (r *Random) Between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	span := int64((max - min) / time.Second)
	if span <= 0 {
		return min
	}
	return min + time.Duration(r.rnd.Int64N(span+1))*time.Second
}
