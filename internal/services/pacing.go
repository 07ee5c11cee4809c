package services

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Default bounds of the pause between two additions
const (
	DefaultMinDelay = 5 * time.Second
	DefaultMaxDelay = 15 * time.Second
)

// Pacer decides how long to wait before the next addition
type Pacer interface {
	Next() time.Duration
}

// UniformJitter draws a delay uniformly from [Min, Max] at millisecond granularity
type UniformJitter struct {
	Min time.Duration
	Max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformJitter creates a pacer with a random seed
func NewUniformJitter(min, max time.Duration) *UniformJitter {
	return &UniformJitter{Min: min, Max: max, rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededJitter creates a reproducible pacer
func NewSeededJitter(min, max time.Duration, seed uint64) *UniformJitter {
	return &UniformJitter{Min: min, Max: max, rng: rand.New(rand.NewPCG(seed, seed))}
}

func (u *UniformJitter) Next() time.Duration {
	lo, hi := u.Min.Milliseconds(), u.Max.Milliseconds()
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi == lo {
		return time.Duration(lo) * time.Millisecond
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.rng == nil {
		u.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return time.Duration(lo+u.rng.Int64N(hi-lo+1)) * time.Millisecond
}

// FixedDelay always returns the same delay
type FixedDelay time.Duration

func (f FixedDelay) Next() time.Duration {
	return time.Duration(f)
}
