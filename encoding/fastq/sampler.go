package fastq

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Sampler passes through a random subset of the reads of a Source. Each read
// is kept with probability rate, drawn from a generator seeded with seed, so
// the same input, rate and seed always select the same reads.
type Sampler struct {
	src    Source
	rate   float64
	random *rand.Rand
}

// NewSampler wraps src. Rate must be in [0, 1].
func NewSampler(src Source, rate float64, seed int64) (*Sampler, error) {
	if rate < 0.0 || rate > 1.0 {
		return nil, errors.Errorf("sampling rate %v must be between 0 and 1 (inclusive)", rate)
	}
	return &Sampler{src: src, rate: rate, random: rand.New(rand.NewSource(seed))}, nil
}

// Scan implements Source.
func (s *Sampler) Scan(read *Read) bool {
	for s.src.Scan(read) {
		if s.random.Float64() < s.rate {
			return true
		}
	}
	return false
}

// Err implements Source.
func (s *Sampler) Err() error { return s.src.Err() }
