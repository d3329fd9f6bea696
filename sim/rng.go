package sim

import (
	"hash/fnv"
	"math/rand"
)

// Names of the random streams a search draws from. Each stream has its own
// source, so how often one is used never shifts the draws of another.
const (
	StreamInit     = "init"     // initial population
	StreamMutation = "mutation" // donor indices and crossover masks
	StreamRepair   = "repair"   // resampling of out-of-bounds trial components
)

// SearchStreams hands out one seeded source per named stream of a search.
// The init stream is seeded with the search seed itself, so a population
// can be rebuilt from --seed alone. Every other stream uses the seed XORed
// with the FNV-1a hash of its name.
//
// Not safe for concurrent use; the search draws from it on its own
// goroutine only.
type SearchStreams struct {
	seed    int64
	streams map[string]*rand.Rand
}

func NewSearchStreams(seed int64) *SearchStreams {
	return &SearchStreams{seed: seed, streams: make(map[string]*rand.Rand)}
}

// Stream returns the source for name, creating it on first use.
func (s *SearchStreams) Stream(name string) *rand.Rand {
	if r, ok := s.streams[name]; ok {
		return r
	}
	seed := s.seed
	if name != StreamInit {
		seed ^= nameHash(name)
	}
	r := rand.New(rand.NewSource(seed))
	s.streams[name] = r
	return r
}

// Seed returns the search seed.
func (s *SearchStreams) Seed() int64 { return s.seed }

func nameHash(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}
