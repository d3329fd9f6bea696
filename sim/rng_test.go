package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchStreams_SameSeedSameDraws(t *testing.T) {
	for _, seed := range []int64{42, 0, -1, math.MaxInt64, math.MinInt64} {
		a, b := NewSearchStreams(seed), NewSearchStreams(seed)
		for i := 0; i < 3; i++ {
			assert.Equal(t, a.Stream(StreamMutation).Float64(), b.Stream(StreamMutation).Float64(), "seed %d draw %d", seed, i)
		}
		assert.Equal(t, seed, a.Seed())
	}
}

func TestSearchStreams_RepairDrawsLeaveMutationUntouched(t *testing.T) {
	// GIVEN a search that has already resampled ten components
	used := NewSearchStreams(42)
	for i := 0; i < 10; i++ {
		used.Stream(StreamRepair).Float64()
	}

	// THEN its mutation stream still matches a fresh one
	fresh := NewSearchStreams(42)
	assert.Equal(t, fresh.Stream(StreamMutation).Float64(), used.Stream(StreamMutation).Float64())
}

func TestSearchStreams_InitStreamFollowsSeed(t *testing.T) {
	s := NewSearchStreams(7)
	assert.Same(t, s.Stream(StreamInit), s.Stream(StreamInit), "sources are reused")

	other := NewSearchStreams(7)
	assert.NotEqual(t, other.Stream(StreamInit).Int63(), other.Stream(StreamMutation).Int63())

	// the init stream is a plain source seeded with the search seed
	assert.Equal(t, NewSearchStreams(7).Stream(StreamInit).Int63(), rand.New(rand.NewSource(7)).Int63())
}
