package selector

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/scttfrdmn/ashuf/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(ids ...string) []types.InstanceRecord {
	out := make([]types.InstanceRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.InstanceRecord{InstanceID: id})
	}
	return out
}

func TestSelectOne_Empty(t *testing.T) {
	_, err := SelectOne(nil, nil)
	assert.True(t, errors.Is(err, ErrEmptySet))

	_, err = SelectOne([]types.InstanceRecord{}, rand.New(rand.NewPCG(1, 2)))
	assert.True(t, errors.Is(err, ErrEmptySet))
}

func TestSelectOne_Singleton(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 50; i++ {
		chosen, err := SelectOne(records("i-only"), rng)
		require.NoError(t, err)
		assert.Equal(t, "i-only", chosen.InstanceID)
	}
}

func TestSelectOne_DeterministicWithSeed(t *testing.T) {
	matches := records("i-1", "i-2", "i-3", "i-4")

	first, err := SelectOne(matches, rand.New(rand.NewPCG(42, 1)))
	require.NoError(t, err)
	second, err := SelectOne(matches, rand.New(rand.NewPCG(42, 1)))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSelectOne_CoversEveryElement(t *testing.T) {
	matches := records("i-1", "i-2", "i-3")
	rng := rand.New(rand.NewPCG(3, 9))

	counts := map[string]int{}
	const draws = 3000
	for i := 0; i < draws; i++ {
		chosen, err := SelectOne(matches, rng)
		require.NoError(t, err)
		counts[chosen.InstanceID]++
	}

	require.Len(t, counts, 3)
	for id, n := range counts {
		// Expected 1000 each; the bound is loose enough to never flake
		assert.InDelta(t, draws/3, n, 200, "instance %s", id)
	}
}

func TestSelectOne_DefaultSource(t *testing.T) {
	chosen, err := SelectOne(records("i-1", "i-2"), nil)
	require.NoError(t, err)
	assert.Contains(t, []string{"i-1", "i-2"}, chosen.InstanceID)
}
