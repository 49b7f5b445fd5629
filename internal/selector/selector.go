// Package selector draws one instance uniformly at random from a matched set.
package selector

import (
	"errors"
	"math/rand/v2"

	"github.com/samber/lo"
	"github.com/scttfrdmn/ashuf/pkg/types"
)

// ErrEmptySet means no instance matched, so there was nothing to choose from
var ErrEmptySet = errors.New("no instance matched")

// SelectOne returns a uniformly random element of matches.
// A nil rng uses the process-wide source.
func SelectOne(matches []types.InstanceRecord, rng *rand.Rand) (types.InstanceRecord, error) {
	if len(matches) == 0 {
		return types.InstanceRecord{}, ErrEmptySet
	}

	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}
	return lo.SampleBy(matches, intN), nil
}
