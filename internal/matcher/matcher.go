// Package matcher selects instances whose tag values match a regular expression.
package matcher

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/samber/lo"
	"github.com/scttfrdmn/ashuf/pkg/types"
)

// DefaultTagKeys is the tag priority used when none is configured
var DefaultTagKeys = []string{"Name", "Tier"}

// ErrInvalidPattern is returned when the pattern does not compile
var ErrInvalidPattern = errors.New("invalid pattern")

// MatchPartition splits a set of instances into those that matched and the remainder
type MatchPartition struct {
	Matched   []types.InstanceRecord
	Unmatched []types.InstanceRecord
}

// Matcher holds a compiled pattern and the tag keys in priority order
type Matcher struct {
	re      *regexp.Regexp
	tagKeys []string
}

// New compiles pattern once for use against every tag key
func New(pattern string, tagKeys []string) (*Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	return &Matcher{
		re:      re,
		tagKeys: lo.Uniq(tagKeys),
	}, nil
}

// TagKeys returns the tag keys in the order they are tried
func (m *Matcher) TagKeys() []string {
	return append([]string(nil), m.tagKeys...)
}

// Match runs one partition pass per tag key over the remainder of the previous
// pass. An instance is claimed by the first tag key it matches on and is not
// looked at again.
func (m *Matcher) Match(instances []types.InstanceRecord) MatchPartition {
	matched := make([]types.InstanceRecord, 0)
	remainder := append([]types.InstanceRecord(nil), instances...)

	for _, key := range m.tagKeys {
		var hits []types.InstanceRecord
		hits, remainder = Partition(m.re, key, remainder)
		matched = append(matched, hits...)
	}

	return MatchPartition{
		Matched:   matched,
		Unmatched: remainder,
	}
}

// Partition splits instances by whether their tagKey value exists and matches re.
// Relative order is preserved on both sides.
func Partition(re *regexp.Regexp, tagKey string, instances []types.InstanceRecord) (matched, unmatched []types.InstanceRecord) {
	return lo.FilterReject(instances, func(inst types.InstanceRecord, _ int) bool {
		value, ok := inst.Tags[tagKey]
		return ok && re.MatchString(value)
	})
}

// MatchByTags compiles pattern and returns the instances matching on any of tagKeys
func MatchByTags(pattern string, tagKeys []string, instances []types.InstanceRecord) ([]types.InstanceRecord, error) {
	m, err := New(pattern, tagKeys)
	if err != nil {
		return nil, err
	}
	return m.Match(instances).Matched, nil
}
