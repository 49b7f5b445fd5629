// Package lookup answers "which instances match this pattern" and "pick one of
// them" on top of the resolver, matcher and selector.
package lookup

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/scttfrdmn/ashuf/internal/matcher"
	"github.com/scttfrdmn/ashuf/internal/resolver"
	"github.com/scttfrdmn/ashuf/internal/selector"
	"github.com/scttfrdmn/ashuf/pkg/types"
	"go.uber.org/zap"
)

// Options describes one lookup
type Options struct {
	AccountID   string
	Region      string
	TTL         time.Duration
	BypassCache bool
	Pattern     string
	TagKeys     []string
}

// Service runs lookups against one live source
type Service struct {
	logger   *zap.Logger
	resolver *resolver.Resolver
	fetch    resolver.LiveFetchFunc
}

// NewService creates a lookup service
func NewService(logger *zap.Logger, res *resolver.Resolver, fetch resolver.LiveFetchFunc) *Service {
	return &Service{
		logger:   logger,
		resolver: res,
		fetch:    fetch,
	}
}

// Matches returns the instances whose tags match opts.Pattern, in match order
func (s *Service) Matches(ctx context.Context, opts Options) ([]types.InstanceRecord, error) {
	// Compile first so a bad pattern never costs a provider call
	m, err := matcher.New(opts.Pattern, opts.TagKeys)
	if err != nil {
		return nil, err
	}

	result, err := s.resolver.Resolve(ctx, resolver.Request{
		AccountID:   opts.AccountID,
		Region:      opts.Region,
		TTL:         opts.TTL,
		BypassCache: opts.BypassCache,
	}, s.fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve instances: %w", err)
	}

	partition := m.Match(result.Instances)

	s.logger.Debug("Matched instances",
		zap.String("pattern", opts.Pattern),
		zap.Strings("tag_keys", m.TagKeys()),
		zap.String("source", string(result.Source)),
		zap.Int("matched", len(partition.Matched)),
		zap.Int("unmatched", len(partition.Unmatched)))

	return partition.Matched, nil
}

// Pick returns one uniformly chosen match. selector.ErrEmptySet is returned
// when nothing matches.
func (s *Service) Pick(ctx context.Context, opts Options, rng *rand.Rand) (types.InstanceRecord, error) {
	matches, err := s.Matches(ctx, opts)
	if err != nil {
		return types.InstanceRecord{}, err
	}
	return selector.SelectOne(matches, rng)
}
