// Package resolver produces the current instance set for an account and region,
// preferring a fresh disk cache over a live provider call.
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/scttfrdmn/ashuf/internal/cache"
	"github.com/scttfrdmn/ashuf/internal/normalize"
	"github.com/scttfrdmn/ashuf/pkg/types"
	"go.uber.org/zap"
)

// LiveFetchFunc returns the raw provider records for one region
type LiveFetchFunc func(ctx context.Context) ([]normalize.RawInstance, error)

// Cache is the storage the resolver reads from and refreshes
type Cache interface {
	Read(account, region string) (types.CacheEnvelope, error)
	Write(account, region string, instances []types.InstanceRecord) error
}

var _ Cache = (*cache.Store)(nil)

// Source tells where a resolution's instances came from
type Source string

const (
	SourceCache Source = "cache"
	SourceLive  Source = "live"
	SourceNone  Source = "none" // live fetch failed
)

// Request identifies what to resolve and how
type Request struct {
	AccountID   string
	Region      string
	TTL         time.Duration
	BypassCache bool
}

// Result is the resolved instance set
type Result struct {
	Instances []types.InstanceRecord
	Source    Source
}

// Resolver orchestrates the cache and the live fetch
type Resolver struct {
	logger *zap.Logger
	cache  Cache
	now    func() time.Time
}

// New creates a resolver backed by c
func New(logger *zap.Logger, c Cache) *Resolver {
	return &Resolver{
		logger: logger,
		cache:  c,
		now:    time.Now,
	}
}

// Resolve returns the instance set for req. Cache problems and live fetch
// failures are logged and never returned; only normalization failures are.
func (r *Resolver) Resolve(ctx context.Context, req Request, fetch LiveFetchFunc) (Result, error) {
	logger := r.logger.With(
		zap.String("account_id", req.AccountID),
		zap.String("region", req.Region))

	if !req.BypassCache {
		envelope, err := r.cache.Read(req.AccountID, req.Region)
		switch {
		case err != nil:
			logger.Debug("Instance cache unavailable, fetching live", zap.Error(err))
		case !cache.IsFresh(envelope, req.TTL, r.now()):
			logger.Debug("Instance cache expired, fetching live",
				zap.Time("written_time", envelope.WrittenTime),
				zap.Duration("ttl", req.TTL))
		default:
			logger.Debug("Using cached instances", zap.Int("instances", len(envelope.InstanceData)))
			return Result{Instances: envelope.InstanceData, Source: SourceCache}, nil
		}
	}

	return r.refresh(ctx, logger, req, fetch)
}

// refresh fetches live, normalizes and replaces the cache entry
func (r *Resolver) refresh(ctx context.Context, logger *zap.Logger, req Request, fetch LiveFetchFunc) (Result, error) {
	raw, err := fetch(ctx)
	if err != nil {
		logger.Warn("Live instance fetch failed, returning no instances", zap.Error(err))
		return Result{Instances: []types.InstanceRecord{}, Source: SourceNone}, nil
	}

	instances, err := normalize.Normalize(raw)
	if err != nil {
		return Result{}, fmt.Errorf("failed to normalize instances: %w", err)
	}

	if err := r.cache.Write(req.AccountID, req.Region, instances); err != nil {
		logger.Warn("Failed to write instance cache", zap.Error(err))
	}

	logger.Debug("Fetched live instances", zap.Int("instances", len(instances)))
	return Result{Instances: instances, Source: SourceLive}, nil
}
