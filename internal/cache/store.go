// Package cache persists resolved instance sets to disk, one file per account and region.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/scttfrdmn/ashuf/pkg/types"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	fileSuffix = "_ec2_instances.json"
	tmpSuffix  = ".tmp"
)

// Key parts are joined with "_", so they may not contain it
var keyPartPattern = regexp.MustCompile(`^[A-Za-z0-9.-]+$`)

// Store reads and writes cache envelopes under a single directory.
// Concurrent writers are not coordinated: the last rename wins.
type Store struct {
	logger *zap.Logger
	dir    string
	now    func() time.Time

	// beforeRename runs after the temp file is closed; tests use it to fail the write
	beforeRename func(tmpPath string) error
}

// NewStore creates a store rooted at dir. The directory is created on first write.
func NewStore(logger *zap.Logger, dir string) *Store {
	return &Store{
		logger: logger,
		dir:    dir,
		now:    time.Now,
	}
}

// Dir returns the cache directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the cache file for an account and region
func (s *Store) Path(account, region string) (string, error) {
	for _, part := range []string{account, region} {
		if !keyPartPattern.MatchString(part) {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, part)
		}
	}
	return filepath.Join(s.dir, account+"_"+region+fileSuffix), nil
}

// Read loads the envelope for an account and region. Any failure wraps ErrUnavailable.
func (s *Store) Read(account, region string) (types.CacheEnvelope, error) {
	path, err := s.Path(account, region)
	if err != nil {
		return types.CacheEnvelope{}, unavailable("", err)
	}

	envelope, err := ReadFile(path)
	if err != nil {
		return types.CacheEnvelope{}, err
	}

	s.logger.Debug("Read instance cache",
		zap.String("path", path),
		zap.Time("written_time", envelope.WrittenTime),
		zap.Int("instances", len(envelope.InstanceData)))

	return envelope, nil
}

// ReadFile loads and checks a single envelope file. Any failure wraps ErrUnavailable.
func ReadFile(path string) (types.CacheEnvelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.CacheEnvelope{}, unavailable(path, err)
	}

	var envelope types.CacheEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return types.CacheEnvelope{}, unavailable(path, fmt.Errorf("failed to decode envelope: %w", err))
	}
	if envelope.Version > types.CacheEnvelopeVersion {
		return types.CacheEnvelope{}, unavailable(path, fmt.Errorf("unsupported envelope version %d", envelope.Version))
	}
	if envelope.WrittenTime.IsZero() {
		return types.CacheEnvelope{}, unavailable(path, fmt.Errorf("envelope has no written_time"))
	}
	return envelope, nil
}

// Write replaces the envelope for an account and region with instances.
// The envelope is written to <path>.tmp, synced, closed and renamed over
// <path>, so readers see either the previous file or the new one.
func (s *Store) Write(account, region string, instances []types.InstanceRecord) error {
	path, err := s.Path(account, region)
	if err != nil {
		return writeFailed("", err)
	}

	if instances == nil {
		instances = []types.InstanceRecord{}
	}
	envelope := types.CacheEnvelope{
		Version:      types.CacheEnvelopeVersion,
		WrittenTime:  s.now().UTC(),
		InstanceData: instances,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return writeFailed(path, fmt.Errorf("failed to encode envelope: %w", err))
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return writeFailed(path, fmt.Errorf("failed to create cache directory: %w", err))
	}

	tmpPath := path + tmpSuffix
	if err := writeSynced(tmpPath, data); err != nil {
		os.Remove(tmpPath)
		return writeFailed(path, err)
	}

	if s.beforeRename != nil {
		if err := s.beforeRename(tmpPath); err != nil {
			os.Remove(tmpPath)
			return writeFailed(path, err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return writeFailed(path, fmt.Errorf("failed to rename temp file: %w", err))
	}

	s.logger.Debug("Wrote instance cache",
		zap.String("path", path),
		zap.Int("instances", len(instances)))

	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return nil
}

// IsFresh reports whether envelope is younger than ttl at now.
// An envelope exactly ttl old is expired. A written_time in the future means
// the clock moved backwards, and such an envelope is treated as expired.
func IsFresh(envelope types.CacheEnvelope, ttl time.Duration, now time.Time) bool {
	age := envelope.Age(now)
	if age < 0 {
		return false
	}
	return age < ttl
}
