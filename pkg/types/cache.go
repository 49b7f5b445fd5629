package types

import "time"

// CacheEnvelopeVersion is the envelope format written by this version of the cache store
const CacheEnvelopeVersion = 1

// CacheEnvelope is the unit persisted to disk for one account and region.
// It is always replaced wholesale, never patched.
type CacheEnvelope struct {
	Version      int              `json:"version,omitempty"`
	WrittenTime  time.Time        `json:"written_time"`
	InstanceData []InstanceRecord `json:"instance_data"`
}

// Age returns how long ago the envelope was written relative to now
func (e CacheEnvelope) Age(now time.Time) time.Duration {
	return now.Sub(e.WrittenTime)
}
