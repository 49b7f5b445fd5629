// Package normalize flattens provider instance records into types.InstanceRecord.
package normalize

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/scttfrdmn/ashuf/pkg/types"
)

// Required field names as reported in MissingFieldError
const (
	FieldInstanceID       = "instance_id"
	FieldStateName        = "state.name"
	FieldLaunchTime       = "launch_time"
	FieldAvailabilityZone = "placement.availability_zone"
	FieldImageID          = "image_id"
)

// ErrMissingField matches every MissingFieldError
var ErrMissingField = errors.New("missing required field")

// MissingFieldError reports a raw record that lacks a required field
type MissingFieldError struct {
	Index int // position of the record in the input, -1 when normalizing a single record
	Field string
}

func (e *MissingFieldError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
	}
	return fmt.Sprintf("instance %d: %s: %s", e.Index, ErrMissingField, e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Normalize converts raw records into InstanceRecords, keeping input order.
// The first record missing a required field fails the whole call.
func Normalize(raw []RawInstance) ([]types.InstanceRecord, error) {
	records := make([]types.InstanceRecord, 0, len(raw))
	for i, r := range raw {
		record, err := NormalizeOne(r)
		if err != nil {
			var missing *MissingFieldError
			if errors.As(err, &missing) {
				missing.Index = i
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// NormalizeOne converts a single raw record
func NormalizeOne(r RawInstance) (types.InstanceRecord, error) {
	required := []struct {
		field string
		get   func() (string, bool)
	}{
		{FieldInstanceID, r.InstanceID},
		{FieldStateName, r.StateName},
		{FieldLaunchTime, r.LaunchTime},
		{FieldAvailabilityZone, r.AvailabilityZone},
		{FieldImageID, r.ImageID},
	}

	values := make([]string, len(required))
	for i, req := range required {
		v, ok := req.get()
		if !ok || v == "" {
			return types.InstanceRecord{}, &MissingFieldError{Index: -1, Field: req.field}
		}
		values[i] = v
	}

	private, public := addressesOf(r)

	return types.InstanceRecord{
		InstanceID:         values[0],
		PrivateIPAddresses: private,
		PublicIPAddresses:  public,
		StateName:          types.InstanceState(values[1]),
		LaunchTime:         values[2],
		AvailabilityZone:   values[3],
		ImageAMI:           values[4],
		Tags:               tagsOf(r),
	}, nil
}

// addressesOf unions interface and top level addresses. An instance can carry
// both a VPC interface address and a classic address; duplicates collapse.
func addressesOf(r RawInstance) (private, public []string) {
	candidates := append([]string{}, r.InterfacePrivateIPAddresses()...)
	if addr, ok := r.PrivateIPAddress(); ok {
		candidates = append(candidates, addr)
	}
	private = lo.Uniq(lo.Compact(candidates))

	public = []string{}
	if addr, ok := r.PublicIPAddress(); ok && addr != "" {
		public = append(public, addr)
	}
	return private, public
}

// tagsOf flattens tag pairs, dropping any pair without both key and value
func tagsOf(r RawInstance) map[string]string {
	tags := make(map[string]string)
	for _, pair := range r.TagPairs() {
		if pair.Key == nil || pair.Value == nil {
			continue
		}
		tags[*pair.Key] = *pair.Value
	}
	return tags
}
