package normalize

import (
	"errors"
	"testing"

	"github.com/scttfrdmn/ashuf/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func completeRecord(id string) Record {
	return Record{
		ID:       str(id),
		State:    str("running"),
		Launched: str("2025-09-13T12:00:00Z"),
		Zone:     str("us-east-1a"),
		Image:    str("ami-0123456789"),
		Tags:     []TagPair{Tag("Name", "web-a")},
	}
}

func TestNormalize_CopiesRequiredFields(t *testing.T) {
	records, err := Normalize([]RawInstance{completeRecord("i-1"), completeRecord("i-2")})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "i-1", records[0].InstanceID)
	assert.Equal(t, "i-2", records[1].InstanceID)
	assert.Equal(t, types.StateRunning, records[0].StateName)
	assert.Equal(t, "2025-09-13T12:00:00Z", records[0].LaunchTime)
	assert.Equal(t, "us-east-1a", records[0].AvailabilityZone)
	assert.Equal(t, "ami-0123456789", records[0].ImageAMI)
	assert.Equal(t, map[string]string{"Name": "web-a"}, records[0].Tags)
	assert.Equal(t, []string{}, records[0].PrivateIPAddresses)
	assert.Equal(t, []string{}, records[0].PublicIPAddresses)
}

func TestNormalize_MissingRequiredField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Record)
		field  string
	}{
		{"instance id absent", func(r *Record) { r.ID = nil }, FieldInstanceID},
		{"instance id empty", func(r *Record) { r.ID = str("") }, FieldInstanceID},
		{"state absent", func(r *Record) { r.State = nil }, FieldStateName},
		{"launch time absent", func(r *Record) { r.Launched = nil }, FieldLaunchTime},
		{"zone absent", func(r *Record) { r.Zone = nil }, FieldAvailabilityZone},
		{"image absent", func(r *Record) { r.Image = nil }, FieldImageID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := completeRecord("i-2")
			tt.mutate(&broken)

			records, err := Normalize([]RawInstance{completeRecord("i-1"), broken})
			require.Error(t, err)
			assert.Nil(t, records, "no partial results")
			assert.True(t, errors.Is(err, ErrMissingField))

			var missing *MissingFieldError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.field, missing.Field)
			assert.Equal(t, 1, missing.Index)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNormalizeOne_MissingFieldHasNoIndex(t *testing.T) {
	r := completeRecord("i-1")
	r.Image = nil

	_, err := NormalizeOne(r)
	require.Error(t, err)
	assert.Equal(t, "missing required field: image_id", err.Error())
}

func TestNormalize_DeduplicatesAddresses(t *testing.T) {
	r := completeRecord("i-1")
	r.InterfaceIPs = []string{"10.0.0.1", "10.0.0.2", "10.0.0.1"}
	r.PrivateIP = str("10.0.0.1")
	r.PublicIP = str("54.0.0.1")

	record, err := NormalizeOne(r)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"10.0.0.1", "10.0.0.2"}, record.PrivateIPAddresses)
	assert.Equal(t, []string{"54.0.0.1"}, record.PublicIPAddresses)
}

func TestNormalize_ClassicOnlyAddresses(t *testing.T) {
	r := completeRecord("i-1")
	r.PrivateIP = str("172.16.0.4")

	record, err := NormalizeOne(r)
	require.NoError(t, err)

	assert.Equal(t, []string{"172.16.0.4"}, record.PrivateIPAddresses)
	assert.Empty(t, record.PublicIPAddresses)
}

func TestNormalize_DropsIncompleteTags(t *testing.T) {
	r := completeRecord("i-1")
	r.Tags = []TagPair{
		Tag("Name", "web-a"),
		Tag("Tier", "web"),
		{Key: str("Orphan")},
		{Value: str("no-key")},
		{},
	}

	record, err := NormalizeOne(r)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"Name": "web-a", "Tier": "web"}, record.Tags)
}

func TestNormalize_Empty(t *testing.T) {
	records, err := Normalize(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
