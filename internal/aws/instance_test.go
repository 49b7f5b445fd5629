package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/scttfrdmn/ashuf/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRawInstance_Normalizes(t *testing.T) {
	inst := instance("i-1", "10.0.0.1", nameTag("web-a"), types.Tag{Key: aws.String("Tier")})
	inst.PublicIpAddress = aws.String("54.0.0.1")
	inst.NetworkInterfaces = []types.InstanceNetworkInterface{
		{PrivateIpAddress: aws.String("10.0.1.5")},
		{PrivateIpAddress: aws.String("10.0.0.1")},
		{},
	}

	record, err := normalize.NormalizeOne(NewRawInstance(inst))
	require.NoError(t, err)

	assert.Equal(t, "i-1", record.InstanceID)
	assert.Equal(t, "running", string(record.StateName))
	assert.Equal(t, "2024-03-01T12:00:00Z", record.LaunchTime)
	assert.Equal(t, "us-east-1a", record.AvailabilityZone)
	assert.Equal(t, "ami-123", record.ImageAMI)
	assert.Equal(t, []string{"10.0.1.5", "10.0.0.1"}, record.PrivateIPAddresses)
	assert.Equal(t, []string{"54.0.0.1"}, record.PublicIPAddresses)
	assert.Equal(t, map[string]string{"Name": "web-a"}, record.Tags)
}

func TestNewRawInstance_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		strip func(*types.Instance)
		field string
	}{
		{"no id", func(i *types.Instance) { i.InstanceId = nil }, normalize.FieldInstanceID},
		{"no state", func(i *types.Instance) { i.State = nil }, normalize.FieldStateName},
		{"empty state name", func(i *types.Instance) { i.State = &types.InstanceState{} }, normalize.FieldStateName},
		{"no launch time", func(i *types.Instance) { i.LaunchTime = nil }, normalize.FieldLaunchTime},
		{"no placement", func(i *types.Instance) { i.Placement = nil }, normalize.FieldAvailabilityZone},
		{"no image", func(i *types.Instance) { i.ImageId = nil }, normalize.FieldImageID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := instance("i-1", "10.0.0.1")
			tt.strip(&inst)

			_, err := normalize.NormalizeOne(NewRawInstance(inst))
			var missing *normalize.MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.field, missing.Field)
		})
	}
}

func TestInstancesOf(t *testing.T) {
	raw := instancesOf([]types.Reservation{
		{Instances: []types.Instance{instance("i-1", "10.0.0.1")}},
		{},
		{Instances: []types.Instance{instance("i-2", "10.0.0.2"), instance("i-3", "10.0.0.3")}},
	})
	assert.Equal(t, []string{"i-1", "i-2", "i-3"}, idsOf(t, raw))
	assert.Empty(t, instancesOf(nil))
}
