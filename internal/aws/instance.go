package aws

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/scttfrdmn/ashuf/internal/normalize"
)

// ec2Instance exposes an EC2 SDK instance as a normalize.RawInstance
type ec2Instance struct {
	inst types.Instance
}

var _ normalize.RawInstance = ec2Instance{}

// NewRawInstance wraps an EC2 SDK instance for normalization
func NewRawInstance(inst types.Instance) normalize.RawInstance {
	return ec2Instance{inst: inst}
}

func (e ec2Instance) InstanceID() (string, bool) {
	return optional(e.inst.InstanceId)
}

func (e ec2Instance) StateName() (string, bool) {
	if e.inst.State == nil || e.inst.State.Name == "" {
		return "", false
	}
	return string(e.inst.State.Name), true
}

func (e ec2Instance) LaunchTime() (string, bool) {
	if e.inst.LaunchTime == nil {
		return "", false
	}
	return e.inst.LaunchTime.UTC().Format(time.RFC3339), true
}

func (e ec2Instance) AvailabilityZone() (string, bool) {
	if e.inst.Placement == nil {
		return "", false
	}
	return optional(e.inst.Placement.AvailabilityZone)
}

func (e ec2Instance) ImageID() (string, bool) {
	return optional(e.inst.ImageId)
}

func (e ec2Instance) PrivateIPAddress() (string, bool) {
	return optional(e.inst.PrivateIpAddress)
}

func (e ec2Instance) PublicIPAddress() (string, bool) {
	return optional(e.inst.PublicIpAddress)
}

func (e ec2Instance) InterfacePrivateIPAddresses() []string {
	var addrs []string
	for _, eni := range e.inst.NetworkInterfaces {
		if eni.PrivateIpAddress != nil {
			addrs = append(addrs, aws.ToString(eni.PrivateIpAddress))
		}
	}
	return addrs
}

func (e ec2Instance) TagPairs() []normalize.TagPair {
	pairs := make([]normalize.TagPair, 0, len(e.inst.Tags))
	for _, tag := range e.inst.Tags {
		pairs = append(pairs, normalize.TagPair{Key: tag.Key, Value: tag.Value})
	}
	return pairs
}

func optional(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

// instancesOf flattens reservations; callers only ever care about instances
func instancesOf(reservations []types.Reservation) []normalize.RawInstance {
	var instances []normalize.RawInstance
	for _, reservation := range reservations {
		for _, inst := range reservation.Instances {
			instances = append(instances, NewRawInstance(inst))
		}
	}
	return instances
}
