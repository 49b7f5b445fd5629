package types

// InstanceState is the provider lifecycle state of an instance
type InstanceState string

const (
	StatePending      InstanceState = "pending"
	StateRunning      InstanceState = "running"
	StateShuttingDown InstanceState = "shutting-down"
	StateTerminated   InstanceState = "terminated"
	StateStopping     InstanceState = "stopping"
	StateStopped      InstanceState = "stopped"
)

// KnownStates lists every state EC2 reports for an instance
var KnownStates = []InstanceState{
	StatePending,
	StateRunning,
	StateShuttingDown,
	StateTerminated,
	StateStopping,
	StateStopped,
}

// IsKnown reports whether s is one of the documented lifecycle states
func (s InstanceState) IsKnown() bool {
	for _, known := range KnownStates {
		if s == known {
			return true
		}
	}
	return false
}

// InstanceRecord is a flat, provider independent snapshot of one compute instance
type InstanceRecord struct {
	InstanceID         string            `json:"instance_id"`
	PrivateIPAddresses []string          `json:"private_ip_addresses"`
	PublicIPAddresses  []string          `json:"public_ip_addresses"`
	StateName          InstanceState     `json:"state_name"`
	LaunchTime         string            `json:"launch_time"` // provider format, not reparsed
	AvailabilityZone   string            `json:"availability_zone"`
	ImageAMI           string            `json:"image_ami"`
	Tags               map[string]string `json:"tags"`
}
