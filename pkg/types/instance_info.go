package types

// NameTag is the tag key most operators name their instances by
const NameTag = "Name"

// Name returns the value of the Name tag, or the instance ID when the tag is absent
func (r InstanceRecord) Name() string {
	if name, ok := r.Tags[NameTag]; ok && name != "" {
		return name
	}
	return r.InstanceID
}

// Address picks the address to reach the instance on.
// The preferred family is used when present, otherwise the other one.
func (r InstanceRecord) Address(preferPublic bool) (string, bool) {
	first, second := r.PrivateIPAddresses, r.PublicIPAddresses
	if preferPublic {
		first, second = second, first
	}
	if len(first) > 0 {
		return first[0], true
	}
	if len(second) > 0 {
		return second[0], true
	}
	return "", false
}
