package normalize

// TagPair is one key/value tag as providers report it. Either side may be missing.
type TagPair struct {
	Key   *string
	Value *string
}

// RawInstance is the provider record shape the normalizer reads from.
// Optional scalar fields report presence through the second return value.
type RawInstance interface {
	InstanceID() (string, bool)
	StateName() (string, bool)
	LaunchTime() (string, bool)
	AvailabilityZone() (string, bool)
	ImageID() (string, bool)

	// Classic-style top level addresses
	PrivateIPAddress() (string, bool)
	PublicIPAddress() (string, bool)

	// Private addresses of attached network interfaces
	InterfacePrivateIPAddresses() []string

	TagPairs() []TagPair
}

// Record is a plain RawInstance for fixtures and providers without an SDK type.
// Nil pointers are absent fields.
type Record struct {
	ID           *string
	State        *string
	Launched     *string
	Zone         *string
	Image        *string
	PrivateIP    *string
	PublicIP     *string
	InterfaceIPs []string
	Tags         []TagPair
}

var _ RawInstance = Record{}

func (r Record) InstanceID() (string, bool) { return deref(r.ID) }
func (r Record) StateName() (string, bool) { return deref(r.State) }
func (r Record) LaunchTime() (string, bool) { return deref(r.Launched) }
func (r Record) AvailabilityZone() (string, bool) { return deref(r.Zone) }
func (r Record) ImageID() (string, bool) { return deref(r.Image) }
func (r Record) PrivateIPAddress() (string, bool) { return deref(r.PrivateIP) }
func (r Record) PublicIPAddress() (string, bool) { return deref(r.PublicIP) }

func (r Record) InterfacePrivateIPAddresses() []string { return r.InterfaceIPs }
func (r Record) TagPairs() []TagPair { return r.Tags }

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

// Tag builds a TagPair with both sides present
func Tag(key, value string) TagPair {
	return TagPair{Key: &key, Value: &value}
}
