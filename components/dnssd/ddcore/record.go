package ddcore

import "net"

// Event describes the life-cycle state of a discovered service instance.
type Event int

const (
	// EventAdded indicates that a service instance appeared on the network.
	EventAdded Event = iota

	// EventRemoved indicates that a previously discovered service instance is gone.
	// A removed record carries identity fields only and is never enriched further.
	EventRemoved
)

// String returns string representation of the event.
func (e Event) String() string {
	switch e {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	default:
		return "<none>"
	}
}

// ServiceRecord is a snapshot of a single DNS-SD service instance.
//
// A record is enriched progressively: browsing fills the identity fields,
// resolving adds hostname, port and TXT records, address queries add IP
// addresses. Later snapshots of the same logical service never drop fields
// known to earlier ones.
type ServiceRecord struct {
	// Event is the life-cycle state of the service instance.
	Event Event

	// IfIndex is the index of the network interface the service was observed on.
	// Resolve and query operations for this record are scoped to the same
	// interface. Zero means all interfaces.
	IfIndex int

	// Instance is the service instance name, e.g. "Office Printer".
	Instance string

	// Service is the service registration type, e.g. "_ipp._tcp".
	Service string

	// Domain is the discovery domain, e.g. "local.".
	Domain string

	// Hostname is the host machine DNS name, populated by resolving.
	Hostname string

	// Port is the service port, populated by resolving.
	Port int

	// Txt contains decoded TXT key/value records, populated by resolving.
	Txt map[string]string

	// Addrs contains resolved IP addresses, populated by address queries,
	// one address family at a time.
	Addrs []net.IP
}

// Same reports whether two records describe the same logical service instance.
func (r ServiceRecord) Same(other ServiceRecord) bool {
	return r.Instance == other.Instance &&
		r.Service == other.Service &&
		r.Domain == other.Domain &&
		r.IfIndex == other.IfIndex
}

// Clone returns a deep copy of the record.
func (r ServiceRecord) Clone() ServiceRecord {
	rec := r

	if r.Txt != nil {
		rec.Txt = make(map[string]string, len(r.Txt))

		for key, value := range r.Txt {
			rec.Txt[key] = value
		}
	}

	if r.Addrs != nil {
		rec.Addrs = make([]net.IP, len(r.Addrs))
		copy(rec.Addrs, r.Addrs)
	}

	return rec
}
