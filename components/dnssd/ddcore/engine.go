package ddcore

import "sync"

// DNS resource record constants used by address queries.
const (
	// RRTypeA is the A resource record type (IPv4 address).
	RRTypeA = 1

	// RRTypeAAAA is the AAAA resource record type (IPv6 address).
	RRTypeAAAA = 28

	// RRClassIN is the Internet resource record class.
	RRClassIN = 1
)

// Handle is a cancellable native discovery registration.
type Handle interface {
	// Cancel releases the registration.
	//
	// Remarks:
	//   - Safe to call multiple times.
	//   - Safe to call concurrently with in-flight listener callbacks.
	Cancel()
}

// NewFuncHandle wraps release into a Handle.
//
// Cancel invokes release exactly once, no matter how many times or from how
// many goroutines it is called.
func NewFuncHandle(release func()) Handle {
	return &funcHandle{release: release}
}

type funcHandle struct {
	once    sync.Once
	release func()
}

func (h *funcHandle) Cancel() {
	h.once.Do(h.release)
}

// BrowseListener receives browse notifications from the engine.
//
// Callbacks may be invoked from the engine's own notification goroutines.
type BrowseListener interface {
	// ServiceFound is invoked when a service instance appears on the network.
	ServiceFound(ifIndex int, instance string, service string, domain string)

	// ServiceLost is invoked when a service instance disappears from the network.
	ServiceLost(ifIndex int, instance string, service string, domain string)

	// BrowseFailed is invoked when browsing fails asynchronously.
	BrowseFailed(err error)
}

// ResolveListener receives the result of a resolve operation.
type ResolveListener interface {
	// ServiceResolved is invoked when the service is resolved to a hostname,
	// port and TXT record. txt is in the TXT record wire format.
	ServiceResolved(ifIndex int, hostname string, port int, txt []byte)

	// ResolveFailed is invoked when resolving fails asynchronously.
	ResolveFailed(err error)
}

// QueryListener receives answered resource records.
type QueryListener interface {
	// RecordAnswered is invoked for every answered record. rdata is the raw
	// record payload: 4 bytes for an A record, 16 bytes for an AAAA record.
	RecordAnswered(ifIndex int, hostname string, rrType int, rdata []byte)

	// QueryFailed is invoked when the query fails asynchronously.
	QueryFailed(err error)
}

// RegisterListener receives the registration confirmation.
type RegisterListener interface {
	// ServiceRegistered is invoked with the actually assigned identity, which
	// may differ from the requested one if a name conflict was auto-resolved.
	ServiceRegistered(instance string, service string, domain string)

	// RegisterFailed is invoked when the registration fails asynchronously.
	RegisterFailed(err error)
}

// Engine is the underlying multicast discovery protocol implementation.
//
// Every operation either fails synchronously or returns a handle that
// releases the registration. Listener callbacks are delivered asynchronously
// on the engine's own goroutines.
type Engine interface {
	// Browse starts browsing for instances of the service type on the
	// interface with index ifIndex, zero for all interfaces.
	Browse(ifIndex int, service string, domain string, listener BrowseListener) (Handle, error)

	// Resolve resolves a single service instance to hostname, port and TXT record.
	Resolve(ifIndex int, instance string, service string, domain string,
		listener ResolveListener) (Handle, error)

	// QueryRecord queries resource records of the given type and class for hostname.
	QueryRecord(ifIndex int, hostname string, rrType int, rrClass int,
		listener QueryListener) (Handle, error)

	// Register announces a service instance on the network. txt is in the
	// TXT record wire format. hostname may be empty to use the local host.
	Register(ifIndex int, instance string, service string, domain string,
		hostname string, port int, txt []byte, listener RegisterListener) (Handle, error)
}
