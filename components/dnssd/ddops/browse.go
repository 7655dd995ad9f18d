package ddops

import (
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddcore"
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddstream"
)

// BrowseParams represents various options for a browse operation.
type BrowseParams struct {
	// IfIndex is the network interface to browse on, zero for all interfaces.
	IfIndex int

	// Service is a DNS-SD service type to browse for.
	//
	// Examples:
	//  - Browse for all HTTP services over TCP protocol: "_http._tcp".
	Service string

	// Domain is a discovery domain.
	//
	// Examples:
	//  - Local domain: "local.".
	Domain string
}

// Browse starts browsing for instances of a service type.
//
// Every add/remove notification becomes one service record with the identity
// fields populated and no resolution data. Stop the returned stream to end
// browsing and release the registration.
func Browse(engine ddcore.Engine, params BrowseParams) (*ddstream.Stream, error) {
	return ddstream.Open(func(sink ddstream.Sink) (ddcore.Handle, error) {
		return engine.Browse(params.IfIndex, params.Service, params.Domain,
			&browseListener{sink: sink})
	})
}

// browseListener translates native browse callbacks into service records.
type browseListener struct {
	sink ddstream.Sink
}

func (l *browseListener) ServiceFound(ifIndex int, instance string, service string, domain string) {
	l.sink.Send(identityRecord(ddcore.EventAdded, ifIndex, instance, service, domain))
}

func (l *browseListener) ServiceLost(ifIndex int, instance string, service string, domain string) {
	l.sink.Send(identityRecord(ddcore.EventRemoved, ifIndex, instance, service, domain))
}

func (l *browseListener) BrowseFailed(err error) {
	l.sink.Fail(err)
}

func identityRecord(
	event ddcore.Event,
	ifIndex int,
	instance string,
	service string,
	domain string,
) ddcore.ServiceRecord {
	return ddcore.ServiceRecord{
		Event:    event,
		IfIndex:  ifIndex,
		Instance: instance,
		Service:  service,
		Domain:   domain,
	}
}
