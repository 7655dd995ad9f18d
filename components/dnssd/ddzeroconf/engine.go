package ddzeroconf

import (
	"context"
	"net"
	"strings"

	"github.com/grandcat/zeroconf"

	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddcore"
)

// Engine implements the discovery engine contract on top of multicast DNS.
//
// Browse, resolve and register operations use the zeroconf library; raw
// A/AAAA record queries are performed directly with the dns library, since
// zeroconf exposes no per-record query primitive.
//
// It was decided to use pure Go libraries for mDNS operations, since the
// internal Go resolver behaves differently depending on the environment it's
// running in. For example, it can properly resolve mDNS addresses when
// running on the host machine, but fails to do so when running in the
// container. It's possible to force the Go runtime to work the same way by
// using CGO and os.Setenv("GODEBUG", "netdns=cgo"). CGO introduces other
// possible problems, and complicates the build process for different
// platforms.
//
// References:
//   - https://github.com/grandcat/zeroconf
//   - https://github.com/miekg/dns
type Engine struct{}

// Browse starts browsing for instances of the service type.
//
// An entry with a zero TTL is a goodbye announcement and is reported as a
// lost service.
func (*Engine) Browse(
	ifIndex int,
	service string,
	domain string,
	listener ddcore.BrowseListener,
) (ddcore.Handle, error) {
	resolver, err := newResolver(ifIndex)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	entries := make(chan *zeroconf.ServiceEntry, entryBufferSize)

	if err := resolver.Browse(ctx, service, domain, entries); err != nil {
		cancel()

		return nil, err
	}

	go func() {
		for entry := range entries {
			if entry.TTL == 0 {
				listener.ServiceLost(ifIndex, entry.Instance, entry.Service, entry.Domain)
			} else {
				listener.ServiceFound(ifIndex, entry.Instance, entry.Service, entry.Domain)
			}
		}
	}()

	return ddcore.NewFuncHandle(cancel), nil
}

// Resolve resolves a single service instance to hostname, port and TXT record.
func (*Engine) Resolve(
	ifIndex int,
	instance string,
	service string,
	domain string,
	listener ddcore.ResolveListener,
) (ddcore.Handle, error) {
	resolver, err := newResolver(ifIndex)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	entries := make(chan *zeroconf.ServiceEntry, entryBufferSize)

	if err := resolver.Lookup(ctx, instance, service, domain, entries); err != nil {
		cancel()

		return nil, err
	}

	go func() {
		for entry := range entries {
			txt, err := encodeTxtStrings(entry.Text)
			if err != nil {
				listener.ResolveFailed(err)

				continue
			}

			listener.ServiceResolved(ifIndex,
				strings.TrimSuffix(entry.HostName, "."), entry.Port, txt)
		}
	}()

	return ddcore.NewFuncHandle(cancel), nil
}

// Register announces a service instance on the network.
//
// zeroconf reports no name conflict renames, so the confirmed identity is
// the requested one.
func (*Engine) Register(
	ifIndex int,
	instance string,
	service string,
	domain string,
	hostname string,
	port int,
	txt []byte,
	listener ddcore.RegisterListener,
) (ddcore.Handle, error) {
	ifaces, err := selectIfaces(ifIndex)
	if err != nil {
		return nil, err
	}

	records := decodeTxtStrings(txt)

	var server *zeroconf.Server

	if hostname != "" {
		server, err = zeroconf.RegisterProxy(
			instance, service, domain, port, hostname, nil, records, ifaces)
	} else {
		server, err = zeroconf.Register(instance, service, domain, port, records, ifaces)
	}
	if err != nil {
		return nil, err
	}

	// The confirmation must not be delivered on the caller's goroutine: the
	// listener blocks until the stream consumer reads, and the consumer only
	// gets the stream after the registration returns.
	go listener.ServiceRegistered(instance, service, domain)

	return ddcore.NewFuncHandle(server.Shutdown), nil
}

func newResolver(ifIndex int) (*zeroconf.Resolver, error) {
	if ifIndex == 0 {
		return zeroconf.NewResolver(nil)
	}

	iface, err := net.InterfaceByIndex(ifIndex)
	if err != nil {
		return nil, err
	}

	return zeroconf.NewResolver(zeroconf.SelectIfaces([]net.Interface{*iface}))
}

// selectIfaces returns the interfaces a registration should be announced on,
// nil for all interfaces.
func selectIfaces(ifIndex int) ([]net.Interface, error) {
	if ifIndex == 0 {
		return nil, nil
	}

	iface, err := net.InterfaceByIndex(ifIndex)
	if err != nil {
		return nil, err
	}

	return []net.Interface{*iface}, nil
}

const entryBufferSize = 16
