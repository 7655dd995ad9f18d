package ddops

import (
	"fmt"
	"net"

	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddcore"
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddstream"
)

// QueryRecords enriches every added record of the input stream with both
// IPv4 and IPv6 addresses.
//
// The two address-family queries run concurrently against one shared builder
// and are merged in arrival order: every emission is a cumulative snapshot
// of all addresses resolved so far, at most two emissions per added record.
// Removed records pass through untouched without any engine call.
func QueryRecords(engine ddcore.Engine, in *ddstream.Stream) *ddstream.Stream {
	return transform(in, func(rec ddcore.ServiceRecord) ([]*ddstream.Stream, error) {
		builder := ddcore.NewBuilder(rec)

		v4, err := openQuery(engine, rec, builder, ddcore.RRTypeA)
		if err != nil {
			return nil, err
		}

		v6, err := openQuery(engine, rec, builder, ddcore.RRTypeAAAA)
		if err != nil {
			if stopErr := v4.Stop(); stopErr != nil {
				return nil, fmt.Errorf("query: %w: %v", err, stopErr)
			}

			return nil, err
		}

		return []*ddstream.Stream{v4, v6}, nil
	})
}

// QueryIPv4Records enriches every added record of the input stream with IPv4
// addresses only.
func QueryIPv4Records(engine ddcore.Engine, in *ddstream.Stream) *ddstream.Stream {
	return queryFamily(engine, in, ddcore.RRTypeA)
}

// QueryIPv6Records enriches every added record of the input stream with IPv6
// addresses only.
func QueryIPv6Records(engine ddcore.Engine, in *ddstream.Stream) *ddstream.Stream {
	return queryFamily(engine, in, ddcore.RRTypeAAAA)
}

func queryFamily(engine ddcore.Engine, in *ddstream.Stream, rrType int) *ddstream.Stream {
	return transform(in, func(rec ddcore.ServiceRecord) ([]*ddstream.Stream, error) {
		sub, err := openQuery(engine, rec, ddcore.NewBuilder(rec), rrType)
		if err != nil {
			return nil, err
		}

		return []*ddstream.Stream{sub}, nil
	})
}

func openQuery(
	engine ddcore.Engine,
	rec ddcore.ServiceRecord,
	builder *ddcore.Builder,
	rrType int,
) (*ddstream.Stream, error) {
	return ddstream.Open(func(sink ddstream.Sink) (ddcore.Handle, error) {
		return engine.QueryRecord(rec.IfIndex, rec.Hostname, rrType, ddcore.RRClassIN,
			&queryListener{sink: sink, builder: builder})
	})
}

// queryListener translates answered address records into cumulative service
// record snapshots. The builder is shared with the sibling address-family
// listener of the same record, which serializes the mutations.
type queryListener struct {
	sink    ddstream.Sink
	builder *ddcore.Builder
}

// RecordAnswered adds the answered address to the shared builder and emits a
// snapshot. The sub-operation completes after its first answer, which keeps
// a one-emission-per-family cadence for the merged stream.
func (l *queryListener) RecordAnswered(_ int, hostname string, _ int, rdata []byte) {
	if len(rdata) != net.IPv4len && len(rdata) != net.IPv6len {
		l.sink.Fail(fmt.Errorf("query: malformed address record:"+
			" hostname=%s len=%d", hostname, len(rdata)))

		return
	}

	l.builder.AddAddr(net.IP(rdata))

	l.sink.Send(l.builder.Build())
	l.sink.Complete()
}

func (l *queryListener) QueryFailed(err error) {
	l.sink.Fail(err)
}
