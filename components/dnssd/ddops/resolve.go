package ddops

import (
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddcore"
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddstream"
)

// Resolve enriches every added record of the input stream with hostname,
// port and TXT records.
//
// One resolve operation is issued per added record, scoped to the record's
// interface and identity; its single result becomes the one emission for
// that record. Removed records pass through untouched without any engine
// call.
func Resolve(engine ddcore.Engine, in *ddstream.Stream) *ddstream.Stream {
	return transform(in, func(rec ddcore.ServiceRecord) ([]*ddstream.Stream, error) {
		sub, err := ddstream.Open(func(sink ddstream.Sink) (ddcore.Handle, error) {
			return engine.Resolve(rec.IfIndex, rec.Instance, rec.Service, rec.Domain,
				&resolveListener{sink: sink, builder: ddcore.NewBuilder(rec)})
		})
		if err != nil {
			return nil, err
		}

		return []*ddstream.Stream{sub}, nil
	})
}

// resolveListener translates a native resolve callback into a single
// enriched service record.
type resolveListener struct {
	sink    ddstream.Sink
	builder *ddcore.Builder
}

func (l *resolveListener) ServiceResolved(_ int, hostname string, port int, txt []byte) {
	l.builder.SetEndpoint(hostname, port)
	l.builder.SetTxt(ddcore.DecodeTxt(txt))

	l.sink.Send(l.builder.Build())
	l.sink.Complete()
}

func (l *resolveListener) ResolveFailed(err error) {
	l.sink.Fail(err)
}
