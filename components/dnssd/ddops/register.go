package ddops

import (
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddcore"
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddstream"
)

// Register announces a service instance on the network.
//
// The stream emits one record describing the actually assigned
// name/type/domain, which may differ from the requested one if a name
// conflict was auto-resolved. The announcement stays active until the stream
// is stopped.
func Register(engine ddcore.Engine, rec ddcore.ServiceRecord) (*ddstream.Stream, error) {
	txt, err := ddcore.EncodeTxt(rec.Txt)
	if err != nil {
		return nil, err
	}

	return ddstream.Open(func(sink ddstream.Sink) (ddcore.Handle, error) {
		return engine.Register(rec.IfIndex, rec.Instance, rec.Service, rec.Domain,
			rec.Hostname, rec.Port, txt, &registerListener{sink: sink, rec: rec})
	})
}

// registerListener translates the registration confirmation into a service
// record carrying the assigned identity.
type registerListener struct {
	sink ddstream.Sink
	rec  ddcore.ServiceRecord
}

func (l *registerListener) ServiceRegistered(instance string, service string, domain string) {
	rec := l.rec.Clone()
	rec.Event = ddcore.EventAdded
	rec.Instance = instance
	rec.Service = service
	rec.Domain = domain

	l.sink.Send(rec)
}

func (l *registerListener) RegisterFailed(err error) {
	l.sink.Fail(err)
}
