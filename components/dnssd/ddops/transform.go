package ddops

import (
	"sync"

	"github.com/open-control-systems/dnssd-hub/components/core"
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddcore"
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddstream"
)

// subOperation starts the enrichment sub-streams for a single added record.
//
// It returns one stream per registration it opened. When it fails, it must
// release every registration it already opened before returning.
type subOperation func(rec ddcore.ServiceRecord) ([]*ddstream.Stream, error)

// transform builds a stream operator on top of the bridge: the output stream
// is itself bridge-backed, with a pump goroutine as its "registration", so
// stopping the tail of an operator chain transitively stops the input stream
// and every still-active sub-operation.
//
// Removed records pass through untouched and never start a sub-operation.
// A sub-operation failure ends the enrichment of that record only; the outer
// stream stays alive.
func transform(in *ddstream.Stream, start subOperation) *ddstream.Stream {
	out, _ := ddstream.Open(func(sink ddstream.Sink) (ddcore.Handle, error) {
		p := &pump{
			in:     in,
			start:  start,
			sink:   sink,
			stopCh: make(chan struct{}),
			subs:   make(map[*ddstream.Stream]struct{}),
		}

		go p.run()

		// The pump factory never fails, the error from Open is always nil.
		return ddcore.NewFuncHandle(p.stop), nil
	})

	return out
}

type pump struct {
	in     *ddstream.Stream
	start  subOperation
	sink   ddstream.Sink
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	subs    map[*ddstream.Stream]struct{}
}

func (p *pump) run() {
	for {
		select {
		case rec, ok := <-p.in.Records():
			if !ok {
				p.wg.Wait()

				if err := p.in.Err(); err != nil {
					p.sink.Fail(err)
				} else {
					p.sink.Complete()
				}

				return
			}

			p.handleRecord(rec)

		case <-p.stopCh:
			p.wg.Wait()

			return
		}
	}
}

func (p *pump) handleRecord(rec ddcore.ServiceRecord) {
	if rec.Event == ddcore.EventRemoved {
		p.sink.Send(rec)

		return
	}

	subs, err := p.start(rec)
	if err != nil {
		core.LogErr.Printf("dnssd-ops: failed to start sub-operation:"+
			" instance=%s service=%s domain=%s err=%v\n",
			rec.Instance, rec.Service, rec.Domain, err)

		return
	}

	for _, sub := range subs {
		p.addSub(sub)
	}

	for _, sub := range subs {
		p.wg.Add(1)

		go p.consume(rec, sub, subs)
	}
}

// consume forwards the emissions of one sub-stream into the output stream.
//
// The sub-stream registration is released on every exit path. A sub-stream
// failure stops the sibling sub-streams of the same record, so no
// registration is leaked.
func (p *pump) consume(rec ddcore.ServiceRecord, sub *ddstream.Stream, siblings []*ddstream.Stream) {
	defer p.wg.Done()
	defer p.removeSub(sub)
	defer func() {
		if err := sub.Stop(); err != nil {
			core.LogErr.Printf("dnssd-ops: failed to stop sub-operation: err=%v\n", err)
		}
	}()

	for enriched := range sub.Records() {
		if !p.sink.Send(enriched) {
			return
		}
	}

	if err := sub.Err(); err != nil {
		core.LogErr.Printf("dnssd-ops: sub-operation failed:"+
			" instance=%s service=%s domain=%s err=%v\n",
			rec.Instance, rec.Service, rec.Domain, err)

		for _, sibling := range siblings {
			if sibling == sub {
				continue
			}

			if err := sibling.Stop(); err != nil {
				core.LogErr.Printf("dnssd-ops: failed to stop sibling sub-operation:"+
					" err=%v\n", err)
			}
		}
	}
}

func (p *pump) stop() {
	close(p.stopCh)

	if err := p.in.Stop(); err != nil {
		core.LogErr.Printf("dnssd-ops: failed to stop input stream: err=%v\n", err)
	}

	p.mu.Lock()
	p.stopped = true
	subs := make([]*ddstream.Stream, 0, len(p.subs))
	for sub := range p.subs {
		subs = append(subs, sub)
	}
	p.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Stop(); err != nil {
			core.LogErr.Printf("dnssd-ops: failed to stop sub-operation: err=%v\n", err)
		}
	}
}

// addSub registers sub for transitive cancellation. A sub-operation that
// races with stop is released right away instead of being tracked.
func (p *pump) addSub(sub *ddstream.Stream) {
	p.mu.Lock()

	if p.stopped {
		p.mu.Unlock()

		if err := sub.Stop(); err != nil {
			core.LogErr.Printf("dnssd-ops: failed to stop sub-operation: err=%v\n", err)
		}

		return
	}

	p.subs[sub] = struct{}{}
	p.mu.Unlock()
}

func (p *pump) removeSub(sub *ddstream.Stream) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.subs, sub)
}
