package ddcore

import (
	"net"
	"sync"
)

// Builder accumulates the best-known state of a single logical service.
//
// One builder is shared between the concurrent IPv4 and IPv6 query operations
// spawned for the same record, so every mutation and snapshot is serialized.
type Builder struct {
	mu  sync.Mutex
	rec ServiceRecord
}

// NewBuilder is an initialization of Builder, seeded from rec.
func NewBuilder(rec ServiceRecord) *Builder {
	return &Builder{rec: rec.Clone()}
}

// SetEndpoint sets the resolved hostname and port.
func (b *Builder) SetEndpoint(hostname string, port int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rec.Hostname = hostname
	b.rec.Port = port
}

// SetTxt replaces the TXT key/value records.
func (b *Builder) SetTxt(txt map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rec.Txt = txt
}

// AddAddr adds a resolved IP address, duplicates are ignored.
func (b *Builder) AddAddr(addr net.IP) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, known := range b.rec.Addrs {
		if known.Equal(addr) {
			return
		}
	}

	b.rec.Addrs = append(b.rec.Addrs, addr)
}

// Build returns an immutable snapshot of the accumulated state.
func (b *Builder) Build() ServiceRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.rec.Clone()
}
