package ddops

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddcore"
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddstream"
)

type testOpsHandle struct {
	mu          sync.Mutex
	cancelCount int
}

func (h *testOpsHandle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cancelCount++
}

func (h *testOpsHandle) getCancelCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.cancelCount
}

type testOpsBrowseCall struct {
	listener ddcore.BrowseListener
	handle   *testOpsHandle
	ifIndex  int
	service  string
	domain   string
}

type testOpsResolveCall struct {
	listener ddcore.ResolveListener
	handle   *testOpsHandle
	ifIndex  int
	instance string
	service  string
	domain   string
}

type testOpsQueryCall struct {
	listener ddcore.QueryListener
	handle   *testOpsHandle
	ifIndex  int
	hostname string
	rrType   int
	rrClass  int
}

type testOpsRegisterCall struct {
	listener ddcore.RegisterListener
	handle   *testOpsHandle
	ifIndex  int
	instance string
	service  string
	domain   string
	hostname string
	port     int
	txt      []byte
}

// testOpsEngine is an in-memory discovery engine: it records every
// registration and lets the test drive the listeners by hand.
type testOpsEngine struct {
	mu sync.Mutex

	browseErr   error
	resolveErr  error
	queryErr    error
	registerErr error

	browseAttempts   int
	resolveAttempts  int
	queryAttempts    int
	registerAttempts int

	browseCalls   []*testOpsBrowseCall
	resolveCalls  []*testOpsResolveCall
	queryCalls    []*testOpsQueryCall
	registerCalls []*testOpsRegisterCall
}

func newTestOpsEngine() *testOpsEngine {
	return &testOpsEngine{}
}

func (e *testOpsEngine) Browse(
	ifIndex int,
	service string,
	domain string,
	listener ddcore.BrowseListener,
) (ddcore.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.browseAttempts++

	if e.browseErr != nil {
		return nil, e.browseErr
	}

	call := &testOpsBrowseCall{
		listener: listener,
		handle:   &testOpsHandle{},
		ifIndex:  ifIndex,
		service:  service,
		domain:   domain,
	}
	e.browseCalls = append(e.browseCalls, call)

	return call.handle, nil
}

func (e *testOpsEngine) Resolve(
	ifIndex int,
	instance string,
	service string,
	domain string,
	listener ddcore.ResolveListener,
) (ddcore.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resolveAttempts++

	if e.resolveErr != nil {
		return nil, e.resolveErr
	}

	call := &testOpsResolveCall{
		listener: listener,
		handle:   &testOpsHandle{},
		ifIndex:  ifIndex,
		instance: instance,
		service:  service,
		domain:   domain,
	}
	e.resolveCalls = append(e.resolveCalls, call)

	return call.handle, nil
}

func (e *testOpsEngine) QueryRecord(
	ifIndex int,
	hostname string,
	rrType int,
	rrClass int,
	listener ddcore.QueryListener,
) (ddcore.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.queryAttempts++

	if e.queryErr != nil {
		return nil, e.queryErr
	}

	call := &testOpsQueryCall{
		listener: listener,
		handle:   &testOpsHandle{},
		ifIndex:  ifIndex,
		hostname: hostname,
		rrType:   rrType,
		rrClass:  rrClass,
	}
	e.queryCalls = append(e.queryCalls, call)

	return call.handle, nil
}

func (e *testOpsEngine) Register(
	ifIndex int,
	instance string,
	service string,
	domain string,
	hostname string,
	port int,
	txt []byte,
	listener ddcore.RegisterListener,
) (ddcore.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.registerAttempts++

	if e.registerErr != nil {
		return nil, e.registerErr
	}

	call := &testOpsRegisterCall{
		listener: listener,
		handle:   &testOpsHandle{},
		ifIndex:  ifIndex,
		instance: instance,
		service:  service,
		domain:   domain,
		hostname: hostname,
		port:     port,
		txt:      txt,
	}
	e.registerCalls = append(e.registerCalls, call)

	return call.handle, nil
}

func (e *testOpsEngine) setResolveErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resolveErr = err
}

func (e *testOpsEngine) browseCallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.browseCalls)
}

func (e *testOpsEngine) resolveCallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.resolveCalls)
}

func (e *testOpsEngine) queryCallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.queryCalls)
}

func (e *testOpsEngine) getResolveAttempts() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.resolveAttempts
}

func (e *testOpsEngine) totalAttempts() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.browseAttempts + e.resolveAttempts + e.queryAttempts + e.registerAttempts
}

func (e *testOpsEngine) browseCall(index int) *testOpsBrowseCall {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.browseCalls[index]
}

func (e *testOpsEngine) resolveCall(index int) *testOpsResolveCall {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.resolveCalls[index]
}

func (e *testOpsEngine) queryCall(index int) *testOpsQueryCall {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.queryCalls[index]
}

func (e *testOpsEngine) registerCall(index int) *testOpsRegisterCall {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.registerCalls[index]
}

// testOpsInput creates a bridge-backed stream the test can feed by hand.
func testOpsInput(t *testing.T) (*ddstream.Stream, ddstream.Sink, *testOpsHandle) {
	handle := &testOpsHandle{}

	var sink ddstream.Sink

	stream, err := ddstream.Open(func(s ddstream.Sink) (ddcore.Handle, error) {
		sink = s

		return handle, nil
	})
	require.Nil(t, err)
	require.NotNil(t, sink)

	return stream, sink, handle
}

func waitOpsCond(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(time.Second * 5)

	for !cond() {
		require.True(t, time.Now().Before(deadline), "condition not met in time")

		time.Sleep(time.Millisecond * 10)
	}
}
