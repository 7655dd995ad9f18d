package ddstream

import (
	"sync"

	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddcore"
)

// Sink accepts emissions from a single discovery registration.
//
// All methods are safe to call from multiple engine notification goroutines;
// delivery to the stream consumer is serialized.
type Sink interface {
	// Send delivers the record to the stream consumer.
	//
	// Returns false when the stream no longer accepts emissions, so a
	// listener can stop doing work for a stopped stream.
	Send(rec ddcore.ServiceRecord) bool

	// Fail terminates the stream with err.
	Fail(err error)

	// Complete terminates the stream normally.
	Complete()
}

// Factory registers a single discovery operation against the engine.
//
// It receives the sink the registration should report into and returns the
// handle that releases the registration, or fails synchronously. A factory
// is invoked exactly once per Open call.
type Factory func(sink Sink) (ddcore.Handle, error)

// Stream is a cancellable stream of service records backed by exactly one
// discovery registration. Streams are not shared: every Open call creates an
// independent registration.
type Stream struct {
	recordCh chan ddcore.ServiceRecord
	doneCh   chan struct{}
	stopOnce sync.Once
	handle   ddcore.Handle

	mu        sync.Mutex
	completed bool
	err       error
}

// Open invokes factory exactly once and returns the stream of its emissions.
//
// If the factory fails synchronously, no stream is created and nothing is
// emitted.
func Open(factory Factory) (*Stream, error) {
	s := &Stream{
		recordCh: make(chan ddcore.ServiceRecord),
		doneCh:   make(chan struct{}),
	}

	handle, err := factory(&streamSink{stream: s})
	if err != nil {
		return nil, err
	}

	s.handle = handle

	return s, nil
}

// Records returns the channel of emissions.
//
// The channel is closed on completion, failure or Stop; inspect Err once it
// is closed to distinguish the cases.
func (s *Stream) Records() <-chan ddcore.ServiceRecord {
	return s.recordCh
}

// Err returns the terminal stream error.
//
// Valid once the Records channel is closed. Stopping the stream is not an
// error: Err returns nil after a plain Stop.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Stop cancels the subscription and releases the underlying registration.
//
// Stop is idempotent and safe to call concurrently with engine callbacks:
// the registration is released exactly once, and no record is delivered to
// the consumer after the release.
func (s *Stream) Stop() error {
	s.stopOnce.Do(func() {
		close(s.doneCh)

		s.mu.Lock()
		if !s.completed {
			s.completed = true
			close(s.recordCh)
		}
		s.mu.Unlock()

		if s.handle != nil {
			s.handle.Cancel()
		}
	})

	return nil
}

// send delivers rec to the consumer, blocking until the consumer receives it
// or the stream terminates. The mutex is held across the delivery to
// serialize concurrent engine callbacks.
func (s *Stream) send(rec ddcore.ServiceRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return false
	}

	select {
	case <-s.doneCh:
		return false
	default:
	}

	select {
	case s.recordCh <- rec:
		return true

	case <-s.doneCh:
		return false
	}
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return
	}

	s.completed = true
	s.err = err

	close(s.recordCh)
}

func (s *Stream) complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return
	}

	s.completed = true

	close(s.recordCh)
}

type streamSink struct {
	stream *Stream
}

func (s *streamSink) Send(rec ddcore.ServiceRecord) bool {
	return s.stream.send(rec)
}

func (s *streamSink) Fail(err error) {
	s.stream.fail(err)
}

func (s *streamSink) Complete() {
	s.stream.complete()
}
