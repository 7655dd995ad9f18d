package ddops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddcore"
	"github.com/open-control-systems/dnssd-hub/components/status"
)

func TestBrowseTranslation(t *testing.T) {
	engine := newTestOpsEngine()

	stream, err := Browse(engine, BrowseParams{
		IfIndex: 3,
		Service: "_ipp._tcp",
		Domain:  "local.",
	})
	require.Nil(t, err)
	defer func() {
		require.Nil(t, stream.Stop())
	}()

	require.Equal(t, 1, engine.browseCallCount())

	call := engine.browseCall(0)
	require.Equal(t, 3, call.ifIndex)
	require.Equal(t, "_ipp._tcp", call.service)
	require.Equal(t, "local.", call.domain)

	go call.listener.ServiceFound(3, "printer", "_ipp._tcp", "local.")

	added := <-stream.Records()
	require.Equal(t, ddcore.EventAdded, added.Event)
	require.Equal(t, 3, added.IfIndex)
	require.Equal(t, "printer", added.Instance)
	require.Equal(t, "_ipp._tcp", added.Service)
	require.Equal(t, "local.", added.Domain)
	require.Empty(t, added.Hostname)
	require.Empty(t, added.Txt)
	require.Empty(t, added.Addrs)

	go call.listener.ServiceLost(3, "printer", "_ipp._tcp", "local.")

	removed := <-stream.Records()
	require.Equal(t, ddcore.EventRemoved, removed.Event)
	require.True(t, removed.Same(added))
}

func TestBrowseRegistrationFailure(t *testing.T) {
	engine := newTestOpsEngine()
	engine.browseErr = status.StatusError

	stream, err := Browse(engine, BrowseParams{Service: "_ipp._tcp", Domain: "local."})
	require.Equal(t, status.StatusError, err)
	require.Nil(t, stream)
}

func TestBrowseAsyncFailure(t *testing.T) {
	engine := newTestOpsEngine()

	stream, err := Browse(engine, BrowseParams{Service: "_ipp._tcp", Domain: "local."})
	require.Nil(t, err)
	defer func() {
		require.Nil(t, stream.Stop())
	}()

	go engine.browseCall(0).listener.BrowseFailed(status.StatusTimeout)

	_, ok := <-stream.Records()
	require.False(t, ok)
	require.Equal(t, status.StatusTimeout, stream.Err())
}

func TestBrowseIndependentSubscriptions(t *testing.T) {
	engine := newTestOpsEngine()

	params := BrowseParams{Service: "_ipp._tcp", Domain: "local."}

	first, err := Browse(engine, params)
	require.Nil(t, err)

	second, err := Browse(engine, params)
	require.Nil(t, err)

	require.Equal(t, 2, engine.browseCallCount())

	require.Nil(t, first.Stop())
	require.Equal(t, 1, engine.browseCall(0).handle.getCancelCount())
	require.Equal(t, 0, engine.browseCall(1).handle.getCancelCount())

	require.Nil(t, second.Stop())
	require.Equal(t, 1, engine.browseCall(1).handle.getCancelCount())
}

func TestBrowseStopBeforeCallback(t *testing.T) {
	engine := newTestOpsEngine()

	stream, err := Browse(engine, BrowseParams{Service: "_ipp._tcp", Domain: "local."})
	require.Nil(t, err)

	require.Nil(t, stream.Stop())
	require.Equal(t, 1, engine.browseCall(0).handle.getCancelCount())

	emissionCount := 0
	for range stream.Records() {
		emissionCount++
	}
	require.Equal(t, 0, emissionCount)
}
