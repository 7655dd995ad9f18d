package ddzeroconf

import (
	"net"
	"strings"
	"sync"

	"github.com/miekg/dns"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/open-control-systems/dnssd-hub/components/core"
	"github.com/open-control-systems/dnssd-hub/components/dnssd/ddcore"
	"github.com/open-control-systems/dnssd-hub/components/status"
)

var (
	mdnsGroupIPv4 = &net.UDPAddr{IP: net.ParseIP("224.0.0.251"), Port: 5353}
	mdnsGroupIPv6 = &net.UDPAddr{IP: net.ParseIP("ff02::fb"), Port: 5353}
)

// QueryRecord queries A or AAAA resource records for hostname over multicast DNS.
//
// The question is sent from an ephemeral port, so responders answer with a
// legacy unicast response directly to the querier (RFC 6762, section 5.1).
// Answers are forwarded to the listener until the handle is canceled.
func (*Engine) QueryRecord(
	ifIndex int,
	hostname string,
	rrType int,
	rrClass int,
	listener ddcore.QueryListener,
) (ddcore.Handle, error) {
	if rrType != ddcore.RRTypeA && rrType != ddcore.RRTypeAAAA {
		return nil, status.StatusNotSupported
	}
	if rrClass != ddcore.RRClassIN {
		return nil, status.StatusInvalidArg
	}

	q := &recordQuery{
		ifIndex:  ifIndex,
		hostname: hostname,
		rrType:   rrType,
		listener: listener,
	}

	if err := q.open(); err != nil {
		return nil, err
	}

	go q.run()

	return ddcore.NewFuncHandle(q.close), nil
}

type recordQuery struct {
	ifIndex  int
	hostname string
	rrType   int
	listener ddcore.QueryListener

	conn *net.UDPConn

	mu     sync.Mutex
	closed bool
}

// open creates the query socket, scopes it to the configured interface and
// sends the question.
func (q *recordQuery) open() error {
	network, group := "udp4", mdnsGroupIPv4
	if q.rrType == ddcore.RRTypeAAAA {
		network, group = "udp6", mdnsGroupIPv6
	}

	conn, err := net.ListenUDP(network, nil)
	if err != nil {
		return err
	}

	if err := q.selectIface(conn); err != nil {
		return multiCloseErr(conn, err)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(q.hostname), uint16(q.rrType))
	msg.RecursionDesired = false

	packed, err := msg.Pack()
	if err != nil {
		return multiCloseErr(conn, err)
	}

	if _, err := conn.WriteToUDP(packed, group); err != nil {
		return multiCloseErr(conn, err)
	}

	q.conn = conn

	return nil
}

func (q *recordQuery) selectIface(conn *net.UDPConn) error {
	if q.ifIndex == 0 {
		return nil
	}

	iface, err := net.InterfaceByIndex(q.ifIndex)
	if err != nil {
		return err
	}

	if q.rrType == ddcore.RRTypeAAAA {
		return ipv6.NewPacketConn(conn).SetMulticastInterface(iface)
	}

	return ipv4.NewPacketConn(conn).SetMulticastInterface(iface)
}

func (q *recordQuery) run() {
	buf := make([]byte, maxDNSMessageSize)

	for {
		n, _, err := q.conn.ReadFromUDP(buf)
		if err != nil {
			// Read fails with a "use of closed network connection" error
			// after the handle is canceled, which is not a query failure.
			if !q.isClosed() {
				q.listener.QueryFailed(err)
			}

			return
		}

		var msg dns.Msg
		if err := msg.Unpack(buf[:n]); err != nil {
			continue
		}

		q.handleAnswers(&msg)
	}
}

func (q *recordQuery) handleAnswers(msg *dns.Msg) {
	want := dns.Fqdn(q.hostname)

	for _, rr := range msg.Answer {
		if !strings.EqualFold(rr.Header().Name, want) {
			continue
		}

		switch record := rr.(type) {
		case *dns.A:
			if q.rrType == ddcore.RRTypeA {
				q.listener.RecordAnswered(q.ifIndex, q.hostname,
					ddcore.RRTypeA, record.A.To4())
			}

		case *dns.AAAA:
			if q.rrType == ddcore.RRTypeAAAA {
				q.listener.RecordAnswered(q.ifIndex, q.hostname,
					ddcore.RRTypeAAAA, record.AAAA.To16())
			}
		}
	}
}

func (q *recordQuery) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	if err := q.conn.Close(); err != nil {
		core.LogErr.Printf("mdns-record-query: failed to close connection:"+
			" hostname=%s err=%v\n", q.hostname, err)
	}
}

func (q *recordQuery) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}

func multiCloseErr(conn *net.UDPConn, err error) error {
	if closeErr := conn.Close(); closeErr != nil {
		return closeErr
	}

	return err
}

const maxDNSMessageSize = 65536
