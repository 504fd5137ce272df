package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rrHeader(name string, rrtype uint16) dns.RR_Header {
	return dns.RR_Header{Name: name, Rrtype: rrtype, Class: dns.ClassINET, Ttl: 60}
}

// zoneReply answers for a handful of names:
// example.test has both records, www.example.test is a CNAME to it,
// v4only.test has no AAAA and loop.test points at itself.
func zoneReply(r *dns.Msg) *dns.Msg {
	m := new(dns.Msg)
	m.SetReply(r)
	q := r.Question[0]
	switch q.Name {
	case "example.test.":
		switch q.Qtype {
		case dns.TypeA:
			m.Answer = append(m.Answer, &dns.A{Hdr: rrHeader(q.Name, dns.TypeA), A: net.ParseIP("192.0.2.10")})
		case dns.TypeAAAA:
			m.Answer = append(m.Answer, &dns.AAAA{Hdr: rrHeader(q.Name, dns.TypeAAAA), AAAA: net.ParseIP("2001:db8::10")})
		}
	case "www.example.test.":
		m.Answer = append(m.Answer, &dns.CNAME{Hdr: rrHeader(q.Name, dns.TypeCNAME), Target: "example.test."})
	case "v4only.test.":
		if q.Qtype == dns.TypeA {
			m.Answer = append(m.Answer, &dns.A{Hdr: rrHeader(q.Name, dns.TypeA), A: net.ParseIP("192.0.2.20")})
		}
	case "refused.test.":
		m.Rcode = dns.RcodeRefused
	case "servfail.test.":
		m.Rcode = dns.RcodeServerFailure
	case "loop.test.":
		m.Answer = append(m.Answer, &dns.CNAME{Hdr: rrHeader(q.Name, dns.TypeCNAME), Target: "loop.test."})
	default:
		m.Rcode = dns.RcodeNameError
	}
	return m
}

func testZone(w dns.ResponseWriter, r *dns.Msg) {
	_ = w.WriteMsg(zoneReply(r))
}

// startServer runs testZone on a loopback port and returns its address.
func startServer(t *testing.T, network string) string {
	t.Helper()
	srv := &dns.Server{Handler: dns.HandlerFunc(testZone)}
	var addr string
	switch network {
	case NetUDP:
		pc, err := net.ListenPacket("udp", "127.0.0.1:0")
		require.NoError(t, err)
		srv.PacketConn = pc
		addr = pc.LocalAddr().String()
	case NetTCP:
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		srv.Listener = ln
		addr = ln.Addr().String()
	default:
		t.Fatalf("unsupported test network %q", network)
	}

	started := make(chan struct{})
	srv.NotifyStartedFunc = func() { close(started) }
	go func() {
		_ = srv.ActivateAndServe()
	}()
	<-started
	t.Cleanup(func() {
		_ = srv.Shutdown()
	})
	return addr
}

// deadAddress returns a loopback UDP address with nothing listening on it.
func deadAddress(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := pc.LocalAddr().String()
	require.NoError(t, pc.Close())
	return addr
}

func wire(t *testing.T, p *Prober) *wireQuerier {
	t.Helper()
	q, ok := p.querier.(*wireQuerier)
	require.True(t, ok)
	return q
}

func TestNew(t *testing.T) {
	p, err := New(0)
	require.NoError(t, err)
	q := wire(t, p)
	assert.Equal(t, NetUDP, q.client.Net)
	assert.Equal(t, defaultTimeout, q.client.Timeout)
	assert.Equal(t, defaultDNSPort, q.port)
	assert.Equal(t, defaultRetryTimes, p.retryTimes)
	assert.Nil(t, q.client.Dialer)

	p, err = New(5*time.Second, WithNetwork(NetTLS), WithTLS("dns.google", false))
	require.NoError(t, err)
	q = wire(t, p)
	assert.Equal(t, defaultDNSTLSPort, q.port)
	require.NotNil(t, q.client.TLSConfig)
	assert.Equal(t, "dns.google", q.client.TLSConfig.ServerName)

	p, err = New(5*time.Second, WithNetwork(NetHTTPS))
	require.NoError(t, err)
	doh, ok := p.querier.(*httpsQuerier)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, doh.httpClient.Timeout)

	p, err = New(0, WithRetryTimes(0), WithParallelism(-1))
	require.NoError(t, err)
	assert.Equal(t, 1, p.retryTimes)
	assert.Equal(t, 1, p.parallelism)

	_, err = New(0, WithNetwork("sctp"))
	assert.ErrorIs(t, err, ErrUnknownNetwork)
}

func TestNewBindIP(t *testing.T) {
	ip := net.ParseIP("127.0.0.1")

	p, err := New(time.Second, WithBindIP(ip))
	require.NoError(t, err)
	q := wire(t, p)
	require.NotNil(t, q.client.Dialer)
	assert.Equal(t, &net.UDPAddr{IP: ip}, q.client.Dialer.LocalAddr)

	p, err = New(time.Second, WithNetwork(NetTCP), WithBindIP(ip))
	require.NoError(t, err)
	assert.Equal(t, &net.TCPAddr{IP: ip}, wire(t, p).client.Dialer.LocalAddr)
}

func TestAddDefaultPort(t *testing.T) {
	tests := []struct {
		addr        string
		defaultPort string
		expected    string
	}{
		{"8.8.8.8", "53", "8.8.8.8:53"},
		{"8.8.8.8:5353", "53", "8.8.8.8:5353"},
		{"dns.google", "853", "dns.google:853"},
		{"::1", "53", "[::1]:53"},
		{"[::1]:5353", "53", "[::1]:5353"},
		{"fe80::1%en0", "53", "[fe80::1%en0]:53"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, addDefaultPort(tt.addr, tt.defaultPort))
	}
}

func TestSkipCNAMEChain(t *testing.T) {
	cname := func(name, target string) dns.RR {
		return &dns.CNAME{Hdr: rrHeader(name, dns.TypeCNAME), Target: target}
	}

	assert.Empty(t, skipCNAMEChain(nil))
	assert.Equal(t, "c.test.", skipCNAMEChain([]dns.RR{
		cname("a.test.", "b.test."),
		cname("b.test.", "c.test."),
	}))
	assert.Equal(t, "b.test.", skipCNAMEChain([]dns.RR{
		cname("a.test.", "b.test."),
		cname("x.test.", "y.test."),
	}))
}

func TestProbe(t *testing.T) {
	for _, network := range []string{NetUDP, NetTCP} {
		t.Run(network, func(t *testing.T) {
			server := startServer(t, network)
			p, err := New(time.Second, WithNetwork(network))
			require.NoError(t, err)
			ctx := context.Background()

			res := p.Probe(ctx, server, "example.test")
			require.NoError(t, res.Err)
			assert.True(t, res.OK())
			assert.Equal(t, server, res.Server)
			assert.Equal(t, "192.0.2.10", res.IPv4.String())
			assert.Equal(t, "2001:db8::10", res.IPv6.String())

			res = p.Probe(ctx, server, "www.example.test")
			require.NoError(t, res.Err)
			assert.Equal(t, "192.0.2.10", res.IPv4.String())
			assert.Equal(t, "2001:db8::10", res.IPv6.String())

			res = p.Probe(ctx, server, "v4only.test")
			require.NoError(t, res.Err)
			assert.Equal(t, "192.0.2.20", res.IPv4.String())
			assert.Nil(t, res.IPv6)

			res = p.Probe(ctx, server, "missing.test")
			require.NoError(t, res.Err)
			assert.Nil(t, res.IPv4)
			assert.Nil(t, res.IPv6)

			res = p.Probe(ctx, server, "refused.test")
			assert.False(t, res.OK())
			require.Error(t, res.Err)
			assert.Contains(t, res.Err.Error(), "REFUSED")

			res = p.Probe(ctx, server, "servfail.test")
			assert.False(t, res.OK())
			require.Error(t, res.Err)
			assert.Contains(t, res.Err.Error(), "SERVFAIL")
		})
	}
}

func TestProbeCNAMELoop(t *testing.T) {
	server := startServer(t, NetUDP)
	p, err := New(time.Second, WithRetryTimes(1))
	require.NoError(t, err)

	res := p.Probe(context.Background(), server, "loop.test")
	assert.ErrorIs(t, res.Err, ErrCNAMELoop)
	assert.False(t, res.OK())
}

func TestProbeBindIP(t *testing.T) {
	server := startServer(t, NetUDP)
	p, err := New(time.Second, WithBindIP(net.ParseIP("127.0.0.1")))
	require.NoError(t, err)

	res := p.Probe(context.Background(), server, "example.test")
	require.NoError(t, res.Err)
	assert.Equal(t, "192.0.2.10", res.IPv4.String())
}

func TestProbeUnreachable(t *testing.T) {
	p, err := New(200*time.Millisecond, WithRetryTimes(1))
	require.NoError(t, err)

	res := p.Probe(context.Background(), deadAddress(t), "example.test")
	assert.Error(t, res.Err)
	assert.Nil(t, res.IPv4)
}

func TestProbeCanceled(t *testing.T) {
	server := startServer(t, NetTCP)
	p, err := New(time.Second, WithNetwork(NetTCP))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := p.Probe(ctx, server, "example.test")
	assert.Error(t, res.Err)
}

func TestProbeAll(t *testing.T) {
	good := startServer(t, NetUDP)
	dead := deadAddress(t)
	p, err := New(200*time.Millisecond, WithRetryTimes(1), WithParallelism(2))
	require.NoError(t, err)

	servers := []string{dead, good, good}
	results := p.ProbeAll(context.Background(), servers, "example.test")
	require.Len(t, results, len(servers))
	for i, res := range results {
		assert.Equal(t, servers[i], res.Server)
	}
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, "192.0.2.10", results[2].IPv4.String())

	assert.Empty(t, p.ProbeAll(context.Background(), nil, "example.test"))
}

func TestProbePublicResolver(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}

	p, err := New(5 * time.Second)
	require.NoError(t, err)
	res := p.Probe(context.Background(), "8.8.8.8", "dns.google")
	if res.Err != nil {
		t.Skipf("public resolver unreachable: %v", res.Err)
	}
	assert.NotNil(t, res.IPv4)
	assert.True(t, res.RTT > 0)
}
