// Package probe checks that discovered DNS resolvers answer queries.
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout     = 2 * time.Second
	defaultRetryTimes  = 2
	defaultDNSPort     = "53"
	defaultDNSTLSPort  = "853"
	defaultParallelism = 8
	maxCNAMEDepth      = 8
)

// Transports understood by New.
const (
	NetUDP   = "udp"
	NetTCP   = "tcp"
	NetTLS   = "tcp-tls"
	NetHTTPS = "https"
)

var (
	// ErrUnknownNetwork is returned by New for a transport it cannot dial.
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrCNAMELoop is reported when a CNAME chain does not end.
	ErrCNAMELoop = errors.New("CNAME chain too long")
)

// Result is the outcome of probing one server.
// IPv4 and IPv6 are nil when the server had no such record.
type Result struct {
	Server string
	IPv4   net.IP
	IPv6   net.IP
	RTT    time.Duration
	Err    error
}

// OK reports whether the server answered.
func (r Result) OK() bool {
	return r.Err == nil
}

// Option configures a Prober.
type Option func(*options)

type options struct {
	network     string
	bindIP      net.IP
	serverName  string
	insecure    bool
	retryTimes  int
	parallelism int
}

// WithNetwork selects the transport: NetUDP (default), NetTCP, NetTLS or
// NetHTTPS.
func WithNetwork(network string) Option {
	return func(o *options) {
		o.network = network
	}
}

// WithBindIP sends queries from the given local address.
func WithBindIP(ip net.IP) Option {
	return func(o *options) {
		o.bindIP = ip
	}
}

// WithTLS sets the server name and verification mode for NetTLS and
// NetHTTPS.
func WithTLS(serverName string, insecure bool) Option {
	return func(o *options) {
		o.serverName = serverName
		o.insecure = insecure
	}
}

// WithRetryTimes sets how many times each query is attempted.
func WithRetryTimes(n int) Option {
	return func(o *options) {
		o.retryTimes = n
	}
}

// WithParallelism caps the number of servers ProbeAll queries at once.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// querier sends one query for host's first record of qtype to server.
type querier interface {
	query(ctx context.Context, server, host string, qtype uint16) (net.IP, time.Duration, error)
}

// Prober sends A and AAAA queries to DNS servers.
type Prober struct {
	querier     querier
	retryTimes  int
	parallelism int
}

// New creates a Prober. A zero timeout selects the default.
func New(timeout time.Duration, opts ...Option) (*Prober, error) {
	o := &options{
		network:     NetUDP,
		retryTimes:  defaultRetryTimes,
		parallelism: defaultParallelism,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.retryTimes < 1 {
		o.retryTimes = 1
	}
	if o.parallelism < 1 {
		o.parallelism = 1
	}

	timeout = timeoutOrDefault(timeout)
	var q querier
	switch o.network {
	case NetUDP, NetTCP, NetTLS:
		q = newWireQuerier(o, timeout)
	case NetHTTPS:
		q = newHTTPSQuerier(o, timeout)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, o.network)
	}
	return &Prober{
		querier:     q,
		retryTimes:  o.retryTimes,
		parallelism: o.parallelism,
	}, nil
}

func tlsConfig(o *options) *tls.Config {
	return &tls.Config{
		ServerName:         o.serverName,
		InsecureSkipVerify: o.insecure, //nolint:gosec // user configurable
	}
}

// wireQuerier speaks DNS over UDP, TCP or TLS.
type wireQuerier struct {
	client *dns.Client
	port   string
}

func newWireQuerier(o *options, timeout time.Duration) *wireQuerier {
	client := &dns.Client{
		Net:     o.network,
		Timeout: timeout,
	}
	port := defaultDNSPort
	if o.network == NetTLS {
		port = defaultDNSTLSPort
		client.TLSConfig = tlsConfig(o)
	}
	if o.bindIP != nil {
		client.Dialer = &net.Dialer{
			Timeout:   timeout,
			LocalAddr: localAddr(o.network, o.bindIP),
		}
	}
	return &wireQuerier{client: client, port: port}
}

func localAddr(network string, ip net.IP) net.Addr {
	if network == NetUDP {
		return &net.UDPAddr{IP: ip}
	}
	return &net.TCPAddr{IP: ip}
}

func addDefaultPort(addr, defaultPort string) string {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return net.JoinHostPort(addr, defaultPort)
	}
	return addr
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return defaultTimeout
	}
	return timeout
}

// skipCNAMEChain skips the CNAME chain and returns the last CNAME target.
func skipCNAMEChain(answers []dns.RR) string {
	var lastCNAME string
	for _, a := range answers {
		if cname, ok := a.(*dns.CNAME); ok {
			if lastCNAME == "" {
				lastCNAME = cname.Target
			} else if cname.Hdr.Name == lastCNAME {
				lastCNAME = cname.Target
			} else {
				return lastCNAME
			}
		}
	}
	return lastCNAME
}

// query follows CNAMEs until a record of qtype turns up. The returned
// duration sums the round trips of every query sent.
func (q *wireQuerier) query(ctx context.Context, server, host string, qtype uint16) (net.IP, time.Duration, error) {
	addr := addDefaultPort(server, q.port)
	var total time.Duration
	name := dns.Fqdn(host)
	for range maxCNAMEDepth {
		m := new(dns.Msg)
		m.SetQuestion(name, qtype)
		m.RecursionDesired = true
		resp, rtt, err := q.client.ExchangeContext(ctx, m, addr)
		total += rtt
		if err != nil {
			return nil, total, err
		}
		// NXDOMAIN is an answer, not a failure of the server.
		if resp.Rcode != dns.RcodeSuccess && resp.Rcode != dns.RcodeNameError {
			return nil, total, fmt.Errorf("dns query failed with %s for host %s", dns.RcodeToString[resp.Rcode], host)
		}
		hasCNAME := false
		for _, a := range resp.Answer {
			switch rr := a.(type) {
			case *dns.A:
				if qtype == dns.TypeA {
					return rr.A.To4(), total, nil
				}
			case *dns.AAAA:
				if qtype == dns.TypeAAAA {
					return rr.AAAA.To16(), total, nil
				}
			case *dns.CNAME:
				hasCNAME = true
			}
		}
		if !hasCNAME {
			return nil, total, nil
		}
		name = skipCNAMEChain(resp.Answer)
	}
	return nil, total, fmt.Errorf("%w: %s", ErrCNAMELoop, host)
}

func (p *Prober) lookupWithRetry(ctx context.Context, server, host string, qtype uint16) (ip net.IP, rtt time.Duration, err error) {
	for i := 0; i < p.retryTimes; i++ {
		ip, rtt, err = p.querier.query(ctx, server, host, qtype)
		if err == nil || ctx.Err() != nil {
			break
		}
	}
	return ip, rtt, err
}

// Probe asks server for the A and AAAA records of host. The server may
// carry a port; otherwise the transport's default is used. For NetHTTPS it
// may also be a full https:// URL. RTT is that of the slower of the two
// lookups.
func (p *Prober) Probe(ctx context.Context, server, host string) Result {
	type lookupResult struct {
		ip  net.IP
		rtt time.Duration
		err error
	}
	ch4, ch6 := make(chan lookupResult, 1), make(chan lookupResult, 1)
	go func() {
		ip, rtt, err := p.lookupWithRetry(ctx, server, host, dns.TypeA)
		ch4 <- lookupResult{ip, rtt, err}
	}()
	go func() {
		ip, rtt, err := p.lookupWithRetry(ctx, server, host, dns.TypeAAAA)
		ch6 <- lookupResult{ip, rtt, err}
	}()
	result4, result6 := <-ch4, <-ch6

	res := Result{
		Server: server,
		IPv4:   result4.ip,
		IPv6:   result6.ip,
		RTT:    max(result4.rtt, result6.rtt),
	}
	if result4.err != nil {
		res.Err = result4.err
	} else if result6.err != nil {
		res.Err = result6.err
	}
	return res
}

// ProbeAll probes every server concurrently. Results are in the order of
// servers.
func (p *Prober) ProbeAll(ctx context.Context, servers []string, host string) []Result {
	results := make([]Result, len(servers))
	var g errgroup.Group
	g.SetLimit(p.parallelism)
	for i, server := range servers {
		g.Go(func() error {
			results[i] = p.Probe(ctx, server, host)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
