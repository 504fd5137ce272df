package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"golang.org/x/net/dns/dnsmessage"
)

const maxDNSMessageSize = 65536

// httpsQuerier speaks DNS over HTTPS (RFC 8484) to a server's /dns-query
// endpoint. Recursive DoH servers return the whole CNAME chain in one
// answer, so no chain following is done here.
type httpsQuerier struct {
	httpClient *http.Client
}

func newHTTPSQuerier(o *options, timeout time.Duration) *httpsQuerier {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = tlsConfig(o)
	if o.bindIP != nil {
		tr.DialContext = (&net.Dialer{
			Timeout:   timeout,
			LocalAddr: &net.TCPAddr{IP: o.bindIP},
		}).DialContext
	}
	return &httpsQuerier{
		httpClient: &http.Client{
			Transport: tr,
			Timeout:   timeout,
		},
	}
}

// dohURL turns a server address into a DoH endpoint.
func dohURL(server string) string {
	if strings.HasPrefix(server, "https://") {
		return server
	}
	if addr, err := netip.ParseAddr(server); err == nil && addr.Is6() {
		server = "[" + strings.ReplaceAll(server, "%", "%25") + "]"
	}
	return fmt.Sprintf("https://%s/dns-query", server)
}

func (q *httpsQuerier) query(ctx context.Context, server, host string, qtype uint16) (net.IP, time.Duration, error) {
	if !strings.HasSuffix(host, ".") {
		host += "."
	}
	name, err := dnsmessage.NewName(host)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse host %s: %w", host, err)
	}

	reqBuilder := dnsmessage.NewBuilder(nil, dnsmessage.Header{
		RecursionDesired: true,
	})
	reqBuilder.EnableCompression()
	if err := reqBuilder.StartQuestions(); err != nil {
		return nil, 0, fmt.Errorf("failed to start dns questions for host %s: %w", host, err)
	}
	err = reqBuilder.Question(dnsmessage.Question{
		Name:  name,
		Type:  dnsmessage.Type(qtype),
		Class: dnsmessage.ClassINET,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build dns question for host %s: %w", host, err)
	}
	reqMsg, err := reqBuilder.Finish()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to finish dns message for host %s: %w", host, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, dohURL(server), strings.NewReader(string(reqMsg)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create http request for host %s: %w", host, err)
	}
	httpReq.Header.Set("Content-Type", "application/dns-message")
	httpReq.Header.Set("Accept", "application/dns-message")

	start := time.Now()
	httpResp, err := q.httpClient.Do(httpReq)
	if err != nil {
		return nil, time.Since(start), fmt.Errorf("failed to perform http request for host %s: %w", host, err)
	}
	defer func() { _ = httpResp.Body.Close() }()
	respMsg, err := io.ReadAll(io.LimitReader(httpResp.Body, maxDNSMessageSize))
	rtt := time.Since(start)
	if err != nil {
		return nil, rtt, fmt.Errorf("failed to read http response body for host %s: %w", host, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, rtt, fmt.Errorf("non-200 status-code=%d for host %s", httpResp.StatusCode, host)
	}
	if ct := httpResp.Header.Get("Content-Type"); ct != "application/dns-message" {
		return nil, rtt, fmt.Errorf("unexpected content-type=%s for host %s", ct, host)
	}

	var parser dnsmessage.Parser
	header, err := parser.Start(respMsg)
	if err != nil {
		return nil, rtt, fmt.Errorf("failed to parse dns message header for host %s: %w", host, err)
	}
	// NXDOMAIN is an answer, not a failure of the server.
	if header.RCode != dnsmessage.RCodeSuccess && header.RCode != dnsmessage.RCodeNameError {
		return nil, rtt, fmt.Errorf("dns query failed with %s for host %s", header.RCode, host)
	}
	if err := parser.SkipAllQuestions(); err != nil {
		return nil, rtt, fmt.Errorf("failed to skip dns questions for host %s: %w", host, err)
	}
	answers, err := parser.AllAnswers()
	if err != nil {
		return nil, rtt, fmt.Errorf("failed to parse dns answers for host %s: %w", host, err)
	}
	for _, rr := range answers {
		switch body := rr.Body.(type) {
		case *dnsmessage.AResource:
			if rr.Header.Type == dnsmessage.Type(qtype) {
				return net.IP(body.A[:]).To4(), rtt, nil
			}
		case *dnsmessage.AAAAResource:
			if rr.Header.Type == dnsmessage.Type(qtype) {
				return net.IP(body.AAAA[:]), rtt, nil
			}
		}
	}
	return nil, rtt, nil
}
