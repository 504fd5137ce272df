package dialect

import (
	"net/netip"
	"regexp"
	"strings"

	"github.com/xflash-panda/host-address/pkg/netif"
)

var (
	// headerPattern matches the first line of an interface block:
	// "eth0: flags=...", "eth0      Link encap:...", "qfe0:1: flags=...".
	headerPattern = regexp.MustCompile(`^(\S+?):?(?:\s|$)`)

	// ipv4Pattern accepts "inet 10.0.0.1 netmask ..." and "inet addr:10.0.0.1 ...".
	ipv4Pattern = regexp.MustCompile(`^\s*inet\s+(?:addr:)?(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})`)

	// ipv6Pattern stops before a "%zone" or "/prefix" suffix.
	ipv6Pattern = regexp.MustCompile(`^\s*inet6\s+(?:addr:\s*)?([0-9a-fA-F:.]+)`)
)

func macExpr(keywords ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|\s)(?i:` + strings.Join(keywords, "|") +
		`)\s+((?:[0-9a-fA-F]{1,2}:){5}[0-9a-fA-F]{1,2})(?:\s|$)`)
}

// ifconfig is the dialect of the Unix ifconfig family. Listings are split
// into blocks at every line that does not start with whitespace.
type ifconfig struct {
	platform Platform
	address  Source
	dns      Source
	mac      *regexp.Regexp
	parseDNS func(raw string) []string
}

func (d *ifconfig) Platform() Platform {
	return d.platform
}

func (d *ifconfig) AddressSource() Source {
	return d.address
}

func (d *ifconfig) DNSSource() Source {
	return d.dns
}

func (d *ifconfig) ParseAddress(raw string, _ []netif.Interface, filter string) *Candidate {
	if netif.IsLoopbackName(filter) {
		return loopback(filter)
	}
	for _, c := range d.ParseAll(raw) {
		if Eligible(c, filter) {
			return &c
		}
	}
	return nil
}

func (d *ifconfig) ParseAll(raw string) []Candidate {
	var out []Candidate
	var cur *Candidate
	for _, line := range splitLines(raw) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			out = append(out, Candidate{Name: m[1]})
			cur = &out[len(out)-1]
		}
		if cur == nil {
			continue
		}
		d.extract(cur, line)
	}
	return out
}

func (d *ifconfig) ParseDNS(raw string) []string {
	return d.parseDNS(raw)
}

// extract fills the fields of c that are still empty from one line.
func (d *ifconfig) extract(c *Candidate, line string) {
	if c.IP == "" {
		if m := ipv4Pattern.FindStringSubmatch(line); m != nil && isIPv4(m[1]) {
			c.IP = m[1]
		}
	}
	if c.IPv6 == "" {
		if m := ipv6Pattern.FindStringSubmatch(line); m != nil && isIPv6(m[1]) {
			c.IPv6 = m[1]
		}
	}
	if c.MAC == "" {
		if m := d.mac.FindStringSubmatch(line); m != nil {
			c.MAC = m[1]
		}
	}
}

// Eligible reports whether a candidate may be chosen for filter.
func Eligible(c Candidate, filter string) bool {
	if filter != "" {
		return strings.HasPrefix(c.Name, filter)
	}
	return !netif.IsLoopbackName(c.Name) && c.IP != "" && !strings.HasPrefix(c.IP, "127.")
}

func splitLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}

func isIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}

func isIPv6(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is6() && !addr.Is4In6()
}
