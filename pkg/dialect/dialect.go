// Package dialect parses the interface and resolver listings of the
// supported operating systems into a common shape.
package dialect

import (
	"errors"
	"fmt"
	"slices"

	"github.com/xflash-panda/host-address/pkg/netif"
)

// Platform identifies an operating system family.
type Platform string

const (
	Linux   Platform = "linux"
	Darwin  Platform = "darwin"
	FreeBSD Platform = "freebsd"
	OpenBSD Platform = "openbsd"
	SunOS   Platform = "sunos"
	AIX     Platform = "aix"
	Windows Platform = "win32"
)

// LoopbackIP is reported for any loopback filter, whatever the listing says.
const LoopbackIP = "127.0.0.1"

// ErrUnsupportedPlatform is returned for a platform tag with no dialect.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Candidate is the address information extracted from one interface block.
// Empty fields were not found in the block.
type Candidate struct {
	Name string
	IP   string
	IPv6 string
	MAC  string
}

// Source names where a dialect's input text comes from: either a command
// line or a file path. The zero Source means the dialect reads no text.
type Source struct {
	Command []string
	Path    string
}

// IsZero reports whether s names no source.
func (s Source) IsZero() bool {
	return len(s.Command) == 0 && s.Path == ""
}

// String renders the source for logs and errors.
func (s Source) String() string {
	if len(s.Command) > 0 {
		return fmt.Sprint(s.Command)
	}
	return s.Path
}

// Dialect is the parsing strategy of one operating system family.
// Parsers never fail: text they cannot make sense of yields no candidate.
type Dialect interface {
	Platform() Platform

	// AddressSource is the command whose output ParseAddress reads.
	AddressSource() Source
	// DNSSource is the command or file whose text ParseDNS reads.
	DNSSource() Source

	// ParseAddress picks the candidate for the interface filter.
	// An empty filter selects the first non-loopback block with an IPv4
	// address; otherwise the first block whose name starts with filter wins.
	// Dialects that enumerate adapters natively use ifaces instead of raw.
	ParseAddress(raw string, ifaces []netif.Interface, filter string) *Candidate
	// ParseAll returns one candidate per interface block, in listing order.
	ParseAll(raw string) []Candidate
	// ParseDNS returns every resolver address in order of appearance.
	ParseDNS(raw string) []string
}

var dialects = map[Platform]Dialect{
	Linux: &ifconfig{
		platform: Linux,
		address:  Source{Command: []string{"/sbin/ifconfig"}},
		dns:      Source{Path: DefaultResolvConf},
		mac:      macExpr("ether", "HWaddr"),
		parseDNS: parseResolvConf,
	},
	Darwin: &ifconfig{
		platform: Darwin,
		address:  Source{Command: []string{"/sbin/ifconfig"}},
		dns:      Source{Path: DefaultResolvConf},
		mac:      macExpr("ether"),
		parseDNS: parseResolvConf,
	},
	FreeBSD: &ifconfig{
		platform: FreeBSD,
		address:  Source{Command: []string{"/sbin/ifconfig"}},
		dns:      Source{Path: DefaultResolvConf},
		mac:      macExpr("ether"),
		parseDNS: parseResolvConf,
	},
	OpenBSD: &ifconfig{
		platform: OpenBSD,
		address:  Source{Command: []string{"/sbin/ifconfig"}},
		dns:      Source{Path: DefaultResolvConf},
		mac:      macExpr("lladdr", "ether"),
		parseDNS: parseResolvConf,
	},
	SunOS: &ifconfig{
		platform: SunOS,
		address:  Source{Command: []string{"/sbin/ifconfig", "-a"}},
		dns:      Source{Path: DefaultResolvConf},
		mac:      macExpr("ether"),
		parseDNS: parseSunOSDNS,
	},
	AIX: &ifconfig{
		platform: AIX,
		address:  Source{Command: []string{"/etc/ifconfig", "-a"}},
		dns:      Source{Path: DefaultResolvConf},
		mac:      macExpr("ether", "HWaddr"),
		parseDNS: parseResolvConf,
	},
	Windows: &windows{
		dns: Source{Command: []string{"ipconfig", "/all"}},
	},
}

// ForPlatform returns the dialect for a platform tag.
func ForPlatform(tag string) (Dialect, error) {
	d, ok := dialects[Platform(tag)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, tag)
	}
	return d, nil
}

// Platforms lists the supported platform tags in sorted order.
func Platforms() []Platform {
	out := make([]Platform, 0, len(dialects))
	for p := range dialects {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

func loopback(filter string) *Candidate {
	return &Candidate{Name: filter, IP: LoopbackIP}
}
