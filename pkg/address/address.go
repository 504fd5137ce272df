// Package address discovers the host's primary IPv4 and IPv6 addresses,
// its MAC address and its configured DNS resolvers.
package address

import (
	"encoding/json"
	"net/netip"

	"github.com/xflash-panda/host-address/pkg/dialect"
	"github.com/xflash-panda/host-address/pkg/netif"
)

// Address is the resolved network identity of the host.
// Empty fields are absent; present fields always hold a valid literal.
type Address struct {
	IP   string // IPv4 dotted quad
	IPv6 string // IPv6 literal without zone or prefix length
	MAC  string // Six colon-separated hex groups, as the OS printed them
}

// IsZero reports whether nothing was resolved.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalJSON encodes absent fields as null.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		IP   *string `json:"ip"`
		IPv6 *string `json:"ipv6"`
		MAC  *string `json:"mac"`
	}{nullable(a.IP), nullable(a.IPv6), nullable(a.MAC)})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Resolve merges the selected interface and the parsed candidate into one
// record. The selected interface's address always wins; the candidate fills
// whatever is left. Either argument may be nil.
func Resolve(selected *netif.Interface, candidate *dialect.Candidate) Address {
	return resolve(candidate, selected)
}

func resolve(candidate *dialect.Candidate, selected ...*netif.Interface) Address {
	if candidate != nil && candidate.IP == dialect.LoopbackIP && netif.IsLoopbackName(candidate.Name) {
		return Address{IP: dialect.LoopbackIP}
	}
	var a Address
	for _, sel := range selected {
		if sel == nil {
			continue
		}
		switch sel.Family {
		case netif.FamilyIPv4:
			if a.IP == "" {
				a.IP = validIPv4(sel.Address)
			}
		case netif.FamilyIPv6:
			if a.IPv6 == "" {
				a.IPv6 = validIPv6(sel.Address)
			}
		}
		if a.MAC == "" && sel.HasMAC() {
			a.MAC = sel.MAC
		}
	}
	if candidate == nil {
		return a
	}
	if a.IP == "" {
		a.IP = validIPv4(candidate.IP)
	}
	if a.IPv6 == "" {
		a.IPv6 = validIPv6(candidate.IPv6)
	}
	if a.MAC == "" && netif.IsMAC(candidate.MAC) {
		a.MAC = candidate.MAC
	}
	return a
}

func validIPv4(s string) string {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return ""
	}
	return addr.String()
}

func validIPv6(s string) string {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is6() || addr.Is4In6() {
		return ""
	}
	return addr.WithZone("").String()
}
