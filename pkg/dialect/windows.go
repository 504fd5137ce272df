package dialect

import (
	"strings"

	"github.com/xflash-panda/host-address/pkg/netif"
)

// windows reads no address text: the native adapter list already carries
// hardware addresses, so the grammar reduces to picking an adapter.
type windows struct {
	dns Source
}

func (d *windows) Platform() Platform {
	return Windows
}

func (d *windows) AddressSource() Source {
	return Source{}
}

func (d *windows) DNSSource() Source {
	return d.dns
}

// ParseAddress picks the first non-internal adapter with a usable MAC.
func (d *windows) ParseAddress(_ string, ifaces []netif.Interface, filter string) *Candidate {
	if netif.IsLoopbackName(filter) {
		return loopback(filter)
	}
	for _, item := range ifaces {
		if item.Internal || !item.HasMAC() {
			continue
		}
		if filter != "" && !strings.HasPrefix(item.Name, filter) {
			continue
		}
		c := &Candidate{Name: item.Name, MAC: item.MAC}
		for _, entry := range netif.Adapter(ifaces, item.Name) {
			switch {
			case entry.Family == netif.FamilyIPv4 && c.IP == "" && isIPv4(entry.Address):
				c.IP = entry.Address
			case entry.Family == netif.FamilyIPv6 && c.IPv6 == "" && isIPv6(entry.Address):
				c.IPv6 = entry.Address
			}
		}
		return c
	}
	return nil
}

func (d *windows) ParseAll(string) []Candidate {
	return nil
}

func (d *windows) ParseDNS(raw string) []string {
	return parseIPConfigDNS(raw)
}
