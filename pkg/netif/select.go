package netif

import "strings"

// Select returns the first entry of the given family, in enumeration order.
// Without a filter, internal and 127.0.0.0/8 entries are skipped. With a
// filter, only entries whose name starts with it are considered, and
// internal ones are eligible so that "lo" finds the loopback adapter.
// Select returns nil if nothing qualifies.
func Select(ifaces []Interface, family Family, filter string) *Interface {
	for i := range ifaces {
		item := ifaces[i]
		if item.Family != family {
			continue
		}
		if filter == "" {
			if item.Internal || strings.HasPrefix(item.Address, "127.") {
				continue
			}
		} else if !strings.HasPrefix(item.Name, filter) {
			continue
		}
		return &item
	}
	return nil
}

// Adapter returns every entry that shares the given adapter name, in order.
func Adapter(ifaces []Interface, name string) []Interface {
	var out []Interface
	for _, item := range ifaces {
		if item.Name == name {
			out = append(out, item)
		}
	}
	return out
}
