package dialect

import (
	"net/netip"
	"regexp"
	"strings"
)

// DefaultResolvConf is the resolver configuration file on Unix systems.
const DefaultResolvConf = "/etc/resolv.conf"

var (
	nameserverPattern = regexp.MustCompile(`^\s*nameserver\s+(\S+)`)

	// smfNameserverPattern matches the SunOS service property listing
	// "config/nameserver net_address 10.0.0.1 10.0.0.2".
	smfNameserverPattern = regexp.MustCompile(`^\s*config/nameserver\s+net_address\s+(.+)$`)

	// ipconfigDNSPattern matches "DNS Servers . . . . . : 10.0.0.1" in ipconfig /all.
	ipconfigDNSPattern  = regexp.MustCompile(`^\s*DNS Servers[\s.]*:\s*(\S+)`)
	continuationPattern = regexp.MustCompile(`^\s+(\S+)\s*$`)
)

func parseResolvConf(raw string) []string {
	servers := []string{}
	for _, line := range splitLines(raw) {
		if m := nameserverPattern.FindStringSubmatch(line); m != nil && isIP(m[1]) {
			servers = append(servers, m[1])
		}
	}
	return servers
}

func parseSunOSDNS(raw string) []string {
	servers := []string{}
	for _, line := range splitLines(raw) {
		if m := nameserverPattern.FindStringSubmatch(line); m != nil {
			if isIP(m[1]) {
				servers = append(servers, m[1])
			}
			continue
		}
		if m := smfNameserverPattern.FindStringSubmatch(line); m != nil {
			for _, field := range strings.Fields(m[1]) {
				if isIP(field) {
					servers = append(servers, field)
				}
			}
		}
	}
	return servers
}

// parseIPConfigDNS collects the "DNS Servers" entry of every adapter and
// the continuation lines below it, which hold one address each.
func parseIPConfigDNS(raw string) []string {
	servers := []string{}
	inList := false
	for _, line := range splitLines(raw) {
		if m := ipconfigDNSPattern.FindStringSubmatch(line); m != nil {
			inList = isIP(m[1])
			if inList {
				servers = append(servers, m[1])
			}
			continue
		}
		if !inList {
			continue
		}
		if m := continuationPattern.FindStringSubmatch(line); m != nil && isIP(m[1]) {
			servers = append(servers, m[1])
			continue
		}
		inList = false
	}
	return servers
}

// isIP accepts IPv4 and IPv6 literals, the latter optionally zoned.
func isIP(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}
