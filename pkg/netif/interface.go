package netif

import (
	"regexp"
	"strings"
)

// Family is the address family of an Interface entry.
type Family string

const (
	FamilyIPv4 Family = "IPv4"
	FamilyIPv6 Family = "IPv6"
)

// macPattern accepts six colon-separated groups of one or two hex digits.
// Some platforms (SunOS) print groups without leading zeros.
var macPattern = regexp.MustCompile(`^(?:[0-9a-fA-F]{1,2}:){5}[0-9a-fA-F]{1,2}$`)

// Interface describes one configured address of a host adapter.
// A host with several addresses on one adapter yields several entries.
type Interface struct {
	Name     string `json:"name"`     // Adapter name as reported by the OS
	Address  string `json:"address"`  // IP literal without prefix length or zone
	Family   Family `json:"family"`   // FamilyIPv4 or FamilyIPv6
	Internal bool   `json:"internal"` // Loopback or otherwise host-local
	MAC      string `json:"mac"`      // Hardware address, empty when unknown
}

// HasMAC reports whether the entry carries a usable hardware address.
func (i Interface) HasMAC() bool {
	return UsableMAC(i.MAC)
}

// IsMAC reports whether s is a MAC literal in colon-hex form.
func IsMAC(s string) bool {
	return macPattern.MatchString(s)
}

// UsableMAC reports whether s is a MAC literal that identifies real hardware.
// All-zero and ff:00:00:00:00:00 are placeholders some OS versions report
// for adapters without a hardware address.
func UsableMAC(s string) bool {
	if !IsMAC(s) {
		return false
	}
	groups := strings.Split(strings.ToLower(s), ":")
	zero := true
	for _, g := range groups[1:] {
		if strings.TrimLeft(g, "0") != "" {
			zero = false
			break
		}
	}
	if !zero {
		return true
	}
	first := strings.TrimLeft(groups[0], "0")
	return first != "" && first != "ff"
}

// IsLoopbackName reports whether name denotes the loopback adapter (lo, lo0, lo1, ...).
func IsLoopbackName(name string) bool {
	if !strings.HasPrefix(name, "lo") {
		return false
	}
	for _, c := range name[2:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
