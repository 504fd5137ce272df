package netif

import (
	"net"

	"github.com/charmbracelet/log"
	sockaddr "github.com/hashicorp/go-sockaddr"
)

// Enumerator lists the host's configured addresses in native order.
type Enumerator interface {
	Interfaces() []Interface
}

// Static is an Enumerator over a fixed list.
type Static []Interface

// Interfaces returns the list as is.
func (s Static) Interfaces() []Interface {
	return s
}

// System is an Enumerator backed by the operating system's interface table.
type System struct {
	Logger *log.Logger
}

// NewSystem creates a new System enumerator.
func NewSystem(logger *log.Logger) Enumerator {
	return &System{Logger: logger}
}

// Interfaces enumerates all IPv4 and IPv6 addresses of every adapter.
// An enumeration failure is logged and reported as an empty list.
func (s *System) Interfaces() []Interface {
	ifAddrs, err := sockaddr.GetAllInterfaces()
	if err != nil {
		logger := s.Logger
		if logger == nil {
			logger = log.Default()
		}
		logger.Warn("failed to enumerate interfaces", "err", err)
		return nil
	}
	return fromIfAddrs(ifAddrs)
}

func fromIfAddrs(ifAddrs sockaddr.IfAddrs) []Interface {
	out := make([]Interface, 0, len(ifAddrs))
	for _, ifAddr := range ifAddrs {
		var family Family
		switch ifAddr.SockAddr.Type() {
		case sockaddr.TypeIPv4:
			family = FamilyIPv4
		case sockaddr.TypeIPv6:
			family = FamilyIPv6
		default:
			continue
		}
		ipAddr := sockaddr.ToIPAddr(ifAddr.SockAddr)
		if ipAddr == nil {
			continue
		}
		ip := (*ipAddr).NetIP()
		if ip == nil {
			continue
		}
		out = append(out, Interface{
			Name:     ifAddr.Interface.Name,
			Address:  ip.String(),
			Family:   family,
			Internal: ifAddr.Interface.Flags&net.FlagLoopback != 0,
			MAC:      ifAddr.Interface.HardwareAddr.String(),
		})
	}
	return out
}
