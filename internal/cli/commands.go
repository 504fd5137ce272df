package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"

	"github.com/xflash-panda/host-address/pkg/address"
	"github.com/xflash-panda/host-address/pkg/probe"
)

var errNotFound = errors.New("not found")

// namedAddress is one record of a multi-filter address listing.
type namedAddress struct {
	Filter  string          `json:"filter"`
	Address address.Address `json:"address"`
}

func runAddress(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("address", flag.ContinueOnError)
	iface := fs.String("iface", "", "comma-separated interface name prefixes")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	filters := splitCSV(*iface)
	if len(filters) == 0 {
		filters = []string{""}
	}
	lk := e.lookup()
	records := make([]namedAddress, 0, len(filters))
	for _, filter := range filters {
		a, err := lk.Address(ctx, filter)
		if err != nil {
			return fmt.Errorf("address %q: %w", filter, err)
		}
		records = append(records, namedAddress{Filter: filter, Address: a})
	}

	if *asJSON {
		if len(records) == 1 {
			return e.out.json(records[0].Address)
		}
		return e.out.json(records)
	}
	for i, rec := range records {
		if len(records) > 1 {
			if i > 0 {
				e.out.blank()
			}
			e.out.title(rec.Filter)
		}
		e.out.field("ip", rec.Address.IP)
		e.out.field("ipv6", rec.Address.IPv6)
		e.out.field("mac", rec.Address.MAC)
	}
	return nil
}

func runMAC(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("mac", flag.ContinueOnError)
	strict := fs.Bool("strict", false, "fail when the interface listing cannot be read")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	mac, err := e.lookup(address.WithStrictMAC(*strict)).MAC(ctx)
	if err != nil {
		return err
	}
	if mac == "" {
		return fmt.Errorf("MAC address: %w", errNotFound)
	}
	e.out.line(mac)
	return nil
}

func runIP(_ context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("ip", flag.ContinueOnError)
	iface := fs.String("iface", "", "interface name prefix")
	v6 := fs.Bool("6", false, "print the IPv6 address")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	lk := e.lookup()
	family, ip := "IPv4", lk.IP(*iface)
	if *v6 {
		family, ip = "IPv6", lk.IPv6(*iface)
	}
	if ip == "" {
		return fmt.Errorf("%s address for %q: %w", family, *iface, errNotFound)
	}
	e.out.line(ip)
	return nil
}

func runDNS(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("dns", flag.ContinueOnError)
	host := fs.String("probe", "", "query each resolver for this host name")
	network := fs.String("net", probe.NetUDP, "probe transport: udp|tcp|tcp-tls|https")
	bind := fs.Bool("bind", false, "send probes from the host's primary IPv4 address")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	lk := e.lookup()
	servers, err := lk.DNS(ctx)
	if err != nil {
		return err
	}
	if *host == "" {
		if *asJSON {
			return e.out.json(struct {
				Servers []string `json:"servers"`
			}{servers})
		}
		for _, s := range servers {
			e.out.line(s)
		}
		return nil
	}

	opts := []probe.Option{probe.WithNetwork(*network)}
	if *bind {
		a, err := lk.Address(ctx, "")
		if err != nil {
			return err
		}
		if a.IP == "" {
			return fmt.Errorf("bind address: %w", errNotFound)
		}
		e.logger.Debug("binding probes", "ip", a.IP)
		opts = append(opts, probe.WithBindIP(net.ParseIP(a.IP)))
	}
	p, err := probe.New(0, opts...)
	if err != nil {
		return usageErr{err}
	}

	results := p.ProbeAll(ctx, servers, *host)
	if *asJSON {
		reports := make([]probeReport, 0, len(results))
		for _, res := range results {
			reports = append(reports, newProbeReport(res))
		}
		return e.out.json(reports)
	}
	for _, res := range results {
		e.out.probe(res)
	}
	return nil
}
