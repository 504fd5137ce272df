package address

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/xflash-panda/host-address/pkg/dialect"
	"github.com/xflash-panda/host-address/pkg/netif"
	"github.com/xflash-panda/host-address/pkg/source"
)

// Lookup answers address, MAC and DNS queries for one platform.
// It holds no mutable state and is safe for concurrent use.
type Lookup struct {
	platform   string
	runner     source.Runner
	reader     source.Reader
	enumerator netif.Enumerator
	resolvConf string
	strictMAC  bool
	logger     *log.Logger
}

// Option configures the Lookup.
type Option func(*lookupOptions)

type lookupOptions struct {
	platform   string
	runner     source.Runner
	reader     source.Reader
	enumerator netif.Enumerator
	resolvConf string
	strictMAC  bool
	logger     *log.Logger
}

// WithPlatform selects the dialect by platform tag instead of detecting it.
func WithPlatform(platform string) Option {
	return func(o *lookupOptions) {
		o.platform = platform
	}
}

// WithRunner sets the command runner used to obtain interface listings.
func WithRunner(r source.Runner) Option {
	return func(o *lookupOptions) {
		o.runner = r
	}
}

// WithReader sets the file reader used to obtain resolver configuration.
func WithReader(r source.Reader) Option {
	return func(o *lookupOptions) {
		o.reader = r
	}
}

// WithEnumerator sets the source of the host's interface list.
func WithEnumerator(e netif.Enumerator) Option {
	return func(o *lookupOptions) {
		o.enumerator = e
	}
}

// WithResolvConf overrides the resolver configuration path for dialects
// that read one.
func WithResolvConf(path string) Option {
	return func(o *lookupOptions) {
		o.resolvConf = path
	}
}

// WithStrictMAC makes MAC return acquisition errors instead of an empty result.
func WithStrictMAC(strict bool) Option {
	return func(o *lookupOptions) {
		o.strictMAC = strict
	}
}

// WithLogger sets the logger. Lookups log at debug level only, except for
// degraded MAC lookups which are logged as warnings.
func WithLogger(logger *log.Logger) Option {
	return func(o *lookupOptions) {
		o.logger = logger
	}
}

// New creates a new Lookup. Without options it detects the platform and
// uses the real command runner, file system and interface table.
func New(opts ...Option) *Lookup {
	options := &lookupOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = log.Default()
	}
	if options.platform == "" {
		options.platform = source.Detect()
	}
	if options.runner == nil {
		options.runner = source.NewExec(source.DefaultTimeout)
	}
	if options.reader == nil {
		options.reader = source.NewFS()
	}
	if options.enumerator == nil {
		options.enumerator = netif.NewSystem(options.logger)
	}
	return &Lookup{
		platform:   options.platform,
		runner:     options.runner,
		reader:     options.reader,
		enumerator: options.enumerator,
		resolvConf: options.resolvConf,
		strictMAC:  options.strictMAC,
		logger:     options.logger,
	}
}

// Platform returns the platform tag the Lookup parses for.
func (l *Lookup) Platform() string {
	return l.platform
}

// Address resolves the IPv4, IPv6 and MAC address of the first interface
// whose name starts with filter, or of the default interface when filter is
// empty. A loopback filter ("lo", "lo0") always yields 127.0.0.1.
// Nothing matching is not an error: the record is simply empty.
func (l *Lookup) Address(ctx context.Context, filter string) (Address, error) {
	d, err := dialect.ForPlatform(l.platform)
	if err != nil {
		return Address{}, err
	}
	if netif.IsLoopbackName(filter) {
		return Address{IP: dialect.LoopbackIP}, nil
	}

	ifaces := l.enumerator.Interfaces()
	sel4 := netif.Select(ifaces, netif.FamilyIPv4, filter)
	sel6 := netif.Select(ifaces, netif.FamilyIPv6, filter)

	raw, err := l.acquire(ctx, d.AddressSource())
	if err != nil {
		l.logger.Debug("address lookup failed", "platform", l.platform, "filter", filter, "err", err)
		return Address{}, err
	}
	candidate := pickCandidate(d, raw, ifaces, filter, sel4)
	a := resolve(candidate, sel4, sel6)
	l.logger.Debug("address resolved", "platform", l.platform, "filter", filter,
		"ip", a.IP, "ipv6", a.IPv6, "mac", a.MAC)
	return a, nil
}

// MAC returns the hardware address of the default interface, or "" when the
// host has no usable non-internal IPv4 interface. If the interface listing
// cannot be obtained the result is "" with no error, unless the Lookup was
// created WithStrictMAC.
func (l *Lookup) MAC(ctx context.Context) (string, error) {
	d, err := dialect.ForPlatform(l.platform)
	if err != nil {
		return "", err
	}
	ifaces := l.enumerator.Interfaces()
	sel4 := netif.Select(ifaces, netif.FamilyIPv4, "")
	if sel4 == nil {
		l.logger.Debug("no interface to look up a MAC for", "platform", l.platform)
		return "", nil
	}
	if sel4.HasMAC() {
		return sel4.MAC, nil
	}

	raw, err := l.acquire(ctx, d.AddressSource())
	if err != nil {
		if l.strictMAC {
			return "", err
		}
		l.logger.Warn("MAC lookup degraded", "platform", l.platform, "err", err)
		return "", nil
	}
	return resolve(pickCandidate(d, raw, ifaces, "", sel4), sel4).MAC, nil
}

// IP returns the IPv4 address of the interface selected by filter, or "".
// It consults only the interface table and never runs a command.
func (l *Lookup) IP(filter string) string {
	if netif.IsLoopbackName(filter) {
		return dialect.LoopbackIP
	}
	if sel := netif.Select(l.enumerator.Interfaces(), netif.FamilyIPv4, filter); sel != nil {
		return sel.Address
	}
	return ""
}

// IPv6 returns the IPv6 address of the interface selected by filter, or "".
func (l *Lookup) IPv6(filter string) string {
	if sel := netif.Select(l.enumerator.Interfaces(), netif.FamilyIPv6, filter); sel != nil {
		return sel.Address
	}
	return ""
}

// DNS returns the configured resolver addresses in configuration order.
// An empty list is not an error; failing to read the configuration is.
func (l *Lookup) DNS(ctx context.Context) ([]string, error) {
	d, err := dialect.ForPlatform(l.platform)
	if err != nil {
		return nil, err
	}
	src := d.DNSSource()
	if src.Path != "" && l.resolvConf != "" {
		src.Path = l.resolvConf
	}
	raw, err := l.acquire(ctx, src)
	if err != nil {
		return nil, err
	}
	servers := d.ParseDNS(raw)
	l.logger.Debug("resolvers parsed", "platform", l.platform, "source", src.String(), "count", len(servers))
	return servers, nil
}

func (l *Lookup) acquire(ctx context.Context, src dialect.Source) (string, error) {
	var (
		raw string
		err error
	)
	switch {
	case len(src.Command) > 0:
		raw, err = l.runner.Run(ctx, src.Command[0], src.Command[1:]...)
	case src.Path != "":
		raw, err = l.reader.ReadFile(src.Path)
	default:
		return "", nil
	}
	if err != nil {
		return "", &AcquisitionError{Source: src.String(), Err: err}
	}
	return raw, nil
}

// pickCandidate prefers the block carrying the selected interface's IPv4
// address, then falls back to the dialect's own choice.
func pickCandidate(d dialect.Dialect, raw string, ifaces []netif.Interface, filter string, sel4 *netif.Interface) *dialect.Candidate {
	if sel4 != nil {
		for _, c := range d.ParseAll(raw) {
			if c.IP == sel4.Address && dialect.Eligible(c, filter) {
				return &c
			}
		}
	}
	return d.ParseAddress(raw, ifaces, filter)
}
