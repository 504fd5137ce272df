// Package cli implements the hostaddr command.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/xflash-panda/host-address/pkg/address"
	"github.com/xflash-panda/host-address/pkg/source"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usage = `hostaddr reports this host's network identity.

Usage:
  hostaddr [global flags] <command> [flags]

Commands:
  address  IPv4, IPv6 and MAC address of an interface
  mac      MAC address of the default interface
  ip       IPv4 (or IPv6 with -6) address of an interface
  dns      configured DNS resolvers, optionally probed
  version  print the version

Global flags:
  -platform string   parse as this platform instead of detecting it
  -log-level string  debug|info|warn|error (default "warn")
  -timeout duration  overall timeout (default 5s)
`

// App runs commands against a lookup built from its flags.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	// Options are applied after the ones derived from flags.
	Options []address.Option
}

// Run executes the command line with the process's standard streams and
// returns the exit code.
func Run(args []string) int {
	app := &App{Stdout: os.Stdout, Stderr: os.Stderr}
	return app.Run(args)
}

type globalFlags struct {
	platform string
	logLevel string
	timeout  time.Duration
}

// Run executes the command line and returns the exit code.
func (a *App) Run(args []string) int {
	fs := flag.NewFlagSet("hostaddr", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	g := &globalFlags{}
	fs.StringVar(&g.platform, "platform", "", "")
	fs.StringVar(&g.logLevel, "log-level", "warn", "")
	fs.DurationVar(&g.timeout, "timeout", source.DefaultTimeout, "")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(a.Stdout, usage)
			return exitOK
		}
		return a.usageError(err)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprint(a.Stderr, usage)
		return exitUsage
	}

	level, err := log.ParseLevel(g.logLevel)
	if err != nil {
		return a.usageError(err)
	}
	logger := log.NewWithOptions(a.Stderr, log.Options{Level: level, Prefix: "hostaddr"})

	var run func(ctx context.Context, e *env, args []string) error
	switch rest[0] {
	case "address":
		run = runAddress
	case "mac":
		run = runMAC
	case "ip":
		run = runIP
	case "dns":
		run = runDNS
	case "version":
		fmt.Fprintf(a.Stdout, "hostaddr %s\n", Version)
		return exitOK
	case "help":
		fmt.Fprint(a.Stdout, usage)
		return exitOK
	default:
		return a.usageError(fmt.Errorf("unknown command %q", rest[0]))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeoutOrDefault(g.timeout))
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := a.newEnv(g, logger)
	if err := run(ctx, e, rest[1:]); err != nil {
		var uerr usageErr
		if errors.As(err, &uerr) {
			return a.usageError(uerr.err)
		}
		logger.Error("command failed", "command", rest[0], "err", err)
		return exitError
	}
	return exitOK
}

func (a *App) usageError(err error) int {
	fmt.Fprintf(a.Stderr, "hostaddr: %v\n\n%s", err, usage)
	return exitUsage
}

// usageErr marks a command error caused by bad flags.
type usageErr struct {
	err error
}

func (e usageErr) Error() string {
	return e.err.Error()
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return source.DefaultTimeout
	}
	return timeout
}

// env is what a command needs to do its work.
type env struct {
	opts   []address.Option
	logger *log.Logger
	out    *printer
}

func (a *App) newEnv(g *globalFlags, logger *log.Logger) *env {
	opts := []address.Option{
		address.WithLogger(logger),
		address.WithRunner(source.NewExec(timeoutOrDefault(g.timeout))),
	}
	if g.platform != "" {
		opts = append(opts, address.WithPlatform(g.platform))
	}
	return &env{
		opts:   append(opts, a.Options...),
		logger: logger,
		out:    newPrinter(a.Stdout),
	}
}

// lookup builds a cached lookup; extra options come last.
func (e *env) lookup(extra ...address.Option) *address.Cached {
	opts := append(append([]address.Option{}, e.opts...), extra...)
	return address.NewCached(address.New(opts...), address.DefaultCacheSize, 0)
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return usageErr{err}
	}
	if fs.NArg() > 0 {
		return usageErr{fmt.Errorf("%s: unexpected argument %q", fs.Name(), fs.Arg(0))}
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
