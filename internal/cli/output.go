package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/xflash-panda/host-address/pkg/probe"
)

// printer renders command output. Styles degrade to plain text when the
// writer is not a terminal.
type printer struct {
	w          io.Writer
	titleStyle lipgloss.Style
	labelStyle lipgloss.Style
	mutedStyle lipgloss.Style
	okStyle    lipgloss.Style
	failStyle  lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:          w,
		titleStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		labelStyle: r.NewStyle().Width(6).Foreground(lipgloss.Color("240")),
		mutedStyle: r.NewStyle().Foreground(lipgloss.Color("240")),
		okStyle:    r.NewStyle().Foreground(lipgloss.Color("42")),
		failStyle:  r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

func (p *printer) line(s string) {
	fmt.Fprintln(p.w, s)
}

func (p *printer) blank() {
	fmt.Fprintln(p.w)
}

func (p *printer) title(s string) {
	if s == "" {
		s = "(default)"
	}
	fmt.Fprintln(p.w, p.titleStyle.Render(s))
}

// field prints one "label value" row; absent values print as "-".
func (p *printer) field(label, value string) {
	if value == "" {
		value = p.mutedStyle.Render("-")
	}
	fmt.Fprintln(p.w, p.labelStyle.Render(label)+" "+value)
}

func (p *printer) probe(res probe.Result) {
	if !res.OK() {
		fmt.Fprintf(p.w, "%s %s %s\n", res.Server, p.failStyle.Render("fail"), p.mutedStyle.Render(res.Err.Error()))
		return
	}
	fmt.Fprintf(p.w, "%s %s %s %s %s\n", res.Server, p.okStyle.Render("ok"),
		res.RTT.Round(time.Millisecond), ipOrDash(res.IPv4), ipOrDash(res.IPv6))
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ipOrDash(ip net.IP) string {
	if ip == nil {
		return "-"
	}
	return ip.String()
}

// probeReport is the JSON form of a probe.Result.
type probeReport struct {
	Server string  `json:"server"`
	OK     bool    `json:"ok"`
	IPv4   string  `json:"ipv4,omitempty"`
	IPv6   string  `json:"ipv6,omitempty"`
	RTTMs  float64 `json:"rtt_ms"`
	Error  string  `json:"error,omitempty"`
}

func newProbeReport(res probe.Result) probeReport {
	r := probeReport{
		Server: res.Server,
		OK:     res.OK(),
		RTTMs:  float64(res.RTT) / float64(time.Millisecond),
	}
	if res.IPv4 != nil {
		r.IPv4 = res.IPv4.String()
	}
	if res.IPv6 != nil {
		r.IPv6 = res.IPv6.String()
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	return r
}
