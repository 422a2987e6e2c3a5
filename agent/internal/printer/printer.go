// Package printer writes relay events and health lines to a terminal.
package printer

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/consolerelay/consolerelay/agent/internal/compute"
	"github.com/consolerelay/consolerelay/agent/internal/config"
	"github.com/consolerelay/consolerelay/pkg/types"
)

const (
	ansiReset  = "\x1b[0m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiDim    = "\x1b[2m"
)

// Printer formats events one diagnostic per line. Its output settings can
// be replaced while it is in use.
type Printer struct {
	mu  sync.Mutex // serializes writes
	w   io.Writer
	out atomic.Pointer[config.OutputConfig]
}

// New creates a Printer writing to w.
func New(w io.Writer, out config.OutputConfig) *Printer {
	p := &Printer{w: w}
	p.SetOutput(out)
	return p
}

// SetOutput replaces the output settings.
func (p *Printer) SetOutput(out config.OutputConfig) {
	p.out.Store(&out)
}

// Handle prints ev. Multi-line diagnostics keep their continuation lines,
// indented under the prefix.
func (p *Printer) Handle(ev types.Event) {
	out := p.out.Load()
	if !out.Shows(ev.Type) || (out.SkipEmpty && len(ev.Data) == 0) {
		return
	}

	var b strings.Builder
	prefix := label(ev.Type)
	if len(ev.Data) == 0 {
		fmt.Fprintf(&b, "%s none\n", paint(out.Color, colorOf(ev.Type), prefix))
	}
	for _, item := range ev.Data {
		lines := strings.Split(strings.TrimRight(item, "\n"), "\n")
		fmt.Fprintf(&b, "%s %s\n", paint(out.Color, colorOf(ev.Type), prefix), lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintf(&b, "%s %s\n", strings.Repeat(" ", len(prefix)), l)
		}
	}
	p.write(b.String())
}

// Status prints one relay health line.
func (p *Printer) Status(r *compute.Result) {
	out := p.out.Load()
	var line string
	if r.ErrorMessage != "" {
		line = fmt.Sprintf("[relay] %s: %s", r.State, r.ErrorMessage)
	} else {
		line = fmt.Sprintf("[relay] %s score=%.0f browsers=%.0f builds/min=%.1f failures=%.1f%% uptime=%.0f%%",
			r.State, r.Score, r.OpenConnections, r.BuildsPM, r.FailurePct, r.UptimePct)
	}
	p.write(paint(out.Color, ansiDim, line) + "\n")
}

func (p *Printer) write(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, s)
}

func label(k types.Kind) string {
	if k == types.KindErrors {
		return "[error]"
	}
	return "[warn] "
}

func colorOf(k types.Kind) string {
	if k == types.KindErrors {
		return ansiRed
	}
	return ansiYellow
}

func paint(on bool, color, s string) string {
	if !on {
		return s
	}
	return color + s + ansiReset
}
