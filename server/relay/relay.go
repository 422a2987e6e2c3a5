package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/consolerelay/consolerelay/pkg/types"
	"github.com/consolerelay/consolerelay/server/internal/alerts"
	relayapi "github.com/consolerelay/consolerelay/server/internal/api"
	"github.com/consolerelay/consolerelay/server/internal/asset"
	"github.com/consolerelay/consolerelay/server/internal/broadcast"
	"github.com/consolerelay/consolerelay/server/internal/config"
	"github.com/consolerelay/consolerelay/server/internal/esbuildhost"
	"github.com/consolerelay/consolerelay/server/internal/inject"
	"github.com/consolerelay/consolerelay/server/internal/lifecycle"
	"github.com/consolerelay/consolerelay/server/internal/metrics"
	"github.com/consolerelay/consolerelay/server/internal/registry"
	"github.com/consolerelay/consolerelay/server/internal/store"
	"github.com/consolerelay/consolerelay/server/internal/ws"
)

// ErrAlreadyStarted is returned by Start on a Plugin that has been started.
var ErrAlreadyStarted = errors.New("relay: already started")

// Options configures a Plugin. It is the relay section of the server config.
type Options = config.RelayConfig

// Aliases so hosts outside this module can name the hook types.
type (
	Host         = lifecycle.Host
	Compilation  = lifecycle.Compilation
	Stats        = lifecycle.Stats
	Summary      = lifecycle.Summary
	AlertsConfig = config.AlertsConfig
	Alert        = alerts.Alert
)

// DefaultOptions returns the standard ports and paths.
func DefaultOptions() Options {
	return config.DefaultRelay()
}

// Option customises a Plugin beyond its Options.
type Option func(*Plugin)

// WithAlerts evaluates cfg's rules after every build.
func WithAlerts(cfg AlertsConfig) Option {
	return func(p *Plugin) {
		if len(cfg.Rules) > 0 {
			p.alerts = alerts.New(cfg)
		}
	}
}

// Plugin relays build diagnostics to browser consoles.
type Plugin struct {
	reg     *registry.Registry
	metrics *metrics.Metrics
	last    *store.Store // nil when replay is disabled
	disp    *broadcast.Dispatcher
	hub     *ws.Hub
	alerts  *alerts.Engine
	adapter *lifecycle.Adapter

	mu       sync.Mutex
	opts     Options
	started  bool
	closed   bool
	injector *inject.Injector
	assetLn  net.Listener
	msgLn    net.Listener
	assetSrv *http.Server
	msgSrv   *http.Server
	cancel   context.CancelFunc
}

// New creates an unstarted Plugin.
func New(opts Options, options ...Option) *Plugin {
	p := &Plugin{
		opts:    opts,
		reg:     registry.New(),
		metrics: metrics.New(),
	}
	if opts.ReplayTTL > 0 {
		p.last = store.New(opts.ReplayTTL)
	}
	p.disp = broadcast.New(p.reg, p.metrics, p.last)
	p.hub = ws.New(p.reg, p.metrics, opts.SendBuffer).WithJoin(p.disp.Join)
	for _, o := range options {
		o(p)
	}
	p.adapter = lifecycle.NewAdapter(p, p.disp, p.buildDone)
	return p
}

// Start binds the asset and messaging listeners and begins serving. A bind
// failure is returned as is; nothing is retried. The bound ports replace
// any zero ports in the options, so the injected snippet points at them.
//
// A Plugin can be started once.
func (p *Plugin) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return ErrAlreadyStarted
	}
	if err := config.ValidateRelay(p.opts); err != nil {
		return fmt.Errorf("relay: %w", err)
	}

	assetHandler := relayapi.New(asset.FS(p.opts.AssetDir), p.opts.AssetPath, p.last, p.metrics)
	msgMux := http.NewServeMux()
	msgMux.Handle(p.opts.MessagingPrefix, p.hub)

	assetLn, err := net.Listen("tcp", hostPort(p.opts.Host, p.opts.AssetPort))
	if err != nil {
		return fmt.Errorf("relay: listen asset port %d: %w", p.opts.AssetPort, err)
	}
	msgLn, err := net.Listen("tcp", hostPort(p.opts.Host, p.opts.MessagingPort))
	if err != nil {
		assetLn.Close()
		return fmt.Errorf("relay: listen messaging port %d: %w", p.opts.MessagingPort, err)
	}
	p.opts.AssetPort = boundPort(assetLn)
	p.opts.MessagingPort = boundPort(msgLn)
	p.assetLn, p.msgLn = assetLn, msgLn
	p.injector = inject.New(p.opts.AssetURL(), p.opts.MessagingURL())

	p.assetSrv = &http.Server{Handler: assetHandler, ReadHeaderTimeout: 10 * time.Second}
	p.msgSrv = &http.Server{Handler: msgMux, ReadHeaderTimeout: 10 * time.Second}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	if p.last != nil {
		go p.last.Run(runCtx)
	}

	go serve("asset", p.assetSrv, assetLn)
	go serve("messaging", p.msgSrv, msgLn)
	p.started = true

	slog.Info("relay: started",
		"asset_url", p.opts.AssetURL(),
		"messaging_url", p.opts.MessagingURL(),
		"replay_ttl", p.opts.ReplayTTL,
	)
	return nil
}

// Close shuts both servers down and disconnects every browser. It is safe to
// call more than once and on a Plugin that never started.
func (p *Plugin) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.started || p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	errs := []error{
		p.assetSrv.Shutdown(ctx),
		p.msgSrv.Shutdown(ctx),
	}
	// Hijacked WebSocket connections are not tracked by Shutdown.
	p.hub.Close()
	if p.alerts != nil {
		p.alerts.Wait()
	}
	slog.Info("relay: stopped")
	return errors.Join(errs...)
}

// Apply hooks p into h. Call it once per host.
func (p *Plugin) Apply(h Host) {
	p.adapter.Apply(h)
}

// ESBuild returns an esbuild plugin with p applied to it.
func (p *Plugin) ESBuild() api.Plugin {
	h := esbuildhost.New()
	p.Apply(h)
	return h.Plugin()
}

// InjectScript taps c with the bootstrap snippet. Before Start the snippet
// uses the configured ports.
func (p *Plugin) InjectScript(c Compilation) {
	p.mu.Lock()
	inj := p.injector
	if inj == nil {
		inj = inject.New(p.opts.AssetURL(), p.opts.MessagingURL())
	}
	p.mu.Unlock()
	inj.InjectScript(c)
}

// Broadcast sends items as kind to every connected browser.
func (p *Plugin) Broadcast(kind types.Kind, items []string) {
	p.disp.Broadcast(kind, items)
}

// Clients returns the number of connected browsers.
func (p *Plugin) Clients() int {
	return p.hub.Count()
}

// Alerts returns the firing build alerts and those resolved within the
// last hour.
func (p *Plugin) Alerts() []*Alert {
	if p.alerts == nil {
		return nil
	}
	return p.alerts.Active()
}

// AssetURL is the URL of the companion script.
func (p *Plugin) AssetURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts.AssetURL()
}

// MessagingURL is the WebSocket URL browsers connect to.
func (p *Plugin) MessagingURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts.MessagingURL()
}

// AssetAddr is the bound asset listener address, empty before Start.
func (p *Plugin) AssetAddr() string {
	return p.addr(func() net.Listener { return p.assetLn })
}

// MessagingAddr is the bound messaging listener address, empty before Start.
func (p *Plugin) MessagingAddr() string {
	return p.addr(func() net.Listener { return p.msgLn })
}

func (p *Plugin) addr(ln func() net.Listener) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l := ln(); l != nil {
		return l.Addr().String()
	}
	return ""
}

func (p *Plugin) buildDone(sum Summary) {
	p.metrics.BuildCompleted()
	if p.alerts != nil {
		p.alerts.Evaluate(sum)
	}
}

func serve(name string, srv *http.Server, ln net.Listener) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("relay: server stopped", "server", name, "err", err)
	}
}

func hostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func boundPort(ln net.Listener) int {
	if a, ok := ln.Addr().(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}
