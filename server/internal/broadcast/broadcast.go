// Package broadcast fans a diagnostic event out to every registered
// subscriber.
package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/consolerelay/consolerelay/pkg/types"
	"github.com/consolerelay/consolerelay/server/internal/metrics"
	"github.com/consolerelay/consolerelay/server/internal/registry"
	"github.com/consolerelay/consolerelay/server/internal/sanitize"
	"github.com/consolerelay/consolerelay/server/internal/store"
)

// Dispatcher serializes events once and delivers the same bytes to each
// connection in registry order. Delivery is best effort: a failing
// connection is logged and skipped.
//
// Recording an event and fanning it out happen under one lock, which Join
// also holds, so a joining connection sees each kind's latest event last.
type Dispatcher struct {
	reg     *registry.Registry
	metrics *metrics.Metrics
	last    *store.Store

	mu sync.Mutex
}

// New creates a Dispatcher over reg. When last is non-nil every event is
// recorded there before it is sent. m and last may be nil.
func New(reg *registry.Registry, m *metrics.Metrics, last *store.Store) *Dispatcher {
	return &Dispatcher{reg: reg, metrics: m, last: last}
}

// Broadcast strips ANSI sequences from items and sends
// {"type": kind, "data": items} to every registered connection.
func (d *Dispatcher) Broadcast(kind types.Kind, items []string) {
	ev := types.NewEvent(kind, sanitize.All(items))
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("broadcast: encode event", "type", kind, "err", err)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.metrics.Broadcast(kind)
	if d.last != nil {
		d.last.Put(ev, data)
	}

	sent := 0
	for c := range d.reg.All() {
		if err := c.Send(data); err != nil {
			d.metrics.SendFailed()
			slog.Warn("broadcast: send failed", "conn", c.ID(), "type", kind, "err", err)
			continue
		}
		d.metrics.MessageSent()
		sent++
	}
	slog.Debug("broadcast: dispatched", "type", kind, "items", len(ev.Data), "conns", sent)
}

// Join registers c and queues the live recorded events to it, warnings
// first. A broadcast runs entirely before or after Join, so c never receives
// a replayed event after a newer one of the same kind. The first failed
// replay send is returned; c stays registered.
func (d *Dispatcher) Join(c registry.Conn) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.reg.Add(c)
	if d.last == nil {
		return nil
	}
	for _, data := range d.last.Payloads() {
		if err := c.Send(data); err != nil {
			return fmt.Errorf("broadcast: replay to %s: %w", c.ID(), err)
		}
	}
	return nil
}

// Warnings broadcasts items as a warnings event.
func (d *Dispatcher) Warnings(items []string) { d.Broadcast(types.KindWarnings, items) }

// Errors broadcasts items as an errors event.
func (d *Dispatcher) Errors(items []string) { d.Broadcast(types.KindErrors, items) }
