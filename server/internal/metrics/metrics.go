// Package metrics counts relay activity and renders it in the Prometheus
// text exposition format.
package metrics

import (
	"fmt"
	"io"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/consolerelay/consolerelay/pkg/types"
)

const namespace = "console_relay"

// Metrics holds the relay counters. All methods are safe for concurrent use
// and are no-ops on a nil receiver.
type Metrics struct {
	connectionsOpen   atomic.Int64
	connectionsTotal  atomic.Uint64
	warningBroadcasts atomic.Uint64
	errorBroadcasts   atomic.Uint64
	messagesSent      atomic.Uint64
	sendFailures      atomic.Uint64
	assetRequests     atomic.Uint64
	builds            atomic.Uint64
}

// New returns zeroed counters.
func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connectionsOpen.Add(1)
	m.connectionsTotal.Add(1)
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsOpen.Add(-1)
}

// Broadcast records one dispatch of kind, regardless of how many
// connections received it.
func (m *Metrics) Broadcast(kind types.Kind) {
	if m == nil {
		return
	}
	switch kind {
	case types.KindWarnings:
		m.warningBroadcasts.Add(1)
	case types.KindErrors:
		m.errorBroadcasts.Add(1)
	}
}

func (m *Metrics) MessageSent() {
	if m != nil {
		m.messagesSent.Add(1)
	}
}

func (m *Metrics) SendFailed() {
	if m != nil {
		m.sendFailures.Add(1)
	}
}

func (m *Metrics) AssetServed() {
	if m != nil {
		m.assetRequests.Add(1)
	}
}

func (m *Metrics) BuildCompleted() {
	if m != nil {
		m.builds.Add(1)
	}
}

// OpenConnections returns the current number of open subscriber connections.
func (m *Metrics) OpenConnections() int64 {
	if m == nil {
		return 0
	}
	return m.connectionsOpen.Load()
}

// Gather returns the current counter values as metric families.
func (m *Metrics) Gather() []*dto.MetricFamily {
	if m == nil {
		return nil
	}
	return []*dto.MetricFamily{
		gauge("connections_open", "Subscriber connections currently open.",
			float64(m.connectionsOpen.Load())),
		counter("connections_total", "Subscriber connections accepted since start.",
			float64(m.connectionsTotal.Load())),
		{
			Name: proto.String(namespace + "_broadcasts_total"),
			Help: proto.String("Diagnostic broadcasts dispatched, by kind."),
			Type: dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{
				counterMetric(float64(m.warningBroadcasts.Load()), "kind", string(types.KindWarnings)),
				counterMetric(float64(m.errorBroadcasts.Load()), "kind", string(types.KindErrors)),
			},
		},
		counter("messages_sent_total", "Messages queued to subscriber connections.",
			float64(m.messagesSent.Load())),
		counter("send_failures_total", "Messages that could not be queued to a connection.",
			float64(m.sendFailures.Load())),
		counter("asset_requests_total", "Companion script downloads served.",
			float64(m.assetRequests.Load())),
		counter("builds_total", "Completed builds observed.",
			float64(m.builds.Load())),
	}
}

// WriteText encodes all metric families to w in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range m.Gather() {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// ContentType is the Content-Type header value matching WriteText output.
func ContentType() string {
	return string(expfmt.NewFormat(expfmt.TypeTextPlain))
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(namespace + "_" + name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{counterMetric(v)},
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(namespace + "_" + name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}

// counterMetric builds one counter sample; labels are name/value pairs.
func counterMetric(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Counter: &dto.Counter{Value: proto.Float64(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}
