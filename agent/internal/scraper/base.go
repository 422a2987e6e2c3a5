package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const defaultScrapeTimeout = 10 * time.Second

// ScrapeResult is the normalized output of one scrape of a relay.
// Counter fields hold raw totals, not per-minute rates.
type ScrapeResult struct {
	Endpoint  string
	ScrapedAt time.Time

	// OpenConnections is the relay's current browser count (a gauge).
	OpenConnections float64

	// Counters holds the relay's totals keyed by canonical name: connections,
	// warnings, errors, messages_sent, send_failures, asset_requests, builds.
	Counters map[string]float64

	// Err is non-nil if the scrape itself failed (connectivity, parse).
	// The compute engine treats a non-nil Err as an unknown health state.
	Err error
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// sumFamily adds up all counter, gauge, or untyped values in a MetricFamily.
// Returns 0 if mf is nil (metric not present in the scrape).
func sumFamily(mf *dto.MetricFamily) float64 {
	return sumMatching(mf, "", "")
}

// sumLabel is sumFamily restricted to samples whose label name equals value.
func sumLabel(mf *dto.MetricFamily, name, value string) float64 {
	return sumMatching(mf, name, value)
}

func sumMatching(mf *dto.MetricFamily, name, value string) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		if name != "" && !hasLabel(m, name, value) {
			continue
		}
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue() == value
		}
	}
	return false
}

// newResult initialises an empty ScrapeResult with its map allocated.
func newResult(endpoint string) *ScrapeResult {
	return &ScrapeResult{
		Endpoint:  endpoint,
		ScrapedAt: time.Now().UTC(),
		Counters:  make(map[string]float64),
	}
}
