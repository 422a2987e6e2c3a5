package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Relay metric names. They match what the relay's /metrics endpoint exposes.
const (
	relayConnectionsOpen  = "console_relay_connections_open"
	relayConnectionsTotal = "console_relay_connections_total"
	relayBroadcasts       = "console_relay_broadcasts_total"
	relayMessagesSent     = "console_relay_messages_sent_total"
	relaySendFailures     = "console_relay_send_failures_total"
	relayAssetRequests    = "console_relay_asset_requests_total"
	relayBuilds           = "console_relay_builds_total"
)

// Scraper polls one relay.
type Scraper struct {
	url    string
	client *http.Client
}

// New returns a Scraper for the relay metrics endpoint at url.
func New(url string) *Scraper {
	return &Scraper{url: url, client: &http.Client{Timeout: defaultScrapeTimeout}}
}

// Scrape fetches the relay's /metrics and extracts its counters. A failed
// fetch is reported through ScrapeResult.Err, not the error return.
func (s *Scraper) Scrape(ctx context.Context) (*ScrapeResult, error) {
	res := newResult(s.url)

	mfs, err := fetchMetrics(ctx, s.client, s.url)
	if err != nil {
		res.Err = fmt.Errorf("relay scrape %q: %w", s.url, err)
		slog.Warn("scraper: relay fetch failed", "url", s.url, "err", err)
		return res, nil
	}

	res.OpenConnections = sumFamily(mfs[relayConnectionsOpen])
	res.Counters["connections"] = sumFamily(mfs[relayConnectionsTotal])
	res.Counters["warnings"] = sumLabel(mfs[relayBroadcasts], "kind", "warnings")
	res.Counters["errors"] = sumLabel(mfs[relayBroadcasts], "kind", "errors")
	res.Counters["messages_sent"] = sumFamily(mfs[relayMessagesSent])
	res.Counters["send_failures"] = sumFamily(mfs[relaySendFailures])
	res.Counters["asset_requests"] = sumFamily(mfs[relayAssetRequests])
	res.Counters["builds"] = sumFamily(mfs[relayBuilds])

	return res, nil
}
