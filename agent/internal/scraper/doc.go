// Package scraper polls a relay's /metrics endpoint. The relay exposes its
// counters in the Prometheus text format; Scrape parses them with expfmt and
// returns a ScrapeResult holding the raw totals (connections, broadcasts per
// kind, messages sent, send failures, asset requests, builds). The compute
// engine derives rates and a health state from consecutive results.
package scraper
