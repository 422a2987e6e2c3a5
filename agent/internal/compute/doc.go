// Package compute derives relay health from raw scraper output.
//
// score.go provides the pure Compute(Input) function that calculates the
// composite delivery score (0–100): delivery(70%) + uptime(30%), where the
// delivery factor is the share of messages queued to browsers without a send
// failure.
//
// engine.go provides the stateful Engine that keeps the previous scrape as a
// counter baseline and derives per-minute rates from deltas between scrapes.
// Engine.Process accepts an injectable time.Time so tests are deterministic.
//
// Health state thresholds: Healthy ≥85, Degraded 60–84, Critical <60, Unknown.
package compute
