package compute

import (
	"log/slog"
	"sync"
	"time"

	"github.com/consolerelay/consolerelay/agent/internal/scraper"
)

// uptimeWindow is the number of recent scrape outcomes tracked for uptime %.
const uptimeWindow = 20

// Result is the derived health of a relay at one point in time.
type Result struct {
	Timestamp time.Time
	State     string
	Score     float64
	UptimePct float64

	// FailurePct is the share of messages since the previous scrape that
	// could not be queued to a browser.
	FailurePct float64

	// Per-minute rates since the previous scrape.
	BuildsPM     float64
	BroadcastsPM float64
	MessagesPM   float64

	OpenConnections float64
	ErrorMessage    string // non-empty when the scrape failed
}

// Engine keeps the counter baseline and uptime history of one relay.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	mu          sync.Mutex
	prev        *scraper.ScrapeResult
	prevTime    time.Time
	hasBaseline bool
	history     []bool // scrape outcomes, newest last
}

// NewEngine returns a ready-to-use Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Process ingests a ScrapeResult and returns derived health.
//
// The first successful call records the baseline counter values and returns
// a Result with State "unknown"; rates need a delta.
func (e *Engine) Process(res *scraper.ScrapeResult, now time.Time) *Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	success := res.Err == nil
	e.recordScrape(success)

	out := &Result{
		Timestamp: now,
		UptimePct: e.uptimePct(),
	}

	if !success {
		slog.Warn("compute: scrape failed, marking unknown", "err", res.Err)
		out.State = StateUnknown
		out.ErrorMessage = res.Err.Error()
		return out
	}

	out.OpenConnections = res.OpenConnections

	if !e.hasBaseline {
		out.State = StateUnknown
		e.updateBaseline(res, now)
		return out
	}

	elapsed := now.Sub(e.prevTime).Minutes()
	if elapsed <= 0 {
		elapsed = 1 // guard against zero or negative clock drift
	}

	delta := func(k string) float64 { return deltaOf(res.Counters[k], e.prev.Counters[k]) }

	sent := delta("messages_sent")
	failed := delta("send_failures")
	if total := sent + failed; total > 0 {
		out.FailurePct = failed / total * 100
	}
	out.BuildsPM = delta("builds") / elapsed
	out.BroadcastsPM = (delta("warnings") + delta("errors")) / elapsed
	out.MessagesPM = sent / elapsed

	score := Compute(Input{FailurePct: out.FailurePct, UptimePct: out.UptimePct})
	out.State = score.State
	out.Score = score.Score

	e.updateBaseline(res, now)
	return out
}

func (e *Engine) updateBaseline(res *scraper.ScrapeResult, now time.Time) {
	e.prev = res
	e.prevTime = now
	e.hasBaseline = true
}

func (e *Engine) recordScrape(success bool) {
	if len(e.history) >= uptimeWindow {
		e.history = e.history[1:]
	}
	e.history = append(e.history, success)
}

func (e *Engine) uptimePct() float64 {
	if len(e.history) == 0 {
		return 100 // assume up before first observation
	}
	var ok int
	for _, s := range e.history {
		if s {
			ok++
		}
	}
	return float64(ok) / float64(len(e.history)) * 100
}

// deltaOf returns the positive counter delta between current and previous.
// If current < previous (counter reset after a relay restart), returns 0.
func deltaOf(current, previous float64) float64 {
	d := current - previous
	if d < 0 {
		return 0
	}
	return d
}
