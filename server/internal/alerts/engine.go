package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/consolerelay/consolerelay/server/internal/config"
	"github.com/consolerelay/consolerelay/server/internal/lifecycle"
)

const (
	defaultCooldown   = 5 * time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 1
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates alert rules against finished builds and delivers webhook
// notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []config.AlertRule
	webhooks []config.WebhookConfig

	mu       sync.Mutex
	active   map[string]*Alert    // key: rule name
	lastFire map[string]time.Time // last fire time per rule (for cooldown)
	history  []*Alert             // recently resolved alerts
	client   *http.Client
	now      func() time.Time
	wg       sync.WaitGroup
}

// New creates an Engine from the alerts configuration.
// An Engine with no rules is valid; Evaluate is then a no-op.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// Evaluate tests all configured rules against a finished build.
// Alerts that fire are stored and webhook delivery is triggered asynchronously.
// Alerts that were firing but whose condition is now false are resolved.
func (e *Engine) Evaluate(sum lifecycle.Summary) {
	if len(e.rules) == 0 {
		return
	}

	now := e.now()
	for _, rule := range e.rules {
		fires, value := evalCondition(rule.Condition, sum)

		e.mu.Lock()
		if fires {
			_, firing := e.active[rule.Name]
			cooldown := rule.Cooldown
			if cooldown <= 0 {
				cooldown = defaultCooldown
			}
			if firing || now.Sub(e.lastFire[rule.Name]) <= cooldown {
				e.mu.Unlock()
				continue
			}
			sev := rule.Severity
			if sev == "" {
				sev = "warning"
			}
			a := &Alert{
				ID:       fmt.Sprintf("%s:%d", rule.Name, now.UnixNano()),
				RuleName: rule.Name,
				Severity: sev,
				Value:    value,
				Message: fmt.Sprintf("[%s] %s fired: %s (value %.0f)",
					sev, rule.Name, rule.Condition, value),
				FiredAt: now,
				State:   "firing",
			}
			e.active[rule.Name] = a
			e.lastFire[rule.Name] = now
			alertCopy := *a
			e.mu.Unlock()

			slog.Warn("alert fired", "rule", rule.Name, "value", value, "severity", sev)
			e.dispatch(&alertCopy)
			continue
		}

		a, ok := e.active[rule.Name]
		if !ok {
			e.mu.Unlock()
			continue
		}
		resolved := now
		a.State = "resolved"
		a.ResolvedAt = &resolved
		delete(e.active, rule.Name)

		e.history = append(e.history, a)
		if len(e.history) > maxHistoryLen {
			e.history = e.history[len(e.history)-maxHistoryLen:]
		}
		alertCopy := *a
		e.mu.Unlock()

		slog.Info("alert resolved", "rule", rule.Name)
		e.dispatch(&alertCopy)
	}
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindowHours * time.Hour)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out
}

// Wait blocks until every in-flight webhook delivery has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) dispatch(a *Alert) {
	if len(e.webhooks) == 0 {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.deliver(a)
	}()
}
