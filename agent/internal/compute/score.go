package compute

// Weight constants for the delivery score formula.
// They must sum to 1.0.
const (
	weightDelivery = 0.70
	weightUptime   = 0.30
)

// State constants returned by the score calculator.
const (
	StateHealthy  = "healthy"
	StateDegraded = "degraded"
	StateCritical = "critical"
	StateUnknown  = "unknown"
)

// Thresholds that map a score to a health state.
const (
	ThresholdHealthy  = 85.0
	ThresholdDegraded = 60.0
)

// Input holds the normalised values fed into the score formula.
// All percentage fields are in the range 0–100.
type Input struct {
	// FailurePct is the percentage of messages that could not be queued to a
	// browser connection. 0 = every message delivered.
	FailurePct float64

	// UptimePct is the percentage of recent scrapes that reached the relay.
	UptimePct float64
}

// Output is the result of the score calculation.
type Output struct {
	// Score is the composite health score in the range 0–100.
	Score float64

	// State is one of: "healthy", "degraded", "critical", "unknown".
	State string

	DeliveryFactor float64
	UptimeFactor   float64
}

// Compute calculates the relay delivery score:
//
//	score = (
//	    (1 - failure_pct/100) * 0.70  +
//	    uptime_pct/100        * 0.30
//	) * 100
//
// A relay that has never been reached (UptimePct 0) is "unknown".
func Compute(in Input) Output {
	if in.UptimePct == 0 {
		return Output{State: StateUnknown}
	}

	deliveryFactor := 1 - clamp01(in.FailurePct/100)
	uptimeFactor := clamp01(in.UptimePct / 100)

	score := (deliveryFactor*weightDelivery + uptimeFactor*weightUptime) * 100

	return Output{
		Score:          score,
		State:          stateFromScore(score),
		DeliveryFactor: deliveryFactor,
		UptimeFactor:   uptimeFactor,
	}
}

// stateFromScore maps a numeric score to a named health state.
func stateFromScore(score float64) string {
	switch {
	case score >= ThresholdHealthy:
		return StateHealthy
	case score >= ThresholdDegraded:
		return StateDegraded
	default:
		return StateCritical
	}
}

// clamp01 restricts v to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
