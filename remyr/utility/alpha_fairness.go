package utility

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/flowforge-sim/remyr-sweep/remyr"
	"github.com/flowforge-sim/remyr-sweep/remyr/series"
)

// Span is a duration that the trainer's config files spell as a string such
// as "10s" or "150ms".
type Span time.Duration

// Seconds returns the span in seconds.
func (s Span) Seconds() float64 {
	return time.Duration(s).Seconds()
}

func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(s).String())
}

// UnmarshalJSON accepts a duration string or a plain number of seconds.
func (s *Span) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		d, err := time.ParseDuration(text)
		if err != nil {
			return fmt.Errorf("parsing span %q: %w", text, err)
		}
		*s = Span(d)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("span must be a duration string or seconds: %s", data)
	}
	*s = Span(time.Duration(secs * float64(time.Second)))
	return nil
}

// FlowProperties are one flow's averaged measurements over a window.
type FlowProperties struct {
	ThroughputBps float64
	RTT           series.Float // seconds; missing when no packet was acked
}

// AlphaFairness scores flows by alpha-fair throughput minus delta-weighted
// beta-fair round-trip delay.
type AlphaFairness struct {
	Alpha        float64 `json:"alpha"`          // throughput fairness
	Beta         float64 `json:"beta"`           // delay fairness
	Delta        float64 `json:"delta"`          // relative importance of delay
	WorstCaseRTT Span    `json:"worst_case_rtt"` // caps delay and stands in for missing RTT
}

var (
	// ProportionalThroughputDelayFairness weighs log-throughput and log-delay equally.
	ProportionalThroughputDelayFairness = AlphaFairness{
		Alpha: 1, Beta: 1, Delta: 1, WorstCaseRTT: Span(10 * time.Second),
	}

	// MinimiseFixedLengthFileTransfer ignores delay and penalises slow flows.
	MinimiseFixedLengthFileTransfer = AlphaFairness{
		Alpha: 2, Beta: 0, Delta: 0, WorstCaseRTT: Span(10 * time.Second),
	}
)

func alphaFair(x, alpha float64) float64 {
	x += 0.000_001
	if math.Abs(alpha-1) < 0.000_001 {
		return math.Log(x)
	}
	return math.Pow(x, 1-alpha) / (1 - alpha)
}

// Validate checks the parameters are usable.
func (a AlphaFairness) Validate() error {
	for name, v := range map[string]float64{"alpha": a.Alpha, "beta": a.Beta, "delta": a.Delta} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a finite non-negative number, got %v", remyr.ErrInvalidParameter, name, v)
		}
	}
	if a.WorstCaseRTT <= 0 {
		return fmt.Errorf("%w: worst_case_rtt must be positive", remyr.ErrInvalidParameter)
	}
	return nil
}

// FlowUtility scores one flow. A flow with zero throughput and worst-case
// delay scores 0.
func (a AlphaFairness) FlowUtility(p FlowProperties) float64 {
	worst := a.WorstCaseRTT.Seconds()
	rtt := worst
	if v, ok := p.RTT.Get(); ok {
		rtt = math.Min(math.Max(v, 0), worst)
	}
	throughput := alphaFair(p.ThroughputBps, a.Alpha)
	delay := -a.Delta * alphaFair(rtt, a.Beta)
	offset := alphaFair(0, a.Alpha) - a.Delta*alphaFair(worst, a.Beta)
	return throughput + delay - offset
}

// Utility averages FlowUtility over the active flows.
func (a AlphaFairness) Utility(flows []FlowProperties) (float64, error) {
	if len(flows) == 0 {
		return 0, remyr.ErrNoActiveFlows
	}
	total := 0.0
	for _, f := range flows {
		total += a.FlowUtility(f)
	}
	return total / float64(len(flows)), nil
}
