// Package trace defines the evaluation trace written by the external
// evaluator: one simulated run of a trained policy, sampled on a shared
// timeline, with one entry per flow in insertion order.
package trace

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flowforge-sim/remyr-sweep/remyr/internal/schema"
	"github.com/flowforge-sim/remyr-sweep/remyr/series"
)

// Flow holds one flow's series, aligned to Trace.Timestamps.
type Flow struct {
	BandwidthKbps []float64      `json:"bandwidth_kbps"`
	RTTMs         []series.Float `json:"rtt_ms"`  // missing = no packets acked in the window
	Utility       []series.Float `json:"utility"` // missing while the flow is inactive
}

// Trace is one evaluation run. Flow order is flow identity and is stable
// across the whole trace.
type Trace struct {
	Timestamps       []float64       `json:"timestamps"`
	Flows            []Flow          `json:"flows"`
	ActiveSenders    []int           `json:"active_senders"`
	AggregateUtility []series.Float  `json:"aggregate_utility"` // missing when no flow is active
	Network          json.RawMessage `json:"network,omitempty"` // sampled network, opaque here
}

// Len returns the number of samples.
func (t *Trace) Len() int {
	return len(t.Timestamps)
}

// Validate checks alignment, ordering and bounds. It never repairs a trace.
func (t *Trace) Validate() error {
	if len(t.Flows) == 0 {
		return schema.Violationf("trace has no flows")
	}
	if err := schema.StrictlyIncreasing("timestamps", t.Timestamps); err != nil {
		return err
	}
	n := t.Len()
	if err := schema.Aligned("active_senders", len(t.ActiveSenders), n); err != nil {
		return err
	}
	if err := schema.Aligned("aggregate_utility", len(t.AggregateUtility), n); err != nil {
		return err
	}
	for i, active := range t.ActiveSenders {
		if active < 0 || active > len(t.Flows) {
			return schema.Violationf("active_senders[%d]=%d outside [0, %d]", i, active, len(t.Flows))
		}
	}
	for fi, f := range t.Flows {
		prefix := fmt.Sprintf("flows[%d]", fi)
		if err := schema.Aligned(prefix+".bandwidth_kbps", len(f.BandwidthKbps), n); err != nil {
			return err
		}
		if err := schema.Aligned(prefix+".rtt_ms", len(f.RTTMs), n); err != nil {
			return err
		}
		if err := schema.Aligned(prefix+".utility", len(f.Utility), n); err != nil {
			return err
		}
		for i, rtt := range f.RTTMs {
			if rtt.Valid && rtt.Value < 0 {
				return schema.Violationf("%s.rtt_ms[%d]=%v is negative", prefix, i, rtt.Value)
			}
		}
	}
	return nil
}

// Decode parses and validates a trace document.
func Decode(data []byte) (*Trace, error) {
	if err := schema.Check(compiledSchema, data); err != nil {
		return nil, err
	}
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, schema.Violationf("decoding trace: %v", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads and validates a trace file.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	t, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Save validates the trace and writes it as JSON.
func (t *Trace) Save(path string) error {
	if err := t.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshaling trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}
